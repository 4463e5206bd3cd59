package shutter

const (
	MinUs = 500  // lowest pulse width the servo accepts
	MaxUs = 2500 // highest pulse width the servo accepts

	AbsMinSpeed = 11   // us per second
	AbsMaxSpeed = 4445 // us per second
)

// ClipPosition clips a pulse width into [MinUs, MaxUs].
func ClipPosition(us int) int {
	if us < MinUs {
		return MinUs
	}
	if us > MaxUs {
		return MaxUs
	}
	return us
}

// ClipSpeed clips a speed into [AbsMinSpeed, AbsMaxSpeed].
func ClipSpeed(usPerSecond int) int {
	if usPerSecond < AbsMinSpeed {
		return AbsMinSpeed
	}
	if usPerSecond > AbsMaxSpeed {
		return AbsMaxSpeed
	}
	return usPerSecond
}
