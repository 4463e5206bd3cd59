package shutter

// Degrees are converted to servo pulse widths with 1000 us per 90 degrees and
// 500 us at 0 degrees. Integer division is deliberate: persisted calibration
// must convert back to the same degree value shown in the adjust page.

// ToUs converts a position in degrees to a pulse width in microseconds.
func ToUs(deg int) int {
	return SpeedToUs(deg) + 500
}

// ToDeg converts a pulse width in microseconds to a position in degrees.
func ToDeg(us int) int {
	return SpeedToDeg(us - 500)
}

// SpeedToUs converts a speed in degrees per second to microseconds per second.
func SpeedToUs(deg int) int {
	return (deg*11111 + 500) / 1000
}

// SpeedToDeg converts a speed in microseconds per second to degrees per second.
func SpeedToDeg(us int) int {
	return (us*1000 + 5555) / 11111
}
