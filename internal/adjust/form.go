package adjust

import (
	"github.com/jkaflik/birdcam/internal/query"
)

const (
	maxDegrees = 180
	maxSpeed   = 400 // degrees per second
	maxMoves   = 1000
)

// form holds the numeric fields in degrees. Missing fields are zero.
type form struct {
	open   int
	closed int
	speed  int
	moves  int
}

func parseForm(v query.Values) form {
	return form{
		open:   clamp(v.Int("openpos", 0), 0, maxDegrees),
		closed: clamp(v.Int("clpos", 0), 0, maxDegrees),
		speed:  clamp(v.Int("speed", 0), 1, maxSpeed),
		moves:  clamp(v.Int("ntimes", 0), 0, maxMoves),
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
