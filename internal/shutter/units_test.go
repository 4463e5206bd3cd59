package shutter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitConversion(t *testing.T) {
	t.Run("known positions", func(t *testing.T) {
		assert.Equal(t, 500, ToUs(0))
		assert.Equal(t, 1500, ToUs(90))
		assert.Equal(t, 2500, ToUs(180))
		assert.Equal(t, 0, ToDeg(500))
		assert.Equal(t, 90, ToDeg(1500))
		assert.Equal(t, 180, ToDeg(2500))
	})

	t.Run("known speeds", func(t *testing.T) {
		assert.Equal(t, 11, SpeedToUs(1))
		assert.Equal(t, 1000, SpeedToUs(90))
		assert.Equal(t, 4444, SpeedToUs(400))
		assert.Equal(t, 90, SpeedToDeg(1000))
		assert.Equal(t, 1, SpeedToDeg(11))
	})

	t.Run("degrees survive a round trip", func(t *testing.T) {
		for d := 0; d <= 180; d++ {
			assert.Equal(t, d, ToDeg(ToUs(d)), "position %d deg", d)
		}
		for d := 1; d <= 400; d++ {
			assert.Equal(t, d, SpeedToDeg(SpeedToUs(d)), "speed %d deg/s", d)
		}
	})

	t.Run("pulse widths survive a round trip within one degree", func(t *testing.T) {
		for us := 500; us <= 2500; us++ {
			back := ToUs(ToDeg(us))
			assert.InDelta(t, ToDeg(us), ToDeg(back), 1, "position %d us", us)
			assert.InDelta(t, us, back, 6, "position %d us", us)
		}
	})
}
