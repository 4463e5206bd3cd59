package servo

import (
	"github.com/sirupsen/logrus"
)

// PulseWriter sets the pulse width of the servo control signal.
type PulseWriter interface {
	Attach() error
	WritePulse(us int) error
	Detach() error
}

// Dumb only logs pulse widths, for running without servo hardware.
type Dumb struct {
	Name string

	attached bool
	pulse    int
}

func (d *Dumb) Attach() error {
	d.attached = true
	logrus.Warnf("%s: dumb servo attached", d.Name)
	return nil
}

func (d *Dumb) WritePulse(us int) error {
	d.pulse = us
	logrus.Tracef("%s: dumb servo pulse %d us", d.Name, us)
	return nil
}

func (d *Dumb) Detach() error {
	d.attached = false
	logrus.Warnf("%s: dumb servo detached", d.Name)
	return nil
}

// Pulse is the last pulse width written.
func (d *Dumb) Pulse() int {
	return d.pulse
}
