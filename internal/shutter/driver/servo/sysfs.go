package servo

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultSysfsRoot = "/sys/class/pwm"

// Sysfs drives a servo through a Linux PWM channel.
type Sysfs struct {
	Root    string // DefaultSysfsRoot when empty
	Chip    int
	Channel int
	Period  time.Duration // 20ms when zero

	exported bool
}

func (p *Sysfs) chipDir() string {
	root := p.Root
	if root == "" {
		root = DefaultSysfsRoot
	}
	return filepath.Join(root, fmt.Sprintf("pwmchip%d", p.Chip))
}

func (p *Sysfs) channelDir() string {
	return filepath.Join(p.chipDir(), fmt.Sprintf("pwm%d", p.Channel))
}

func (p *Sysfs) Attach() error {
	if _, err := os.Stat(p.channelDir()); os.IsNotExist(err) {
		if err := p.write(filepath.Join(p.chipDir(), "export"), p.Channel); err != nil {
			return errors.Wrapf(err, "export pwm channel %d", p.Channel)
		}
		p.exported = true
	}

	period := p.Period
	if period == 0 {
		period = 20 * time.Millisecond
	}

	if err := p.write(filepath.Join(p.channelDir(), "period"), int(period.Nanoseconds())); err != nil {
		return errors.Wrap(err, "set pwm period")
	}
	if err := p.write(filepath.Join(p.channelDir(), "enable"), 1); err != nil {
		return errors.Wrap(err, "enable pwm")
	}

	logrus.Debugf("pwm: attached %s with period %s", p.channelDir(), period)
	return nil
}

func (p *Sysfs) WritePulse(us int) error {
	return p.write(filepath.Join(p.channelDir(), "duty_cycle"), us*1000)
}

func (p *Sysfs) Detach() error {
	if err := p.write(filepath.Join(p.channelDir(), "enable"), 0); err != nil {
		return errors.Wrap(err, "disable pwm")
	}
	if !p.exported {
		return nil
	}
	p.exported = false
	return errors.Wrapf(p.write(filepath.Join(p.chipDir(), "unexport"), p.Channel), "unexport pwm channel %d", p.Channel)
}

func (p *Sysfs) write(path string, value int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(value)), 0o644)
}
