package servo

import (
	"github.com/racerxdl/go-mcp23017"
)

type SetPin interface {
	High() error
	Low() error
}

type Mcp23017Pin struct {
	device *mcp23017.Device
	pin    uint8
}

func NewMcp23017Pin(device *mcp23017.Device, pin uint8) (p *Mcp23017Pin, err error) {
	p = &Mcp23017Pin{}
	p.device = device
	p.pin = pin
	err = p.device.PinMode(pin, mcp23017.OUTPUT)
	return p, err
}

func (m *Mcp23017Pin) High() error {
	return m.device.DigitalWrite(m.pin, mcp23017.HIGH)
}

func (m *Mcp23017Pin) Low() error {
	return m.device.DigitalWrite(m.pin, mcp23017.LOW)
}

// PowerGate switches the servo supply through a relay on an output pin.
// Relay boards are active low unless NormalClosed is set.
type PowerGate struct {
	Pin          SetPin
	NormalClosed bool

	enabled bool
}

func (g *PowerGate) Enable() error {
	if g.enabled {
		return nil
	}

	var err error
	if !g.NormalClosed {
		err = g.Pin.Low()
	} else {
		err = g.Pin.High()
	}
	if err == nil {
		g.enabled = true
	}
	return err
}

func (g *PowerGate) Disable() error {
	if !g.enabled {
		return nil
	}

	var err error
	if !g.NormalClosed {
		err = g.Pin.High()
	} else {
		err = g.Pin.Low()
	}
	if err == nil {
		g.enabled = false
	}
	return err
}

func (g *PowerGate) IsEnabled() bool {
	return g.enabled
}
