package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/shutter"
)

const (
	mqttOpenCmd  = "open"
	mqttCloseCmd = "close"
)

const DefaultTopicPrefix = "birdcam"

type Bridge struct {
	mqtt    mqtt.Client
	shutter shutter.Shutter

	StateTopic      string
	CoverStateTopic string
	PositionTopic   string
	MetadataTopic   string

	CommandTopic        string
	PositionChangeTopic string
}

// NewBridge publishes updates of s and feeds commands into it. Positions on
// the wire are in degrees.
func NewBridge(client mqtt.Client, s shutter.Shutter, prefix string) *Bridge {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}

	bridge := &Bridge{mqtt: client, shutter: s}
	bridge.StateTopic = fmt.Sprintf("%s/%s/state", prefix, s.Name())
	bridge.CoverStateTopic = fmt.Sprintf("%s/%s/cover", prefix, s.Name())
	bridge.PositionTopic = fmt.Sprintf("%s/%s/position", prefix, s.Name())
	bridge.MetadataTopic = fmt.Sprintf("%s/%s/metadata", prefix, s.Name())
	bridge.CommandTopic = fmt.Sprintf("%s/%s/set", prefix, s.Name())
	bridge.PositionChangeTopic = fmt.Sprintf("%s/%s/position/set", prefix, s.Name())

	s.OnUpdate(bridge.onShutterUpdateHandler())

	return bridge
}

func (b *Bridge) SetMetadata(value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if token := b.mqtt.Publish(b.MetadataTopic, 0, true, payload); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: MQTT metadata publish failed", b.shutter.Name())
	}

	return nil
}

// PublishState publishes the current state and position, e.g. after a reconnect.
func (b *Bridge) PublishState() {
	b.onShutterUpdateHandler()(b.shutter.State(), b.shutter.Position())
}

func (b *Bridge) Subscribe(ctx context.Context) error {
	if token := b.mqtt.Subscribe(b.CommandTopic, 0, b.onCommandHandler(ctx)); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: MQTT command topic subscription failed", b.shutter.Name())
	}
	logrus.Infof("%s: MQTT command topic subscribed", b.shutter.Name())
	if token := b.mqtt.Subscribe(b.PositionChangeTopic, 0, b.onPositionChangeHandler(ctx)); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: MQTT position change topic subscription failed", b.shutter.Name())
	}
	logrus.Infof("%s: MQTT position change topic subscribed", b.shutter.Name())

	go func() {
		<-ctx.Done()
		if token := b.mqtt.Unsubscribe(b.PositionChangeTopic, b.CommandTopic); token.Wait() && token.Error() != nil {
			logrus.Errorf("%s: MQTT topics unsubscribe failed: %s", b.shutter.Name(), token.Error())
		}
	}()

	return nil
}

// onShutterUpdateHandler runs on the control loop, so it does not wait for
// the broker.
func (b *Bridge) onShutterUpdateHandler() shutter.ShutterUpdateHandler {
	return func(state shutter.State, position int) {
		b.publish(b.StateTopic, state.String(), "state")
		b.publish(b.CoverStateTopic, b.coverState(state, position), "cover state")
		b.publish(b.PositionTopic, strconv.Itoa(position), "position")
	}
}

// coverState names the state the way a Home Assistant cover expects it. A
// move is opening when it heads from the closed side towards the open side.
func (b *Bridge) coverState(state shutter.State, position int) string {
	switch state {
	case shutter.ShutterOpenState:
		return haStateOpen
	case shutter.ShutterClosedState:
		return haStateClosed
	case shutter.ShutterMovingState:
		if (b.shutter.EndPosition()-position)*(b.shutter.OpenPosition()-b.shutter.ClosedPosition()) < 0 {
			return haStateClosing
		}
		return haStateOpening
	default:
		return haStateStopped
	}
}

func (b *Bridge) publish(topic, payload, what string) {
	token := b.mqtt.Publish(topic, 0, true, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			logrus.Errorf("%s: MQTT %s publish failed: %s", b.shutter.Name(), what, token.Error())
		}
	}()
}

func (b *Bridge) onCommandHandler(ctx context.Context) mqtt.MessageHandler {
	return func(c mqtt.Client, msg mqtt.Message) {
		var err error

		cmd := strings.TrimSpace(string(msg.Payload()))
		switch cmd {
		case mqttOpenCmd:
			err = b.shutter.Open(ctx)
		case mqttCloseCmd:
			err = b.shutter.Close(ctx)
		default:
			logrus.Errorf("%s: MQTT unsupported %s command received", b.shutter.Name(), cmd)
			return
		}

		if err != nil {
			logrus.Errorf("%s: MQTT %s command failed: %s", b.shutter.Name(), cmd, err)
		}
	}
}

func (b *Bridge) onPositionChangeHandler(ctx context.Context) mqtt.MessageHandler {
	return func(c mqtt.Client, msg mqtt.Message) {
		pos, err := strconv.Atoi(strings.TrimSpace(string(msg.Payload())))
		if err != nil {
			logrus.Errorf("%s: MQTT invalid position %q: %s", b.shutter.Name(), msg.Payload(), err)
			return
		}
		if err := b.shutter.SetPosition(ctx, pos); err != nil {
			logrus.Errorf("%s: MQTT position change failed: %s", b.shutter.Name(), err)
		}
	}
}
