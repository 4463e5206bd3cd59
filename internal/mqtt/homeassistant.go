package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	haStateOpen    = "open"
	haStateClosed  = "closed"
	haStateOpening = "opening"
	haStateClosing = "closing"
	haStateStopped = "stopped"
)

type haDevice struct {
	Identifiers  []string `json:"ids,omitempty"`
	Manufacturer string   `json:"mf,omitempty"`
	Model        string   `json:"mdl,omitempty"`
	Name         string   `json:"name,omitempty"`
	SWVersion    string   `json:"sw,omitempty"`
}

type haEntity struct {
	AvailabilityTopic string `json:"avty_t,omitempty"`
	UniqueID          string `json:"uniq_id,omitempty"`
	Name              string `json:"name,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`

	Device haDevice `json:"device,omitempty"`
}

type haCover struct {
	haEntity
	StateTopic       string `json:"stat_t"`
	CommandTopic     string `json:"cmd_t"`
	PositionTopic    string `json:"pos_t"`
	SetPositionTopic string `json:"set_pos_t"`
	PositionOpen     int    `json:"pos_open"`
	PositionClosed   int    `json:"pos_clsd"`
	PayloadOpen      string `json:"pl_open"`
	PayloadClose     string `json:"pl_cls"`
	StateOpen        string `json:"stat_open"`
	StateClosed      string `json:"stat_clsd"`
	StateOpening     string `json:"stat_opening"`
	StateClosing     string `json:"stat_closing"`
	StateStopped     string `json:"stat_stopped"`
}

// NewHACoverFromMQTTBridge describes the shutter as a Home Assistant cover.
// Positions are in degrees.
func NewHACoverFromMQTTBridge(bridge *Bridge, version string) haCover {
	return haCover{
		haEntity: haEntity{
			UniqueID:    "birdcam_" + bridge.shutter.Name(),
			Name:        bridge.shutter.Name(),
			DeviceClass: "shutter",

			Device: haDevice{
				Identifiers:  []string{"birdcam_" + bridge.shutter.Name()},
				Manufacturer: "birdcam",
				Model:        "servo shutter",
				Name:         bridge.shutter.Name(),
				SWVersion:    version,
			},
		},
		StateTopic:       bridge.CoverStateTopic,
		CommandTopic:     bridge.CommandTopic,
		PositionTopic:    bridge.PositionTopic,
		SetPositionTopic: bridge.PositionChangeTopic,
		PositionOpen:     bridge.shutter.OpenPosition(),
		PositionClosed:   bridge.shutter.ClosedPosition(),
		PayloadOpen:      mqttOpenCmd,
		PayloadClose:     mqttCloseCmd,
		StateOpen:        haStateOpen,
		StateClosed:      haStateClosed,
		StateOpening:     haStateOpening,
		StateClosing:     haStateClosing,
		StateStopped:     haStateStopped,
	}
}

func PublishHAAutoDiscovery(client paho.Client, homeAssistantDiscoveryTopicPrefix string, haCover haCover) error {
	topic := fmt.Sprintf("%s/cover/birdcam/%s/config", homeAssistantDiscoveryTopicPrefix, haCover.Name)

	payload, err := json.Marshal(haCover)
	if err != nil {
		return err
	}

	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	return nil
}
