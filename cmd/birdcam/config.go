package main

import (
	"context"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/racerxdl/go-mcp23017"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jkaflik/birdcam/internal/kv"
	"github.com/jkaflik/birdcam/internal/shutter/driver/servo"
)

type cfgPowerGate struct {
	Enabled      bool  `yaml:"enabled" default:"false" env:"ENABLED"`
	Bus          uint8 `yaml:"bus" default:"1" env:"BUS"`
	DeviceNumber uint8 `yaml:"device_number" default:"0" env:"DEVICE_NUMBER"`
	Pin          uint8 `yaml:"pin" default:"0" env:"PIN"`
	NormalClosed bool  `yaml:"normal_closed" default:"false" env:"NORMAL_CLOSED"`
}

type cfgSysfs struct {
	Root    string        `yaml:"root" default:"/sys/class/pwm" env:"ROOT"`
	Chip    int           `yaml:"chip" default:"0" env:"CHIP"`
	Channel int           `yaml:"channel" default:"0" env:"CHANNEL"`
	Period  time.Duration `yaml:"period" default:"20ms" env:"PERIOD"`
}

type cfgServo struct {
	Kind string `yaml:"kind" default:"dumb" env:"KIND"`

	Sysfs     cfgSysfs     `yaml:"sysfs" env:"SYSFS"`
	PowerGate cfgPowerGate `yaml:"power_gate" env:"POWER_GATE"`
}

type cfgStore struct {
	Kind string `yaml:"kind" default:"file" env:"KIND"`
	Path string `yaml:"path" default:"birdcam-settings.yaml" env:"PATH"`
}

type cfgWeb struct {
	Listen string `yaml:"listen" default:":8080" env:"LISTEN"`
}

type cfgMQTT struct {
	Enabled     bool   `yaml:"enabled" default:"false" env:"ENABLED"`
	ClientID    string `yaml:"client_id" default:"birdcam" env:"CLIENT_ID"`
	Broker      string `yaml:"broker" default:"127.0.0.1:1883" env:"BROKER"`
	Username    string `yaml:"username" env:"USERNAME"`
	Password    string `yaml:"password" env:"PASSWORD"`
	TopicPrefix string `yaml:"topic_prefix" default:"birdcam" env:"TOPIC_PREFIX"`

	Metadata map[string]string `yaml:"metadata" env:"METADATA"`
}

type cfgHASS struct {
	Enabled     bool   `yaml:"enabled" default:"true" env:"ENABLED"`
	TopicPrefix string `yaml:"topic_prefix" default:"homeassistant" env:"TOPIC_PREFIX"`
}

var Cfg struct {
	LogLevel string `yaml:"log_level" default:"info" env:"LOG_LEVEL"`
	Name     string `yaml:"name" default:"birdcam" env:"NAME"`

	Servo cfgServo `yaml:"servo" env:"SERVO"`
	Store cfgStore `yaml:"store" env:"STORE"`
	Web   cfgWeb   `yaml:"web" env:"WEB"`
	MQTT  cfgMQTT  `yaml:"mqtt" env:"MQTT"`
	HASS  cfgHASS  `yaml:"hass" env:"HASS"`
}

var configLoader = aconfig.LoaderFor(&Cfg, aconfig.Config{
	EnvPrefix: "BIRDCAM",
	SkipFlags: true,
	SkipFiles: true,
})

func loadConfigFromYamlFile(filename string) {
	f, err := os.Open(filename)
	if err != nil {
		logrus.Warn(err)
		return
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&Cfg); err != nil {
		logrus.Fatal(err)
	}
}

func pahoOptsFromConfig() *paho.ClientOptions {
	return paho.NewClientOptions().
		SetClientID(Cfg.MQTT.ClientID).
		AddBroker(Cfg.MQTT.Broker).
		SetUsername(Cfg.MQTT.Username).
		SetPassword(Cfg.MQTT.Password).
		SetConnectTimeout(time.Second).
		SetPingTimeout(time.Second).
		SetWriteTimeout(time.Second).
		SetAutoReconnect(true)
}

// storeFromConfig returns the settings store and a function releasing it.
func storeFromConfig() (kv.Store, func()) {
	switch Cfg.Store.Kind {
	case "memory":
		logrus.Warn("settings are kept in memory only")
		return kv.NewMemory(), func() {}
	case "file":
		f, err := kv.NewFile(Cfg.Store.Path)
		if err != nil {
			logrus.Fatal(err)
		}
		return f, func() {}
	case "sqlite":
		s, err := kv.NewSQLite(Cfg.Store.Path)
		if err != nil {
			logrus.Fatal(err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logrus.Errorf("settings store close failed: %s", err)
			}
		}
	}

	logrus.Fatalf("%s is not supported store kind", Cfg.Store.Kind)
	return nil, nil
}

func pulseWriterFromConfig() servo.PulseWriter {
	switch Cfg.Servo.Kind {
	case "dumb":
		return &servo.Dumb{Name: Cfg.Name}
	case "sysfs":
		return &servo.Sysfs{
			Root:    Cfg.Servo.Sysfs.Root,
			Chip:    Cfg.Servo.Sysfs.Chip,
			Channel: Cfg.Servo.Sysfs.Channel,
			Period:  Cfg.Servo.Sysfs.Period,
		}
	}

	logrus.Fatalf("%s is not supported servo kind", Cfg.Servo.Kind)
	return nil
}

func servoOptionsFromConfig(ctx context.Context) []servo.Option {
	cfg := Cfg.Servo.PowerGate
	if !cfg.Enabled {
		return nil
	}

	dev, err := mcp23017.Open(cfg.Bus, cfg.DeviceNumber)
	if err != nil {
		logrus.Fatal(err)
	}
	go func() {
		<-ctx.Done()
		if err := dev.Close(); err != nil {
			logrus.Errorf("mcp23017: close failed %s", err)
			return
		}

		logrus.Infof("mcp23017: close")
	}()
	if err := dev.Reset(); err != nil {
		logrus.Fatal(err)
	}

	pin, err := servo.NewMcp23017Pin(dev, cfg.Pin)
	if err != nil {
		logrus.Fatal(err)
	}

	return []servo.Option{servo.WithPowerGate(&servo.PowerGate{
		Pin:          pin,
		NormalClosed: cfg.NormalClosed,
	})}
}
