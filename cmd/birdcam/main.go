package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/device"
	"github.com/jkaflik/birdcam/internal/mqtt"
	"github.com/jkaflik/birdcam/internal/settings"
	"github.com/jkaflik/birdcam/internal/shutter/driver/servo"
	"github.com/jkaflik/birdcam/internal/web"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
	})

	configPath := flag.String("config", "config.yaml", "config.yaml file path")
	flag.Parse()

	if err := configLoader.Load(); err != nil {
		logrus.Fatal(err)
	}
	loadConfigFromYamlFile(*configPath)

	level, err := logrus.ParseLevel(Cfg.LogLevel)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.SetLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore := storeFromConfig()
	defer closeStore()

	out := pulseWriterFromConfig()
	s, err := servo.NewServoShutter(Cfg.Name, out, settings.NewStore(store), servoOptionsFromConfig(ctx)...)
	if err != nil {
		logrus.Fatal(err)
	}
	s.Report()

	loop := device.NewLoop(s, device.DefaultTickInterval)
	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	if Cfg.MQTT.Enabled {
		startMQTT(ctx, loop)
	}

	srv := web.NewServer(loop, store)
	go func() {
		if err := srv.ListenAndServe(Cfg.Web.Listen); err != nil && err != http.ErrServerClosed {
			logrus.Fatal(err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("web: shutdown failed: %s", err)
	}

	<-loopDone
	if err := out.Detach(); err != nil {
		logrus.Errorf("%s: servo detach failed: %s", Cfg.Name, err)
	}
}

func startMQTT(ctx context.Context, loop *device.Loop) {
	var bridge *mqtt.Bridge

	cfg := pahoOptsFromConfig()
	cfg.OnConnect = func(m paho.Client) {
		logrus.Info("MQTT broker connected")
		subscribe(ctx, m, bridge)
	}
	cfg.OnConnectionLost = func(_ paho.Client, err error) {
		logrus.Errorf("MQTT broker connection lost: %s", err.Error())
	}

	m := paho.NewClient(cfg)
	bridge = mqtt.NewBridge(m, loop, Cfg.MQTT.TopicPrefix)

	if token := m.Connect(); token.Wait() && token.Error() != nil {
		logrus.Fatal(token.Error())
	}

	go func() {
		<-ctx.Done()
		m.Disconnect(250)
	}()
}

func subscribe(ctx context.Context, m paho.Client, bridge *mqtt.Bridge) {
	if Cfg.HASS.Enabled {
		entity := mqtt.NewHACoverFromMQTTBridge(bridge, strconv.Itoa(settings.CurrentVersion))
		if err := mqtt.PublishHAAutoDiscovery(m, Cfg.HASS.TopicPrefix, entity); err != nil {
			logrus.Error(err)
		}
	}

	if err := bridge.SetMetadata(Cfg.MQTT.Metadata); err != nil {
		logrus.Error(err)
	}

	if err := bridge.Subscribe(ctx); err != nil {
		logrus.Error(err)
	}

	bridge.PublishState()
}
