package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"pi-sensors/internal/aggregator"
	"pi-sensors/internal/api"
	"pi-sensors/internal/display"
	"pi-sensors/internal/format"
	"pi-sensors/internal/joystick"
	"pi-sensors/internal/models"
	"pi-sensors/internal/mqtt"
	"pi-sensors/internal/power"
	"pi-sensors/internal/report"
	"pi-sensors/internal/sensors"
	"pi-sensors/internal/services"
	"pi-sensors/internal/state"
	"pi-sensors/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	runID := uuid.NewString()
	log.Printf("Starting sensord for %s (run %s)...", cfg.SensorID, runID)

	// === Sensors ===
	board, err := sensors.ParseBoard(cfg.Board)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	set, err := sensors.OpenBoard(sensors.BoardConfig{
		Board:             board,
		IIORoot:           cfg.IIORoot,
		DHTDevice:         cfg.DHTDevice,
		AirQualityDevice:  cfg.AirQualityDevice,
		AirQualityChannel: cfg.AirQualityChannel,
	})
	if err != nil {
		log.Fatalf("Failed to initialize sensors: %v", err)
	}
	source := sensors.NewComposite(cfg.SensorID, set)

	layout := format.LayoutSummary
	if board == sensors.BoardSenseHAT {
		layout = format.LayoutDetailed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === MQTT ===
	var mqttClient *mqtt.Client
	if cfg.MQTTBroker != "" {
		log.Println("Connecting to MQTT broker...")
		mqttClient, err = mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			log.Fatalf("Failed to initialize MQTT client: %v", err)
		}
	}

	// === Reporter ===
	reporter, err := report.Open(report.Options{
		SensorID:     cfg.SensorID,
		Stdout:       os.Stdout,
		Endpoint:     cfg.Endpoint,
		MQTT:         mqttClient,
		MQTTTopic:    cfg.MQTTTopic,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
	})
	if err != nil {
		log.Fatalf("Failed to initialize reporter: %v", err)
	}

	disp, closeDisplay, err := openDisplay(cfg, board)
	if err != nil {
		log.Fatalf("Failed to initialize display: %v", err)
	}
	readings := state.NewSlot()

	agg := aggregator.NewSensorAggregator(cfg.HistorySize, aggregator.ChangeThresholds{
		TemperatureDelta: cfg.TemperatureThreshold,
		HumidityDelta:    cfg.HumidityThreshold,
		MinInterval:      time.Minute,
	})
	agg.SetChangeCallback(func(c aggregator.Change) {
		if c.Field != models.FieldTemperature {
			return
		}
		go func() {
			if err := disp.ShowMessage(ctx, "Temp: "+format.Value(c.Current)); err != nil {
				log.Printf("Display: %v", err)
			}
		}()
	})
	var subscriber *mqtt.Subscriber

	cleanup := func() error {
		log.Println("Exiting program.")
		var errs []error
		if subscriber != nil {
			errs = append(errs, subscriber.Unsubscribe())
		}
		errs = append(errs, disp.Clear(), closeDisplay(), reporter.Close())
		return errors.Join(errs...)
	}

	poll, err := services.NewPollService(source, format.New(layout), reporter, readings, services.PollServiceConfig{
		Interval:  cfg.Interval(),
		MaxCycles: cfg.MaxCycles,
		Debug:     cfg.Debug,
		Trace:     os.Stderr,
		Cleanup:   cleanup,
		OnReading: func(r models.Reading) { agg.Update(r) },
	})
	if err != nil {
		log.Fatalf("Failed to initialize poll service: %v", err)
	}

	// === Input ===
	exits := newExiter(stop, exitTimeout)
	dispatcher := joystick.NewDispatcher(cfg.Debug)
	var controller power.Controller = power.NewExec()
	if cfg.DryRunPower {
		controller = power.DryRun{}
	}
	var conn joystick.Connection = joystick.StaticConnection{}
	if mqttClient != nil {
		conn = joystick.BrokerConnection{Link: mqttClient}
	}
	joystick.DefaultBindings(dispatcher, &joystick.Actions{
		Display:    disp,
		Power:      controller,
		Readings:   readings,
		Connection: conn,
		Exit:       exits.Exit,
	})
	dispatch := func(ctx context.Context, ev models.InputEvent) {
		dispatcher.Dispatch(ctx, ev)
	}

	if device := joystickDevice(cfg, board); device != "" {
		stick, err := joystick.OpenEventReader(device)
		if err != nil {
			log.Fatalf("Failed to initialize joystick: %v", err)
		}
		go func() {
			if err := stick.Listen(ctx, dispatch); err != nil {
				log.Printf("Joystick: %v", err)
			}
		}()
	}

	if cfg.MQTTInputTopic != "" {
		subscriber = mqtt.NewSubscriber(mqttClient.GetNativeClient(), mqtt.SubscriberConfig{
			DeviceID:   cfg.SensorID,
			InputTopic: cfg.MQTTInputTopic,
		}, func(ev models.InputEvent) {
			dispatch(ctx, ev)
		})
		if err := subscriber.Subscribe(); err != nil {
			log.Fatalf("Failed to subscribe to MQTT input: %v", err)
		}
	}

	// === Status API ===
	if cfg.StatusAddr != "" {
		srv := api.NewServer(api.Config{
			Readings:  readings,
			LoopState: func() string { return poll.State().String() },
			Stats:     agg.Stats,
			OnInput:   dispatch,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.StatusAddr, os.Stderr); err != nil {
				log.Printf("Status API: %v", err)
			}
		}()
	}

	log.Printf("Board: %s, interval: %s, reporting as %s", board, cfg.Interval(), reporter.Mode())
	log.Println("Press Ctrl+C to exit...")

	err = poll.Run(ctx)
	exits.loopStopped()
	if code, ok := exits.requested(); ok {
		os.Exit(code)
	}
	if err != nil {
		log.Printf("Poll loop stopped: %v", err)
		stop()
		os.Exit(1)
	}
	log.Println("Good Bye!")
}

// openDisplay picks the LED matrix when the board has one or a
// framebuffer is configured, the terminal otherwise
func openDisplay(cfg *config.Config, board sensors.Board) (display.Display, func() error, error) {
	path := cfg.Framebuffer
	if path == "" && board == sensors.BoardSenseHAT {
		path = display.DefaultFramebuffer
	}
	if path == "" {
		return display.NewTerminal(os.Stderr), func() error { return nil }, nil
	}
	fb, err := display.OpenFramebuffer(path)
	if err != nil {
		return nil, nil, err
	}
	return fb, fb.Close, nil
}

// joystickDevice returns the configured stick, or the Sense HAT's own
func joystickDevice(cfg *config.Config, board sensors.Board) string {
	if cfg.JoystickDevice == "" && board == sensors.BoardSenseHAT {
		return joystick.DefaultDevice
	}
	return cfg.JoystickDevice
}

const exitTimeout = 2 * time.Second

// exiter ends the process for a power action once the poll loop has
// stopped and run its cleanup
type exiter struct {
	stop    func()
	done    chan struct{}
	timeout time.Duration
	exit    func(int)

	code  atomic.Int32
	asked atomic.Bool
}

func newExiter(stop func(), timeout time.Duration) *exiter {
	return &exiter{
		stop:    stop,
		done:    make(chan struct{}),
		timeout: timeout,
		exit:    os.Exit,
	}
}

// Exit cancels the poll loop and waits for it before exiting with code
func (e *exiter) Exit(code int) {
	e.code.Store(int32(code))
	e.asked.Store(true)
	e.stop()
	select {
	case <-e.done:
	case <-time.After(e.timeout):
		log.Printf("Poll loop still running after %s, exiting anyway", e.timeout)
	}
	e.exit(code)
}

// loopStopped is called once Run has returned
func (e *exiter) loopStopped() {
	close(e.done)
}

// requested reports the exit code asked for by Exit, if any
func (e *exiter) requested() (int, bool) {
	if !e.asked.Load() {
		return 0, false
	}
	return int(e.code.Load()), true
}
