package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Device
	SensorID    string
	Board       string
	PollSeconds int
	Debug       bool
	// MaxCycles stops after that many polls, 0 runs until interrupted
	MaxCycles int

	// HTTP reporting
	Endpoint string

	// MQTT Configuration
	MQTTBroker     string
	MQTTClientID   string
	MQTTUsername   string
	MQTTPassword   string
	MQTTTopic      string
	MQTTInputTopic string

	// Kafka Configuration
	KafkaBrokers []string
	KafkaTopic   string

	// Sensor drivers
	IIORoot           string
	DHTDevice         string
	AirQualityDevice  string
	AirQualityChannel string

	// Joystick, display and power
	JoystickDevice string
	Framebuffer    string
	DryRunPower    bool

	// Status API
	StatusAddr string

	// Change Detection Thresholds
	TemperatureThreshold float64
	HumidityThreshold    float64
	HistorySize          int
}

// Interval is the delay between poll cycles
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// Load reads the .env files (or ./.env), the environment and then the
// command line, later sources overriding earlier ones
func Load(args []string, envFiles ...string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(envFiles...)

	return Parse(args)
}

// Parse builds the configuration from the environment and args
func Parse(args []string) (*Config, error) {
	cfg := FromEnv()

	fs := flag.NewFlagSet("sensord", flag.ContinueOnError)
	fs.StringVar(&cfg.SensorID, "id", cfg.SensorID, "sensor identifier (required)")
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "HTTP endpoint receiving JSON readings")
	fs.IntVar(&cfg.PollSeconds, "poll", cfg.PollSeconds, "whole seconds between readings")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "trace each poll step")
	fs.StringVar(&cfg.Board, "board", cfg.Board, "sensor board: enviro, sensehat or sim")
	fs.IntVar(&cfg.MaxCycles, "cycles", cfg.MaxCycles, "stop after this many readings")
	fs.StringVar(&cfg.MQTTBroker, "mqtt-broker", cfg.MQTTBroker, "MQTT broker receiving JSON readings")
	kafka := fs.String("kafka-brokers", strings.Join(cfg.KafkaBrokers, ","), "comma-separated Kafka brokers")
	fs.StringVar(&cfg.JoystickDevice, "stick", cfg.JoystickDevice, "joystick input device")
	fs.StringVar(&cfg.StatusAddr, "listen", cfg.StatusAddr, "status API address")
	fs.BoolVar(&cfg.DryRunPower, "dry-run-power", cfg.DryRunPower, "log instead of shutting down or rebooting")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	cfg.KafkaBrokers = splitList(*kafka)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads every setting from the environment
func FromEnv() *Config {
	return &Config{
		SensorID:    getEnv("SENSOR_ID", ""),
		Board:       getEnv("BOARD", "enviro"),
		PollSeconds: getEnvInt("POLL_SECONDS", 0),
		Debug:       getEnvBool("DEBUG", false),

		Endpoint: getEnv("REPORT_ENDPOINT", ""),

		// MQTT Configuration
		MQTTBroker:     getEnv("MQTT_BROKER", ""),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", ""),
		MQTTUsername:   getEnv("MQTT_USERNAME", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTTopic:      getEnv("MQTT_TOPIC", "sensors/{device_id}/readings"),
		MQTTInputTopic: getEnv("MQTT_INPUT_TOPIC", ""),

		// Kafka Configuration
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "sensor.readings"),

		IIORoot:           getEnv("IIO_ROOT", "/sys/bus/iio/devices"),
		DHTDevice:         getEnv("DHT_DEVICE", "dht11"),
		AirQualityDevice:  getEnv("AIR_QUALITY_DEVICE", "ads1015"),
		AirQualityChannel: getEnv("AIR_QUALITY_CHANNEL", "voltage0"),

		JoystickDevice: getEnv("JOYSTICK_DEVICE", ""),
		Framebuffer:    getEnv("FRAMEBUFFER", ""),
		DryRunPower:    getEnvBool("DRY_RUN_POWER", false),

		StatusAddr: getEnv("STATUS_ADDR", ""),

		// Change Detection Thresholds
		TemperatureThreshold: getEnvFloat("TEMPERATURE_THRESHOLD", 0.5),
		HumidityThreshold:    getEnvFloat("HUMIDITY_THRESHOLD", 2.0),
		HistorySize:          getEnvInt("HISTORY_SIZE", 60),
	}
}

// Validate rejects configurations the poll loop cannot run with
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SensorID) == "" {
		errs = append(errs, errors.New("sensor id is required (--id or SENSOR_ID)"))
	}
	if c.PollSeconds < 0 {
		errs = append(errs, fmt.Errorf("poll interval must not be negative, got %d", c.PollSeconds))
	}
	if c.MaxCycles < 0 {
		errs = append(errs, fmt.Errorf("cycles must not be negative, got %d", c.MaxCycles))
	}
	if c.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("history size must be positive, got %d", c.HistorySize))
	}
	if c.MQTTInputTopic != "" && c.MQTTBroker == "" {
		errs = append(errs, errors.New("MQTT_INPUT_TOPIC needs an MQTT broker"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}
