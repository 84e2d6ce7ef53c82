package mqtt

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultReadingsTopic is the topic pattern readings are published to
const DefaultReadingsTopic = "sensors/{device_id}/readings"

// Publisher publishes formatted readings for one device
type Publisher struct {
	client mqtt.Client

	// Topic pattern, e.g. "sensors/{device_id}/readings"
	readingsTopic string
	qos           byte
	timeout       time.Duration
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	ReadingsTopic string
	QoS           byte
	Timeout       time.Duration // bound on waiting for the broker acknowledgement
}

// NewPublisher creates a new MQTT publisher
func NewPublisher(client mqtt.Client, config PublisherConfig) *Publisher {
	if config.ReadingsTopic == "" {
		config.ReadingsTopic = DefaultReadingsTopic
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Publisher{
		client:        client,
		readingsTopic: config.ReadingsTopic,
		qos:           config.QoS,
		timeout:       config.Timeout,
	}
}

// PublishReading publishes a JSON payload to the device's readings topic
func (p *Publisher) PublishReading(deviceID string, payload []byte) error {
	topic := FormatTopic(p.readingsTopic, deviceID)

	token := p.client.Publish(topic, p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("failed to publish reading to %s: timed out after %v", topic, p.timeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish reading to %s: %w", topic, token.Error())
	}
	return nil
}

// Topic returns the concrete topic used for deviceID
func (p *Publisher) Topic(deviceID string) string {
	return FormatTopic(p.readingsTopic, deviceID)
}

// FormatTopic replaces {device_id} placeholder with actual device ID
func FormatTopic(topicPattern, deviceID string) string {
	return strings.ReplaceAll(topicPattern, "{device_id}", deviceID)
}
