package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"pi-sensors/internal/models"
)

// DefaultInputTopic is the topic pattern remote joystick events arrive on
const DefaultInputTopic = "sensors/{device_id}/input"

// Subscriber receives joystick events sent over MQTT and hands them to a
// callback, acting as a remote input driver
type Subscriber struct {
	client   mqtt.Client
	deviceID string

	// Topic pattern
	inputTopic string

	// OnInput is invoked on paho's delivery goroutine
	OnInput func(models.InputEvent)
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	DeviceID   string
	InputTopic string // e.g., "sensors/{device_id}/input"
}

// NewSubscriber creates a new MQTT subscriber
func NewSubscriber(client mqtt.Client, config SubscriberConfig, onInput func(models.InputEvent)) *Subscriber {
	if config.InputTopic == "" {
		config.InputTopic = DefaultInputTopic
	}
	return &Subscriber{
		client:     client,
		deviceID:   config.DeviceID,
		inputTopic: config.InputTopic,
		OnInput:    onInput,
	}
}

// Subscribe starts receiving input events
func (s *Subscriber) Subscribe() error {
	topic := FormatTopic(s.inputTopic, s.deviceID)
	token := s.client.Subscribe(topic, 1, s.handleInput)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to input topic: %w", token.Error())
	}
	log.Printf("Subscribed to input topic: %s", topic)
	return nil
}

// Unsubscribe stops receiving input events
func (s *Subscriber) Unsubscribe() error {
	topic := FormatTopic(s.inputTopic, s.deviceID)
	token := s.client.Unsubscribe(topic)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("failed to unsubscribe from input topic: %w", token.Error())
	}
	return nil
}

// handleInput decodes an input event message and passes it on
func (s *Subscriber) handleInput(client mqtt.Client, msg mqtt.Message) {
	event, err := DecodeInputEvent(msg.Payload())
	if err != nil {
		log.Printf("Error decoding input event for device %s: %v", extractDeviceID(msg.Topic()), err)
		return
	}

	log.Printf("Received input event from %s: %s %s", msg.Topic(), event.Direction, event.Action)

	if s.OnInput != nil {
		s.OnInput(event)
	}
}

// DecodeInputEvent parses and validates {"direction": ..., "action": ...}
func DecodeInputEvent(payload []byte) (models.InputEvent, error) {
	var event models.InputEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.InputEvent{}, fmt.Errorf("failed to unmarshal input event: %w", err)
	}

	if err := event.Validate(); err != nil {
		return models.InputEvent{}, err
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event, nil
}

// extractDeviceID extracts device ID from MQTT topic
// Example: "sensors/sensor-001/input" -> "sensor-001"
func extractDeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 3 {
		return parts[1]
	}
	return ""
}
