package report

import (
	"context"

	"pi-sensors/internal/format"
)

// ReadingPublisher is satisfied by *mqtt.Publisher
type ReadingPublisher interface {
	PublishReading(deviceID string, payload []byte) error
	Topic(deviceID string) string
}

// MQTT publishes JSON readings to the device's readings topic
type MQTT struct {
	deviceID  string
	publisher ReadingPublisher
	closer    func() error
}

// NewMQTT wraps a publisher; closer (may be nil) releases the connection
func NewMQTT(deviceID string, publisher ReadingPublisher, closer func() error) *MQTT {
	return &MQTT{deviceID: deviceID, publisher: publisher, closer: closer}
}

func (m *MQTT) Mode() format.Mode { return format.ModeJSON }

func (m *MQTT) Send(ctx context.Context, out format.Output) error {
	if err := ctx.Err(); err != nil {
		return &ReportError{Destination: m.destination(), Reason: "cancelled", Err: err}
	}
	if err := m.publisher.PublishReading(m.deviceID, out.Body); err != nil {
		return &ReportError{Destination: m.destination(), Reason: "publish failed", Err: err}
	}
	return nil
}

func (m *MQTT) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer()
}

func (m *MQTT) destination() string {
	return "mqtt://" + m.publisher.Topic(m.deviceID)
}
