package report

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"pi-sensors/internal/format"
)

// DefaultKafkaTopic receives readings when no topic is configured
const DefaultKafkaTopic = "sensor.readings"

// MessageWriter is satisfied by *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes each JSON reading as one message keyed by sensor id
type Kafka struct {
	sensorID string
	topic    string
	w        MessageWriter
	now      func() time.Time
}

// NewKafkaWriter builds a writer for the brokers; messages of one sensor
// land on one partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

// NewKafka wraps a writer for the given topic
func NewKafka(sensorID, topic string, w MessageWriter) *Kafka {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &Kafka{sensorID: sensorID, topic: topic, w: w, now: time.Now}
}

func (k *Kafka) Mode() format.Mode { return format.ModeJSON }

func (k *Kafka) Send(ctx context.Context, out format.Output) error {
	msg := kafka.Message{Key: []byte(k.sensorID), Value: out.Body, Time: k.now()}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return &ReportError{Destination: "kafka://" + k.topic, Reason: "write failed", Err: err}
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
