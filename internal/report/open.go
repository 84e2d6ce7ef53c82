package report

import (
	"io"
	"net/http"
	"os"

	"pi-sensors/internal/mqtt"
)

// Options selects the destinations of a run
type Options struct {
	SensorID string

	// Stdout is used when no networked destination is configured
	Stdout io.Writer

	Endpoint   string
	HTTPClient *http.Client

	MQTT      *mqtt.Client // nil disables MQTT
	MQTTTopic string

	KafkaBrokers []string
	KafkaTopic   string
}

// Open builds the reporter for opts: every configured networked destination
// receives JSON, and without any the readings are printed as text.
func Open(opts Options) (Reporter, error) {
	var reporters []Reporter

	if opts.Endpoint != "" {
		h, err := NewHTTP(opts.Endpoint, opts.HTTPClient)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, h)
	}
	if opts.MQTT != nil {
		pub := mqtt.NewPublisher(opts.MQTT.GetNativeClient(), mqtt.PublisherConfig{
			ReadingsTopic: opts.MQTTTopic,
			QoS:           1,
		})
		reporters = append(reporters, NewMQTT(opts.SensorID, pub, opts.MQTT.Close))
	}
	if len(opts.KafkaBrokers) > 0 {
		w := NewKafkaWriter(opts.KafkaBrokers, opts.KafkaTopic)
		reporters = append(reporters, NewKafka(opts.SensorID, opts.KafkaTopic, w))
	}

	switch len(reporters) {
	case 0:
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		return NewStdout(out), nil
	case 1:
		return reporters[0], nil
	}
	return NewMulti(reporters...)
}
