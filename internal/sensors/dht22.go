package sensors

import (
	"context"
	"fmt"
)

// DHT22 reads a DHT22/AM2302 bound to the kernel dht11 driver, which reports
// milli-degrees Celsius and milli-percent relative humidity.
type DHT22 struct {
	dev *IIODevice
}

// DefaultDHTDevice is the IIO name registered by the dht11 kernel driver
const DefaultDHTDevice = "dht11"

// OpenDHT22 finds the sensor under root
func OpenDHT22(root, name string) (*DHT22, error) {
	if name == "" {
		name = DefaultDHTDevice
	}
	dev, err := FindIIODevice(root, name)
	if err != nil {
		return nil, &InitializationError{Device: "DHT22", Err: err}
	}
	return &DHT22{dev: dev}, nil
}

func (s *DHT22) ReadTemperature(ctx context.Context) (float64, error) {
	v, err := s.dev.Temperature()
	if err != nil {
		return 0, fmt.Errorf("dht22 temperature: %w", err)
	}
	return celsius(v), nil
}

func (s *DHT22) ReadHumidity(ctx context.Context) (float64, error) {
	v, err := s.dev.Humidity()
	if err != nil {
		return 0, fmt.Errorf("dht22 humidity: %w", err)
	}
	return percentRH(v), nil
}
