package sensors

import (
	"context"
	"fmt"
)

const (
	// DefaultAirQualityDevice is the IIO name of the ADC the sensor is wired to
	DefaultAirQualityDevice  = "ads1015"
	DefaultAirQualityChannel = "voltage0"
	// DefaultAirQualityFullScale is the raw value meaning 100% pollution
	DefaultAirQualityFullScale = 1000
)

// GroveAirQuality reads the Grove air quality sensor (v1.3) through an ADC
// channel. The raw value is a pollution ratio where 0 is the best air
// quality and the full scale the worst.
type GroveAirQuality struct {
	dev       *IIODevice
	channel   string
	fullScale float64
}

// OpenGroveAirQuality finds the ADC under root
func OpenGroveAirQuality(root, device, channel string, fullScale float64) (*GroveAirQuality, error) {
	if device == "" {
		device = DefaultAirQualityDevice
	}
	if channel == "" {
		channel = DefaultAirQualityChannel
	}
	if fullScale <= 0 {
		fullScale = DefaultAirQualityFullScale
	}
	dev, err := FindIIODevice(root, device)
	if err != nil {
		return nil, &InitializationError{Device: "air quality sensor", Err: err}
	}
	return &GroveAirQuality{dev: dev, channel: channel, fullScale: fullScale}, nil
}

// ReadAirPollution returns the pollution ratio as a percentage
func (s *GroveAirQuality) ReadAirPollution(ctx context.Context) (float64, error) {
	raw, err := s.dev.Raw(s.channel)
	if err != nil {
		return 0, fmt.Errorf("air quality: %w", err)
	}
	return raw / s.fullScale * 100, nil
}
