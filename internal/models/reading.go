package models

import (
	"fmt"
	"time"
)

// Field names a single quantity inside a Reading
type Field string

const (
	FieldTemperature   Field = "temperature"
	FieldHumidity      Field = "humidity"
	FieldPressure      Field = "pressure"
	FieldAirPollution  Field = "air_pollution"
	FieldAccelerometer Field = "accelerometer"
	FieldCompass       Field = "compass"
	FieldGyroscope     Field = "gyroscope"
	FieldOrientation   Field = "orientation"
)

// Vector3 is a 3-axis sample (accelerometer in g, gyroscope in rad/s)
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Orientation holds the aircraft principal axes in degrees (0-360)
type Orientation struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// Reading is one timestamped snapshot of sensor values.
// A nil field means the value is absent for this cycle.
type Reading struct {
	SensorID  string
	Timestamp time.Time // UTC

	Temperature  *float64 // Celsius
	Humidity     *float64 // Percentage of relative humidity
	Pressure     *float64 // Millibars
	AirPollution *float64 // 0-100%, 0 is best air quality
	Compass      *float64 // Degrees from north

	Accelerometer *Vector3
	Gyroscope     *Vector3
	Orientation   *Orientation

	// Errors lists the fields that failed to read in this cycle
	Errors []SensorReadError
}

// Has reports whether the given field carries a value
func (r Reading) Has(f Field) bool {
	switch f {
	case FieldTemperature:
		return r.Temperature != nil
	case FieldHumidity:
		return r.Humidity != nil
	case FieldPressure:
		return r.Pressure != nil
	case FieldAirPollution:
		return r.AirPollution != nil
	case FieldCompass:
		return r.Compass != nil
	case FieldAccelerometer:
		return r.Accelerometer != nil
	case FieldGyroscope:
		return r.Gyroscope != nil
	case FieldOrientation:
		return r.Orientation != nil
	}
	return false
}

// Float returns a pointer to v, for building readings
func Float(v float64) *float64 {
	return &v
}

// SensorReadError marks a single field that could not be read
type SensorReadError struct {
	Field Field
	Err   error
}

func (e SensorReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Field, e.Err)
}

func (e SensorReadError) Unwrap() error {
	return e.Err
}
