package models

import (
	"fmt"
	"math"
	"strconv"
)

// Decimal is a number serialized with exactly one fractional digit
type Decimal float64

// Round1 rounds v to one decimal place, half away from zero
func Round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0 // drop the sign of -0
	}
	return r
}

// MarshalJSON writes the value rounded to one decimal, e.g. 21.0 rather than 21
func (d Decimal) MarshalJSON() ([]byte, error) {
	v := float64(d)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("decimal: unsupported value %v", v)
	}
	return strconv.AppendFloat(nil, Round1(v), 'f', 1, 64), nil
}

// DecimalPtr converts an optional reading value
func DecimalPtr(v *float64) *Decimal {
	if v == nil {
		return nil
	}
	d := Decimal(*v)
	return &d
}

// VectorPayload is the wire form of a Vector3
type VectorPayload struct {
	X Decimal `json:"x"`
	Y Decimal `json:"y"`
	Z Decimal `json:"z"`
}

// OrientationPayload is the wire form of an Orientation
type OrientationPayload struct {
	Pitch Decimal `json:"pitch"`
	Roll  Decimal `json:"roll"`
	Yaw   Decimal `json:"yaw"`
}

// Payload is the JSON body sent to remote endpoints.
// The first five fields are always present (null when absent);
// the motion and pressure fields only appear when the board has them.
type Payload struct {
	ID           string   `json:"id"`
	Timestamp    string   `json:"tms_utc"`
	AirPollution *Decimal `json:"air_poll_pct"`
	Humidity     *Decimal `json:"humi_pct"`
	Temperature  *Decimal `json:"temp_celsius"`

	Pressure      *Decimal            `json:"pressure_mbar,omitempty"`
	Compass       *Decimal            `json:"compass_deg,omitempty"`
	Accelerometer *VectorPayload      `json:"accel,omitempty"`
	Gyroscope     *VectorPayload      `json:"gyro,omitempty"`
	Orientation   *OrientationPayload `json:"orientation,omitempty"`
}
