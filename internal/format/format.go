// Package format turns a Reading into the text line or JSON payload that a
// reporter delivers. Everything here is pure: no I/O and no shared state.
package format

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pi-sensors/internal/models"
)

// Mode selects the output representation
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Layout selects how text mode arranges the fields
type Layout int

const (
	// LayoutSummary prints one line carrying id, timestamp, air pollution,
	// humidity and temperature.
	LayoutSummary Layout = iota
	// LayoutDetailed prints one line per field, in this order: temperature,
	// humidity, pressure, accelerometer, compass, gyroscope, orientation.
	LayoutDetailed
)

const (
	TextTimestampLayout = "2006-01-02 15:04:05.000000"
	JSONTimestampLayout = "2006-01-02T15:04:05.000000Z"

	absent = "n/a"
)

// Output is a formatted reading ready to be sent
type Output struct {
	Mode        Mode
	ContentType string
	Body        []byte
}

func (o Output) String() string {
	return string(o.Body)
}

// Formatter formats readings in a fixed text layout
type Formatter struct {
	Layout Layout
}

// New returns a formatter using the given text layout
func New(layout Layout) Formatter {
	return Formatter{Layout: layout}
}

// Format converts r into the requested representation
func (f Formatter) Format(r models.Reading, mode Mode) (Output, error) {
	switch mode {
	case ModeText:
		var body string
		if f.Layout == LayoutDetailed {
			body = Detailed(r)
		} else {
			body = Summary(r)
		}
		return Output{Mode: ModeText, ContentType: "text/plain; charset=utf-8", Body: []byte(body)}, nil
	case ModeJSON:
		body, err := json.Marshal(NewPayload(r))
		if err != nil {
			return Output{}, fmt.Errorf("failed to marshal reading: %w", err)
		}
		return Output{Mode: ModeJSON, ContentType: "application/json", Body: body}, nil
	}
	return Output{}, fmt.Errorf("unknown output mode %q", mode)
}

// NewPayload builds the wire payload for r
func NewPayload(r models.Reading) models.Payload {
	p := models.Payload{
		ID:           r.SensorID,
		Timestamp:    r.Timestamp.UTC().Format(JSONTimestampLayout),
		AirPollution: models.DecimalPtr(r.AirPollution),
		Humidity:     models.DecimalPtr(r.Humidity),
		Temperature:  models.DecimalPtr(r.Temperature),
		Pressure:     models.DecimalPtr(r.Pressure),
		Compass:      models.DecimalPtr(r.Compass),
	}
	if v := r.Accelerometer; v != nil {
		p.Accelerometer = &models.VectorPayload{X: models.Decimal(v.X), Y: models.Decimal(v.Y), Z: models.Decimal(v.Z)}
	}
	if v := r.Gyroscope; v != nil {
		p.Gyroscope = &models.VectorPayload{X: models.Decimal(v.X), Y: models.Decimal(v.Y), Z: models.Decimal(v.Z)}
	}
	if o := r.Orientation; o != nil {
		p.Orientation = &models.OrientationPayload{
			Pitch: models.Decimal(o.Pitch),
			Roll:  models.Decimal(o.Roll),
			Yaw:   models.Decimal(o.Yaw),
		}
	}
	return p
}

// Summary renders the single-line form, e.g.
//
//	Id: "sensor-1", Timestamp (UTC): "2024-01-01 10:00:00.000000", Air pollution: 12.3%, Humidity: 45.7%, Temperature: 21.0c
func Summary(r models.Reading) string {
	return fmt.Sprintf(`Id: "%s", Timestamp (UTC): "%s", Air pollution: %s, Humidity: %s, Temperature: %s`,
		r.SensorID,
		r.Timestamp.UTC().Format(TextTimestampLayout),
		withUnit(r.AirPollution, "%"),
		withUnit(r.Humidity, "%"),
		withUnit(r.Temperature, "c"),
	)
}

// Detailed renders one line per field
func Detailed(r models.Reading) string {
	lines := []string{
		"Temperature: " + scalar(r.Temperature),
		"Humidity: " + scalar(r.Humidity),
		"Pressure: " + scalar(r.Pressure),
		"Accelerometer: " + vector(r.Accelerometer),
		"Compass: " + scalar(r.Compass),
		"Gyroscope: " + vector(r.Gyroscope),
		"Orientation (degrees): " + orientation(r.Orientation),
	}
	return strings.Join(lines, "\n")
}

// Value renders a single number with one decimal
func Value(v float64) string {
	return strconv.FormatFloat(models.Round1(v), 'f', 1, 64)
}

func withUnit(v *float64, unit string) string {
	if v == nil {
		return absent
	}
	return Value(*v) + unit
}

func scalar(v *float64) string {
	if v == nil {
		return absent
	}
	return Value(*v)
}

func vector(v *models.Vector3) string {
	if v == nil {
		return absent
	}
	return fmt.Sprintf("x=%s y=%s z=%s", Value(v.X), Value(v.Y), Value(v.Z))
}

func orientation(o *models.Orientation) string {
	if o == nil {
		return absent
	}
	return fmt.Sprintf("pitch=%s roll=%s yaw=%s", Value(o.Pitch), Value(o.Roll), Value(o.Yaw))
}
