// Package sensors reads the environmental and motion sensors of a board
// and assembles their values into a models.Reading.
//
// Each physical sensor is exposed through a small capability interface so
// that a board is just a Set of whichever capabilities it has. Drivers on
// Linux read the kernel's industrial-I/O sysfs attributes; a simulated
// board is available for development machines and tests.
package sensors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"pi-sensors/internal/models"
)

var (
	// ErrNotSupported is returned by a capability the hardware lacks
	ErrNotSupported = errors.New("not supported by this sensor")
	// ErrOutOfRange marks a value outside the physical range of the quantity
	ErrOutOfRange = errors.New("value out of range")
)

type valueRange struct{ lo, hi float64 }

var (
	temperatureRange = valueRange{-40, 125}
	percentRange     = valueRange{0, 100}
	pressureRange    = valueRange{260, 1260}
	compassRange     = valueRange{0, 360}
)

type TemperatureSensor interface {
	ReadTemperature(ctx context.Context) (float64, error) // Celsius
}

type HumiditySensor interface {
	ReadHumidity(ctx context.Context) (float64, error) // %RH
}

type PressureSensor interface {
	ReadPressure(ctx context.Context) (float64, error) // mbar
}

type AirQualitySensor interface {
	ReadAirPollution(ctx context.Context) (float64, error) // 0-100%
}

type AccelerometerSensor interface {
	ReadAccelerometer(ctx context.Context) (models.Vector3, error) // g
}

type GyroscopeSensor interface {
	ReadGyroscope(ctx context.Context) (models.Vector3, error) // rad/s
}

type CompassSensor interface {
	ReadCompass(ctx context.Context) (float64, error) // degrees
}

type OrientationSensor interface {
	ReadOrientation(ctx context.Context) (models.Orientation, error)
}

// Source yields the current sensor values on demand. Read never fails as a
// whole: a field that could not be read is left nil and recorded in
// Reading.Errors.
type Source interface {
	Read(ctx context.Context) models.Reading
}

// Set is the collection of capabilities a board offers. Nil entries are
// simply not read.
type Set struct {
	Temperature   TemperatureSensor
	Humidity      HumiditySensor
	Pressure      PressureSensor
	AirQuality    AirQualitySensor
	Accelerometer AccelerometerSensor
	Compass       CompassSensor
	Gyroscope     GyroscopeSensor
	Orientation   OrientationSensor
}

// InitializationError reports a device that could not be opened at startup
type InitializationError struct {
	Device string
	Err    error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Device, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Composite reads every capability of a Set in a fixed order
type Composite struct {
	sensorID string
	set      Set
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

// Option customizes a Composite
type Option func(*Composite)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *Composite) {
		c.now = now
	}
}

// NewComposite creates a source for the given sensor id
func NewComposite(sensorID string, set Set, opts ...Option) *Composite {
	c := &Composite{
		sensorID: sensorID,
		set:      set,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read captures one reading. Values keep their full precision.
func (c *Composite) Read(ctx context.Context) models.Reading {
	r := models.Reading{SensorID: c.sensorID}
	fail := func(f models.Field, err error) {
		r.Errors = append(r.Errors, models.SensorReadError{Field: f, Err: err})
	}

	if s := c.set.Temperature; s != nil {
		if v, err := readScalar(ctx, s.ReadTemperature, temperatureRange); err != nil {
			fail(models.FieldTemperature, err)
		} else {
			r.Temperature = &v
		}
	}
	if s := c.set.Humidity; s != nil {
		if v, err := readScalar(ctx, s.ReadHumidity, percentRange); err != nil {
			fail(models.FieldHumidity, err)
		} else {
			r.Humidity = &v
		}
	}
	if s := c.set.Pressure; s != nil {
		if v, err := readScalar(ctx, s.ReadPressure, pressureRange); err != nil {
			fail(models.FieldPressure, err)
		} else {
			r.Pressure = &v
		}
	}
	if s := c.set.AirQuality; s != nil {
		if v, err := readScalar(ctx, s.ReadAirPollution, percentRange); err != nil {
			fail(models.FieldAirPollution, err)
		} else {
			r.AirPollution = &v
		}
	}
	if s := c.set.Accelerometer; s != nil {
		if v, err := readVector(ctx, s.ReadAccelerometer); err != nil {
			fail(models.FieldAccelerometer, err)
		} else {
			r.Accelerometer = &v
		}
	}
	if s := c.set.Compass; s != nil {
		if v, err := readScalar(ctx, s.ReadCompass, compassRange); err != nil {
			fail(models.FieldCompass, err)
		} else {
			r.Compass = &v
		}
	}
	if s := c.set.Gyroscope; s != nil {
		if v, err := readVector(ctx, s.ReadGyroscope); err != nil {
			fail(models.FieldGyroscope, err)
		} else {
			r.Gyroscope = &v
		}
	}
	if s := c.set.Orientation; s != nil {
		if v, err := readOrientation(ctx, s.ReadOrientation); err != nil {
			fail(models.FieldOrientation, err)
		} else {
			r.Orientation = &v
		}
	}

	r.Timestamp = c.stamp()
	return r
}

// stamp returns the current UTC time, never earlier than the previous stamp
func (c *Composite) stamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

func readScalar(ctx context.Context, read func(context.Context) (float64, error), rng valueRange) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v, err := read(ctx)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < rng.lo || v > rng.hi {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, v)
	}
	return v, nil
}

func readVector(ctx context.Context, read func(context.Context) (models.Vector3, error)) (models.Vector3, error) {
	if err := ctx.Err(); err != nil {
		return models.Vector3{}, err
	}
	v, err := read(ctx)
	if err != nil {
		return models.Vector3{}, err
	}
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return models.Vector3{}, fmt.Errorf("%w: %v", ErrOutOfRange, v)
		}
	}
	return v, nil
}

// readOrientation rejects angles outside 0..360 degrees
func readOrientation(ctx context.Context, read func(context.Context) (models.Orientation, error)) (models.Orientation, error) {
	if err := ctx.Err(); err != nil {
		return models.Orientation{}, err
	}
	v, err := read(ctx)
	if err != nil {
		return models.Orientation{}, err
	}
	for _, a := range []float64{v.Pitch, v.Roll, v.Yaw} {
		if math.IsNaN(a) || a < compassRange.lo || a > compassRange.hi {
			return models.Orientation{}, fmt.Errorf("%w: %v", ErrOutOfRange, v)
		}
	}
	return v, nil
}
