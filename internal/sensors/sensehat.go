package sensors

import (
	"context"
	"fmt"
	"math"

	"pi-sensors/internal/models"
)

// IIO names of the Sense HAT chips
const (
	HTS221Device    = "hts221"
	LPS25HDevice    = "lps25h"
	LSM9DS1Accel    = "lsm9ds1_accel"
	LSM9DS1Gyro     = "lsm9ds1_gyro"
	LSM9DS1Magneto  = "lsm9ds1_magn"
	standardGravity = 9.80665
)

// SenseHAT exposes the Sense HAT environmental and motion sensors.
// Orientation needs sensor fusion, which is not done here, so the board
// does not offer it.
type SenseHAT struct {
	humidity *IIODevice
	pressure *IIODevice
	accel    *IIODevice
	gyro     *IIODevice
	magn     *IIODevice
}

// OpenSenseHAT finds all chips under root
func OpenSenseHAT(root string) (*SenseHAT, error) {
	h := &SenseHAT{}
	for _, d := range []struct {
		name string
		dst  **IIODevice
	}{
		{HTS221Device, &h.humidity},
		{LPS25HDevice, &h.pressure},
		{LSM9DS1Accel, &h.accel},
		{LSM9DS1Gyro, &h.gyro},
		{LSM9DS1Magneto, &h.magn},
	} {
		dev, err := FindIIODevice(root, d.name)
		if err != nil {
			return nil, &InitializationError{Device: "Sense HAT", Err: err}
		}
		*d.dst = dev
	}
	return h, nil
}

// ReadTemperature uses the humidity chip's thermometer
func (h *SenseHAT) ReadTemperature(ctx context.Context) (float64, error) {
	v, err := h.humidity.Temperature()
	if err != nil {
		return 0, fmt.Errorf("sense hat temperature: %w", err)
	}
	return celsius(v), nil
}

func (h *SenseHAT) ReadHumidity(ctx context.Context) (float64, error) {
	v, err := h.humidity.Humidity()
	if err != nil {
		return 0, fmt.Errorf("sense hat humidity: %w", err)
	}
	return percentRH(v), nil
}

// ReadPressure converts the kPa reported by the kernel to millibars
func (h *SenseHAT) ReadPressure(ctx context.Context) (float64, error) {
	v, err := h.pressure.Pressure()
	if err != nil {
		return 0, fmt.Errorf("sense hat pressure: %w", err)
	}
	return millibar(v), nil
}

// ReadAccelerometer returns acceleration in g
func (h *SenseHAT) ReadAccelerometer(ctx context.Context) (models.Vector3, error) {
	v, err := readAxes(h.accel, "accel")
	if err != nil {
		return models.Vector3{}, fmt.Errorf("sense hat accelerometer: %w", err)
	}
	return models.Vector3{X: v.X / standardGravity, Y: v.Y / standardGravity, Z: v.Z / standardGravity}, nil
}

// ReadGyroscope returns angular velocity in rad/s
func (h *SenseHAT) ReadGyroscope(ctx context.Context) (models.Vector3, error) {
	v, err := readAxes(h.gyro, "anglvel")
	if err != nil {
		return models.Vector3{}, fmt.Errorf("sense hat gyroscope: %w", err)
	}
	return v, nil
}

// ReadCompass returns the heading of magnetic north in degrees
func (h *SenseHAT) ReadCompass(ctx context.Context) (float64, error) {
	v, err := readAxes(h.magn, "magn")
	if err != nil {
		return 0, fmt.Errorf("sense hat compass: %w", err)
	}
	return Heading(v.X, v.Y), nil
}

// Heading converts the horizontal magnetometer components to 0-360 degrees
func Heading(x, y float64) float64 {
	deg := math.Atan2(y, x) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

func readAxes(dev *IIODevice, kind string) (models.Vector3, error) {
	var out [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		v, err := dev.Processed(kind + "_" + axis)
		if err != nil {
			return models.Vector3{}, err
		}
		out[i] = v
	}
	return models.Vector3{X: out[0], Y: out[1], Z: out[2]}, nil
}
