package sensors

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"periph.io/x/conn/v3/physic"
)

// DefaultIIORoot is where the kernel exposes industrial-I/O devices
const DefaultIIORoot = "/sys/bus/iio/devices"

// ErrDeviceNotFound is returned when no IIO device carries the wanted name
var ErrDeviceNotFound = errors.New("iio device not found")

// IIODevice reads channels of one Linux industrial-I/O device through sysfs.
// Values are processed as the kernel ABI defines them:
// in_<ch>_input when available, otherwise (raw + offset) * scale.
type IIODevice struct {
	Name string
	Dir  string
}

// FindIIODevice looks up the device whose name attribute equals name
func FindIIODevice(root, name string) (*IIODevice, error) {
	if root == "" {
		root = DefaultIIORoot
	}
	matches, err := filepath.Glob(filepath.Join(root, "iio:device*", "name"))
	if err != nil {
		return nil, fmt.Errorf("failed to list iio devices: %w", err)
	}
	for _, namePath := range matches {
		b, err := os.ReadFile(namePath)
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(b)) == name {
			return &IIODevice{Name: name, Dir: filepath.Dir(namePath)}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s under %s", ErrDeviceNotFound, name, root)
}

// Processed returns the channel value in the units of the IIO ABI
func (d *IIODevice) Processed(channel string) (float64, error) {
	if v, err := d.attr("in_" + channel + "_input"); err == nil {
		return v, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}

	raw, err := d.Raw(channel)
	if err != nil {
		return 0, err
	}
	offset, err := d.shared(channel, "offset", 0)
	if err != nil {
		return 0, err
	}
	scale, err := d.shared(channel, "scale", 1)
	if err != nil {
		return 0, err
	}
	return (raw + offset) * scale, nil
}

// Temperature reads in_temp, which the ABI defines in milli degrees Celsius
func (d *IIODevice) Temperature() (physic.Temperature, error) {
	v, err := d.Processed("temp")
	if err != nil {
		return 0, err
	}
	return physic.ZeroCelsius + physic.Temperature(math.Round(v*float64(physic.MilliKelvin))), nil
}

// Humidity reads in_humidityrelative, in milli percent
func (d *IIODevice) Humidity() (physic.RelativeHumidity, error) {
	v, err := d.Processed("humidityrelative")
	if err != nil {
		return 0, err
	}
	return physic.RelativeHumidity(math.Round(v * float64(physic.PercentRH) / 1000)), nil
}

// Pressure reads in_pressure, in kilopascal
func (d *IIODevice) Pressure() (physic.Pressure, error) {
	v, err := d.Processed("pressure")
	if err != nil {
		return 0, err
	}
	return physic.Pressure(math.Round(v * float64(physic.KiloPascal))), nil
}

func celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}

func percentRH(h physic.RelativeHumidity) float64 {
	return float64(h) / float64(physic.PercentRH)
}

// millibar is the hectopascal under its weather-station name
func millibar(p physic.Pressure) float64 {
	return float64(p) / float64(100*physic.Pascal)
}

// Raw returns the unscaled channel value
func (d *IIODevice) Raw(channel string) (float64, error) {
	return d.attr("in_" + channel + "_raw")
}

// shared reads a per-channel attribute, falling back to the attribute shared
// by all channels of the same type (in_accel_scale for in_accel_x).
func (d *IIODevice) shared(channel, suffix string, def float64) (float64, error) {
	for _, name := range []string{channel, channelType(channel)} {
		v, err := d.attr("in_" + name + "_" + suffix)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
	}
	return def, nil
}

func (d *IIODevice) attr(file string) (float64, error) {
	b, err := os.ReadFile(filepath.Join(d.Dir, file))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", d.Name, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: parse %s: %w", d.Name, file, err)
	}
	return v, nil
}

// channelType strips the axis modifier and index: accel_x -> accel, voltage0 -> voltage
func channelType(channel string) string {
	for _, axis := range []string{"_x", "_y", "_z"} {
		channel = strings.TrimSuffix(channel, axis)
	}
	return strings.TrimRightFunc(channel, unicode.IsDigit)
}
