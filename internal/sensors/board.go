package sensors

import (
	"fmt"
	"time"
)

// Board names a supported sensor layout
type Board string

const (
	// BoardEnviro is a DHT22 plus a Grove air quality sensor
	BoardEnviro Board = "enviro"
	// BoardSenseHAT is the Raspberry Pi Sense HAT
	BoardSenseHAT Board = "sensehat"
	// BoardSim generates values without hardware
	BoardSim Board = "sim"
)

// ParseBoard validates a board name
func ParseBoard(s string) (Board, error) {
	switch b := Board(s); b {
	case BoardEnviro, BoardSenseHAT, BoardSim:
		return b, nil
	case "":
		return BoardEnviro, nil
	}
	return "", fmt.Errorf("unknown board %q (want enviro, sensehat or sim)", s)
}

// BoardConfig locates the devices of a board
type BoardConfig struct {
	Board               Board
	IIORoot             string
	DHTDevice           string
	AirQualityDevice    string
	AirQualityChannel   string
	AirQualityFullScale float64
	Seed                int64 // simulator only
}

// OpenBoard opens every sensor of the board. A missing device is an
// *InitializationError.
func OpenBoard(cfg BoardConfig) (Set, error) {
	switch cfg.Board {
	case BoardEnviro, "":
		dht, err := OpenDHT22(cfg.IIORoot, cfg.DHTDevice)
		if err != nil {
			return Set{}, err
		}
		air, err := OpenGroveAirQuality(cfg.IIORoot, cfg.AirQualityDevice, cfg.AirQualityChannel, cfg.AirQualityFullScale)
		if err != nil {
			return Set{}, err
		}
		return Set{Temperature: dht, Humidity: dht, AirQuality: air}, nil

	case BoardSenseHAT:
		hat, err := OpenSenseHAT(cfg.IIORoot)
		if err != nil {
			return Set{}, err
		}
		return Set{
			Temperature:   hat,
			Humidity:      hat,
			Pressure:      hat,
			Accelerometer: hat,
			Compass:       hat,
			Gyroscope:     hat,
		}, nil

	case BoardSim:
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		sim := NewSimulated(seed)
		return Set{
			Temperature:   sim,
			Humidity:      sim,
			Pressure:      sim,
			AirQuality:    sim,
			Accelerometer: sim,
			Compass:       sim,
			Gyroscope:     sim,
			Orientation:   sim,
		}, nil
	}
	return Set{}, &InitializationError{Device: string(cfg.Board), Err: fmt.Errorf("unknown board")}
}
