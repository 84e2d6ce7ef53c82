package sensors

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"pi-sensors/internal/models"
)

// Simulated generates plausible values for every capability, drifting a
// little on each read. It stands in for real hardware on a workstation.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand

	temp, humi, pres, air, heading float64
	orient                         models.Orientation
}

// NewSimulated creates a simulator; the same seed gives the same sequence
func NewSimulated(seed int64) *Simulated {
	rng := rand.New(rand.NewSource(seed))
	return &Simulated{
		rng:     rng,
		temp:    18 + rng.Float64()*10, // 18-28°C
		humi:    30 + rng.Float64()*40, // 30-70%
		pres:    1000 + rng.Float64()*25,
		air:     rng.Float64() * 20,
		heading: rng.Float64() * 360,
	}
}

// walk moves v by at most step and keeps it inside [lo, hi]
func (s *Simulated) walk(v *float64, step, lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	*v = math.Min(hi, math.Max(lo, *v+(s.rng.Float64()*2-1)*step))
	return *v
}

func (s *Simulated) ReadTemperature(ctx context.Context) (float64, error) {
	return s.walk(&s.temp, 0.2, -10, 45), nil
}

func (s *Simulated) ReadHumidity(ctx context.Context) (float64, error) {
	return s.walk(&s.humi, 0.5, 0, 100), nil
}

func (s *Simulated) ReadPressure(ctx context.Context) (float64, error) {
	return s.walk(&s.pres, 0.3, 950, 1050), nil
}

func (s *Simulated) ReadAirPollution(ctx context.Context) (float64, error) {
	return s.walk(&s.air, 1, 0, 100), nil
}

func (s *Simulated) ReadCompass(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heading = math.Mod(s.heading+s.rng.Float64()*2-1+360, 360)
	return s.heading, nil
}

func (s *Simulated) ReadAccelerometer(ctx context.Context) (models.Vector3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Vector3{
		X: (s.rng.Float64()*2 - 1) * 0.02,
		Y: (s.rng.Float64()*2 - 1) * 0.02,
		Z: 1 + (s.rng.Float64()*2-1)*0.02,
	}, nil
}

func (s *Simulated) ReadGyroscope(ctx context.Context) (models.Vector3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Vector3{
		X: (s.rng.Float64()*2 - 1) * 0.01,
		Y: (s.rng.Float64()*2 - 1) * 0.01,
		Z: (s.rng.Float64()*2 - 1) * 0.01,
	}, nil
}

func (s *Simulated) ReadOrientation(ctx context.Context) (models.Orientation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := func(v float64) float64 {
		return math.Mod(v+s.rng.Float64()*2-1+360, 360)
	}
	s.orient = models.Orientation{Pitch: turn(s.orient.Pitch), Roll: turn(s.orient.Roll), Yaw: turn(s.orient.Yaw)}
	return s.orient, nil
}
