// Package aggregator keeps a rolling window of recent readings and
// detects significant changes between consecutive ones.
package aggregator

import (
	"log"
	"math"
	"sync"
	"time"

	"pi-sensors/internal/models"
)

// ChangeThresholds defines thresholds for detecting significant changes.
// A zero delta disables detection for that field.
type ChangeThresholds struct {
	TemperatureDelta float64 // Celsius
	HumidityDelta    float64 // Percentage
	// MinInterval rate limits notifications per field
	MinInterval time.Duration
}

// Point is a single value in a field's window
type Point struct {
	Value float64   `json:"value"`
	Time  time.Time `json:"time"`
}

// Stats summarises a field's window
type Stats struct {
	Count int            `json:"count"`
	Last  models.Decimal `json:"last"`
	Min   models.Decimal `json:"min"`
	Max   models.Decimal `json:"max"`
	Avg   models.Decimal `json:"avg"`
}

// Change is a significant jump between two consecutive values
type Change struct {
	Field     models.Field
	Previous  float64
	Current   float64
	Delta     float64
	Timestamp time.Time
}

type window struct {
	points     []Point
	capacity   int
	lastNotify time.Time
	// angular values in degrees average on the circle
	angular bool
}

func (w *window) push(p Point) {
	if len(w.points) >= w.capacity {
		copy(w.points, w.points[1:])
		w.points[len(w.points)-1] = p
		return
	}
	w.points = append(w.points, p)
}

func (w *window) last() (Point, bool) {
	if len(w.points) == 0 {
		return Point{}, false
	}
	return w.points[len(w.points)-1], true
}

func (w *window) stats() Stats {
	s := Stats{Count: len(w.points)}
	if s.Count == 0 {
		return s
	}
	lo, hi, sum := math.MaxFloat64, -math.MaxFloat64, 0.0
	var sinSum, cosSum float64
	for _, p := range w.points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
		sum += p.Value
		if w.angular {
			rad := p.Value * math.Pi / 180
			sinSum += math.Sin(rad)
			cosSum += math.Cos(rad)
		}
	}
	s.Last = models.Decimal(w.points[len(w.points)-1].Value)
	s.Min = models.Decimal(lo)
	s.Max = models.Decimal(hi)
	s.Avg = models.Decimal(sum / float64(s.Count))
	if w.angular {
		s.Avg = models.Decimal(circularMean(sinSum, cosSum))
	}
	return s
}

// circularMean returns the mean direction in [0, 360)
func circularMean(sinSum, cosSum float64) float64 {
	deg := math.Atan2(sinSum, cosSum) * 180 / math.Pi
	deg = math.Mod(deg+360, 360)
	if 360-deg < 1e-9 {
		deg = 0
	}
	return deg
}

// SensorAggregator buffers the scalar fields of successive readings
type SensorAggregator struct {
	mu         sync.RWMutex
	capacity   int
	thresholds ChangeThresholds
	windows    map[models.Field]*window

	// Callback for significant changes
	onChange func(Change)
}

// NewSensorAggregator keeps up to capacity values per field
func NewSensorAggregator(capacity int, thresholds ChangeThresholds) *SensorAggregator {
	if capacity <= 0 {
		capacity = 1
	}
	return &SensorAggregator{
		capacity:   capacity,
		thresholds: thresholds,
		windows:    make(map[models.Field]*window),
	}
}

// SetChangeCallback sets the callback function for significant changes
func (sa *SensorAggregator) SetChangeCallback(callback func(Change)) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	sa.onChange = callback
}

// Update records every scalar field present in r and returns the
// significant changes it caused
func (sa *SensorAggregator) Update(r models.Reading) []Change {
	sa.mu.Lock()
	var changes []Change
	for _, f := range []struct {
		field models.Field
		value *float64
		delta float64
	}{
		{models.FieldTemperature, r.Temperature, sa.thresholds.TemperatureDelta},
		{models.FieldHumidity, r.Humidity, sa.thresholds.HumidityDelta},
		{models.FieldPressure, r.Pressure, 0},
		{models.FieldAirPollution, r.AirPollution, 0},
		{models.FieldCompass, r.Compass, 0},
	} {
		if f.value == nil {
			continue
		}
		w := sa.window(f.field)
		prev, hadPrev := w.last()
		w.push(Point{Value: *f.value, Time: r.Timestamp})

		if !hadPrev || f.delta <= 0 {
			continue
		}
		delta := math.Abs(*f.value - prev.Value)
		if delta < f.delta {
			continue
		}
		// Rate limiting
		if !w.lastNotify.IsZero() && r.Timestamp.Sub(w.lastNotify) < sa.thresholds.MinInterval {
			continue
		}
		w.lastNotify = r.Timestamp
		changes = append(changes, Change{
			Field:     f.field,
			Previous:  prev.Value,
			Current:   *f.value,
			Delta:     delta,
			Timestamp: r.Timestamp,
		})
	}
	callback := sa.onChange
	sa.mu.Unlock()

	for _, c := range changes {
		log.Printf("Significant %s change detected for %s: %.2f (delta: %.2f)",
			c.Field, r.SensorID, c.Current, c.Delta)
		if callback != nil {
			callback(c)
		}
	}
	return changes
}

func (sa *SensorAggregator) window(field models.Field) *window {
	w, ok := sa.windows[field]
	if !ok {
		w = &window{
			capacity: sa.capacity,
			points:   make([]Point, 0, sa.capacity),
			angular:  field == models.FieldCompass,
		}
		sa.windows[field] = w
	}
	return w
}

// Stats returns the summary of every field seen so far
func (sa *SensorAggregator) Stats() map[models.Field]Stats {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	out := make(map[models.Field]Stats, len(sa.windows))
	for field, w := range sa.windows {
		out[field] = w.stats()
	}
	return out
}

// History returns a copy of the window for field, oldest first
func (sa *SensorAggregator) History(field models.Field) []Point {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	w, ok := sa.windows[field]
	if !ok {
		return nil
	}
	out := make([]Point, len(w.points))
	copy(out, w.points)
	return out
}
