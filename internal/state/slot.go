// Package state holds the single value shared between the poll loop and
// the joystick handlers: the most recent completed Reading.
package state

import (
	"sync/atomic"

	"pi-sensors/internal/models"
)

// Slot is a single-writer, multi-reader container for the last Reading.
// Store replaces the whole value, so a reader sees either the previous
// or the new Reading, never a mix of both.
type Slot struct {
	last atomic.Pointer[models.Reading]
}

// NewSlot returns an empty slot
func NewSlot() *Slot {
	return &Slot{}
}

// Store publishes r as the latest reading
func (s *Slot) Store(r models.Reading) {
	s.last.Store(&r)
}

// Load returns the latest reading, if any
func (s *Slot) Load() (models.Reading, bool) {
	r := s.last.Load()
	if r == nil {
		return models.Reading{}, false
	}
	return *r, true
}

// LastTemperature returns the temperature of the latest reading
func (s *Slot) LastTemperature() (float64, bool) {
	r := s.last.Load()
	if r == nil || r.Temperature == nil {
		return 0, false
	}
	return *r.Temperature, true
}
