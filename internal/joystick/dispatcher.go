// Package joystick maps joystick input events to system actions.
//
// The dispatcher is table driven: each direction is bound to one handler,
// and the handler decides what to do based on the event's action. Events
// arrive on the input driver's goroutine, never on the poll loop's.
package joystick

import (
	"context"
	"log"
	"sync"

	"pi-sensors/internal/models"
)

// Handler reacts to an event in the direction it is bound to
type Handler func(ctx context.Context, ev models.InputEvent)

// Dispatcher routes events to the handler bound to their direction
type Dispatcher struct {
	mu    sync.RWMutex
	table map[models.Direction]Handler
	debug bool
}

// NewDispatcher returns a dispatcher with no bindings
func NewDispatcher(debug bool) *Dispatcher {
	return &Dispatcher{table: make(map[models.Direction]Handler), debug: debug}
}

// Bind sets the handler for dir, replacing any previous one
func (d *Dispatcher) Bind(dir models.Direction, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table[dir] = h
}

// Dispatch runs the handler bound to ev.Direction and reports whether
// there was one
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.InputEvent) bool {
	d.mu.RLock()
	h, ok := d.table[ev.Direction]
	d.mu.RUnlock()

	if !ok {
		if d.debug {
			log.Printf("Dispatcher: no handler for %s %s", ev.Direction, ev.Action)
		}
		return false
	}
	if d.debug {
		log.Printf("Dispatcher: %s %s", ev.Direction, ev.Action)
	}
	h(ctx, ev)
	return true
}
