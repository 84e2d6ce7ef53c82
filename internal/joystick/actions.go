package joystick

import (
	"context"
	"log"
	"sync"

	"pi-sensors/internal/display"
	"pi-sensors/internal/format"
	"pi-sensors/internal/models"
	"pi-sensors/internal/power"
	"pi-sensors/internal/state"
)

// Connection reports and repairs the uplink
type Connection interface {
	ConnectionStatus() string
	Reconnect(ctx context.Context) error
}

// StaticConnection is used when there is nothing to diagnose
type StaticConnection struct{}

func (StaticConnection) ConnectionStatus() string { return "Conn status: " }

// Reconnect does nothing: there is no uplink to repair
func (StaticConnection) Reconnect(ctx context.Context) error {
	log.Println("Dispatcher: reconnect requested, nothing to do")
	return nil
}

// BrokerLink is satisfied by *mqtt.Client
type BrokerLink interface {
	IsConnected() bool
}

// BrokerConnection reports the state of the MQTT connection
type BrokerConnection struct {
	Link BrokerLink
}

func (c BrokerConnection) ConnectionStatus() string {
	if c.Link.IsConnected() {
		return "Conn status: up"
	}
	return "Conn status: down"
}

// Reconnect is left to the MQTT client's auto-reconnect
func (c BrokerConnection) Reconnect(ctx context.Context) error {
	log.Println("Dispatcher: reconnect requested, relying on MQTT auto-reconnect")
	return nil
}

// Actions holds what the default handlers act upon
type Actions struct {
	Display    display.Display
	Power      power.Controller
	Readings   *state.Slot
	Connection Connection
	// Exit terminates the process after a power action
	Exit func(code int)

	powerOnce sync.Once
}

// DefaultBindings installs the default table: up restarts, right checks
// the connection, down shuts down and left shows the last temperature.
func DefaultBindings(d *Dispatcher, a *Actions) {
	d.Bind(models.DirectionUp, a.Restart)
	d.Bind(models.DirectionRight, a.CheckConnection)
	d.Bind(models.DirectionDown, a.Shutdown)
	d.Bind(models.DirectionLeft, a.PrintTemperature)
}

// Shutdown powers the machine off when the stick is held
func (a *Actions) Shutdown(ctx context.Context, ev models.InputEvent) {
	if ev.Action != models.ActionHeld {
		return
	}
	a.powerAction(ctx, "Shutting down.", a.Power.Shutdown)
}

// Restart reboots the machine when the stick is held
func (a *Actions) Restart(ctx context.Context, ev models.InputEvent) {
	if ev.Action != models.ActionHeld {
		return
	}
	a.powerAction(ctx, "Restarting...", a.Power.Restart)
}

// powerAction runs at most once per process: after it the process exits
func (a *Actions) powerAction(ctx context.Context, msg string, act func(context.Context) error) {
	a.powerOnce.Do(func() {
		a.show(ctx, msg)
		if err := act(ctx); err != nil {
			log.Printf("Dispatcher: power action failed: %v", err)
		}
		if a.Exit != nil {
			a.Exit(0)
		}
	})
}

// CheckConnection shows the status on press and reconnects on hold
func (a *Actions) CheckConnection(ctx context.Context, ev models.InputEvent) {
	conn := a.Connection
	if conn == nil {
		conn = StaticConnection{}
	}
	switch ev.Action {
	case models.ActionPressed:
		a.show(ctx, conn.ConnectionStatus())
	case models.ActionHeld:
		if err := conn.Reconnect(ctx); err != nil {
			log.Printf("Dispatcher: reconnect failed: %v", err)
		}
	}
}

// PrintTemperature shows the last captured temperature on press
func (a *Actions) PrintTemperature(ctx context.Context, ev models.InputEvent) {
	if ev.Action != models.ActionPressed {
		return
	}
	value := "n/a"
	if a.Readings != nil {
		if temp, ok := a.Readings.LastTemperature(); ok {
			value = format.Value(temp)
		}
	}
	a.show(ctx, "Temp: "+value)
}

func (a *Actions) show(ctx context.Context, msg string) {
	if a.Display == nil {
		log.Printf("Dispatcher: %s", msg)
		return
	}
	if err := a.Display.ShowMessage(ctx, msg); err != nil {
		log.Printf("Dispatcher: display failed: %v", err)
	}
}
