package models

import (
	"fmt"
	"time"
)

// Direction of a joystick input
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionLeft   Direction = "left"
	DirectionRight  Direction = "right"
	DirectionMiddle Direction = "middle"
)

// Action is what happened to the stick in a direction
type Action string

const (
	ActionPressed  Action = "pressed"
	ActionReleased Action = "released"
	ActionHeld     Action = "held"
)

// InputEvent is a discrete directional signal from the joystick
type InputEvent struct {
	Direction Direction `json:"direction"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks that the direction and action are known
func (e InputEvent) Validate() error {
	switch e.Direction {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight, DirectionMiddle:
	default:
		return fmt.Errorf("unknown direction %q", e.Direction)
	}
	switch e.Action {
	case ActionPressed, ActionReleased, ActionHeld:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	return nil
}
