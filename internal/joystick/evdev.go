package joystick

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"pi-sensors/internal/models"
)

// Linux input subsystem constants
const (
	evKey = 0x01

	keyEnter = 28
	keyUp    = 103
	keyLeft  = 105
	keyRight = 106
	keyDown  = 108
)

// DefaultDevice is where the Sense HAT joystick usually appears
const DefaultDevice = "/dev/input/event0"

var keyDirections = map[uint16]models.Direction{
	keyUp:    models.DirectionUp,
	keyDown:  models.DirectionDown,
	keyLeft:  models.DirectionLeft,
	keyRight: models.DirectionRight,
	keyEnter: models.DirectionMiddle,
}

var keyActions = map[int32]models.Action{
	0: models.ActionReleased,
	1: models.ActionPressed,
	2: models.ActionHeld,
}

// timevalSize is the width of struct timeval on this platform
var timevalSize = 2 * strconv.IntSize / 8

// EventReader decodes input_event records from an evdev device
type EventReader struct {
	r      io.Reader
	closer io.Closer
	tv     int
	order  binary.ByteOrder

	closeOnce sync.Once
}

// OpenEventReader opens an evdev character device
func OpenEventReader(path string) (*EventReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input device %s: %w", path, err)
	}
	er := NewEventReader(f)
	er.closer = f
	return er, nil
}

// NewEventReader decodes records from r using the native timeval width
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{r: r, tv: timevalSize, order: binary.LittleEndian}
}

// Next blocks until the next joystick event. Records that are not key
// events for one of the five stick directions are skipped.
func (er *EventReader) Next() (models.InputEvent, error) {
	buf := make([]byte, er.tv+8)
	for {
		if _, err := io.ReadFull(er.r, buf); err != nil {
			return models.InputEvent{}, err
		}
		ev, ok := er.decode(buf)
		if ok {
			return ev, nil
		}
	}
}

func (er *EventReader) decode(buf []byte) (models.InputEvent, bool) {
	half := er.tv / 2
	var sec, usec int64
	if half == 8 {
		sec = int64(er.order.Uint64(buf[0:8]))
		usec = int64(er.order.Uint64(buf[8:16]))
	} else {
		sec = int64(int32(er.order.Uint32(buf[0:4])))
		usec = int64(int32(er.order.Uint32(buf[4:8])))
	}
	typ := er.order.Uint16(buf[er.tv:])
	code := er.order.Uint16(buf[er.tv+2:])
	value := int32(er.order.Uint32(buf[er.tv+4:]))

	if typ != evKey {
		return models.InputEvent{}, false
	}
	dir, ok := keyDirections[code]
	if !ok {
		return models.InputEvent{}, false
	}
	action, ok := keyActions[value]
	if !ok {
		return models.InputEvent{}, false
	}
	return models.InputEvent{
		Direction: dir,
		Action:    action,
		Timestamp: time.Unix(sec, usec*int64(time.Microsecond)).UTC(),
	}, true
}

// Listen feeds events to handle until ctx is cancelled or the device
// closes. Cancellation closes the device to unblock the pending read.
func (er *EventReader) Listen(ctx context.Context, handle Handler) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			er.Close()
		case <-stop:
		}
	}()

	for {
		ev, err := er.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read input event: %w", err)
		}
		handle(ctx, ev)
	}
}

// Close releases the device, if it was opened by OpenEventReader
func (er *EventReader) Close() error {
	var err error
	er.closeOnce.Do(func() {
		if er.closer != nil {
			err = er.closer.Close()
			log.Println("Joystick: input device closed")
		}
	})
	return err
}
