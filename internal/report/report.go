// Package report delivers formatted readings to their destination: the
// console, an HTTP endpoint, an MQTT broker or a Kafka topic.
//
// A failed send is never retried and the output is dropped; the caller
// logs the error and moves on to the next cycle.
package report

import (
	"context"
	"errors"
	"fmt"

	"pi-sensors/internal/format"
)

// ErrStreamClosed means the local output stream can no longer be written.
// Unlike other send failures it is fatal to the poll loop.
var ErrStreamClosed = errors.New("output stream closed")

// Reporter sends one formatted reading
type Reporter interface {
	// Mode is the output representation the reporter expects
	Mode() format.Mode
	Send(ctx context.Context, out format.Output) error
	Close() error
}

// ReportError describes a failed transmission
type ReportError struct {
	Destination string
	StatusCode  int    // HTTP status, 0 when no response was received
	Reason      string // status text or transport error
	Err         error
}

func (e *ReportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("report to %s failed: %s", e.Destination, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("report to %s failed: %v", e.Destination, e.Err)
	}
	return fmt.Sprintf("report to %s failed: %s", e.Destination, e.Reason)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err should stop the poll loop
func IsFatal(err error) bool {
	return errors.Is(err, ErrStreamClosed)
}
