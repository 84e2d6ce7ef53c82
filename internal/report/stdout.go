package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"pi-sensors/internal/format"
)

// Stdout writes text readings to a stream, one per line
type Stdout struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdout returns a reporter writing to w
func NewStdout(w io.Writer) *Stdout {
	return &Stdout{w: w}
}

func (s *Stdout) Mode() format.Mode { return format.ModeText }

// Send writes the output followed by a newline. It only fails when the
// stream itself is broken, which is wrapped in ErrStreamClosed.
func (s *Stdout) Send(ctx context.Context, out format.Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 0, len(out.Body)+1)
	buf = append(buf, out.Body...)
	buf = append(buf, '\n')
	if _, err := s.w.Write(buf); err != nil {
		return fmt.Errorf("%w: %v", ErrStreamClosed, err)
	}
	return nil
}

func (s *Stdout) Close() error { return nil }
