package report

import (
	"context"
	"errors"
	"fmt"

	"pi-sensors/internal/format"
)

// Multi sends every output to several reporters sharing one mode. Each
// destination is attempted even when an earlier one fails.
type Multi struct {
	mode      format.Mode
	reporters []Reporter
}

// NewMulti combines reporters; they must all expect the same mode
func NewMulti(reporters ...Reporter) (*Multi, error) {
	if len(reporters) == 0 {
		return nil, errors.New("no reporters")
	}
	mode := reporters[0].Mode()
	for _, r := range reporters[1:] {
		if r.Mode() != mode {
			return nil, fmt.Errorf("cannot combine %s and %s reporters", mode, r.Mode())
		}
	}
	return &Multi{mode: mode, reporters: reporters}, nil
}

func (m *Multi) Mode() format.Mode { return m.mode }

func (m *Multi) Send(ctx context.Context, out format.Output) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Send(ctx, out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
