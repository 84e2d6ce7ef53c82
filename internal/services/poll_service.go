package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"pi-sensors/internal/format"
	"pi-sensors/internal/models"
	"pi-sensors/internal/report"
	"pi-sensors/internal/sensors"
	"pi-sensors/internal/state"
)

// State of the poll loop
type State int32

const (
	StateIdle State = iota
	StatePolling
	StateReporting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateReporting:
		return "reporting"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

var (
	ErrNegativeInterval = errors.New("poll interval must not be negative")
	ErrAlreadyStarted   = errors.New("poll service already started")
)

// PollServiceConfig holds configuration for the poll loop
type PollServiceConfig struct {
	// Interval between cycles; zero polls back to back
	Interval time.Duration
	// MaxCycles stops the loop after that many cycles; zero runs until cancelled
	MaxCycles int
	Debug     bool
	// Trace receives the debug step trace, stderr when nil
	Trace io.Writer
	// Cleanup runs exactly once when Run returns
	Cleanup func() error
	// OnReading observes every reading after it is published
	OnReading func(models.Reading)
}

// Stats counts what the loop has done so far
type Stats struct {
	Cycles         int64
	ReadErrors     int64
	FormatFailures int64
	ReportFailures int64
}

// PollService reads the sensors, formats the reading and reports it, in
// that order, once per cycle
type PollService struct {
	source    sensors.Source
	formatter format.Formatter
	reporter  report.Reporter
	readings  *state.Slot
	config    PollServiceConfig

	state          atomic.Int32
	cycles         atomic.Int64
	readErrors     atomic.Int64
	formatFailures atomic.Int64
	reportFailures atomic.Int64

	cleanupOnce sync.Once
	cleanupErr  error
}

// NewPollService creates a new poll service
func NewPollService(
	source sensors.Source,
	formatter format.Formatter,
	reporter report.Reporter,
	readings *state.Slot,
	config PollServiceConfig,
) (*PollService, error) {
	if config.Interval < 0 {
		return nil, ErrNegativeInterval
	}
	if readings == nil {
		readings = state.NewSlot()
	}
	return &PollService{
		source:    source,
		formatter: formatter,
		reporter:  reporter,
		readings:  readings,
		config:    config,
	}, nil
}

// State returns the current state of the loop
func (s *PollService) State() State {
	return State(s.state.Load())
}

// Stats returns the loop counters
func (s *PollService) Stats() Stats {
	return Stats{
		Cycles:         s.cycles.Load(),
		ReadErrors:     s.readErrors.Load(),
		FormatFailures: s.formatFailures.Load(),
		ReportFailures: s.reportFailures.Load(),
	}
}

// Readings is the slot the loop publishes each reading to
func (s *PollService) Readings() *state.Slot {
	return s.readings
}

// Run polls until ctx is cancelled, MaxCycles is reached or the reporter
// fails fatally. Cancellation is not an error.
func (s *PollService) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StatePolling)) {
		return ErrAlreadyStarted
	}
	defer func() {
		s.state.Store(int32(StateStopped))
		if err := s.Close(); err != nil {
			log.Printf("PollService: cleanup failed: %v", err)
		}
	}()

	log.Printf("PollService: Starting (interval=%s)", s.config.Interval)

	for n := 1; ; n++ {
		if ctx.Err() != nil {
			log.Println("PollService: Shutting down...")
			return nil
		}
		if err := s.cycle(ctx); err != nil {
			log.Printf("PollService: stopping: %v", err)
			return err
		}
		if s.config.MaxCycles > 0 && n >= s.config.MaxCycles {
			log.Printf("PollService: completed %d cycles", n)
			return nil
		}
		if !s.sleep(ctx) {
			log.Println("PollService: Shutting down...")
			return nil
		}
	}
}

// Close runs the cleanup hook. Only the first call has any effect.
func (s *PollService) Close() error {
	s.cleanupOnce.Do(func() {
		if s.config.Cleanup != nil {
			s.cleanupErr = s.config.Cleanup()
		}
	})
	return s.cleanupErr
}

func (s *PollService) cycle(ctx context.Context) error {
	s.state.Store(int32(StatePolling))
	s.cycles.Add(1)

	s.trace("read", "start")
	reading := s.source.Read(ctx)
	s.trace("read", "done")
	if ctx.Err() != nil {
		// interrupted mid-read: the reading is partial and is dropped
		return nil
	}
	for _, readErr := range reading.Errors {
		s.readErrors.Add(1)
		log.Printf("PollService: %v", readErr)
	}
	defer s.publish(reading)

	s.trace("format", "start")
	out, err := s.formatter.Format(reading, s.reporter.Mode())
	s.trace("format", "done")
	if err != nil {
		s.formatFailures.Add(1)
		log.Printf("PollService: format failed: %v", err)
		return nil
	}

	if ctx.Err() != nil {
		return nil
	}
	s.state.Store(int32(StateReporting))
	s.trace("report", "start")
	err = s.reporter.Send(ctx, out)
	s.trace("report", "done")
	s.state.Store(int32(StatePolling))
	if err != nil {
		if report.IsFatal(err) {
			return err
		}
		s.reportFailures.Add(1)
		log.Printf("PollService: %v", err)
	}
	return nil
}

func (s *PollService) publish(r models.Reading) {
	s.readings.Store(r)
	if s.config.OnReading != nil {
		s.config.OnReading(r)
	}
}

// sleep waits for the interval and reports false if ctx ended first
func (s *PollService) sleep(ctx context.Context) bool {
	if s.config.Interval == 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.config.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *PollService) trace(step, phase string) {
	if !s.config.Debug {
		return
	}
	w := s.config.Trace
	if w == nil {
		w = log.Writer()
	}
	fmt.Fprintf(w, "[%s] %s %s\n", time.Now().UTC().Format(time.RFC3339Nano), step, phase)
}

