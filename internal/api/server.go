package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"pi-sensors/internal/aggregator"
	"pi-sensors/internal/format"
	"pi-sensors/internal/models"
	"pi-sensors/internal/state"
)

// Config wires the server to the rest of the process
type Config struct {
	Readings *state.Slot
	// LoopState names the current poll loop state
	LoopState func() string
	// Stats summarises recent readings; nil disables /readings/stats
	Stats func() map[models.Field]aggregator.Stats
	// OnInput receives events posted to /input; nil disables the route
	OnInput func(context.Context, models.InputEvent)
}

// Server exposes the last reading and the loop state
type Server struct {
	readings  *state.Slot
	loopState func() string
	stats     func() map[models.Field]aggregator.Stats
	onInput   func(context.Context, models.InputEvent)
}

// NewServer creates a status server
func NewServer(cfg Config) *Server {
	readings := cfg.Readings
	if readings == nil {
		readings = state.NewSlot()
	}
	return &Server{
		readings:  readings,
		loopState: cfg.LoopState,
		stats:     cfg.Stats,
		onInput:   cfg.OnInput,
	}
}

// Handler returns the router wrapped in access logging to w
func (s *Server) Handler(w io.Writer) http.Handler {
	return handlers.LoggingHandler(w, NewRouter(s))
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string, accessLog io.Writer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(accessLog),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Status API: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Println("Status API: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	st := "unknown"
	if s.loopState != nil {
		st = s.loopState()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "state": st})
}

func (s *Server) latestReading(w http.ResponseWriter, r *http.Request) {
	reading, ok := s.readings.Load()
	if !ok {
		writeError(w, http.StatusNotFound, "no reading captured yet")
		return
	}
	writeJSON(w, http.StatusOK, format.NewPayload(reading))
}

func (s *Server) readingStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeError(w, http.StatusNotFound, "stats are disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.stats())
}

func (s *Server) latestField(w http.ResponseWriter, r *http.Request) {
	field := models.Field(mux.Vars(r)["field"])
	reading, ok := s.readings.Load()
	if !ok {
		writeError(w, http.StatusNotFound, "no reading captured yet")
		return
	}

	var value any
	switch field {
	case models.FieldTemperature:
		value = decimal(reading.Temperature)
	case models.FieldHumidity:
		value = decimal(reading.Humidity)
	case models.FieldPressure:
		value = decimal(reading.Pressure)
	case models.FieldAirPollution:
		value = decimal(reading.AirPollution)
	case models.FieldCompass:
		value = decimal(reading.Compass)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown field %q", field))
		return
	}
	if value == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s not available", field))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    reading.SensorID,
		"field": field,
		"value": value,
	})
}

func (s *Server) input(w http.ResponseWriter, r *http.Request) {
	if s.onInput == nil {
		writeError(w, http.StatusNotFound, "input is disabled")
		return
	}
	defer r.Body.Close()

	var ev models.InputEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	s.onInput(r.Context(), ev)
	w.WriteHeader(http.StatusAccepted)
}

func decimal(v *float64) any {
	if v == nil {
		return nil
	}
	return models.Decimal(*v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Status API: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
