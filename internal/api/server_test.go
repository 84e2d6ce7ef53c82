package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pi-sensors/internal/aggregator"
	"pi-sensors/internal/models"
	"pi-sensors/internal/state"
)

func newTestServer(t *testing.T, slot *state.Slot, onInput func(context.Context, models.InputEvent)) *httptest.Server {
	t.Helper()
	s := NewServer(Config{Readings: slot, LoopState: func() string { return "polling" }, OnInput: onInput})
	srv := httptest.NewServer(s.Handler(io.Discard))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, strings.TrimSpace(string(body))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, state.NewSlot(), nil)
	code, body := get(t, srv.URL+"/healthz")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body != `{"state":"polling","status":"ok"}` {
		t.Errorf("body = %s", body)
	}
}

func TestLatestReading(t *testing.T) {
	slot := state.NewSlot()
	srv := newTestServer(t, slot, nil)

	if code, _ := get(t, srv.URL+"/readings/latest"); code != http.StatusNotFound {
		t.Errorf("empty slot status = %d, want 404", code)
	}

	slot.Store(models.Reading{
		SensorID:     "sensor-1",
		Timestamp:    time.Date(2019, 12, 1, 14, 30, 5, 123456000, time.UTC),
		AirPollution: models.Float(12.34),
		Humidity:     models.Float(45.67),
		Temperature:  models.Float(21.04),
	})
	code, body := get(t, srv.URL+"/readings/latest")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	want := `{"id":"sensor-1","tms_utc":"2019-12-01T14:30:05.123456Z","air_poll_pct":12.3,"humi_pct":45.7,"temp_celsius":21.0}`
	if body != want {
		t.Errorf("body = %s\nwant   %s", body, want)
	}
}

func TestLatestField(t *testing.T) {
	slot := state.NewSlot()
	slot.Store(models.Reading{SensorID: "sensor-1", Temperature: models.Float(21.04)})
	srv := newTestServer(t, slot, nil)

	tests := []struct {
		field string
		code  int
		body  string
	}{
		{"temperature", http.StatusOK, `{"field":"temperature","id":"sensor-1","value":21.0}`},
		{"humidity", http.StatusNotFound, `{"error":"humidity not available"}`},
		{"colour", http.StatusNotFound, `{"error":"unknown field \"colour\""}`},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			code, body := get(t, srv.URL+"/readings/latest/"+tt.field)
			if code != tt.code || body != tt.body {
				t.Errorf("got %d %s, want %d %s", code, body, tt.code, tt.body)
			}
		})
	}
}

func TestInput(t *testing.T) {
	var got []models.InputEvent
	srv := newTestServer(t, state.NewSlot(), func(ctx context.Context, ev models.InputEvent) {
		got = append(got, ev)
	})

	post := func(body string) int {
		resp, err := http.Post(srv.URL+"/input", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post(`{"direction":"left","action":"pressed"}`); code != http.StatusAccepted {
		t.Errorf("valid event status = %d", code)
	}
	if code := post(`{"direction":"sideways","action":"pressed"}`); code != http.StatusBadRequest {
		t.Errorf("bad direction status = %d", code)
	}
	if code := post(`not json`); code != http.StatusBadRequest {
		t.Errorf("bad body status = %d", code)
	}
	if len(got) != 1 || got[0].Direction != models.DirectionLeft || got[0].Timestamp.IsZero() {
		t.Errorf("events = %+v", got)
	}
}

func TestInputDisabled(t *testing.T) {
	srv := newTestServer(t, state.NewSlot(), nil)
	resp, err := http.Post(srv.URL+"/input", "application/json", strings.NewReader(`{"direction":"up","action":"held"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, state.NewSlot(), nil)
	resp, err := http.Post(srv.URL+"/healthz", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := NewServer(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0", io.Discard) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestDecimalEncoding(t *testing.T) {
	b, err := json.Marshal(map[string]any{"v": decimal(models.Float(3))})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"v":3.0}` {
		t.Errorf("got %s", b)
	}
}

func TestReadingStats(t *testing.T) {
	agg := aggregator.NewSensorAggregator(10, aggregator.ChangeThresholds{})
	agg.Update(models.Reading{Temperature: models.Float(20)})
	agg.Update(models.Reading{Temperature: models.Float(22)})

	s := NewServer(Config{Stats: agg.Stats})
	srv := httptest.NewServer(s.Handler(io.Discard))
	defer srv.Close()

	code, body := get(t, srv.URL+"/readings/stats")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	want := `{"temperature":{"count":2,"last":22.0,"min":20.0,"max":22.0,"avg":21.0}}`
	if body != want {
		t.Errorf("body = %s\nwant   %s", body, want)
	}

	disabled := newTestServer(t, state.NewSlot(), nil)
	if code, _ := get(t, disabled.URL+"/readings/stats"); code != http.StatusNotFound {
		t.Errorf("disabled status = %d, want 404", code)
	}
}
