package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"

	"pi-sensors/internal/format"
)

var jsonOut = format.Output{
	Mode:        format.ModeJSON,
	ContentType: "application/json",
	Body:        []byte(`{"id":"sensor-1","tms_utc":"2019-12-01T14:30:05.123456Z","air_poll_pct":12.3,"humi_pct":45.7,"temp_celsius":21.0}`),
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestStdoutSend(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	out := format.Output{Mode: format.ModeText, Body: []byte(`Id: "sensor-1"`)}
	if err := s.Send(context.Background(), out); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if buf.String() != "Id: \"sensor-1\"\n" {
		t.Errorf("wrote %q", buf.String())
	}
	if s.Mode() != format.ModeText {
		t.Errorf("mode = %s", s.Mode())
	}
}

func TestStdoutClosedStreamIsFatal(t *testing.T) {
	err := NewStdout(brokenWriter{}).Send(context.Background(), format.Output{Body: []byte("x")})
	if !IsFatal(err) {
		t.Fatalf("err = %v, want fatal ErrStreamClosed", err)
	}
}

func TestHTTPSendOK(t *testing.T) {
	var gotBody []byte
	var gotType, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h, err := NewHTTP(srv.URL+"/readings", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	if err := h.Send(context.Background(), jsonOut); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotMethod != http.MethodPost || gotType != "application/json" {
		t.Errorf("method=%s content-type=%s", gotMethod, gotType)
	}
	if !bytes.Equal(gotBody, jsonOut.Body) {
		t.Errorf("body = %s", gotBody)
	}
}

func TestHTTPSendNon200(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		h, err := NewHTTP(srv.URL, nil)
		if err != nil {
			t.Fatalf("NewHTTP: %v", err)
		}
		err = h.Send(context.Background(), jsonOut)
		var rerr *ReportError
		if !errors.As(err, &rerr) {
			t.Fatalf("status %d: err = %v, want *ReportError", status, err)
		}
		if rerr.StatusCode != status {
			t.Errorf("StatusCode = %d, want %d", rerr.StatusCode, status)
		}
		if IsFatal(err) {
			t.Errorf("status %d must not be fatal", status)
		}
		srv.Close()
	}
}

func TestHTTPSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h, err := NewHTTP(url, nil)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	err = h.Send(context.Background(), jsonOut)
	var rerr *ReportError
	if !errors.As(err, &rerr) || rerr.StatusCode != 0 || rerr.Err == nil {
		t.Errorf("err = %#v, want transport ReportError", err)
	}
}

func TestNewHTTPRejectsBadEndpoint(t *testing.T) {
	for _, ep := range []string{"localhost:8080", "ftp://example.com", "http://", "::"} {
		if _, err := NewHTTP(ep, nil); err == nil {
			t.Errorf("NewHTTP(%q) accepted", ep)
		}
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { w.closed = true; return nil }

func TestKafkaSend(t *testing.T) {
	w := &fakeWriter{}
	k := NewKafka("sensor-1", "", w)
	if err := k.Send(context.Background(), jsonOut); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "sensor-1" || !bytes.Equal(w.msgs[0].Value, jsonOut.Body) {
		t.Errorf("messages = %+v", w.msgs)
	}

	w.err = errors.New("leader not available")
	var rerr *ReportError
	if err := k.Send(context.Background(), jsonOut); !errors.As(err, &rerr) || rerr.Destination != "kafka://"+DefaultKafkaTopic {
		t.Errorf("err = %v", err)
	}
	if err := k.Close(); err != nil || !w.closed {
		t.Errorf("Close: %v (closed=%v)", err, w.closed)
	}
}

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (p *fakePublisher) PublishReading(deviceID string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) Topic(deviceID string) string { return "sensors/" + deviceID + "/readings" }

func TestMQTTSend(t *testing.T) {
	pub := &fakePublisher{}
	closed := false
	m := NewMQTT("sensor-1", pub, func() error { closed = true; return nil })
	if err := m.Send(context.Background(), jsonOut); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(pub.payloads) != 1 {
		t.Fatalf("published %d", len(pub.payloads))
	}

	pub.err = errors.New("not connected")
	var rerr *ReportError
	if err := m.Send(context.Background(), jsonOut); !errors.As(err, &rerr) || rerr.Destination != "mqtt://sensors/sensor-1/readings" {
		t.Errorf("err = %v", err)
	}
	m.Close()
	if !closed {
		t.Error("closer not called")
	}
}

func TestMulti(t *testing.T) {
	if _, err := NewMulti(NewStdout(io.Discard), NewKafka("s", "", &fakeWriter{})); err == nil {
		t.Error("expected mode mismatch error")
	}

	ok := &fakeWriter{}
	failing := &fakeWriter{err: errors.New("boom")}
	m, err := NewMulti(NewKafka("s", "a", failing), NewKafka("s", "b", ok))
	if err != nil {
		t.Fatalf("NewMulti: %v", err)
	}
	err = m.Send(context.Background(), jsonOut)
	var rerr *ReportError
	if !errors.As(err, &rerr) {
		t.Errorf("err = %v, want joined ReportError", err)
	}
	if len(ok.msgs) != 1 {
		t.Error("second destination skipped after first failed")
	}
}

func TestOpenSelectsDestinations(t *testing.T) {
	r, err := Open(Options{SensorID: "s", Stdout: io.Discard})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := r.(*Stdout); !ok {
		t.Errorf("got %T, want *Stdout", r)
	}

	r, err = Open(Options{SensorID: "s", Endpoint: "http://localhost:8080/readings"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := r.(*HTTP); !ok || r.Mode() != format.ModeJSON {
		t.Errorf("got %T, want *HTTP", r)
	}

	r, err = Open(Options{SensorID: "s", Endpoint: "http://localhost:8080", KafkaBrokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := r.(*Multi); !ok {
		t.Errorf("got %T, want *Multi", r)
	}
	r.Close()

	if _, err := Open(Options{Endpoint: "not a url"}); err == nil {
		t.Error("expected invalid endpoint error")
	}
}
