package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pi-sensors/internal/format"
)

// DefaultHTTPTimeout bounds a single POST
const DefaultHTTPTimeout = 15 * time.Second

// HTTP posts JSON readings to a REST endpoint. Only a 200 response counts
// as delivered.
type HTTP struct {
	endpoint string
	client   *http.Client
}

// NewHTTP validates the endpoint; client may be nil
func NewHTTP(endpoint string, client *http.Client) (*HTTP, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: need an http or https URL", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTP{endpoint: endpoint, client: client}, nil
}

func (h *HTTP) Mode() format.Mode { return format.ModeJSON }

// Send issues one synchronous POST
func (h *HTTP) Send(ctx context.Context, out format.Output) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(out.Body))
	if err != nil {
		return &ReportError{Destination: h.endpoint, Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return &ReportError{Destination: h.endpoint, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()
	// drain a little so the connection can be reused
	io.CopyN(io.Discard, resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return &ReportError{
			Destination: h.endpoint,
			StatusCode:  resp.StatusCode,
			Reason:      resp.Status,
		}
	}
	return nil
}

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
