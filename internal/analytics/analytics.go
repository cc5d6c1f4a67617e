// Package analytics dispatches product events to an external sink. Events
// are a pure side effect: dispatch never blocks the caller's flow and never
// returns an error.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stillwaterhq/stillwater/internal/logging"
)

// Sink receives named events with optional properties. Implementations must
// swallow their own failures; callers fire and forget.
type Sink interface {
	Track(ctx context.Context, event string, props map[string]interface{})
}

// Noop discards every event.
type Noop struct{}

func (Noop) Track(ctx context.Context, event string, props map[string]interface{}) {}

// HTTP posts events as JSON to a collection endpoint. Failures are logged
// and dropped.
type HTTP struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTP creates a sink posting to endpoint. An empty endpoint yields a
// no-op sink so call sites never need to branch.
func NewHTTP(endpoint, apiKey string, logger *logging.Logger) Sink {
	if endpoint == "" {
		return Noop{}
	}
	return &HTTP{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

type event struct {
	Event      string                 `json:"event"`
	Timestamp  time.Time              `json:"timestamp"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

func (h *HTTP) Track(ctx context.Context, name string, props map[string]interface{}) {
	body, err := json.Marshal(event{Event: name, Timestamp: time.Now().UTC(), Properties: props})
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warnf("analytics: marshal %s", name)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warnf("analytics: build request for %s", name)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warnf("analytics: dispatch %s", name)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		h.logger.WithContext(ctx).Warnf("analytics: %s rejected with status %d", name, resp.StatusCode)
	}
}
