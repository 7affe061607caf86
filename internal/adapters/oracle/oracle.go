// Package oracle implements the HTTP client for the external scoring
// service. The oracle is opaque and unreliable: callers treat every failure
// here as recoverable and must never let it block event persistence.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Gaganvinay/vendortrail/internal/domain/snapshot"
	"github.com/Gaganvinay/vendortrail/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout    = 5 * time.Second
	maxResponseBytes  = 1 << 20 // oracle responses are small JSON objects
	pathAddEvent      = "/add_event"
	pathScoreSnapshot = "/score_snapshot"
)

// ErrUnavailable marks transport failures, timeouts and non-2xx statuses
// from the oracle. Callers match it with errors.Is.
var ErrUnavailable = errors.New("scoring oracle unavailable")

// Scorer is the contract the pipeline uses to call the scoring oracle.
// Both operations return the verbatim decoded response; reconciling it into
// a Prediction is the caller's concern.
type Scorer interface {
	// ScoreEvent scores a single freshly-ingested event.
	ScoreEvent(ctx context.Context, vendorID, eventType string, metadata map[string]any, prevProb float64) (map[string]any, error)

	// ScoreSnapshot scores a vendor's current history.
	ScoreSnapshot(ctx context.Context, snap snapshot.Snapshot) (map[string]any, error)
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds each oracle round-trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// Client implements Scorer over HTTP JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a scoring client for the oracle at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// addEventRequest mirrors the oracle's POST /add_event body.
type addEventRequest struct {
	VendorID           string         `json:"vendorId"`
	EventType          string         `json:"eventType"`
	Metadata           map[string]any `json:"metadata"`
	PrevEngagementProb float64        `json:"prev_engagement_prob"`
}

// ScoreEvent posts a single event to the oracle and returns the decoded
// response.
func (c *Client) ScoreEvent(ctx context.Context, vendorID, eventType string, metadata map[string]any, prevProb float64) (map[string]any, error) {
	body := addEventRequest{
		VendorID:           vendorID,
		EventType:          eventType,
		Metadata:           metadata,
		PrevEngagementProb: prevProb,
	}
	return c.post(ctx, pathAddEvent, body)
}

// ScoreSnapshot posts a vendor snapshot to the oracle and returns the
// decoded response.
func (c *Client) ScoreSnapshot(ctx context.Context, snap snapshot.Snapshot) (map[string]any, error) {
	return c.post(ctx, pathScoreSnapshot, snap)
}

func (c *Client) post(ctx context.Context, path string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("oracle: encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("oracle: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordOracleLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("oracle: %s: %w: %w", path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("oracle: %s returned status %d: %w", path, resp.StatusCode, ErrUnavailable)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("oracle: read %s response: %w: %w", path, ErrUnavailable, err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// A 2xx that is not a JSON object is indistinguishable from a
		// broken oracle.
		return nil, fmt.Errorf("oracle: decode %s response: %w: %w", path, ErrUnavailable, err)
	}
	return decoded, nil
}
