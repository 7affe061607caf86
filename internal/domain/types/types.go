// Package types contains read-model shapes shared across the application.
package types

import (
	"time"

	"github.com/Gaganvinay/vendortrail/internal/domain/model"
)

// Node is one graph node derived from a stored event.
type Node struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// Edge connects two chronologically adjacent events. ID is derived from
// (source, target, ordinal) so re-rendering the same history yields the
// same edge identifiers.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the derived behavioral path for one vendor. Score carries the
// verbatim live-score response from the oracle; it is empty when the oracle
// call failed and nil when the vendor has no events at all.
type Graph struct {
	VendorID string         `json:"vendorId"`
	Nodes    []Node         `json:"nodes"`
	Edges    []Edge         `json:"edges"`
	Score    map[string]any `json:"score"`
}

// ScorePoint is one plot-ready sample in a vendor's score series. Score is
// nil for events that never received a prediction; the point is still
// emitted so the timeline keeps its gaps. Raw carries the verbatim
// prediction payload for auditing.
type ScorePoint struct {
	Timestamp      time.Time      `json:"timestamp"`
	Score          *float64       `json:"gnn_score"`
	EngagementProb *float64       `json:"engagement_prob"`
	DecayFactor    *float64       `json:"decay_factor"`
	Raw            map[string]any `json:"raw"`
}

// IngestResult is what the ingestion coordinator returns to callers: the
// stored event plus the raw oracle response, which is nil when scoring
// failed or said nothing usable. Saved is always true on a non-error
// return; the field exists so clients can distinguish "stored without a
// prediction" from a rejected request.
type IngestResult struct {
	Saved      bool           `json:"saved"`
	Event      model.Event    `json:"event"`
	Prediction map[string]any `json:"prediction"`
}
