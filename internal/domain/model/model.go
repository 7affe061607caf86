// Package model contains domain models passed between layers.
package model

import "time"

// Vendor is a tracked organization or account.
type Vendor struct {
	VendorID  string    `json:"vendorId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event is a single observed action attributed to a vendor. Prediction is
// nil until a scoring round-trip succeeds, and stays nil forever if the
// oracle was unreachable when the event arrived.
type Event struct {
	ID         string         `json:"id"`
	VendorID   string         `json:"vendorId"`
	EventType  string         `json:"eventType"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Prediction *Prediction    `json:"prediction,omitempty"`
}

// Prediction is the reconciled scoring result attached to an event.
// Raw keeps the verbatim oracle response for audit and debugging.
type Prediction struct {
	GNNScore   *float64       `json:"gnn_score"`
	TrustScore *float64       `json:"trust_score"`
	Decay      *float64       `json:"decay"`
	Raw        map[string]any `json:"raw"`
}

// Agreement is an uploaded vendor agreement document reference.
type Agreement struct {
	ID         string    `json:"id"`
	VendorID   string    `json:"vendorId"`
	FileURL    string    `json:"fileUrl"`
	Text       string    `json:"text,omitempty"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// PredictionFromRaw reconciles a loosely-typed oracle response into a
// Prediction. The oracle's field names have varied across versions, so the
// score falls back from gnn_score to engagement_prob. A response carrying
// none of the known fields yields nil: a reachable oracle that said nothing
// usable is not an error, it just produces no prediction.
func PredictionFromRaw(raw map[string]any) *Prediction {
	if raw == nil {
		return nil
	}
	gnn := FloatField(raw, "gnn_score", "engagement_prob")
	trust := FloatField(raw, "trust_score")
	decay := FloatField(raw, "decay")
	if gnn == nil && trust == nil && decay == nil {
		return nil
	}
	return &Prediction{
		GNNScore:   gnn,
		TrustScore: trust,
		Decay:      decay,
		Raw:        raw,
	}
}

// FloatField returns the first key in keys whose value in raw is a non-null
// number. JSON decoding yields float64 for all numbers, but values written
// by Go callers may be other numeric types, so those are accepted too.
func FloatField(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			f := n
			return &f
		case float32:
			f := float64(n)
			return &f
		case int:
			f := float64(n)
			return &f
		case int64:
			f := float64(n)
			return &f
		}
	}
	return nil
}
