// Package series extracts a time-ordered, plot-ready score series from a
// vendor's stored events.
package series

import (
	"sort"

	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/internal/domain/types"
)

// scoreFields lists every field name the stored predictions have used for
// the primary score across schema generations, in fallback order.
var scoreFields = []string{"gnn_score", "engagement_prob", "predicted_prob", "score", "probability"}

// Extract converts events (any order) into an ascending score series.
// Every event yields one point: events whose scoring failed keep a nil
// score, so the plotted line gets a gap instead of a dropped sample.
func Extract(events []model.Event) []types.ScorePoint {
	ordered := make([]model.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	points := make([]types.ScorePoint, 0, len(ordered))
	for _, e := range ordered {
		points = append(points, point(e))
	}
	return points
}

func point(e model.Event) types.ScorePoint {
	p := types.ScorePoint{Timestamp: e.Timestamp}
	pred := e.Prediction
	if pred == nil {
		return p
	}
	p.Score = resolveScore(pred)
	p.Raw = pred.Raw
	p.EngagementProb = model.FloatField(pred.Raw, "engagement_prob")
	// Older records spelled the decay field decay_factor.
	if p.DecayFactor = model.FloatField(pred.Raw, "decay_factor"); p.DecayFactor == nil {
		p.DecayFactor = pred.Decay
	}
	return p
}

// resolveScore yields the first non-null score under any historical name.
// The reconciled column is checked before the raw payload so predictions
// written by the current pipeline do not depend on the raw map surviving.
func resolveScore(pred *model.Prediction) *float64 {
	if pred.GNNScore != nil {
		return pred.GNNScore
	}
	return model.FloatField(pred.Raw, scoreFields...)
}
