// Package snapshot assembles the transient payload sent to the scoring
// oracle when computing a live score for a vendor's current history.
package snapshot

import (
	"github.com/Gaganvinay/vendortrail/internal/domain/model"
)

// Snapshot describes a vendor's recent history and prior state for one
// scoring call. It is constructed fresh per call and never persisted.
type Snapshot struct {
	Events             []model.Event `json:"events"`
	PrevEngagementProb float64       `json:"prev_engagement_prob"`
	DelaySeconds       float64       `json:"delay_seconds"`
}

// Build packages an ordered event history (ascending timestamp) and the
// vendor's current probability into a Snapshot.
//
// The delay is the arithmetic difference in seconds between the two most
// recent events. Fewer than two events yields zero. Negative or zero deltas
// pass through uncorrected: out-of-order timestamps are the caller's
// problem to detect, not this package's to hide.
func Build(events []model.Event, prevProb float64) Snapshot {
	return Snapshot{
		Events:             events,
		PrevEngagementProb: prevProb,
		DelaySeconds:       delaySeconds(events),
	}
}

func delaySeconds(events []model.Event) float64 {
	if len(events) < 2 {
		return 0
	}
	last := events[len(events)-1].Timestamp
	prev := events[len(events)-2].Timestamp
	return last.Sub(prev).Seconds()
}
