// Package state tracks the last known engagement probability per vendor.
//
// The scoring oracle is stateless per call and needs the previous round's
// probability to compute deltas and decay, so the service keeps this small
// process-wide cache and feeds it back on every scoring request.
package state

import (
	"context"
	"sync"
)

// DefaultProbability is returned for vendors that have never been scored.
const DefaultProbability = 0.5

// Tracker maps vendor identifiers to their last observed engagement
// probability. Updates are last-writer-wins; two in-flight ingestions for
// the same vendor may interleave, which is acceptable because the oracle,
// not this cache, is the source of truth for scoring quality.
type Tracker interface {
	// Probability returns the last observed probability for vendorID, or
	// the configured default if the vendor has never been seen.
	Probability(ctx context.Context, vendorID string) float64

	// SetProbability overwrites the stored probability unconditionally.
	SetProbability(ctx context.Context, vendorID string, prob float64)

	// Size returns the number of tracked vendors.
	Size() int
}

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithDefaultProbability overrides the probability reported for unseen
// vendors.
func WithDefaultProbability(prob float64) Option {
	return func(t *inMemoryTracker) {
		t.defaultProb = prob
	}
}

type inMemoryTracker struct {
	mu          sync.RWMutex
	probs       map[string]float64
	defaultProb float64
}

// NewInMemoryTracker creates a tracker backed by a mutex-guarded map.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		probs:       make(map[string]float64),
		defaultProb: DefaultProbability,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *inMemoryTracker) Probability(_ context.Context, vendorID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p, ok := t.probs[vendorID]; ok {
		return p
	}
	return t.defaultProb
}

func (t *inMemoryTracker) SetProbability(_ context.Context, vendorID string, prob float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probs[vendorID] = prob
}

func (t *inMemoryTracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.probs)
}
