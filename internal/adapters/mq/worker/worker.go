// Package worker retries scoring for events that persisted while the
// oracle was unreachable. A retry never threatens the durability of the
// event it serves; the worst outcome is an event that stays unscored.
package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/Gaganvinay/vendortrail/internal/adapters/mq/queue"
	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/pkg/logger"
	"github.com/Gaganvinay/vendortrail/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultMaxAttempts   = 5
	defaultRetryInterval = 30 * time.Second
	workerStopTimeout    = 5 * time.Second
)

// Scorer mirrors the single-event oracle operation.
type Scorer interface {
	ScoreEvent(ctx context.Context, vendorID, eventType string, metadata map[string]any, prevProb float64) (map[string]any, error)
}

// Attacher is the store subset workers write through.
type Attacher interface {
	AttachPrediction(ctx context.Context, eventID string, p *model.Prediction) error
}

// Tracker is the probability-state subset workers read and update.
type Tracker interface {
	Probability(ctx context.Context, vendorID string) float64
	SetProbability(ctx context.Context, vendorID string, prob float64)
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithMaxAttempts caps retries per event before the job is dropped.
func WithMaxAttempts(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithRetryInterval sets the delay between attempts for one event.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.retryInterval = d
		}
	}
}

// Pool runs a fixed set of rescore workers over one queue.
type Pool struct {
	workers       int
	queue         queue.Queue
	scorer        Scorer
	attacher      Attacher
	tracker       Tracker
	maxAttempts   int
	retryInterval time.Duration

	done   []chan struct{}
	logger logger.Logger
}

// NewPool creates a rescore pool; Start must be called to run it.
func NewPool(workers int, q queue.Queue, scorer Scorer, attacher Attacher, tracker Tracker, opts ...Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		workers:       workers,
		queue:         q,
		scorer:        scorer,
		attacher:      attacher,
		tracker:       tracker,
		maxAttempts:   defaultMaxAttempts,
		retryInterval: defaultRetryInterval,
		logger:        logger.Get().Named("rescore"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. They stop when ctx is cancelled or the queue
// is closed.
func (p *Pool) Start(ctx context.Context) {
	p.done = make([]chan struct{}, p.workers)
	for i := 0; i < p.workers; i++ {
		done := make(chan struct{})
		p.done[i] = done
		go p.run(ctx, "rescore-"+strconv.Itoa(i), done)
	}
}

// Stop waits for all workers to finish their current job.
func (p *Pool) Stop() {
	for _, done := range p.done {
		select {
		case <-done:
		case <-time.After(workerStopTimeout):
		}
	}
}

func (p *Pool) run(ctx context.Context, name string, done chan struct{}) {
	defer close(done)
	jobs := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			p.process(ctx, name, job)
		}
	}
}

func (p *Pool) process(ctx context.Context, name string, job queue.Job) {
	if wait := time.Until(job.NotBefore); wait > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	prev := p.tracker.Probability(ctx, job.VendorID)
	raw, err := p.scorer.ScoreEvent(ctx, job.VendorID, job.EventType, job.Metadata, prev)
	if err != nil {
		p.retry(ctx, name, job, err)
		return
	}

	pred := model.PredictionFromRaw(raw)
	if pred == nil {
		// The oracle answered but said nothing usable; retrying the same
		// payload will not improve that.
		metrics.RecordRescoreAttempt("empty")
		p.logger.Warn(ctx, "rescore returned no usable fields",
			logger.String("worker", name),
			logger.String("eventID", job.EventID),
		)
		return
	}

	if err := p.attacher.AttachPrediction(ctx, job.EventID, pred); err != nil {
		p.retry(ctx, name, job, err)
		return
	}
	if prob := model.FloatField(raw, "engagement_prob"); prob != nil {
		p.tracker.SetProbability(ctx, job.VendorID, *prob)
	}
	metrics.RecordRescoreAttempt("ok")
	metrics.RecordPredictionAttached()
	p.logger.Info(ctx, "rescore succeeded",
		logger.String("worker", name),
		logger.String("eventID", job.EventID),
		logger.Int("attempt", job.Attempts+1),
	)
}

func (p *Pool) retry(ctx context.Context, name string, job queue.Job, cause error) {
	job.Attempts++
	if job.Attempts >= p.maxAttempts {
		metrics.RecordRescoreAttempt("dropped")
		p.logger.Warn(ctx, "rescore gave up",
			logger.String("worker", name),
			logger.String("eventID", job.EventID),
			logger.Int("attempts", job.Attempts),
			logger.Error(cause),
		)
		return
	}
	job.NotBefore = time.Now().Add(p.retryInterval)
	if !p.queue.Enqueue(ctx, job) {
		metrics.RecordRescoreAttempt("dropped")
		p.logger.Warn(ctx, "rescore backlog full, dropping job",
			logger.String("eventID", job.EventID),
		)
		return
	}
	metrics.RecordRescoreAttempt("retry")
}
