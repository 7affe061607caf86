// Package service provides the core business service that implements the
// dependencies required by the HTTP API: event ingestion coordination and
// the graph/series read paths.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	rescorequeue "github.com/Gaganvinay/vendortrail/internal/adapters/mq/queue"
	rescoreworker "github.com/Gaganvinay/vendortrail/internal/adapters/mq/worker"
	"github.com/Gaganvinay/vendortrail/internal/adapters/oracle"
	"github.com/Gaganvinay/vendortrail/internal/adapters/repository"
	"github.com/Gaganvinay/vendortrail/internal/domain/graph"
	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/internal/domain/series"
	"github.com/Gaganvinay/vendortrail/internal/domain/snapshot"
	"github.com/Gaganvinay/vendortrail/internal/domain/state"
	"github.com/Gaganvinay/vendortrail/internal/domain/types"
	"github.com/Gaganvinay/vendortrail/pkg/logger"
	"github.com/Gaganvinay/vendortrail/pkg/metrics"
)

// Service wires the event pipeline: store, probability tracker, scoring
// client and the rescore backlog.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	tracker state.Tracker
	scorer  oracle.Scorer

	rescoreQueue   *rescorequeue.InMemoryQueue
	rescorePool    *rescoreworker.Pool
	rescoreWorkers int
	rescoreSize    int
	retryInterval  time.Duration

	defaultProb float64
	maxEvents   int
	rehydrate   bool

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithScorer sets the scoring oracle client. Without one the pipeline
// stores events but never produces predictions.
func WithScorer(scorer oracle.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithTracker replaces the vendor probability tracker.
func WithTracker(tracker state.Tracker) Option {
	return func(s *Service) {
		if tracker != nil {
			s.tracker = tracker
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultProbability sets the prior used for never-seen vendors.
func WithDefaultProbability(prob float64) Option {
	return func(s *Service) {
		s.defaultProb = prob
	}
}

// WithRescoreWorkers sets the rescore pool size. Zero disables rescoring.
func WithRescoreWorkers(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.rescoreWorkers = n
		}
	}
}

// WithRescoreQueueSize bounds the rescore backlog.
func WithRescoreQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rescoreSize = n
		}
	}
}

// WithRescoreInterval sets the delay between scoring retries for one event.
func WithRescoreInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryInterval = d
		}
	}
}

// WithMaxEventsLimit caps raw-event listing responses.
func WithMaxEventsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithRehydration toggles rebuilding the probability tracker from the last
// stored prediction per vendor on Start.
func WithRehydration(enabled bool) Option {
	return func(s *Service) {
		s.rehydrate = enabled
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultProb:    state.DefaultProbability,
		rescoreWorkers: 2,
		rescoreSize:    10_000,
		retryInterval:  30 * time.Second,
		maxEvents:      10_000,
		rehydrate:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the components that were not injected and launches the
// rescore pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory event store")
	}
	if s.tracker == nil {
		s.tracker = state.NewInMemoryTracker(state.WithDefaultProbability(s.defaultProb))
	}

	if s.rehydrate {
		if err := s.rehydrateTracker(ctx); err != nil {
			// A failed rehydration only costs scoring context, not data.
			s.logger.Warn(ctx, "tracker rehydration failed", logger.Error(err))
		}
	}

	if s.scorer != nil && s.rescoreWorkers > 0 {
		s.rescoreQueue = rescorequeue.NewInMemoryQueue(rescorequeue.WithCapacity(s.rescoreSize))
		s.rescorePool = rescoreworker.NewPool(
			s.rescoreWorkers,
			s.rescoreQueue,
			s.scorer,
			s.store,
			s.tracker,
			rescoreworker.WithRetryInterval(s.retryInterval),
		)
		s.rescorePool.Start(ctx)
	}
	if s.scorer == nil {
		s.logger.Warn(ctx, "no scoring oracle configured; events will persist without predictions")
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("rescoreWorkers", s.rescoreWorkers),
		logger.Bool("scoringEnabled", s.scorer != nil),
	)
	return nil
}

// Stop shuts down the rescore pool and the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.rescoreQueue != nil {
		_ = s.rescoreQueue.Close()
	}
	if s.rescorePool != nil {
		s.rescorePool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

// rehydrateTracker replays the last stored prediction per vendor into the
// probability tracker so a restart does not reset every prior to the
// default.
func (s *Service) rehydrateTracker(ctx context.Context) error {
	events, err := s.store.AllEvents(ctx)
	if err != nil {
		return fmt.Errorf("rehydrate: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	restored := 0
	for _, e := range events {
		if e.Prediction == nil {
			continue
		}
		if prob := model.FloatField(e.Prediction.Raw, "engagement_prob"); prob != nil {
			s.tracker.SetProbability(ctx, e.VendorID, *prob)
			restored++
		}
	}
	if restored > 0 {
		s.logger.Info(ctx, "probability tracker rehydrated", logger.Int("vendors", s.tracker.Size()))
	}
	return nil
}

// SubmitEvent runs one event through the ingestion pipeline. The event is
// durably stored before any oracle call; scoring failures degrade the
// result to a prediction-less event instead of failing the ingestion.
func (s *Service) SubmitEvent(ctx context.Context, vendorID, eventType string, metadata map[string]any) (types.IngestResult, error) {
	if strings.TrimSpace(vendorID) == "" || strings.TrimSpace(eventType) == "" {
		metrics.RecordEventRejected()
		return types.IngestResult{}, fmt.Errorf("%w: vendorId and eventType required", ErrValidation)
	}

	event := model.Event{
		ID:        uuid.NewString(),
		VendorID:  vendorID,
		EventType: eventType,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}

	if err := s.store.InsertEvent(ctx, event); err != nil {
		return types.IngestResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	metrics.RecordEventIngested()

	raw := s.scoreNewEvent(ctx, &event)
	return types.IngestResult{Saved: true, Event: event, Prediction: raw}, nil
}

// scoreNewEvent calls the oracle for a just-persisted event and attaches
// the reconciled prediction. It returns the raw oracle response, or nil
// when scoring failed or produced nothing usable. It never returns an
// error: the event already stands as the final record.
func (s *Service) scoreNewEvent(ctx context.Context, event *model.Event) map[string]any {
	if s.scorer == nil {
		return nil
	}

	prev := s.tracker.Probability(ctx, event.VendorID)
	raw, err := s.scorer.ScoreEvent(ctx, event.VendorID, event.EventType, event.Metadata, prev)
	if err != nil {
		metrics.RecordOracleCall("add_event", "error")
		s.logger.Warn(ctx, "scoring failed, event stored without prediction",
			logger.String("vendorId", event.VendorID),
			logger.String("eventID", event.ID),
			logger.Error(err),
		)
		s.enqueueRescore(ctx, event)
		return nil
	}

	pred := model.PredictionFromRaw(raw)
	if pred == nil {
		metrics.RecordOracleCall("add_event", "empty")
		s.logger.Warn(ctx, "oracle response carried no usable score fields",
			logger.String("vendorId", event.VendorID),
			logger.String("eventID", event.ID),
		)
		return nil
	}
	metrics.RecordOracleCall("add_event", "ok")

	if err := s.store.AttachPrediction(ctx, event.ID, pred); err != nil {
		// The bare event is already durable; losing the prediction write
		// degrades richness, not correctness.
		s.logger.Error(ctx, "failed to persist prediction",
			logger.String("eventID", event.ID),
			logger.Error(err),
		)
	} else {
		metrics.RecordPredictionAttached()
	}
	event.Prediction = pred

	if prob := model.FloatField(raw, "engagement_prob"); prob != nil {
		s.tracker.SetProbability(ctx, event.VendorID, *prob)
	}
	return raw
}

func (s *Service) enqueueRescore(ctx context.Context, event *model.Event) {
	if s.rescoreQueue == nil {
		return
	}
	job := rescorequeue.Job{
		EventID:   event.ID,
		VendorID:  event.VendorID,
		EventType: event.EventType,
		Metadata:  event.Metadata,
		NotBefore: time.Now().Add(s.retryInterval),
	}
	if !s.rescoreQueue.Enqueue(ctx, job) {
		s.logger.Warn(ctx, "rescore backlog full", logger.String("eventID", event.ID))
	}
}

// VendorGraph rebuilds the behavioral graph for one vendor and asks the
// oracle for a live score over the current history. The graph is returned
// even when the score call fails; the score is then an empty object.
func (s *Service) VendorGraph(ctx context.Context, vendorID string) (types.Graph, error) {
	events, err := s.store.EventsByVendor(ctx, vendorID, repository.Ascending)
	if err != nil {
		return types.Graph{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	g := types.Graph{VendorID: vendorID}
	g.Nodes, g.Edges = graph.Reconstruct(events)
	if len(events) == 0 {
		// No history, nothing to score.
		return g, nil
	}

	g.Score = s.scoreSnapshot(ctx, vendorID, events)
	return g, nil
}

func (s *Service) scoreSnapshot(ctx context.Context, vendorID string, events []model.Event) map[string]any {
	score := map[string]any{}
	if s.scorer == nil {
		return score
	}

	snap := snapshot.Build(events, s.tracker.Probability(ctx, vendorID))
	raw, err := s.scorer.ScoreSnapshot(ctx, snap)
	if err != nil {
		metrics.RecordOracleCall("score_snapshot", "error")
		s.logger.Warn(ctx, "snapshot scoring failed",
			logger.String("vendorId", vendorID),
			logger.Error(err),
		)
		return score
	}
	metrics.RecordOracleCall("score_snapshot", "ok")

	if prob := model.FloatField(raw, "engagement_prob"); prob != nil {
		s.tracker.SetProbability(ctx, vendorID, *prob)
	}
	return raw
}

// ScoreSeries returns the plot-ready score series for one vendor.
func (s *Service) ScoreSeries(ctx context.Context, vendorID string) ([]types.ScorePoint, error) {
	events, err := s.store.EventsByVendor(ctx, vendorID, repository.Ascending)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return series.Extract(events), nil
}

// VendorEvents returns a vendor's raw events, newest first, capped at the
// configured listing limit.
func (s *Service) VendorEvents(ctx context.Context, vendorID string) ([]model.Event, error) {
	events, err := s.store.EventsByVendor(ctx, vendorID, repository.Descending)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return s.capEvents(events), nil
}

// AllEvents returns stored events across vendors, used for vendor
// discovery, capped at the configured listing limit.
func (s *Service) AllEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.store.AllEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return s.capEvents(events), nil
}

func (s *Service) capEvents(events []model.Event) []model.Event {
	if s.maxEvents > 0 && len(events) > s.maxEvents {
		return events[:s.maxEvents]
	}
	return events
}

// Vendors lists the vendor directory.
func (s *Service) Vendors(ctx context.Context) ([]model.Vendor, error) {
	vendors, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return vendors, nil
}

// UpsertVendor creates or renames a vendor.
func (s *Service) UpsertVendor(ctx context.Context, vendorID, name string) (model.Vendor, error) {
	if strings.TrimSpace(vendorID) == "" || strings.TrimSpace(name) == "" {
		return model.Vendor{}, fmt.Errorf("%w: vendorId and name required", ErrValidation)
	}
	now := time.Now().UTC()
	v := model.Vendor{VendorID: vendorID, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.store.UpsertVendor(ctx, v); err != nil {
		return model.Vendor{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return v, nil
}

// SaveAgreement stores an uploaded agreement reference.
func (s *Service) SaveAgreement(ctx context.Context, vendorID, fileURL, text string) (model.Agreement, error) {
	if strings.TrimSpace(vendorID) == "" || strings.TrimSpace(fileURL) == "" {
		return model.Agreement{}, fmt.Errorf("%w: vendorId and fileUrl required", ErrValidation)
	}
	a := model.Agreement{
		ID:         uuid.NewString(),
		VendorID:   vendorID,
		FileURL:    fileURL,
		Text:       text,
		Status:     "uploaded",
		UploadedAt: time.Now().UTC(),
	}
	if err := s.store.InsertAgreement(ctx, a); err != nil {
		return model.Agreement{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return a, nil
}

// GetStats returns a point-in-time view of the service internals.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"scoringEnabled": s.scorer != nil,
		"rescoreWorkers": s.rescoreWorkers,
	}
	if s.tracker != nil {
		stats["trackedVendors"] = s.tracker.Size()
	}
	if s.rescoreQueue != nil {
		stats["rescoreBacklog"] = s.rescoreQueue.Len(context.Background())
	}
	return stats
}
