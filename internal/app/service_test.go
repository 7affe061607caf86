package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Gaganvinay/vendortrail/internal/adapters/repository"
	service "github.com/Gaganvinay/vendortrail/internal/app"
	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/internal/domain/snapshot"
	"github.com/Gaganvinay/vendortrail/internal/domain/state"
	"github.com/Gaganvinay/vendortrail/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeScorer is a scripted oracle double.
type fakeScorer struct {
	mu            sync.Mutex
	eventResp     map[string]any
	snapshotResp  map[string]any
	fail          bool
	lastPrevProb  float64
	lastSnapshot  snapshot.Snapshot
	eventCalls    int
	snapshotCalls int
}

func (s *fakeScorer) ScoreEvent(_ context.Context, _, _ string, _ map[string]any, prevProb float64) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventCalls++
	s.lastPrevProb = prevProb
	if s.fail {
		return nil, errors.New("connection refused")
	}
	return s.eventResp, nil
}

func (s *fakeScorer) ScoreSnapshot(_ context.Context, snap snapshot.Snapshot) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotCalls++
	s.lastSnapshot = snap
	if s.fail {
		return nil, errors.New("connection refused")
	}
	return s.snapshotResp, nil
}

// countingStore wraps a MemStore and counts writes.
type countingStore struct {
	*repository.MemStore
	mu       sync.Mutex
	inserts  int
	attaches int
}

func (c *countingStore) InsertEvent(ctx context.Context, e model.Event) error {
	c.mu.Lock()
	c.inserts++
	c.mu.Unlock()
	return c.MemStore.InsertEvent(ctx, e)
}

func (c *countingStore) AttachPrediction(ctx context.Context, id string, p *model.Prediction) error {
	c.mu.Lock()
	c.attaches++
	c.mu.Unlock()
	return c.MemStore.AttachPrediction(ctx, id, p)
}

func startService(t *testing.T, opts ...service.Option) (*service.Service, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc := service.New(append([]service.Option{service.WithRescoreWorkers(0)}, opts...)...)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, ctx
}

func TestSubmitEventScored(t *testing.T) {
	Convey("Given a healthy oracle returning engagement and trust scores", t, func() {
		scorer := &fakeScorer{eventResp: map[string]any{"engagement_prob": 0.7, "trust_score": 0.9}}
		tracker := state.NewInMemoryTracker()
		store := &countingStore{MemStore: repository.NewMemStore()}
		svc, ctx := startService(t,
			service.WithScorer(scorer),
			service.WithTracker(tracker),
			service.WithStore(store),
		)

		Convey("When submitting a click event for V1", func() {
			res, err := svc.SubmitEvent(ctx, "V1", "click", map[string]any{"page": "home"})

			Convey("Then the ingestion should succeed with the raw oracle response", func() {
				So(err, ShouldBeNil)
				So(res.Saved, ShouldBeTrue)
				So(res.Prediction["engagement_prob"], ShouldEqual, 0.7)
			})

			Convey("And the stored prediction should be reconciled via the fallback chain", func() {
				events, err := svc.VendorEvents(ctx, "V1")
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				pred := events[0].Prediction
				So(pred, ShouldNotBeNil)
				So(*pred.GNNScore, ShouldEqual, 0.7)
				So(*pred.TrustScore, ShouldEqual, 0.9)
				So(pred.Decay, ShouldBeNil)
				So(pred.Raw["engagement_prob"], ShouldEqual, 0.7)
			})

			Convey("And the event should be written exactly once, then updated exactly once", func() {
				So(store.inserts, ShouldEqual, 1)
				So(store.attaches, ShouldEqual, 1)
			})

			Convey("And the tracker should hold the new probability", func() {
				So(tracker.Probability(ctx, "V1"), ShouldEqual, 0.7)
			})

			Convey("And the next scoring call should see 0.7 as the prior", func() {
				_, err := svc.SubmitEvent(ctx, "V1", "click", nil)
				So(err, ShouldBeNil)
				So(scorer.lastPrevProb, ShouldEqual, 0.7)
			})
		})

		Convey("When the first event for a vendor is scored", func() {
			_, err := svc.SubmitEvent(ctx, "fresh", "click", nil)
			So(err, ShouldBeNil)

			Convey("Then the oracle should have seen the 0.5 default prior", func() {
				So(scorer.lastPrevProb, ShouldEqual, 0.5)
			})
		})
	})
}

func TestSubmitEventOracleDown(t *testing.T) {
	Convey("Given an unreachable oracle", t, func() {
		scorer := &fakeScorer{fail: true}
		tracker := state.NewInMemoryTracker()
		store := &countingStore{MemStore: repository.NewMemStore()}
		svc, ctx := startService(t,
			service.WithScorer(scorer),
			service.WithTracker(tracker),
			service.WithStore(store),
		)

		Convey("When submitting an event", func() {
			res, err := svc.SubmitEvent(ctx, "V1", "click", nil)

			Convey("Then the ingestion should still report saved", func() {
				So(err, ShouldBeNil)
				So(res.Saved, ShouldBeTrue)
				So(res.Prediction, ShouldBeNil)
			})

			Convey("And the event should be retrievable without a prediction", func() {
				events, err := svc.VendorEvents(ctx, "V1")
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].Prediction, ShouldBeNil)
			})

			Convey("And no prediction update should have been attempted", func() {
				So(store.attaches, ShouldEqual, 0)
			})

			Convey("And the tracker should keep its default", func() {
				So(tracker.Probability(ctx, "V1"), ShouldEqual, 0.5)
			})
		})
	})
}

func TestSubmitEventValidation(t *testing.T) {
	Convey("Given a running service", t, func() {
		store := &countingStore{MemStore: repository.NewMemStore()}
		scorer := &fakeScorer{eventResp: map[string]any{"gnn_score": 0.6}}
		svc, ctx := startService(t, service.WithStore(store), service.WithScorer(scorer))

		Convey("When the vendor id is missing", func() {
			_, err := svc.SubmitEvent(ctx, "", "click", nil)

			Convey("Then a validation error should be returned before any write", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				So(store.inserts, ShouldEqual, 0)
				So(scorer.eventCalls, ShouldEqual, 0)
			})
		})

		Convey("When the event type is missing", func() {
			_, err := svc.SubmitEvent(ctx, "V1", "  ", nil)

			Convey("Then a validation error should be returned", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestSubmitEventUnusableResponse(t *testing.T) {
	Convey("Given an oracle that answers with no known score fields", t, func() {
		store := &countingStore{MemStore: repository.NewMemStore()}
		scorer := &fakeScorer{eventResp: map[string]any{"status": "ok"}}
		svc, ctx := startService(t, service.WithStore(store), service.WithScorer(scorer))

		Convey("When submitting an event", func() {
			res, err := svc.SubmitEvent(ctx, "V1", "click", nil)

			Convey("Then ingestion should succeed with a nil prediction and no update write", func() {
				So(err, ShouldBeNil)
				So(res.Saved, ShouldBeTrue)
				So(res.Prediction, ShouldBeNil)
				So(store.attaches, ShouldEqual, 0)
			})
		})
	})
}

func TestVendorGraph(t *testing.T) {
	Convey("Given a vendor with no events", t, func() {
		scorer := &fakeScorer{snapshotResp: map[string]any{"engagement_prob": 0.6}}
		svc, ctx := startService(t, service.WithScorer(scorer))

		Convey("When requesting the graph", func() {
			g, err := svc.VendorGraph(ctx, "empty")

			Convey("Then it should be empty with a nil score and no oracle call", func() {
				So(err, ShouldBeNil)
				So(g.Nodes, ShouldBeEmpty)
				So(g.Edges, ShouldBeEmpty)
				So(g.Score, ShouldBeNil)
				So(scorer.snapshotCalls, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a vendor with scored history", t, func() {
		scorer := &fakeScorer{
			eventResp:    map[string]any{"engagement_prob": 0.7},
			snapshotResp: map[string]any{"engagement_prob": 0.65, "trust_score": 0.8},
		}
		tracker := state.NewInMemoryTracker()
		svc, ctx := startService(t, service.WithScorer(scorer), service.WithTracker(tracker))

		_, err := svc.SubmitEvent(ctx, "V1", "click", nil)
		So(err, ShouldBeNil)
		_, err = svc.SubmitEvent(ctx, "V1", "purchase", nil)
		So(err, ShouldBeNil)

		Convey("When requesting the graph", func() {
			g, err := svc.VendorGraph(ctx, "V1")

			Convey("Then nodes and edges should form the chronological chain", func() {
				So(err, ShouldBeNil)
				So(g.Nodes, ShouldHaveLength, 2)
				So(g.Edges, ShouldHaveLength, 1)
				So(g.Edges[0].Source, ShouldEqual, g.Nodes[0].ID)
				So(g.Edges[0].Target, ShouldEqual, g.Nodes[1].ID)
			})

			Convey("And the live score should carry the oracle response", func() {
				So(g.Score["engagement_prob"], ShouldEqual, 0.65)
			})

			Convey("And the snapshot should have carried the tracked prior", func() {
				So(scorer.lastSnapshot.PrevEngagementProb, ShouldEqual, 0.7)
				So(scorer.lastSnapshot.Events, ShouldHaveLength, 2)
			})

			Convey("And the tracker should learn the snapshot probability", func() {
				So(tracker.Probability(ctx, "V1"), ShouldEqual, 0.65)
			})
		})
	})

	Convey("Given an oracle that fails during the graph read", t, func() {
		scorer := &fakeScorer{eventResp: map[string]any{"engagement_prob": 0.7}}
		svc, ctx := startService(t, service.WithScorer(scorer))
		_, err := svc.SubmitEvent(ctx, "V1", "click", nil)
		So(err, ShouldBeNil)
		scorer.fail = true

		Convey("When requesting the graph", func() {
			g, err := svc.VendorGraph(ctx, "V1")

			Convey("Then the graph should still be returned with an empty score object", func() {
				So(err, ShouldBeNil)
				So(g.Nodes, ShouldHaveLength, 1)
				So(g.Score, ShouldNotBeNil)
				So(g.Score, ShouldBeEmpty)
			})
		})
	})
}

func TestScoreSeries(t *testing.T) {
	Convey("Given a vendor whose second event failed scoring", t, func() {
		scorer := &fakeScorer{eventResp: map[string]any{"engagement_prob": 0.7}}
		svc, ctx := startService(t, service.WithScorer(scorer))

		_, err := svc.SubmitEvent(ctx, "V1", "click", nil)
		So(err, ShouldBeNil)
		scorer.fail = true
		_, err = svc.SubmitEvent(ctx, "V1", "click", nil)
		So(err, ShouldBeNil)

		Convey("When extracting the series", func() {
			points, err := svc.ScoreSeries(ctx, "V1")

			Convey("Then every event should yield a point, scored or not", func() {
				So(err, ShouldBeNil)
				So(points, ShouldHaveLength, 2)
				So(*points[0].Score, ShouldEqual, 0.7)
				So(points[1].Score, ShouldBeNil)
			})
		})
	})
}

func TestTrackerRehydration(t *testing.T) {
	Convey("Given a store holding previously scored events", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		old := model.Event{ID: "a", VendorID: "V1", EventType: "click", Timestamp: base}
		So(store.InsertEvent(ctx, old), ShouldBeNil)
		So(store.AttachPrediction(ctx, "a", &model.Prediction{Raw: map[string]any{"engagement_prob": 0.4}}), ShouldBeNil)

		newer := model.Event{ID: "b", VendorID: "V1", EventType: "click", Timestamp: base.Add(time.Hour)}
		So(store.InsertEvent(ctx, newer), ShouldBeNil)
		So(store.AttachPrediction(ctx, "b", &model.Prediction{Raw: map[string]any{"engagement_prob": 0.8}}), ShouldBeNil)

		Convey("When a service starts over that store", func() {
			tracker := state.NewInMemoryTracker()
			svc, sctx := startService(t, service.WithStore(store), service.WithTracker(tracker))
			_ = svc

			Convey("Then the tracker should hold the most recent probability", func() {
				So(tracker.Probability(sctx, "V1"), ShouldEqual, 0.8)
			})
		})

		Convey("When rehydration is disabled", func() {
			tracker := state.NewInMemoryTracker()
			_, sctx := startService(t, service.WithStore(store), service.WithTracker(tracker), service.WithRehydration(false))

			Convey("Then the tracker should stay at the default", func() {
				So(tracker.Probability(sctx, "V1"), ShouldEqual, 0.5)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := startService(t)

		Convey("Then stats should report the started flag", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["scoringEnabled"], ShouldEqual, false)
		})

		Convey("When stopped", func() {
			svc.Stop()

			Convey("Then stats should flip the started flag", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestVendorDirectoryAndAgreements(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := repository.NewMemStore()
		svc, ctx := startService(t, service.WithStore(store))

		Convey("When upserting a vendor", func() {
			v, err := svc.UpsertVendor(ctx, "101", "Acme Supplies")

			Convey("Then it should appear in the directory", func() {
				So(err, ShouldBeNil)
				So(v.VendorID, ShouldEqual, "101")
				vendors, err := svc.Vendors(ctx)
				So(err, ShouldBeNil)
				So(vendors, ShouldHaveLength, 1)
				So(vendors[0].Name, ShouldEqual, "Acme Supplies")
			})

			Convey("And renaming it should not duplicate the entry", func() {
				So(err, ShouldBeNil)
				_, err := svc.UpsertVendor(ctx, "101", "Acme Holdings")
				So(err, ShouldBeNil)
				vendors, err := svc.Vendors(ctx)
				So(err, ShouldBeNil)
				So(vendors, ShouldHaveLength, 1)
				So(vendors[0].Name, ShouldEqual, "Acme Holdings")
			})
		})

		Convey("When upserting a vendor without a name", func() {
			_, err := svc.UpsertVendor(ctx, "101", " ")

			Convey("Then a validation error should be returned", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When saving an agreement", func() {
			a, err := svc.SaveAgreement(ctx, "101", "https://files/x.pdf", "terms text")

			Convey("Then it should be stored with an uploaded status", func() {
				So(err, ShouldBeNil)
				So(a.ID, ShouldNotBeEmpty)
				So(a.Status, ShouldEqual, "uploaded")
				So(store.Agreements(), ShouldHaveLength, 1)
			})
		})

		Convey("When saving an agreement without a file URL", func() {
			_, err := svc.SaveAgreement(ctx, "101", "", "")

			Convey("Then a validation error should be returned", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestEventListingLimit(t *testing.T) {
	Convey("Given a service with a small listing limit", t, func() {
		store := repository.NewMemStore()
		svc, ctx := startService(t, service.WithStore(store), service.WithMaxEventsLimit(2))

		for i := 0; i < 5; i++ {
			_, err := svc.SubmitEvent(ctx, "V1", "click", nil)
			So(err, ShouldBeNil)
		}

		Convey("When listing raw events", func() {
			perVendor, err := svc.VendorEvents(ctx, "V1")
			So(err, ShouldBeNil)
			all, err := svc.AllEvents(ctx)
			So(err, ShouldBeNil)

			Convey("Then both listings should be capped", func() {
				So(perVendor, ShouldHaveLength, 2)
				So(all, ShouldHaveLength, 2)
			})
		})

		Convey("When rebuilding the graph", func() {
			g, err := svc.VendorGraph(ctx, "V1")
			So(err, ShouldBeNil)

			Convey("Then the full history should still be used", func() {
				So(g.Nodes, ShouldHaveLength, 5)
				So(g.Edges, ShouldHaveLength, 4)
			})
		})
	})
}
