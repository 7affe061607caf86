package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Gaganvinay/vendortrail/internal/domain/model"
)

// MemStore is a mutex-guarded in-memory Store. It is the default backend
// when no database is configured and the backend used by tests. Reads
// return copies, so a reader never observes a half-written event while an
// ingestion is in flight.
type MemStore struct {
	mu         sync.RWMutex
	events     []model.Event
	eventIdx   map[string]int
	vendors    map[string]model.Vendor
	agreements []model.Agreement
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		eventIdx: make(map[string]int),
		vendors:  make(map[string]model.Vendor),
	}
}

func (s *MemStore) InsertEvent(_ context.Context, e model.Event) error {
	defer observe("insert_event", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventIdx[e.ID] = len(s.events)
	s.events = append(s.events, e)
	return nil
}

func (s *MemStore) AttachPrediction(_ context.Context, eventID string, p *model.Prediction) error {
	defer observe("attach_prediction", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.eventIdx[eventID]
	if !ok {
		return ErrEventNotFound
	}
	s.events[i].Prediction = p
	return nil
}

func (s *MemStore) EventsByVendor(_ context.Context, vendorID string, order Order) ([]model.Event, error) {
	defer observe("events_by_vendor", time.Now())
	s.mu.RLock()
	out := make([]model.Event, 0)
	for _, e := range s.events {
		if e.VendorID == vendorID {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if order == Descending {
			return out[j].Timestamp.Before(out[i].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *MemStore) AllEvents(_ context.Context) ([]model.Event, error) {
	defer observe("all_events", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *MemStore) ListVendors(_ context.Context) ([]model.Vendor, error) {
	defer observe("list_vendors", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VendorID < out[j].VendorID })
	return out, nil
}

func (s *MemStore) GetVendor(_ context.Context, vendorID string) (model.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[vendorID]
	if !ok {
		return model.Vendor{}, ErrVendorNotFound
	}
	return v, nil
}

func (s *MemStore) UpsertVendor(_ context.Context, v model.Vendor) error {
	defer observe("upsert_vendor", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.vendors[v.VendorID]; ok {
		existing.Name = v.Name
		existing.UpdatedAt = v.UpdatedAt
		s.vendors[v.VendorID] = existing
		return nil
	}
	s.vendors[v.VendorID] = v
	return nil
}

func (s *MemStore) InsertAgreement(_ context.Context, a model.Agreement) error {
	defer observe("insert_agreement", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agreements = append(s.agreements, a)
	return nil
}

// Agreements returns stored agreements; used by tests.
func (s *MemStore) Agreements() []model.Agreement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Agreement, len(s.agreements))
	copy(out, s.agreements)
	return out
}

func (s *MemStore) Close() error { return nil }
