// Package repository defines the persistence interfaces for events,
// vendors and agreements, plus the in-memory and Postgres implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/pkg/metrics"
)

// Order selects the timestamp ordering of event queries.
type Order int

const (
	// Ascending returns events oldest first.
	Ascending Order = iota
	// Descending returns events newest first.
	Descending
)

// Sentinel errors for this package. Callers match with errors.Is.
var (
	ErrEventNotFound  = errors.New("event not found")
	ErrVendorNotFound = errors.New("vendor not found")
)

// EventStore is the append-mostly event collection. Events are inserted
// once and mutated exactly once, when a prediction is attached after a
// successful scoring round-trip.
type EventStore interface {
	// InsertEvent stores a new event. The event must not carry a
	// prediction yet.
	InsertEvent(ctx context.Context, e model.Event) error

	// AttachPrediction sets the prediction on an already-stored event.
	AttachPrediction(ctx context.Context, eventID string, p *model.Prediction) error

	// EventsByVendor returns all events for one vendor in the given order.
	EventsByVendor(ctx context.Context, vendorID string, order Order) ([]model.Event, error)

	// AllEvents returns every stored event, used for vendor discovery.
	AllEvents(ctx context.Context) ([]model.Event, error)
}

// VendorDirectory lists and resolves vendors.
type VendorDirectory interface {
	ListVendors(ctx context.Context) ([]model.Vendor, error)
	GetVendor(ctx context.Context, vendorID string) (model.Vendor, error)
	UpsertVendor(ctx context.Context, v model.Vendor) error
}

// AgreementStore stores uploaded agreement references.
type AgreementStore interface {
	InsertAgreement(ctx context.Context, a model.Agreement) error
}

// Store bundles every persistence concern the service needs.
type Store interface {
	EventStore
	VendorDirectory
	AgreementStore

	Close() error
}

// observe records an operation latency on the store metrics.
func observe(op string, start time.Time) {
	metrics.RecordStoreOpLatency(op, float64(time.Since(start).Milliseconds()))
}
