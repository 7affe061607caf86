package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/pkg/metrics"
)

// schema is applied at startup. Events keep metadata and the prediction as
// JSONB so historical prediction shapes survive verbatim.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	vendor_id   TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	metadata    JSONB,
	ts          TIMESTAMPTZ NOT NULL,
	prediction  JSONB
);
CREATE INDEX IF NOT EXISTS events_vendor_ts_idx ON events (vendor_id, ts);

CREATE TABLE IF NOT EXISTS vendors (
	vendor_id   TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS agreements (
	id          TEXT PRIMARY KEY,
	vendor_id   TEXT NOT NULL,
	file_url    TEXT NOT NULL,
	body        TEXT,
	status      TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn, verifies the connection and ensures the
// schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("repository: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) InsertEvent(ctx context.Context, e model.Event) error {
	defer observe("insert_event", time.Now())
	meta, err := marshalNullable(e.Metadata)
	if err != nil {
		return fmt.Errorf("repository: encode metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO events (id, vendor_id, event_type, metadata, ts, prediction)
		 VALUES ($1, $2, $3, $4, $5, NULL)`,
		e.ID, e.VendorID, e.EventType, meta, e.Timestamp,
	)
	if err != nil {
		metrics.RecordStoreError("insert_event")
		return fmt.Errorf("repository: insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) AttachPrediction(ctx context.Context, eventID string, p *model.Prediction) error {
	defer observe("attach_prediction", time.Now())
	pred, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("repository: encode prediction: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE events SET prediction = $2 WHERE id = $1`,
		eventID, pred,
	)
	if err != nil {
		metrics.RecordStoreError("attach_prediction")
		return fmt.Errorf("repository: attach prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *PostgresStore) EventsByVendor(ctx context.Context, vendorID string, order Order) ([]model.Event, error) {
	defer observe("events_by_vendor", time.Now())
	dir := "ASC"
	if order == Descending {
		dir = "DESC"
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, vendor_id, event_type, metadata, ts, prediction
		 FROM events WHERE vendor_id = $1 ORDER BY ts `+dir,
		vendorID,
	)
	if err != nil {
		metrics.RecordStoreError("events_by_vendor")
		return nil, fmt.Errorf("repository: query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) AllEvents(ctx context.Context) ([]model.Event, error) {
	defer observe("all_events", time.Now())
	rows, err := s.pool.Query(ctx,
		`SELECT id, vendor_id, event_type, metadata, ts, prediction FROM events ORDER BY ts ASC`)
	if err != nil {
		metrics.RecordStoreError("all_events")
		return nil, fmt.Errorf("repository: query all events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]model.Event, error) {
	events := make([]model.Event, 0)
	for rows.Next() {
		var (
			e        model.Event
			metaJSON []byte
			predJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.VendorID, &e.EventType, &metaJSON, &e.Timestamp, &predJSON); err != nil {
			return nil, fmt.Errorf("repository: scan event: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("repository: decode metadata: %w", err)
			}
		}
		if len(predJSON) > 0 {
			var p model.Prediction
			if err := json.Unmarshal(predJSON, &p); err != nil {
				return nil, fmt.Errorf("repository: decode prediction: %w", err)
			}
			e.Prediction = &p
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	defer observe("list_vendors", time.Now())
	rows, err := s.pool.Query(ctx,
		`SELECT vendor_id, name, created_at, updated_at FROM vendors ORDER BY vendor_id`)
	if err != nil {
		metrics.RecordStoreError("list_vendors")
		return nil, fmt.Errorf("repository: query vendors: %w", err)
	}
	defer rows.Close()

	vendors := make([]model.Vendor, 0)
	for rows.Next() {
		var v model.Vendor
		if err := rows.Scan(&v.VendorID, &v.Name, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate vendors: %w", err)
	}
	return vendors, nil
}

func (s *PostgresStore) GetVendor(ctx context.Context, vendorID string) (model.Vendor, error) {
	var v model.Vendor
	err := s.pool.QueryRow(ctx,
		`SELECT vendor_id, name, created_at, updated_at FROM vendors WHERE vendor_id = $1`,
		vendorID,
	).Scan(&v.VendorID, &v.Name, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Vendor{}, ErrVendorNotFound
	}
	if err != nil {
		return model.Vendor{}, fmt.Errorf("repository: get vendor: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) UpsertVendor(ctx context.Context, v model.Vendor) error {
	defer observe("upsert_vendor", time.Now())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vendors (vendor_id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (vendor_id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at`,
		v.VendorID, v.Name, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		metrics.RecordStoreError("upsert_vendor")
		return fmt.Errorf("repository: upsert vendor: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertAgreement(ctx context.Context, a model.Agreement) error {
	defer observe("insert_agreement", time.Now())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agreements (id, vendor_id, file_url, body, status, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.VendorID, a.FileURL, a.Text, a.Status, a.UploadedAt,
	)
	if err != nil {
		metrics.RecordStoreError("insert_agreement")
		return fmt.Errorf("repository: insert agreement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// marshalNullable encodes m as JSON, mapping an absent map to SQL NULL.
func marshalNullable(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}
