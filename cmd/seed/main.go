// Command seed populates the vendor directory and optionally submits a burst
// of sample events through the HTTP API, useful for demos and local testing.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Gaganvinay/vendortrail/internal/adapters/repository"
	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/pkg/logger"
)

const defaultTimeout = 10 * time.Second

var sampleVendors = []model.Vendor{
	{VendorID: "101", Name: "Acme Supplies"},
	{VendorID: "102", Name: "Globex Traders"},
	{VendorID: "103", Name: "Initech Logistics"},
}

var sampleEventTypes = []string{"login", "view_catalog", "click", "add_to_cart", "purchase"}

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		databaseURL = flag.String("database-url", os.Getenv("VENDORTRAIL_DATABASE_URL"), "Postgres DSN for direct vendor seeding (empty skips the directory)")
		numEvents   = flag.Int("events", 0, "Number of sample events to submit per vendor")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	_ = godotenv.Load()
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get().Named("seed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *databaseURL != "" {
		if err := seedVendors(ctx, *databaseURL); err != nil {
			log.Error(ctx, "vendor seeding failed", logger.Error(err))
			return
		}
		log.Info(ctx, "vendor directory seeded", logger.Int("vendors", len(sampleVendors)))
	}

	if *numEvents > 0 {
		client := &http.Client{Timeout: *timeout}
		submitted, err := submitEvents(ctx, client, *baseURL, *numEvents)
		if err != nil {
			log.Error(ctx, "event submission failed", logger.Error(err))
			return
		}
		log.Info(ctx, "sample events submitted", logger.Int("events", submitted))
	}
}

func seedVendors(ctx context.Context, dsn string) error {
	store, err := repository.NewPostgresStore(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer store.Close()

	for _, v := range sampleVendors {
		if err := store.UpsertVendor(ctx, v); err != nil {
			return fmt.Errorf("upsert vendor %s: %w", v.VendorID, err)
		}
	}
	return nil
}

func submitEvents(ctx context.Context, client *http.Client, baseURL string, perVendor int) (int, error) {
	submitted := 0
	for _, v := range sampleVendors {
		for i := 0; i < perVendor; i++ {
			payload := map[string]any{
				"vendorId":  v.VendorID,
				"eventType": sampleEventTypes[rand.Intn(len(sampleEventTypes))],
				"metadata":  map[string]any{"source": "seed", "sequence": i},
			}
			raw, err := json.Marshal(payload)
			if err != nil {
				return submitted, err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/events", bytes.NewReader(raw))
			if err != nil {
				return submitted, err
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err != nil {
				return submitted, err
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return submitted, fmt.Errorf("unexpected status %d for vendor %s", resp.StatusCode, v.VendorID)
			}
			submitted++
		}
	}
	return submitted, nil
}
