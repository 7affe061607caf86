// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error sentinels.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// OracleURL points at the scoring service. Empty disables scoring:
	// events are still accepted and stored, just never scored.
	OracleURL string `koanf:"oracle_url"`

	// OracleTimeoutMS bounds each scoring call.
	OracleTimeoutMS int `koanf:"oracle_timeout_ms"`

	// DatabaseURL selects the Postgres store. Empty falls back to the
	// in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// DefaultEngagementProb seeds the prior for vendors never scored before.
	DefaultEngagementProb float64 `koanf:"default_engagement_prob"`

	// RescoreIntervalMS sets the retry delay for failed scorings.
	RescoreIntervalMS int `koanf:"rescore_interval_ms"`

	// RescoreWorkerCount sets the number of rescore workers. Zero disables
	// the retry path entirely.
	RescoreWorkerCount int `koanf:"rescore_worker_count"`

	// RescoreQueueSize bounds the in-memory rescore backlog.
	RescoreQueueSize int `koanf:"rescore_queue_size"`

	// MaxEventsLimit caps the raw-event listing responses.
	MaxEventsLimit int `koanf:"max_events_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		OracleURL:             "http://localhost:8000",
		OracleTimeoutMS:       5_000,
		DefaultEngagementProb: 0.5,
		RescoreIntervalMS:     30_000,
		RescoreWorkerCount:    2,
		RescoreQueueSize:      10_000,
		MaxEventsLimit:        10_000,
	}
}
