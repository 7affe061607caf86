package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VENDORTRAIL_CONFIG is set
//  3. env (prefix VENDORTRAIL_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("VENDORTRAIL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: VENDORTRAIL_ADDR, VENDORTRAIL_ORACLE_URL, ...
	// Underscores are preserved so keys match the koanf tags on the struct.
	envProvider := env.Provider("VENDORTRAIL_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "vendortrail_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DefaultEngagementProb < 0 || c.DefaultEngagementProb > 1 {
		return fmt.Errorf("%w: default_engagement_prob must be within [0,1]", ErrInvalidConfig)
	}
	if c.OracleTimeoutMS <= 0 {
		return fmt.Errorf("%w: oracle_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.RescoreWorkerCount < 0 {
		return fmt.Errorf("%w: rescore_worker_count must not be negative", ErrInvalidConfig)
	}
	if c.RescoreQueueSize <= 0 {
		return fmt.Errorf("%w: rescore_queue_size must be positive", ErrInvalidConfig)
	}
	if c.MaxEventsLimit <= 0 {
		return fmt.Errorf("%w: max_events_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
