// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Cinegraph server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	Cache     CacheConfig     `koanf:"cache"`
	Recommend RecommendConfig `koanf:"recommend"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatasetConfig locates the catalog and similarity matrix artifacts.
type DatasetConfig struct {
	// CatalogPath is the JSON item catalog.
	CatalogPath string `koanf:"catalog_path" validate:"required"`

	// MatrixPath is the row-major similarity matrix, optionally
	// gzip-compressed (".gz" suffix).
	MatrixPath string `koanf:"matrix_path" validate:"required"`
}

// TMDBConfig holds settings for the upstream metadata API.
//
// Environment: set CINEGRAPH_TMDB_API_KEY rather than putting the key in a
// config file. The key is a secret and is never defaulted in code.
type TMDBConfig struct {
	BaseURL      string `koanf:"base_url" validate:"required,url"`
	ImageBaseURL string `koanf:"image_base_url" validate:"required,url"`
	APIKey       string `koanf:"api_key" validate:"required"`

	// Retry policy knobs; zero values select the client defaults
	// (3 attempts, 0.5s backoff base, 5s per-attempt timeout).
	MaxAttempts    int           `koanf:"max_attempts"`
	BackoffBase    time.Duration `koanf:"backoff_base"`
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`

	// Outbound rate limiting. Zero disables the limiter.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
	RateBurst          int     `koanf:"rate_burst"`

	// BreakerEnabled wraps the client in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// CacheConfig holds metadata cache settings.
type CacheConfig struct {
	// TTL is how long successfully fetched records stay fresh.
	TTL time.Duration `koanf:"ttl"`

	// DegradedTTL is the retry window for records built after a fetch
	// failure. Must stay well below TTL.
	DegradedTTL time.Duration `koanf:"degraded_ttl"`

	// CleanupInterval is how often the janitor sweeps expired entries.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	DefaultK          int `koanf:"default_k"`
	MaxK              int `koanf:"max_k"`
	DefaultTopN       int `koanf:"default_top_n"`
	EnrichConcurrency int `koanf:"enrich_concurrency"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration, combining struct tag validation with
// cross-field checks that tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.DegradedTTL <= 0 || c.Cache.DegradedTTL > c.Cache.TTL {
		return fmt.Errorf("cache.degraded_ttl must be in (0, cache.ttl], got %s", c.Cache.DegradedTTL)
	}
	if c.TMDB.MaxAttempts < 0 {
		return fmt.Errorf("tmdb.max_attempts must not be negative, got %d", c.TMDB.MaxAttempts)
	}
	if c.API.RateLimitRequests > 0 && c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("api.rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}
