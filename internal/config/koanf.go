// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinegraph/config.yaml",
	"/etc/cinegraph/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces all Cinegraph environment variables.
const envPrefix = "CINEGRAPH_"

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8460,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Dataset: DatasetConfig{
			CatalogPath: "/data/movies.json",
			MatrixPath:  "/data/similarity.json.gz",
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			APIKey:       "", // Secret: must come from env or config file
			MaxAttempts:  3,
			BackoffBase:  500 * time.Millisecond,
			AttemptTimeout: 5 * time.Second,
			RateLimitPerSecond: 20,
			RateBurst:          10,
			BreakerEnabled:     true,
		},
		Cache: CacheConfig{
			TTL:             time.Hour,
			DegradedTTL:     time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Recommend: RecommendConfig{
			DefaultK:          4,
			MaxK:              50,
			DefaultTopN:       10,
			EnrichConcurrency: 5,
		},
		API: APIConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (first found of DefaultConfigPaths,
//     or CONFIG_PATH)
//  3. Environment variables: CINEGRAPH_* overrides, highest priority
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Slice fields arrive from env as comma-separated strings.
	if v := k.Get("api.cors_origins"); v != nil {
		if s, ok := v.(string); ok {
			parts := strings.Split(s, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			if err := k.Set("api.cors_origins", parts); err != nil {
				return nil, fmt.Errorf("failed to normalize api.cors_origins: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings translates environment variable names (prefix stripped,
// lowercased) to koanf paths. An explicit table avoids guessing where the
// section ends and the field begins for underscore-heavy keys like
// TMDB_API_KEY.
var envMappings = map[string]string{
	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",

	"dataset_catalog_path": "dataset.catalog_path",
	"dataset_matrix_path":  "dataset.matrix_path",

	"tmdb_base_url":              "tmdb.base_url",
	"tmdb_image_base_url":        "tmdb.image_base_url",
	"tmdb_api_key":               "tmdb.api_key",
	"tmdb_max_attempts":          "tmdb.max_attempts",
	"tmdb_backoff_base":          "tmdb.backoff_base",
	"tmdb_attempt_timeout":       "tmdb.attempt_timeout",
	"tmdb_rate_limit_per_second": "tmdb.rate_limit_per_second",
	"tmdb_rate_burst":            "tmdb.rate_burst",
	"tmdb_breaker_enabled":       "tmdb.breaker_enabled",

	"cache_ttl":              "cache.ttl",
	"cache_degraded_ttl":     "cache.degraded_ttl",
	"cache_cleanup_interval": "cache.cleanup_interval",

	"recommend_default_k":          "recommend.default_k",
	"recommend_max_k":              "recommend.max_k",
	"recommend_default_top_n":      "recommend.default_top_n",
	"recommend_enrich_concurrency": "recommend.enrich_concurrency",

	"api_cors_origins":        "api.cors_origins",
	"api_rate_limit_requests": "api.rate_limit_requests",
	"api_rate_limit_window":   "api.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransform maps CINEGRAPH_* variable names to koanf paths.
// Unknown variables are dropped (empty return) instead of guessed at.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return envMappings[key]
}
