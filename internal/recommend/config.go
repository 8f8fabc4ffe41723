// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import "fmt"

// Config holds recommendation engine tuning.
type Config struct {
	// DefaultK is the neighbor count used when a request does not specify
	// one. The result list is one longer since the query item leads it.
	DefaultK int

	// MaxK caps the neighbor count a single request may ask for.
	MaxK int

	// DefaultTopN is the listing size used when a popular-listing request
	// does not specify one.
	DefaultTopN int

	// EnrichConcurrency bounds how many metadata lookups run in parallel
	// per request. Enrichment is cache-backed, so this mostly limits
	// simultaneous upstream fetches on a cold cache.
	EnrichConcurrency int
}

// DefaultConfig returns the production engine configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultK:          4,
		MaxK:              50,
		DefaultTopN:       10,
		EnrichConcurrency: 5,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.DefaultK < 1 {
		return fmt.Errorf("default_k must be >= 1, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max_k (%d) must be >= default_k (%d)", c.MaxK, c.DefaultK)
	}
	if c.DefaultTopN < 1 {
		return fmt.Errorf("default_top_n must be >= 1, got %d", c.DefaultTopN)
	}
	if c.EnrichConcurrency < 1 {
		return fmt.Errorf("enrich_concurrency must be >= 1, got %d", c.EnrichConcurrency)
	}
	return nil
}
