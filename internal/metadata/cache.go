// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package metadata

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/cinegraph/cinegraph/internal/metrics"
)

// CacheConfig holds metadata cache tuning.
type CacheConfig struct {
	// TTL is how long a successfully fetched record stays fresh.
	// Default: 1 hour.
	TTL time.Duration

	// DegradedTTL is how long a degraded record (built after a fetch
	// failure) is served before the upstream is retried. Kept short so a
	// recovering upstream is picked up quickly, but long enough that a
	// down upstream is not hammered on every call.
	// Default: 1 minute.
	DegradedTTL time.Duration

	// Now is the clock used for expiry decisions. Injectable so tests can
	// advance TTLs without sleeping. Default: time.Now.
	Now func() time.Time
}

// DefaultCacheConfig returns the production cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:         time.Hour,
		DegradedTTL: time.Minute,
		Now:         time.Now,
	}
}

// entry owns one cached record and its expiry. Entries are private to the
// cache; nothing else mutates them.
type entry struct {
	record    Record
	expiresAt time.Time
}

// Cache memoizes metadata fetches with a TTL and absorbs upstream failures
// into degraded records. Get never fails: the worst case is a renderable
// record built entirely from fallbacks.
//
// Concurrent Gets for the same uncached id coalesce into a single Fetcher
// call via singleflight; every waiter receives the same resulting record.
// Keys are independent, there is no cross-key serialization beyond the
// short critical sections guarding the entry map.
type Cache struct {
	fetcher     Fetcher
	ttl         time.Duration
	degradedTTL time.Duration
	now         func() time.Time
	logger      zerolog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	entries map[int]entry
}

// NewCache creates a metadata cache in front of the given fetcher.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCache(fetcher Fetcher, cfg CacheConfig, logger zerolog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.DegradedTTL <= 0 {
		cfg.DegradedTTL = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		fetcher:     fetcher,
		ttl:         cfg.TTL,
		degradedTTL: cfg.DegradedTTL,
		now:         cfg.Now,
		logger:      logger.With().Str("component", "metadata-cache").Logger(),
		entries:     make(map[int]entry),
	}
}

// Get returns display metadata for the given movie id, fetching on miss or
// expiry. It never returns an error; a failed fetch yields a degraded
// record instead.
func (c *Cache) Get(ctx context.Context, id int) Record {
	if rec, ok := c.lookup(id); ok {
		metrics.MetadataCacheHits.Inc()
		return rec
	}
	metrics.MetadataCacheMisses.Inc()

	// Coalesce concurrent misses for the same id into one upstream call.
	v, _, shared := c.group.Do(strconv.Itoa(id), func() (interface{}, error) {
		// A previous flight may have filled the entry between our lookup
		// and joining the group.
		if rec, ok := c.lookup(id); ok {
			return rec, nil
		}
		return c.refresh(ctx, id), nil
	})
	if shared {
		metrics.MetadataCoalescedRequests.Inc()
	}
	return v.(Record)
}

// lookup returns the cached record for id if present and unexpired.
func (c *Cache) lookup(id int) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok || !c.now().Before(e.expiresAt) {
		return Record{}, false
	}
	return e.record, true
}

// refresh performs the upstream fetch for id and stores the result.
// The fetch runs detached from the triggering caller's cancellation: other
// goroutines may be waiting on this flight, so one caller going away must
// not abort the still-useful fetch. The fetcher applies its own
// per-attempt timeouts.
func (c *Cache) refresh(ctx context.Context, id int) Record {
	rec, err := c.fetcher.Fetch(context.WithoutCancel(ctx), id)
	now := c.now()

	if err != nil {
		c.logger.Warn().Err(err).Int("movie_id", id).Msg("metadata fetch failed, serving degraded record")
		metrics.MetadataDegradedRecords.Inc()
		rec = DegradedRecord(now)
		c.store(id, rec, c.degradedTTL)
		return rec
	}

	if rec.PosterURL == "" {
		rec.PosterURL = PlaceholderPosterURL
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = now
	}
	c.store(id, rec, c.ttl)
	return rec
}

func (c *Cache) store(id int, rec Record, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = entry{record: rec, expiresAt: c.now().Add(ttl)}
	metrics.MetadataCacheEntries.Set(float64(len(c.entries)))
}

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// EvictExpired removes expired entries and returns how many were dropped.
// Called periodically by the cache janitor; Get does not depend on it for
// correctness since lookup checks expiry itself.
func (c *Cache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.MetadataCacheEvictions.Add(float64(evicted))
		metrics.MetadataCacheEntries.Set(float64(len(c.entries)))
	}
	return evicted
}
