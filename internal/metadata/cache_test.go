// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeClock is a mutex-guarded manual clock for driving TTL expiry.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingFetcher counts calls and returns a fixed record or error.
type countingFetcher struct {
	calls atomic.Int32
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, id int) (Record, error) {
	f.calls.Add(1)
	if f.err != nil {
		return Record{}, f.err
	}
	return Record{
		Title:     fmt.Sprintf("movie-%d", id),
		PosterURL: "https://image.example/poster.jpg",
		Rating:    "7.5",
		Overview:  "an overview",
	}, nil
}

// blockingFetcher parks every Fetch until release is closed.
type blockingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
}

func (f *blockingFetcher) Fetch(_ context.Context, id int) (Record, error) {
	f.calls.Add(1)
	<-f.release
	return Record{Title: fmt.Sprintf("movie-%d", id), Rating: "8.0", Overview: "blocked"}, nil
}

func newTestCache(fetcher Fetcher, clock *fakeClock, ttl, degradedTTL time.Duration) *Cache {
	return NewCache(fetcher, CacheConfig{
		TTL:         ttl,
		DegradedTTL: degradedTTL,
		Now:         clock.Now,
	}, zerolog.Nop())
}

func TestGetCachesWithinTTL(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	cache := newTestCache(fetcher, clock, time.Hour, time.Minute)
	ctx := context.Background()

	first := cache.Get(ctx, 42)
	if first.Title != "movie-42" {
		t.Errorf("Title = %q, want movie-42", first.Title)
	}

	clock.Advance(30 * time.Minute)
	cache.Get(ctx, 42)

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 (second Get within TTL must hit cache)", got)
	}
}

func TestGetRefetchesAfterTTL(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	cache := newTestCache(fetcher, clock, time.Hour, time.Minute)
	ctx := context.Background()

	cache.Get(ctx, 42)
	clock.Advance(time.Hour + time.Second)
	cache.Get(ctx, 42)

	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 (expired entry must refetch)", got)
	}
}

func TestGetDistinctKeysFetchIndependently(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	cache := newTestCache(fetcher, clock, time.Hour, time.Minute)
	ctx := context.Background()

	cache.Get(ctx, 1)
	cache.Get(ctx, 2)

	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestGetCoalescesConcurrentMisses(t *testing.T) {
	clock := newFakeClock()
	fetcher := &blockingFetcher{release: make(chan struct{})}
	cache := newTestCache(fetcher, clock, time.Hour, time.Minute)
	ctx := context.Background()

	const callers = 5
	var wg sync.WaitGroup
	results := make([]Record, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = cache.Get(ctx, 42)
		}()
	}

	// Let all callers reach the cache before releasing the one in-flight
	// fetch. The fetcher's call counter proves only one got through.
	for fetcher.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 (concurrent misses must coalesce)", got)
	}
	for i, rec := range results {
		if rec.Title != "movie-42" {
			t.Errorf("caller %d got Title %q, want movie-42", i, rec.Title)
		}
	}
}

func TestGetDegradesOnFetchFailure(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{err: errors.New("upstream down")}
	cache := newTestCache(fetcher, clock, time.Hour, time.Minute)
	ctx := context.Background()

	rec := cache.Get(ctx, 42)
	if !rec.Degraded {
		t.Error("Degraded = false, want true")
	}
	if rec.Rating != RatingUnavailable {
		t.Errorf("Rating = %q, want %q", rec.Rating, RatingUnavailable)
	}
	if rec.Overview != FallbackOverview {
		t.Errorf("Overview = %q, want %q", rec.Overview, FallbackOverview)
	}
	if rec.PosterURL != DegradedPosterURL {
		t.Errorf("PosterURL = %q, want %q", rec.PosterURL, DegradedPosterURL)
	}
}

func TestDegradedRecordRetriesAfterShortTTL(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{err: errors.New("upstream down")}
	cache := newTestCache(fetcher, clock, time.Hour, time.Minute)
	ctx := context.Background()

	cache.Get(ctx, 42)

	// Within the degraded TTL the failure is not retried.
	clock.Advance(30 * time.Second)
	cache.Get(ctx, 42)
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1 within degraded TTL", got)
	}

	// Past the degraded TTL the upstream is retried; with it recovered the
	// cache serves a fresh record again.
	fetcher.err = nil
	clock.Advance(31 * time.Second)
	rec := cache.Get(ctx, 42)
	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 after degraded TTL", got)
	}
	if rec.Degraded {
		t.Error("Degraded = true after recovery, want false")
	}
	if rec.Title != "movie-42" {
		t.Errorf("Title = %q, want movie-42", rec.Title)
	}
}

func TestGetFillsMissingPoster(t *testing.T) {
	clock := newFakeClock()
	fetcher := fetcherFunc(func(_ context.Context, _ int) (Record, error) {
		return Record{Title: "no poster", Rating: "6.0", Overview: "x"}, nil
	})
	cache := newTestCache(fetcher, clock, time.Hour, time.Minute)

	rec := cache.Get(context.Background(), 7)
	if rec.PosterURL != PlaceholderPosterURL {
		t.Errorf("PosterURL = %q, want %q", rec.PosterURL, PlaceholderPosterURL)
	}
}

type fetcherFunc func(ctx context.Context, id int) (Record, error)

func (f fetcherFunc) Fetch(ctx context.Context, id int) (Record, error) { return f(ctx, id) }

func TestEvictExpired(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	cache := newTestCache(fetcher, clock, time.Hour, time.Minute)
	ctx := context.Background()

	cache.Get(ctx, 1)
	cache.Get(ctx, 2)
	clock.Advance(30 * time.Minute)
	cache.Get(ctx, 3)

	if got := cache.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	// Entries 1 and 2 expire, 3 is still fresh.
	clock.Advance(31 * time.Minute)
	if got := cache.EvictExpired(); got != 2 {
		t.Errorf("EvictExpired() = %d, want 2", got)
	}
	if got := cache.Len(); got != 1 {
		t.Errorf("Len() = %d after eviction, want 1", got)
	}
}
