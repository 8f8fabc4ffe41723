// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinegraph/cinegraph/internal/config"
	"github.com/cinegraph/cinegraph/internal/metadata"
)

// newTestClient points a client at the given test server with a fast retry
// policy so the backoff waits do not slow the suite down.
func newTestClient(serverURL string) *Client {
	return New(&config.TMDBConfig{
		BaseURL:        serverURL,
		ImageBaseURL:   "https://image.tmdb.org/t/p/w500",
		APIKey:         "test-key",
		MaxAttempts:    3,
		BackoffBase:    time.Millisecond,
		AttemptTimeout: 2 * time.Second,
	}, zerolog.Nop())
}

func TestFetchSuccess(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Inception",
			"poster_path": "/abc123.jpg",
			"vote_average": 8.347,
			"overview": "A thief who steals corporate secrets."
		}`))
	}))
	defer server.Close()

	rec, err := newTestClient(server.URL).Fetch(context.Background(), 27205)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotPath != "/movie/27205" {
		t.Errorf("request path = %q, want /movie/27205", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api_key = %q, want test-key", gotKey)
	}
	if rec.Title != "Inception" {
		t.Errorf("Title = %q, want Inception", rec.Title)
	}
	if rec.Rating != "8.3" {
		t.Errorf("Rating = %q, want 8.3", rec.Rating)
	}
	if want := "https://image.tmdb.org/t/p/w500/abc123.jpg"; rec.PosterURL != want {
		t.Errorf("PosterURL = %q, want %q", rec.PosterURL, want)
	}
	if rec.Overview != "A thief who steals corporate secrets." {
		t.Errorf("Overview = %q", rec.Overview)
	}
	if rec.FetchedAt.IsZero() {
		t.Error("FetchedAt is zero")
	}
}

func TestFetchFieldFallbacks(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantRating   string
		wantOverview string
		wantPoster   string
	}{
		{
			name:         "missing optional fields",
			body:         `{"title": "Bare"}`,
			wantRating:   metadata.RatingUnavailable,
			wantOverview: metadata.FallbackOverview,
			wantPoster:   "",
		},
		{
			name:         "non numeric vote average",
			body:         `{"title": "Odd", "vote_average": "n/a", "overview": "fine"}`,
			wantRating:   metadata.RatingUnavailable,
			wantOverview: "fine",
			wantPoster:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			rec, err := newTestClient(server.URL).Fetch(context.Background(), 1)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if rec.Rating != tt.wantRating {
				t.Errorf("Rating = %q, want %q", rec.Rating, tt.wantRating)
			}
			if rec.Overview != tt.wantOverview {
				t.Errorf("Overview = %q, want %q", rec.Overview, tt.wantOverview)
			}
			if rec.PosterURL != tt.wantPoster {
				t.Errorf("PosterURL = %q, want %q", rec.PosterURL, tt.wantPoster)
			}
		})
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"title": "Recovered", "vote_average": 7.0, "overview": "ok"}`))
	}))
	defer server.Close()

	rec, err := newTestClient(server.URL).Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if rec.Title != "Recovered" {
		t.Errorf("Title = %q, want Recovered", rec.Title)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fetch(context.Background(), 1)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want exactly 3", got)
	}
}

func TestFetchClientErrorDoesNotRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fetch(context.Background(), 999999)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (client errors are permanent)", got)
	}
}

func TestFetchMalformedBodyDoesNotRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.Write([]byte(`{"title": truncated`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fetch(context.Background(), 1)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (malformed body is permanent)", got)
	}
}

func TestFetchConnectionErrorRetries(t *testing.T) {
	// A server that is already closed refuses connections; every attempt is
	// a transport error and should be retried to exhaustion.
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newTestClient(serverURL).Fetch(context.Background(), 1)
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Fetch() error = %v, want ErrFetchFailed", err)
	}
}

func TestFetchCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).Fetch(ctx, 1)
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Fetch() with cancelled context error = %v, want ErrFetchFailed", err)
	}
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{BackoffBase: 500 * time.Millisecond}
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	for n, d := range want {
		if got := p.backoff(n); got != d {
			t.Errorf("backoff(%d) = %s, want %s", n, got, d)
		}
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
	if p.AttemptTimeout != 5*time.Second {
		t.Errorf("AttemptTimeout = %s, want 5s", p.AttemptTimeout)
	}
	for _, status := range []int{500, 502, 503, 504} {
		if !p.retryable(status) {
			t.Errorf("retryable(%d) = false, want true", status)
		}
	}
	for _, status := range []int{400, 404, 429} {
		if p.retryable(status) {
			t.Errorf("retryable(%d) = true, want false", status)
		}
	}
}
