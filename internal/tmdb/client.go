// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cinegraph/cinegraph/internal/config"
	"github.com/cinegraph/cinegraph/internal/metadata"
	"github.com/cinegraph/cinegraph/internal/metrics"
)

// ErrFetchFailed indicates a metadata fetch that could not be completed,
// either because retries were exhausted or the failure was permanent.
// The metadata cache absorbs this error; it never reaches API callers.
var ErrFetchFailed = errors.New("tmdb fetch failed")

// RetryPolicy controls how the client retries transient failures.
// It is a standalone value so tests can exercise the retry loop against a
// stub transport without touching client construction.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int

	// BackoffBase is the delay before the first retry; each subsequent
	// retry doubles it (0.5s, 1s, 2s, ...).
	BackoffBase time.Duration

	// AttemptTimeout bounds each individual HTTP attempt.
	AttemptTimeout time.Duration

	// RetryableStatuses is the set of HTTP status codes worth retrying.
	// Everything else in the non-2xx range fails immediately.
	RetryableStatuses map[int]struct{}
}

// DefaultRetryPolicy returns the production retry policy: 3 attempts,
// exponential backoff from 0.5s, 5s per-attempt timeout, retrying on
// transient server-side statuses only.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BackoffBase:    500 * time.Millisecond,
		AttemptTimeout: 5 * time.Second,
		RetryableStatuses: map[int]struct{}{
			http.StatusInternalServerError: {},
			http.StatusBadGateway:          {},
			http.StatusServiceUnavailable:  {},
			http.StatusGatewayTimeout:      {},
		},
	}
}

func (p RetryPolicy) retryable(status int) bool {
	_, ok := p.RetryableStatuses[status]
	return ok
}

// backoff returns the delay before retry number n (0-based).
func (p RetryPolicy) backoff(n int) time.Duration {
	return p.BackoffBase * time.Duration(1<<uint(n))
}

// Client fetches movie metadata from the TMDB API.
//
// Each fetch makes up to MaxAttempts HTTP requests with exponential
// backoff, retrying only transient failures (retryable statuses,
// connection and timeout errors). Client errors and malformed responses
// fail immediately. The client reports failures as ErrFetchFailed and
// never substitutes placeholder data; degradation belongs to the metadata
// cache.
//
// Thread safety: safe for concurrent use, each request is independent.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	httpClient   *http.Client
	policy       RetryPolicy
	limiter      *rate.Limiter
	logger       zerolog.Logger
}

// movieResponse is the subset of the TMDB movie payload we consume.
// vote_average is decoded loosely: TMDB documents a number, but the field
// mapping treats anything non-numeric as an unavailable rating.
type movieResponse struct {
	PosterPath  string `json:"poster_path"`
	Title       string `json:"title"`
	VoteAverage any    `json:"vote_average"`
	Overview    string `json:"overview"`
}

// New creates a TMDB client from configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.TMDBConfig, logger zerolog.Logger) *Client {
	policy := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BackoffBase > 0 {
		policy.BackoffBase = cfg.BackoffBase
	}
	if cfg.AttemptTimeout > 0 {
		policy.AttemptTimeout = cfg.AttemptTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimSuffix(cfg.ImageBaseURL, "/"),
		apiKey:       cfg.APIKey,
		// Per-attempt deadlines come from the retry policy's context, so
		// the shared client carries no timeout of its own.
		httpClient: &http.Client{},
		policy:     policy,
		limiter:    limiter,
		logger:     logger.With().Str("component", "tmdb").Logger(),
	}
}

// Fetch retrieves display metadata for the given movie id.
func (c *Client) Fetch(ctx context.Context, id int) (metadata.Record, error) {
	start := time.Now()
	defer func() {
		metrics.TMDBFetchDuration.Observe(time.Since(start).Seconds())
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return metadata.Record{}, fmt.Errorf("%w: rate limiter: %v", ErrFetchFailed, err)
		}
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")
	reqURL := fmt.Sprintf("%s/movie/%d?%s", c.baseURL, id, params.Encode())

	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.policy.backoff(attempt - 1)):
			case <-ctx.Done():
				return metadata.Record{}, fmt.Errorf("%w: %v", ErrFetchFailed, ctx.Err())
			}
		}

		rec, retryable, err := c.attempt(ctx, reqURL)
		if err == nil {
			metrics.TMDBFetchAttempts.WithLabelValues("success").Inc()
			return rec, nil
		}
		lastErr = err

		if !retryable {
			metrics.TMDBFetchAttempts.WithLabelValues("permanent").Inc()
			c.logger.Debug().Err(err).Int("movie_id", id).Msg("permanent fetch failure")
			return metadata.Record{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}

		metrics.TMDBFetchAttempts.WithLabelValues("retryable").Inc()
		c.logger.Debug().Err(err).Int("movie_id", id).Int("attempt", attempt+1).Msg("transient fetch failure")

		if ctx.Err() != nil {
			break
		}
	}

	return metadata.Record{}, fmt.Errorf("%w after %d attempts: %v", ErrFetchFailed, c.policy.MaxAttempts, lastErr)
}

// attempt performs one HTTP request. The second return value reports
// whether the failure is transient and worth retrying.
func (c *Client) attempt(ctx context.Context, reqURL string) (metadata.Record, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return metadata.Record{}, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection and timeout errors are transient unless the caller's
		// own context is gone.
		if ctx.Err() != nil {
			return metadata.Record{}, false, ctx.Err()
		}
		return metadata.Record{}, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var movie movieResponse
		if err := json.NewDecoder(resp.Body).Decode(&movie); err != nil {
			// Malformed body is not transient; retrying would re-fetch
			// the same garbage.
			return metadata.Record{}, false, fmt.Errorf("decode response: %w", err)
		}
		return c.mapRecord(&movie), false, nil

	case c.policy.retryable(resp.StatusCode):
		return metadata.Record{}, true, fmt.Errorf("server error: HTTP %d", resp.StatusCode)

	default:
		return metadata.Record{}, false, fmt.Errorf("client error: HTTP %d", resp.StatusCode)
	}
}

// mapRecord applies the per-field fallbacks to a decoded response.
// The poster placeholder is deliberately not applied here; a missing
// poster leaves PosterURL empty for the caller to fill.
func (c *Client) mapRecord(movie *movieResponse) metadata.Record {
	rec := metadata.Record{
		Title:     movie.Title,
		Overview:  movie.Overview,
		Rating:    metadata.RatingUnavailable,
		FetchedAt: time.Now(),
	}

	if v, ok := movie.VoteAverage.(float64); ok {
		rec.Rating = metadata.FormatRating(v)
	}
	if movie.Overview == "" {
		rec.Overview = metadata.FallbackOverview
	}
	if movie.PosterPath != "" {
		rec.PosterURL = c.imageBaseURL + "/" + strings.TrimPrefix(movie.PosterPath, "/")
	}

	return rec
}
