// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cinegraph/cinegraph/internal/metadata"
	"github.com/cinegraph/cinegraph/internal/metrics"
)

// BreakerFetcher wraps a metadata.Fetcher with a circuit breaker so a
// down TMDB is not pounded with doomed requests. While the circuit is
// open, fetches fail fast with ErrFetchFailed; the metadata cache turns
// those into degraded records, which keeps the user experience intact.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should exercise the wrapped fetcher directly rather than mock the
// breaker's clock.
type BreakerFetcher struct {
	fetcher metadata.Fetcher
	cb      *gobreaker.CircuitBreaker[metadata.Record]
	name    string
}

// NewBreakerFetcher wraps fetcher with circuit breaker protection.
// The circuit opens after a 60% failure rate over at least 10 requests,
// stays open for 1 minute, then allows 3 trial requests in half-open state.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreakerFetcher(fetcher metadata.Fetcher, logger zerolog.Logger) *BreakerFetcher {
	cbName := "tmdb-api"
	cbLogger := logger.With().Str("component", "tmdb-breaker").Logger()

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[metadata.Record](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				cbLogger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			cbLogger.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerFetcher{
		fetcher: fetcher,
		cb:      cb,
		name:    cbName,
	}
}

// Fetch implements metadata.Fetcher.
func (b *BreakerFetcher) Fetch(ctx context.Context, id int) (metadata.Record, error) {
	rec, err := b.cb.Execute(func() (metadata.Record, error) {
		return b.fetcher.Fetch(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return metadata.Record{}, fmt.Errorf("%w: circuit open", ErrFetchFailed)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return metadata.Record{}, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return rec, nil
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
