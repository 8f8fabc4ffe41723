// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for Cinegraph observability:
// - API endpoint latency and throughput
// - Metadata cache efficiency and degradation
// - Upstream (TMDB) fetch attempts, retries, and circuit breaker state
// - Recommendation engine request counts

var (
	// API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "method", "status"},
	)

	// Metadata Cache Metrics
	MetadataCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metadata_cache_hits_total",
			Help: "Total number of metadata cache hits",
		},
	)

	MetadataCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metadata_cache_misses_total",
			Help: "Total number of metadata cache misses",
		},
	)

	MetadataCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metadata_cache_entries",
			Help: "Current number of cached metadata records",
		},
	)

	MetadataCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metadata_cache_evictions_total",
			Help: "Total number of expired metadata records evicted",
		},
	)

	MetadataCoalescedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metadata_coalesced_requests_total",
			Help: "Total number of metadata fetches shared between concurrent callers",
		},
	)

	MetadataDegradedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metadata_degraded_records_total",
			Help: "Total number of degraded records served after upstream fetch failures",
		},
	)

	// Upstream Fetch Metrics
	TMDBFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tmdb_fetch_duration_seconds",
			Help:    "Duration of TMDB metadata fetches in seconds, all attempts included",
			Buckets: prometheus.DefBuckets,
		},
	)

	TMDBFetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_fetch_attempts_total",
			Help: "Total number of TMDB fetch attempts by outcome",
		},
		[]string{"outcome"}, // "success", "retryable", "permanent"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Recommendation Engine Metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by operation and outcome",
		},
		[]string{"operation", "outcome"}, // operation: "recommend", "top_n"
	)

	DatasetItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_items",
			Help: "Number of items in the loaded catalog (0 when the dataset is unavailable)",
		},
	)
)
