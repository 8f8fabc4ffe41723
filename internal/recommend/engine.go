// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinegraph/cinegraph/internal/dataset"
	"github.com/cinegraph/cinegraph/internal/metadata"
	"github.com/cinegraph/cinegraph/internal/metrics"
)

// Enricher supplies display metadata for a movie id. Implemented by the
// metadata cache; enrichment never fails, worst case it yields a degraded
// record.
type Enricher interface {
	Get(ctx context.Context, id int) metadata.Record
}

// Entry is one display-ready result row.
type Entry struct {
	Item     dataset.Item    `json:"item"`
	Metadata metadata.Record `json:"metadata"`
}

// Result is an ordered, enriched recommendation list. For Recommend the
// query item always leads the list.
type Result struct {
	Entries []Entry `json:"entries"`
}

// Engine composes the similarity ranker with metadata enrichment to
// produce display-ready recommendation lists. It is the entire contract
// the presentation layer consumes. Safe for concurrent use.
type Engine struct {
	store    *dataset.Store
	ranker   *Ranker
	enricher Enricher
	config   *Config
	logger   zerolog.Logger

	requestCount atomic.Int64
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(store *dataset.Store, enricher Enricher, cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		store:    store,
		ranker:   NewRanker(store),
		enricher: enricher,
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// Recommend returns the k movies most similar to the given title, headed
// by the queried movie itself, every entry enriched with display metadata.
// k <= 0 selects the configured default. An unknown title yields
// dataset.ErrNotFound; metadata failures never surface, they degrade.
func (e *Engine) Recommend(ctx context.Context, title string, k int) (*Result, error) {
	e.requestCount.Add(1)

	if k <= 0 {
		k = e.config.DefaultK
	}
	if k > e.config.MaxK {
		k = e.config.MaxK
	}

	queryIdx, err := e.store.LookupByTitle(title)
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("recommend", "not_found").Inc()
		return nil, err
	}

	neighbors, err := e.ranker.TopK(queryIdx, k)
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("recommend", "error").Inc()
		return nil, err
	}

	indices := make([]int, 0, len(neighbors)+1)
	indices = append(indices, queryIdx)
	indices = append(indices, neighbors...)

	entries, err := e.enrich(ctx, indices)
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("recommend", "error").Inc()
		return nil, err
	}

	metrics.RecommendRequestsTotal.WithLabelValues("recommend", "success").Inc()
	e.logger.Debug().Str("title", title).Int("k", k).Int("results", len(entries)).Msg("recommendation served")
	return &Result{Entries: entries}, nil
}

// TopN returns the first n catalog items in load order, enriched. This
// backs the unranked "popular" listing. n <= 0 selects the configured
// default; n beyond the catalog is clamped.
func (e *Engine) TopN(ctx context.Context, n int) (*Result, error) {
	e.requestCount.Add(1)

	if n <= 0 {
		n = e.config.DefaultTopN
	}
	if count := e.store.Count(); n > count {
		n = count
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	entries, err := e.enrich(ctx, indices)
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("top_n", "error").Inc()
		return nil, err
	}

	metrics.RecommendRequestsTotal.WithLabelValues("top_n", "success").Inc()
	return &Result{Entries: entries}, nil
}

// RequestCount returns the number of requests served since startup.
func (e *Engine) RequestCount() int64 {
	return e.requestCount.Load()
}

// enrich resolves catalog indices to items and attaches metadata, with
// bounded parallelism. Order of the input indices is preserved.
func (e *Engine) enrich(ctx context.Context, indices []int) ([]Entry, error) {
	entries := make([]Entry, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.EnrichConcurrency)
	for i, idx := range indices {
		g.Go(func() error {
			item, err := e.store.ItemAt(idx)
			if err != nil {
				return err
			}
			entries[i] = Entry{
				Item:     item,
				Metadata: e.enricher.Get(gctx, item.ID),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
