// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Command server runs the Cinegraph recommendation API.
//
// Startup order matters: configuration first, logging second, then the
// dataset. A dataset load failure does not abort startup — the server
// comes up in a degraded mode where data endpoints answer 503, so the
// problem is visible to operators instead of crash-looping the process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cinegraph/cinegraph/internal/api"
	"github.com/cinegraph/cinegraph/internal/config"
	"github.com/cinegraph/cinegraph/internal/dataset"
	"github.com/cinegraph/cinegraph/internal/logging"
	"github.com/cinegraph/cinegraph/internal/metadata"
	"github.com/cinegraph/cinegraph/internal/metrics"
	"github.com/cinegraph/cinegraph/internal/recommend"
	"github.com/cinegraph/cinegraph/internal/supervisor"
	"github.com/cinegraph/cinegraph/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("catalog", cfg.Dataset.CatalogPath).
		Str("matrix", cfg.Dataset.MatrixPath).
		Msg("loading dataset")

	// The store is nil in degraded mode; handlers check for it.
	store, err := dataset.Load(cfg.Dataset.CatalogPath, cfg.Dataset.MatrixPath)
	if err != nil {
		logging.Error().Err(err).Msg("dataset unavailable, serving in degraded mode")
		metrics.DatasetItems.Set(0)
		store = nil
	} else {
		metrics.DatasetItems.Set(float64(store.Count()))
		logging.Info().Int("items", store.Count()).Msg("dataset loaded")
	}

	var fetcher metadata.Fetcher = tmdb.New(&cfg.TMDB, logger)
	if cfg.TMDB.BreakerEnabled {
		fetcher = tmdb.NewBreakerFetcher(fetcher, logger)
	}

	cache := metadata.NewCache(fetcher, metadata.CacheConfig{
		TTL:         cfg.Cache.TTL,
		DegradedTTL: cfg.Cache.DegradedTTL,
	}, logger)

	var engine *recommend.Engine
	if store != nil {
		engine, err = recommend.NewEngine(store, cache, &recommend.Config{
			DefaultK:          cfg.Recommend.DefaultK,
			MaxK:              cfg.Recommend.MaxK,
			DefaultTopN:       cfg.Recommend.DefaultTopN,
			EnrichConcurrency: cfg.Recommend.EnrichConcurrency,
		}, logger)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to create recommendation engine")
		}
	}

	handler := api.NewHandler(engine, store, cache)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(
		slog.New(logging.NewSlogHandler()),
		supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout},
	)
	tree.AddDataService(supervisor.NewJanitorService(cache, cfg.Cache.CleanupInterval))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("starting cinegraph")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor stopped with error")
		}
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("supervisor stopped unexpectedly")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop in time")
		}
	}

	logging.Info().Msg("cinegraph stopped")
	os.Exit(0)
}
