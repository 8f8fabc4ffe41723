// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package api provides the HTTP surface of Cinegraph using the chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinegraph/cinegraph/internal/config"
)

// Router assembles the chi route tree for the API.
type Router struct {
	handler *Handler
	cfg     *config.APIConfig
}

// NewRouter creates a router around the given handler.
func NewRouter(handler *Handler, cfg *config.APIConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes and middleware.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(RequestLogger())

	// Health endpoints stay outside rate limiting so monitoring is never
	// throttled away.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Data endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		if router.cfg.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(router.cfg.RateLimitRequests, router.cfg.RateLimitWindow))
		}
		r.Use(PrometheusMetrics())

		r.Get("/recommendations", router.handler.Recommendations)
		r.Get("/movies/top", router.handler.TopMovies)
		r.Get("/movies/titles", router.handler.Titles)
		r.Get("/movies/{id}", router.handler.MovieDetail)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
