// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cinegraph/cinegraph/internal/dataset"
	"github.com/cinegraph/cinegraph/internal/metadata"
	"github.com/cinegraph/cinegraph/internal/models"
	"github.com/cinegraph/cinegraph/internal/recommend"
)

// handlerTimeout bounds a single API request end to end. Generous enough
// for a cold cache paying retries on several metadata fetches.
const handlerTimeout = 30 * time.Second

// Handler serves the recommendation API.
//
// When the dataset failed to load at startup, engine and store are nil and
// every data endpoint answers 503 with a DATASET_UNAVAILABLE envelope; the
// process stays up so the failure is observable and the deployment can be
// fixed without crash loops.
type Handler struct {
	engine *recommend.Engine
	store  *dataset.Store
	cache  *metadata.Cache
}

// NewHandler creates the API handler. engine and store may be nil when the
// dataset is unavailable; cache must not be nil.
func NewHandler(engine *recommend.Engine, store *dataset.Store, cache *metadata.Cache) *Handler {
	return &Handler{
		engine: engine,
		store:  store,
		cache:  cache,
	}
}

// datasetReady answers the degraded 503 when the dataset never loaded.
func (h *Handler) datasetReady(w http.ResponseWriter, r *http.Request) bool {
	if h.engine == nil || h.store == nil {
		respondError(w, r, http.StatusServiceUnavailable, "DATASET_UNAVAILABLE",
			"Movie data is unavailable. Please try again later.", nil)
		return false
	}
	return true
}

// Recommendations handles GET /api/v1/recommendations?title=...&k=...
// It returns the query movie followed by its k most similar movies, each
// enriched with display metadata.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if !h.datasetReady(w, r) {
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		respondError(w, r, http.StatusBadRequest, "MISSING_TITLE",
			"Query parameter 'title' is required", nil)
		return
	}
	k := queryInt(r, "k", 0) // 0 selects the engine default

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Recommend(ctx, title, k)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "TITLE_NOT_FOUND",
				"Movie not found. Please try a different movie.", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "RECOMMENDATION_ERROR",
			"Failed to generate recommendations", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: float64(time.Since(start).Microseconds()) / 1000,
			RequestID:   requestIDFrom(r),
		},
	})
}

// TopMovies handles GET /api/v1/movies/top?n=...
// It returns the first n catalog movies in load order, enriched. This is
// the unranked "popular" listing.
func (h *Handler) TopMovies(w http.ResponseWriter, r *http.Request) {
	if !h.datasetReady(w, r) {
		return
	}

	n := queryInt(r, "n", 0) // 0 selects the engine default

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.engine.TopN(ctx, n)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "LISTING_ERROR",
			"Failed to build movie listing", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: float64(time.Since(start).Microseconds()) / 1000,
			RequestID:   requestIDFrom(r),
		},
	})
}

// Titles handles GET /api/v1/movies/titles
// It returns every catalog title in load order, backing selection widgets.
func (h *Handler) Titles(w http.ResponseWriter, r *http.Request) {
	if !h.datasetReady(w, r) {
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.store.Titles(),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: requestIDFrom(r),
		},
	})
}

// MovieDetail handles GET /api/v1/movies/{id}
// It returns the enriched metadata record for one movie id. The id does
// not have to be in the local catalog; metadata is keyed by the upstream
// identifier.
func (h *Handler) MovieDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 0 {
		respondError(w, r, http.StatusBadRequest, "INVALID_MOVIE_ID",
			"Movie id must be a non-negative integer", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.cache.Get(ctx, id),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: requestIDFrom(r),
		},
	})
}

// HealthLive handles GET /api/v1/health/live — process liveness only.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"state": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready — readiness requires a
// loaded dataset.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil || h.store == nil {
		respondError(w, r, http.StatusServiceUnavailable, "DATASET_UNAVAILABLE",
			"Dataset not loaded", nil)
		return
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]any{
			"state": "ready",
			"items": h.store.Count(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
