// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package metadata

import (
	"context"
	"math"
	"strconv"
	"time"
)

// Display fallbacks used when the upstream response is missing fields or
// the fetch failed entirely. The URLs match what the presentation layer
// renders for absent artwork.
const (
	// RatingUnavailable is the rating value served when the upstream
	// response has no numeric vote average.
	RatingUnavailable = "unavailable"

	// FallbackOverview is served when the upstream overview is missing.
	FallbackOverview = "Information temporarily unavailable."

	// PlaceholderPosterURL is served when the upstream response has no poster.
	PlaceholderPosterURL = "https://via.placeholder.com/500x750?text=No+Image"

	// DegradedPosterURL is served when the fetch itself failed.
	DegradedPosterURL = "https://via.placeholder.com/500x750?text=Error+Loading+Poster"
)

// Record holds display metadata for one movie. A record is either built
// from a successful upstream response or synthesized from fallbacks after
// a fetch failure (Degraded set).
type Record struct {
	Title     string    `json:"title"`
	PosterURL string    `json:"poster_url"`
	Rating    string    `json:"rating"`
	Overview  string    `json:"overview"`
	FetchedAt time.Time `json:"fetched_at"`
	Degraded  bool      `json:"degraded,omitempty"`
}

// Fetcher fetches display metadata for a movie id from the upstream
// metadata service. Implementations must be safe for concurrent use.
// A Fetcher reports failures; it never synthesizes placeholder records.
type Fetcher interface {
	Fetch(ctx context.Context, id int) (Record, error)
}

// FormatRating renders a numeric vote average rounded to one decimal place.
func FormatRating(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}

// DegradedRecord builds a renderable fallback record for a movie whose
// fetch failed. Degradation policy lives here, in one place, so fetchers
// stay free of display concerns.
func DegradedRecord(fetchedAt time.Time) Record {
	return Record{
		PosterURL: DegradedPosterURL,
		Rating:    RatingUnavailable,
		Overview:  FallbackOverview,
		FetchedAt: fetchedAt,
		Degraded:  true,
	}
}
