// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package recommend turns the precomputed similarity matrix into
// display-ready recommendation lists.
//
// The Ranker solves the partial top-k selection over one matrix row with
// deterministic tie-breaking; the Engine orchestrates title resolution,
// ranking, and metadata enrichment. Neither component performs I/O of its
// own: enrichment goes through the injected Enricher (the metadata cache)
// and everything else is pure in-memory computation.
package recommend
