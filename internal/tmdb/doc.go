// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package tmdb implements the remote metadata client for The Movie
// Database API.
//
// The client is the only component that performs network I/O. It owns
// retry, backoff, per-attempt timeouts, outbound rate limiting, and
// optional circuit breaking, and reports final failures as ErrFetchFailed.
// It deliberately does not synthesize placeholder data; degradation policy
// lives in the metadata cache so there is exactly one place that decides
// what a failed fetch looks like to users.
package tmdb
