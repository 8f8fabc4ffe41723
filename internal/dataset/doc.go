// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package dataset loads and serves the immutable movie catalog and the
// precomputed pairwise similarity matrix.
//
// The catalog and matrix are produced offline; this package never computes
// similarities. Both artifacts are loaded once at process start with
// all-or-nothing semantics: a malformed or missing file yields
// ErrDatasetUnavailable and no partially initialized store.
//
// After a successful load the Store is strictly read-only and safe for
// concurrent use from any number of goroutines without locking.
package dataset
