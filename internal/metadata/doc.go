// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package metadata defines display metadata records and the memoizing
// cache that sits between the recommendation engine and the upstream
// metadata service.
//
// The cache owns all failure absorption: fetch errors never cross its
// boundary. Callers always receive a renderable Record, degraded to
// fallback values when the upstream is unavailable. Fresh records live for
// the configured TTL; degraded records carry a shorter retry TTL so the
// upstream is probed again soon after recovery without being hammered
// while it is down.
package metadata
