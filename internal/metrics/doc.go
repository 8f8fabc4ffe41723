// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package metrics defines the Prometheus collectors shared across
// Cinegraph components. Collectors are registered with promauto at package
// init and exposed via the /metrics endpoint.
package metrics
