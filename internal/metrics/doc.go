// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package metrics exposes Prometheus instrumentation for the matching
// engine and its surrounding services.
//
// Metrics are registered with the default registry via promauto at package
// init, so importing the package is enough to make them visible on the
// /metrics endpoint. Recording helpers keep label construction in one
// place; callers pass plain values.
//
// Covered areas:
//   - Feed generation: request counts, latency, pool and feed sizes
//   - Gating: rejection counts by reason
//   - Scoring: per-candidate failures
//   - Exploration and fairness: picks and boosted cohorts
//   - Feed cache: hits and misses
//   - HTTP API: request counts, latency, in-flight, rate-limit rejections
//   - Outcome pipeline: published, consumed and dropped events
//   - Circuit breakers: state and transitions
package metrics
