// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package store provides the data-provider implementations behind the
// matching engine.
//
// Two families of implementations exist:
//
//   - Memory: a mutex-protected in-memory store implementing every provider
//     interface. Used in development mode and as the test harness backing.
//
//   - Badger-backed stores for the state the engine itself accumulates:
//     Thompson-sampling beliefs, cohort exposure counters, and the feed
//     cache. These persist across restarts in a single embedded BadgerDB.
//
// Profile, embedding, and interaction-history data normally live in an
// upstream service. The Breaker decorators in this package wrap those
// upstream stores with sony/gobreaker circuit protection and per-call
// timeouts so a slow upstream degrades feeds instead of hanging them.
package store
