// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package outcomes ingests engagement events and folds them into the
// stores the matching engine reads.
//
// The engine never writes its own inputs during feed generation. Likes,
// passes, matches, and replies arrive here out of band, update the
// Thompson-sampling beliefs and cohort exposure counters, and influence
// the next feed request. Events flow over NATS JetStream in production
// and over an in-process pubsub in development and tests; both sides
// speak the same versioned JSON event schema.
package outcomes
