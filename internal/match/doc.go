// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package match implements the reciprocal matching engine that ranks candidate
// partners for a requesting user.
//
// # Architecture
//
// One feed request flows through a fixed pipeline:
//
//   - ConstraintGate: hard pass/fail eligibility (blocks, age, distance,
//     orientation, dealbreakers)
//   - PreferenceModel: directional like/reply probability estimation from
//     embedding similarity, profile similarity, and collaborative signals
//   - ReciprocalScorer: combines both directions of predicted interest into
//     one score with trust/diversity/fairness multipliers
//   - FairnessCalibrator: cohort exposure-parity score adjustment
//   - StableSlotSelector: picks the single featured candidate by mutual
//     preference
//   - BanditExplorer: Thompson-sampled exploration subset
//
// The defining property of the reciprocal score is its product form: a
// candidate scores near zero when either direction of predicted interest is
// near zero, which distinguishes this engine from one-sided recommenders.
//
// # Design Principles
//
//   - Deterministic: scoring is pure; all randomness (bandit sampling) flows
//     through an injected seeded source
//   - Fail closed: a candidate the engine cannot verify as eligible is never
//     shown
//   - Degrade gracefully: missing model inputs fall back to neutral priors so
//     cold-start users remain scorable
//   - Stateless: the engine owns no persistent state; beliefs and exposure
//     counters live behind provider interfaces and are updated out-of-band
//
// # Usage
//
//	cfg := match.DefaultConfig()
//	engine, err := match.NewEngine(cfg, match.Providers{...}, logger)
//
//	feed, err := engine.GenerateFeed(ctx, match.FeedRequest{
//	    RequesterID: "u-123",
//	    Preferences: prefs,
//	    FeedSize:    30,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Feed generation holds no engine
// state beyond atomic counters; concurrent requests for the same or
// different requesters are independent.
//
// # Stable Matching Scope
//
// The featured-slot selection is an intentional one-sided approximation
// scoped to a single user's feed request. A true two-sided market-clearing
// pass (Gale-Shapley over all users simultaneously) would require a
// persistent global market and is out of scope here.
package match
