// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
	"errors"
)

// Note: This package has no dependencies on other internal packages. The
// provider interfaces let the storage and serving layers integrate without
// circular imports.

// ErrUnavailable marks an upstream lookup that failed or timed out. The
// gate maps it to fail-closed exclusion; the preference model maps it to a
// neutral prior.
var ErrUnavailable = errors.New("upstream data unavailable")

// ErrNoHistory indicates a user has no recorded interaction history.
// Callers substitute neutral priors rather than propagating it.
var ErrNoHistory = errors.New("no interaction history")

// CandidateSource supplies the raw, coarse-filtered candidate pool. The
// storage layer pre-filters by gender/age/location so the pool stays
// tractable before fine gating.
type CandidateSource interface {
	CandidatePool(ctx context.Context, requesterID UserID, prefs UserPreferences, limit int) ([]UserID, error)
}

// BlockStore answers bidirectional safety exclusions.
type BlockStore interface {
	// IsBlocked reports whether either user has blocked or reported the other.
	IsBlocked(ctx context.Context, a, b UserID) (bool, error)
}

// ProfileStore supplies user profiles.
type ProfileStore interface {
	Profile(ctx context.Context, id UserID) (*Profile, error)

	// Profiles batch-fetches in one round trip; absent users are simply
	// missing from the result, not an error.
	Profiles(ctx context.Context, ids []UserID) (map[UserID]*Profile, error)
}

// EmbeddingStore supplies precomputed profile embedding vectors of fixed
// dimensionality. Unknown users yield a zero vector rather than an error;
// callers treat zero-norm vectors as missing.
type EmbeddingStore interface {
	Embedding(ctx context.Context, id UserID) ([]float64, error)
}

// HistoryStore supplies aggregate interaction history.
type HistoryStore interface {
	// ResponseRate returns the fraction of received first messages the user
	// replies to, in [0,1]. Returns ErrNoHistory for cold-start users.
	ResponseRate(ctx context.Context, id UserID) (float64, error)

	// LikeOverlap returns the collaborative-filtering co-occurrence signal
	// for the ordered pair (from, to) in [0,1]: how often users with like
	// history similar to from's have liked to. Returns ErrNoHistory when
	// either side lacks history.
	LikeOverlap(ctx context.Context, from, to UserID) (float64, error)

	// RecentlySeen returns up to limit candidate IDs the user most recently
	// interacted with, newest first.
	RecentlySeen(ctx context.Context, id UserID, limit int) ([]UserID, error)
}

// ExposureTracker supplies per-cohort exposure shares. Counters are updated
// by the caller after impressions are actually shown, never by this engine.
type ExposureTracker interface {
	// ExposureRates returns each cohort value's share of recent impressions
	// for the given cohort field. Shares sum to 1 when any impressions
	// exist; an empty map means no exposure has been recorded yet.
	ExposureRates(ctx context.Context, cohortField string) (map[string]float64, error)
}

// BeliefStore supplies per-candidate match-probability posteriors. Beliefs
// are updated out-of-band from observed outcomes, never by this engine.
type BeliefStore interface {
	// Beliefs batch-fetches posteriors. Candidates with no recorded
	// outcomes are absent from the result; callers substitute the
	// maximal-uncertainty prior.
	Beliefs(ctx context.Context, ids []UserID) (map[UserID]Belief, error)
}

// Providers bundles the external collaborators injected into the engine.
type Providers struct {
	Candidates CandidateSource
	Blocks     BlockStore
	Profiles   ProfileStore
	Embeddings EmbeddingStore
	History    HistoryStore
	Exposure   ExposureTracker
	Beliefs    BeliefStore
}

// Validate ensures every collaborator is present.
func (p Providers) Validate() error {
	switch {
	case p.Candidates == nil:
		return errors.New("providers: candidate source is required")
	case p.Blocks == nil:
		return errors.New("providers: block store is required")
	case p.Profiles == nil:
		return errors.New("providers: profile store is required")
	case p.Embeddings == nil:
		return errors.New("providers: embedding store is required")
	case p.History == nil:
		return errors.New("providers: history store is required")
	case p.Exposure == nil:
		return errors.New("providers: exposure tracker is required")
	case p.Beliefs == nil:
		return errors.New("providers: belief store is required")
	}
	return nil
}
