// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"sort"
)

// StableSlotSelector picks the single featured candidate from the top-K
// scored candidates using a mutual-preference stability heuristic.
//
// This is an intentional one-sided approximation of stable matching scoped
// to one user's feed request. True Gale-Shapley needs a persistent global
// market pass across all users simultaneously; per-request selection only
// maximizes mutual predicted interest within the requester's own top-K.
type StableSlotSelector struct {
	topK int
}

// NewStableSlotSelector creates a selector considering the top k calibrated
// scores.
func NewStableSlotSelector(cfg *Config) *StableSlotSelector {
	return &StableSlotSelector{topK: cfg.Selector.TopK}
}

// FindMostCompatible returns the candidate maximizing mutual preference
// (pLikeGiven * pLikeReceived) among the top-K by calibrated reciprocal
// score. Reply likelihood and multipliers are deliberately excluded: the
// featured slot answers "who would most want each other", independent of
// conversation-quality signals.
//
// Ties break by candidate identifier so selection is deterministic. Returns
// nil only for an empty candidate list. The input must already be sorted
// descending by ReciprocalScore.
func (s *StableSlotSelector) FindMostCompatible(candidates []CandidateScore) *CandidateScore {
	if len(candidates) == 0 {
		return nil
	}

	k := s.topK
	if k > len(candidates) {
		k = len(candidates)
	}
	top := candidates[:k]

	best := top[0]
	for _, c := range top[1:] {
		mp, bestMP := c.MutualPreference(), best.MutualPreference()
		if mp > bestMP || (mp == bestMP && c.CandidateID < best.CandidateID) {
			best = c
		}
	}
	return &best
}

// sortByScore orders candidates descending by calibrated reciprocal score,
// breaking ties by identifier for stable output.
func sortByScore(candidates []CandidateScore) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ReciprocalScore != candidates[j].ReciprocalScore {
			return candidates[i].ReciprocalScore > candidates[j].ReciprocalScore
		}
		return candidates[i].CandidateID < candidates[j].CandidateID
	})
}
