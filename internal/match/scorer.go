// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
	"strings"
)

// ReciprocalScorer combines the preference model's probability estimates
// into one scalar and applies trust and diversity multipliers. Scoring is
// pure and deterministic given fixed inputs: no hidden randomness, so
// results are reproducible for testing and auditing.
type ReciprocalScorer struct {
	model      *PreferenceModel
	embeddings EmbeddingStore
	history    HistoryStore

	trust     TrustConfig
	diversity DiversityConfig
	explain   ExplainConfig
}

// NewReciprocalScorer creates a scorer over the given preference model.
func NewReciprocalScorer(cfg *Config, model *PreferenceModel, embeddings EmbeddingStore, history HistoryStore) *ReciprocalScorer {
	return &ReciprocalScorer{
		model:      model,
		embeddings: embeddings,
		history:    history,
		trust:      cfg.Trust,
		diversity:  cfg.Diversity,
		explain:    cfg.Explain,
	}
}

// CalculateScore produces the CandidateScore for one requester/candidate
// pair. The base score is the product pLikeGiven * pLikeReceived * pReply:
// a candidate scores near zero if either direction of interest is near
// zero, which is the defining reciprocal property. The fairness multiplier
// is initialized to 1.0 here and adjusted later by the calibrator.
func (s *ReciprocalScorer) CalculateScore(ctx context.Context, requester, candidate *Profile, mctx MatchingContext) CandidateScore {
	pGiven := s.model.PredictLikeProbability(ctx, requester, candidate)
	pReceived := s.model.PredictLikeProbability(ctx, candidate, requester)
	pReply := s.model.PredictReplyProbability(ctx, requester, candidate)

	trust := s.trustMultiplier(candidate)
	diversity := s.diversityMultiplier(ctx, requester, candidate, mctx)

	score := CandidateScore{
		CandidateID:   candidate.ID,
		PLikeGiven:    pGiven,
		PLikeReceived: pReceived,
		PReply:        pReply,
		Trust:         trust,
		Diversity:     diversity,
		Fairness:      1.0,
	}
	score.ReciprocalScore = pGiven * pReceived * pReply * trust * diversity * score.Fairness

	score.Factors = s.collectFactors(&score, candidate)
	score.Explanation = buildExplanation(score.Factors)

	return score
}

// trustMultiplier boosts verified profiles and scales by safety and
// profile-completeness, capped so trust alone can never dominate ranking.
func (s *ReciprocalScorer) trustMultiplier(candidate *Profile) float64 {
	trust := 1.0
	if candidate.Verified {
		trust *= s.trust.VerifiedBoost
	}

	// Safety contributes in [0.8, 1.0], completeness in [0.9, 1.0].
	trust *= 0.8 + 0.2*clamp01(candidate.SafetyScore)
	trust *= 0.9 + 0.1*clamp01(candidate.Completeness)

	if trust > s.trust.Cap {
		trust = s.trust.Cap
	}
	return trust
}

// diversityMultiplier compares the candidate against the requester's
// recently seen candidates by average embedding similarity. Repetition is
// discouraged, variety encouraged; everything in between is neutral. Long
// sessions widen the variety band via the session swipe threshold. Missing
// history or embeddings leave the multiplier at 1.0.
func (s *ReciprocalScorer) diversityMultiplier(ctx context.Context, requester, candidate *Profile, mctx MatchingContext) float64 {
	if s.diversity.RecentWindow <= 0 {
		return 1.0
	}

	recent, err := s.history.RecentlySeen(ctx, requester.ID, s.diversity.RecentWindow)
	if err != nil || len(recent) == 0 {
		return 1.0
	}

	candVec, err := s.embeddings.Embedding(ctx, candidate.ID)
	if err != nil {
		return 1.0
	}

	var total float64
	count := 0
	for _, seenID := range recent {
		seenVec, err := s.embeddings.Embedding(ctx, seenID)
		if err != nil {
			continue
		}
		cos, ok := cosineSimilarity(candVec, seenVec)
		if !ok {
			continue
		}
		total += (cos + 1) / 2
		count++
	}
	if count == 0 {
		return 1.0
	}
	avg := total / float64(count)

	low := s.diversity.LowSimilarity
	if s.diversity.SessionSwipeThreshold > 0 && mctx.SessionSwipes >= s.diversity.SessionSwipeThreshold {
		low = s.diversity.SessionLowSimilarity
	}

	switch {
	case avg > s.diversity.HighSimilarity:
		return s.diversity.RepetitionPenalty
	case avg < low:
		return s.diversity.VarietyBoost
	default:
		return 1.0
	}
}

// collectFactors gathers human-readable contributing factors for signals
// above their notable thresholds, in a fixed order for determinism.
func (s *ReciprocalScorer) collectFactors(score *CandidateScore, candidate *Profile) []string {
	var factors []string

	if score.PLikeGiven > s.explain.LikeGiven {
		factors = append(factors, "matches your preferences")
	}
	if score.PLikeReceived > s.explain.LikeReceived {
		factors = append(factors, "likely to be interested in you")
	}
	if score.PReply > s.explain.Reply {
		factors = append(factors, "strong conversation potential")
	}
	if candidate.Verified {
		factors = append(factors, "verified profile")
	}
	if score.Diversity > 1.0 {
		factors = append(factors, "someone new for you")
	}

	return factors
}

// buildExplanation joins factors into one sentence.
func buildExplanation(factors []string) string {
	if len(factors) == 0 {
		return ""
	}
	return strings.Join(factors, ", ") + "."
}
