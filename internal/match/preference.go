// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
	"math"
)

// neutralPrior substitutes for any signal whose inputs are missing, so
// cold-start users remain scorable instead of erroring out.
const neutralPrior = 0.5

// PreferenceModel estimates directional would-like and would-reply
// probabilities between ordered pairs of users. The underlying estimators
// (embedding store, profile store, interaction history) are external
// lookups; this component owns only the combination formula and clamping.
type PreferenceModel struct {
	embeddings EmbeddingStore
	history    HistoryStore

	signals SignalWeights
	reply   ReplyWeights
}

// NewPreferenceModel creates a preference model. Weights are normalized at
// construction.
func NewPreferenceModel(cfg *Config, embeddings EmbeddingStore, history HistoryStore) *PreferenceModel {
	return &PreferenceModel{
		embeddings: embeddings,
		history:    history,
		signals:    cfg.Signals.Normalize(),
		reply:      cfg.Reply.Normalize(),
	}
}

// PredictLikeProbability estimates P(from likes to) in [0,1] as a weighted
// blend of embedding similarity, profile-content similarity, and a
// collaborative like-overlap signal. Each missing input degrades to the
// neutral prior independently.
func (m *PreferenceModel) PredictLikeProbability(ctx context.Context, from, to *Profile) float64 {
	emb := m.embeddingSimilarity(ctx, from.ID, to.ID)
	content := contentSimilarity(from, to)
	collab := m.collaborativeSignal(ctx, from.ID, to.ID)

	p := m.signals.Embedding*emb + m.signals.Content*content + m.signals.Collaborative*collab
	return clamp01(p)
}

// PredictReplyProbability estimates the probability that a conversation
// between a and b gets a reply. Mutuality is the minimum of the two
// historical response rates; the rest is a conversational-compatibility
// estimate from profile content.
func (m *PreferenceModel) PredictReplyProbability(ctx context.Context, a, b *Profile) float64 {
	ra := m.responseRate(ctx, a.ID)
	rb := m.responseRate(ctx, b.ID)
	mutuality := math.Min(ra, rb)

	conv := conversationalCompatibility(a, b)

	p := m.reply.Mutuality*mutuality + m.reply.Conversational*conv
	return clamp01(p)
}

// embeddingSimilarity maps cosine similarity from [-1,1] to [0,1]. A fetch
// error or zero-norm vector (the store's convention for unknown users)
// yields the neutral prior.
func (m *PreferenceModel) embeddingSimilarity(ctx context.Context, from, to UserID) float64 {
	a, err := m.embeddings.Embedding(ctx, from)
	if err != nil {
		return neutralPrior
	}
	b, err := m.embeddings.Embedding(ctx, to)
	if err != nil {
		return neutralPrior
	}

	cos, ok := cosineSimilarity(a, b)
	if !ok {
		return neutralPrior
	}
	return (cos + 1) / 2
}

func (m *PreferenceModel) collaborativeSignal(ctx context.Context, from, to UserID) float64 {
	overlap, err := m.history.LikeOverlap(ctx, from, to)
	if err != nil {
		return neutralPrior
	}
	return clamp01(overlap)
}

func (m *PreferenceModel) responseRate(ctx context.Context, id UserID) float64 {
	rate, err := m.history.ResponseRate(ctx, id)
	if err != nil {
		return neutralPrior
	}
	return clamp01(rate)
}

// Fixed sub-weights of the profile-content similarity blend. These describe
// how attribute overlap is composed, not how signals are traded off against
// each other; the latter lives in SignalWeights.
const (
	contentInterestWeight = 0.6
	contentAgeWeight      = 0.25
	contentLanguageWeight = 0.15

	// contentMaxAgeGap is the age difference at which proximity reaches zero.
	contentMaxAgeGap = 20.0
)

// contentSimilarity scores profile-attribute overlap: shared interests
// (Jaccard), age proximity, and language match. Profiles with no interests
// on either side fall back to the neutral prior for that term.
func contentSimilarity(from, to *Profile) float64 {
	interests := jaccard(from.Interests, to.Interests)

	gap := math.Abs(float64(from.Age - to.Age))
	ageProximity := 1 - math.Min(gap/contentMaxAgeGap, 1)

	language := 0.0
	if from.Language != "" && from.Language == to.Language {
		language = 1.0
	}

	return contentInterestWeight*interests + contentAgeWeight*ageProximity + contentLanguageWeight*language
}

// conversationalCompatibility estimates how likely two profiles are to
// sustain a conversation: shared interests give common ground, and richer
// profiles (bio, prompt answers) correlate with replies.
func conversationalCompatibility(a, b *Profile) float64 {
	common := jaccard(a.Interests, b.Interests)
	return 0.5*common + 0.25*profileRichness(a) + 0.25*profileRichness(b)
}

// profileRichness scores how much conversational material a profile offers.
// Prompts saturate at three answers.
func profileRichness(p *Profile) float64 {
	r := 0.0
	if p.Bio != "" {
		r += 0.4
	}
	r += 0.6 * math.Min(float64(p.PromptCount)/3.0, 1)
	return r
}

// jaccard returns the Jaccard similarity of two string sets. Either side
// empty yields the neutral prior, not zero: absence of declared interests
// is missing data, not evidence of incompatibility.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return neutralPrior
	}

	// Sets on both sides: declared tags may repeat, and duplicates must
	// not count twice in either the intersection or the union.
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	matches := 0
	for s := range setB {
		if _, ok := setA[s]; ok {
			matches++
		}
	}

	union := len(setA) + len(setB) - matches
	return float64(matches) / float64(union)
}

// cosineSimilarity returns the cosine of two vectors. The second return is
// false when dimensions differ or either vector has zero norm.
func cosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
