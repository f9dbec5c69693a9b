// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"fmt"
)

// Config contains all tunable parameters for the matching engine. Weights
// live here rather than in the scorer so they can be retuned without a
// redeploy of the scoring code.
type Config struct {
	// Signals weights the three like-probability estimators.
	Signals SignalWeights `json:"signals"`

	// Reply weights the reply-probability combination.
	Reply ReplyWeights `json:"reply"`

	// Trust contains trust-multiplier parameters.
	Trust TrustConfig `json:"trust"`

	// Diversity contains diversity-multiplier parameters.
	Diversity DiversityConfig `json:"diversity"`

	// Fairness contains exposure-parity calibration parameters.
	Fairness FairnessConfig `json:"fairness"`

	// Bandit contains exploration parameters.
	Bandit BanditConfig `json:"bandit"`

	// Selector contains featured-slot selection parameters.
	Selector SelectorConfig `json:"selector"`

	// Explain contains explanation thresholds.
	Explain ExplainConfig `json:"explain"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Seed is the random seed for the exploration sampler. If zero, a
	// fixed default seed is used so behavior stays reproducible.
	Seed int64 `json:"seed"`
}

// SignalWeights defines the relative contribution of each like-probability
// signal. Weights are normalized at runtime, so they don't need to sum to 1.
type SignalWeights struct {
	// Embedding is the weight of embedding cosine similarity.
	Embedding float64 `json:"embedding"`

	// Content is the weight of profile-attribute similarity.
	Content float64 `json:"content"`

	// Collaborative is the weight of the historical like-overlap signal.
	Collaborative float64 `json:"collaborative"`
}

// Normalize returns a copy with weights scaled to sum to 1.0.
func (w SignalWeights) Normalize() SignalWeights {
	sum := w.Embedding + w.Content + w.Collaborative
	if sum == 0 {
		const equal = 1.0 / 3.0
		return SignalWeights{Embedding: equal, Content: equal, Collaborative: equal}
	}
	return SignalWeights{
		Embedding:     w.Embedding / sum,
		Content:       w.Content / sum,
		Collaborative: w.Collaborative / sum,
	}
}

// ReplyWeights defines the reply-probability combination. Mutuality is the
// weight of min(response rates); Conversational weights the
// conversational-compatibility estimate.
type ReplyWeights struct {
	Mutuality      float64 `json:"mutuality"`
	Conversational float64 `json:"conversational"`
}

// Normalize returns a copy with weights scaled to sum to 1.0.
func (w ReplyWeights) Normalize() ReplyWeights {
	sum := w.Mutuality + w.Conversational
	if sum == 0 {
		return ReplyWeights{Mutuality: 0.5, Conversational: 0.5}
	}
	return ReplyWeights{Mutuality: w.Mutuality / sum, Conversational: w.Conversational / sum}
}

// TrustConfig contains trust-multiplier parameters.
type TrustConfig struct {
	// VerifiedBoost multiplies verified profiles, e.g. 1.2 for +20%.
	VerifiedBoost float64 `json:"verified_boost"`

	// Cap bounds the combined trust multiplier.
	Cap float64 `json:"cap"`
}

// DiversityConfig contains diversity-multiplier parameters. The multiplier
// compares a candidate to the requester's recently seen candidates.
type DiversityConfig struct {
	// HighSimilarity is the threshold above which repetition is discouraged.
	HighSimilarity float64 `json:"high_similarity"`

	// LowSimilarity is the threshold below which variety is encouraged.
	LowSimilarity float64 `json:"low_similarity"`

	// RepetitionPenalty applies when similarity exceeds HighSimilarity.
	RepetitionPenalty float64 `json:"repetition_penalty"`

	// VarietyBoost applies when similarity is below LowSimilarity.
	VarietyBoost float64 `json:"variety_boost"`

	// RecentWindow is how many recently seen candidates to compare against.
	RecentWindow int `json:"recent_window"`

	// SessionSwipeThreshold widens the variety band once a session has seen
	// this many swipes, nudging long sessions toward fresh profiles.
	SessionSwipeThreshold int `json:"session_swipe_threshold"`

	// SessionLowSimilarity replaces LowSimilarity past the swipe threshold.
	SessionLowSimilarity float64 `json:"session_low_similarity"`
}

// FairnessConfig contains cohort exposure-parity parameters.
type FairnessConfig struct {
	// CohortField is the profile attribute used for cohort grouping:
	// "gender", "region", or "language".
	CohortField string `json:"cohort_field"`

	// UnderExposureRatio is the fraction of target exposure below which a
	// cohort is boosted, e.g. 0.8.
	UnderExposureRatio float64 `json:"under_exposure_ratio"`

	// Boost multiplies scores of under-exposed cohort members, e.g. 1.15.
	// Kept within ±15% of 1.0 per adjustment step.
	Boost float64 `json:"boost"`
}

// BanditConfig contains exploration parameters.
type BanditConfig struct {
	// Budget is the fraction of the gated pool reserved for exploration.
	Budget float64 `json:"budget"`
}

// SelectorConfig contains featured-slot selection parameters.
type SelectorConfig struct {
	// TopK is how many top-scored candidates the selector considers.
	TopK int `json:"top_k"`
}

// ExplainConfig contains thresholds above which a signal is considered
// notable enough to surface in the explanation.
type ExplainConfig struct {
	LikeGiven    float64 `json:"like_given"`
	LikeReceived float64 `json:"like_received"`
	Reply        float64 `json:"reply"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// MaxPoolSize bounds the raw candidate pool fetched per request.
	MaxPoolSize int `json:"max_pool_size"`

	// DefaultFeedSize applies when a request leaves FeedSize zero.
	DefaultFeedSize int `json:"default_feed_size"`

	// MaxFeedSize caps the requested feed size.
	MaxFeedSize int `json:"max_feed_size"`

	// ScoringConcurrency bounds the scoring fan-out worker pool.
	ScoringConcurrency int `json:"scoring_concurrency"`
}

// DefaultConfig returns production defaults. Signal weights follow the
// tuned 0.4/0.3/0.3 split; reply weights the 0.6/0.4 split.
func DefaultConfig() *Config {
	return &Config{
		Signals: SignalWeights{
			Embedding:     0.4,
			Content:       0.3,
			Collaborative: 0.3,
		},
		Reply: ReplyWeights{
			Mutuality:      0.6,
			Conversational: 0.4,
		},
		Trust: TrustConfig{
			VerifiedBoost: 1.2,
			Cap:           1.5,
		},
		Diversity: DiversityConfig{
			HighSimilarity:        0.9,
			LowSimilarity:         0.3,
			RepetitionPenalty:     0.95,
			VarietyBoost:          1.05,
			RecentWindow:          20,
			SessionSwipeThreshold: 50,
			SessionLowSimilarity:  0.4,
		},
		Fairness: FairnessConfig{
			CohortField:        "gender",
			UnderExposureRatio: 0.8,
			Boost:              1.15,
		},
		Bandit: BanditConfig{
			Budget: 0.10,
		},
		Selector: SelectorConfig{
			TopK: 20,
		},
		Explain: ExplainConfig{
			LikeGiven:    0.7,
			LikeReceived: 0.7,
			Reply:        0.6,
		},
		Limits: LimitsConfig{
			MaxPoolSize:        1000,
			DefaultFeedSize:    30,
			MaxFeedSize:        100,
			ScoringConcurrency: 16,
		},
	}
}

// Validate checks configuration invariants.
//
//nolint:gocyclo // flat field validation reads better than indirection
func (c *Config) Validate() error {
	if c.Signals.Embedding < 0 || c.Signals.Content < 0 || c.Signals.Collaborative < 0 {
		return fmt.Errorf("signals weights must be non-negative, got %+v", c.Signals)
	}
	if c.Reply.Mutuality < 0 || c.Reply.Conversational < 0 {
		return fmt.Errorf("reply weights must be non-negative, got %+v", c.Reply)
	}
	if c.Trust.VerifiedBoost < 1 {
		return fmt.Errorf("trust.verified_boost must be >= 1, got %f", c.Trust.VerifiedBoost)
	}
	if c.Trust.Cap < 1 {
		return fmt.Errorf("trust.cap must be >= 1, got %f", c.Trust.Cap)
	}
	if c.Diversity.HighSimilarity <= c.Diversity.LowSimilarity {
		return fmt.Errorf("diversity.high_similarity must exceed low_similarity, got %f <= %f",
			c.Diversity.HighSimilarity, c.Diversity.LowSimilarity)
	}
	if c.Diversity.RepetitionPenalty <= 0 || c.Diversity.RepetitionPenalty > 1 {
		return fmt.Errorf("diversity.repetition_penalty must be in (0, 1], got %f", c.Diversity.RepetitionPenalty)
	}
	if c.Diversity.VarietyBoost < 1 || c.Diversity.VarietyBoost > 1.15 {
		return fmt.Errorf("diversity.variety_boost must be in [1, 1.15], got %f", c.Diversity.VarietyBoost)
	}
	if c.Diversity.RecentWindow < 0 {
		return fmt.Errorf("diversity.recent_window must be non-negative, got %d", c.Diversity.RecentWindow)
	}
	if c.Fairness.CohortField == "" {
		return fmt.Errorf("fairness.cohort_field must be set")
	}
	if c.Fairness.UnderExposureRatio <= 0 || c.Fairness.UnderExposureRatio > 1 {
		return fmt.Errorf("fairness.under_exposure_ratio must be in (0, 1], got %f", c.Fairness.UnderExposureRatio)
	}
	if c.Fairness.Boost < 1 || c.Fairness.Boost > 1.15 {
		return fmt.Errorf("fairness.boost must be in [1, 1.15], got %f", c.Fairness.Boost)
	}
	if c.Bandit.Budget < 0 || c.Bandit.Budget > 1 {
		return fmt.Errorf("bandit.budget must be in [0, 1], got %f", c.Bandit.Budget)
	}
	if c.Selector.TopK < 1 {
		return fmt.Errorf("selector.top_k must be positive, got %d", c.Selector.TopK)
	}
	if c.Limits.MaxPoolSize < 1 {
		return fmt.Errorf("limits.max_pool_size must be positive, got %d", c.Limits.MaxPoolSize)
	}
	if c.Limits.DefaultFeedSize < 1 {
		return fmt.Errorf("limits.default_feed_size must be positive, got %d", c.Limits.DefaultFeedSize)
	}
	if c.Limits.MaxFeedSize < c.Limits.DefaultFeedSize {
		return fmt.Errorf("limits.max_feed_size must be >= default_feed_size, got %d < %d",
			c.Limits.MaxFeedSize, c.Limits.DefaultFeedSize)
	}
	if c.Limits.ScoringConcurrency < 1 {
		return fmt.Errorf("limits.scoring_concurrency must be positive, got %d", c.Limits.ScoringConcurrency)
	}
	return nil
}
