// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"time"
)

// UserID identifies a user. IDs are opaque strings; upstream systems hash
// raw identifiers before they reach this engine.
type UserID string

// GateReason classifies why a candidate failed the constraint gate.
type GateReason int

const (
	// ReasonNone indicates the candidate passed all gates.
	ReasonNone GateReason = iota
	// ReasonBlocked indicates a bidirectional block or report exclusion.
	ReasonBlocked
	// ReasonAge indicates the candidate is outside the requested age range.
	ReasonAge
	// ReasonDistance indicates the candidate is beyond the maximum distance.
	ReasonDistance
	// ReasonOrientation indicates gender/orientation incompatibility.
	ReasonOrientation
	// ReasonDealbreaker indicates a declared dealbreaker matched.
	ReasonDealbreaker
	// ReasonDataUnavailable indicates required data could not be fetched.
	// The gate fails closed: unverifiable candidates are never shown.
	ReasonDataUnavailable
)

// String returns a stable name for the gate reason, used in logs and metrics.
func (r GateReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonBlocked:
		return "blocked"
	case ReasonAge:
		return "age"
	case ReasonDistance:
		return "distance"
	case ReasonOrientation:
		return "orientation"
	case ReasonDealbreaker:
		return "dealbreaker"
	case ReasonDataUnavailable:
		return "data_unavailable"
	default:
		return "unknown"
	}
}

// Profile holds the per-user attributes the engine reads. Profiles are
// fetched from an external store and treated as immutable for the duration
// of one feed request.
type Profile struct {
	ID UserID `json:"id"`

	// Demographics
	Age      int     `json:"age"`
	Gender   string  `json:"gender"`
	Latitude float64 `json:"latitude"`
	// Longitude pairs with Latitude for distance gating.
	Longitude float64 `json:"longitude"`
	Region    string  `json:"region,omitempty"`
	Language  string  `json:"language,omitempty"`

	// SeekingGenders lists the genders this user wants to be matched with.
	// Orientation compatibility requires the check in both directions.
	SeekingGenders []string `json:"seeking_genders"`

	// Content signals. Bio, prompt answers, and interests are the same
	// fields the profile embedder consumes upstream.
	Bio         string   `json:"bio,omitempty"`
	PromptCount int      `json:"prompt_count,omitempty"`
	Interests   []string `json:"interests,omitempty"`

	// Attributes holds categorical self-declared facts (smoking, drinking,
	// children, religion, ...) matched against a requester's dealbreakers.
	Attributes map[string]string `json:"attributes,omitempty"`

	// Trust signals
	Verified     bool    `json:"verified"`
	SafetyScore  float64 `json:"safety_score"` // [0,1]
	Completeness float64 `json:"completeness"` // [0,1]
}

// UserPreferences holds a requester's hard constraints. Immutable for the
// duration of one feed request; supplied by the caller.
type UserPreferences struct {
	AgeMin        int     `json:"age_min" validate:"gt=0"`
	AgeMax        int     `json:"age_max" validate:"gtefield=AgeMin"`
	MaxDistanceKM float64 `json:"max_distance_km" validate:"gte=0"`

	// AcceptedGenders is the set of genders the requester wants to see.
	AcceptedGenders []string `json:"accepted_genders" validate:"min=1"`

	// Dealbreakers maps attribute name to the rejected value, e.g.
	// {"smoking": "regularly"}. A candidate whose declared attribute equals
	// the rejected value is excluded.
	Dealbreakers map[string]string `json:"dealbreakers,omitempty"`
}

// MatchingContext carries ephemeral per-request session state. It only
// biases diversity and session-aware signals and is never persisted.
type MatchingContext struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// HourBucket is the requester's local hour of day (0-23).
	HourBucket int `json:"hour_bucket"`
	// Weekday is the requester's local day of week (0=Sunday).
	Weekday int `json:"weekday"`

	SessionSwipes  int           `json:"session_swipes"`
	SessionLikes   int           `json:"session_likes"`
	SessionElapsed time.Duration `json:"session_elapsed"`
}

// CandidateScore is the engine's core output unit per candidate.
//
// The three probabilities live in [0,1]. The multipliers are nominally
// centered at 1.0; trust is capped at 1.5 and diversity/fairness stay
// within ±15% per adjustment step. ReciprocalScore is therefore
// non-negative but not bounded above by 1.
type CandidateScore struct {
	CandidateID UserID `json:"candidate_id"`

	PLikeGiven    float64 `json:"p_like_given"`
	PLikeReceived float64 `json:"p_like_received"`
	PReply        float64 `json:"p_reply"`

	Trust     float64 `json:"trust"`
	Diversity float64 `json:"diversity"`
	Fairness  float64 `json:"fairness"`

	ReciprocalScore float64 `json:"reciprocal_score"`

	// Factors lists human-readable contributing signals in the order they
	// were detected; Explanation joins them into one sentence.
	Factors     []string `json:"factors,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// MutualPreference returns the two-directional interest product used by the
// featured-slot selector. It deliberately excludes reply likelihood and
// multipliers: it answers "who would most want each other".
func (s *CandidateScore) MutualPreference() float64 {
	return s.PLikeGiven * s.PLikeReceived
}

// Belief holds the Beta posterior over a candidate's match probability.
// Alpha counts successes plus prior, Beta counts failures plus prior.
// The zero value is not valid; use NewBelief for the uniform prior.
type Belief struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// NewBelief returns the uniform Beta(1,1) prior: maximal uncertainty, so
// cold-start candidates are naturally favoured for exploration.
func NewBelief() Belief {
	return Belief{Alpha: 1, Beta: 1}
}

// Mean returns the posterior mean match probability.
func (b Belief) Mean() float64 {
	if b.Alpha+b.Beta == 0 {
		return 0.5
	}
	return b.Alpha / (b.Alpha + b.Beta)
}

// Variance returns the posterior variance; wider for thin evidence.
func (b Belief) Variance() float64 {
	n := b.Alpha + b.Beta
	if n == 0 {
		return 1.0 / 12.0
	}
	return (b.Alpha * b.Beta) / (n * n * (n + 1))
}

// FeedResult is the engine's response for one feed request.
//
// MostCompatible is nil when the pool is empty after gating. MainFeed is
// ordered descending by ReciprocalScore and excludes the featured and
// exploration picks. Exploration size is floor(poolSize x budget). The
// three parts together never exceed the requested feed size.
type FeedResult struct {
	MostCompatible *CandidateScore  `json:"most_compatible,omitempty"`
	MainFeed       []CandidateScore `json:"main_feed"`
	Exploration    []CandidateScore `json:"exploration"`

	Metadata FeedMetadata `json:"metadata"`
}

// FeedMetadata records request diagnostics for observability and auditing.
type FeedMetadata struct {
	RequestID      string         `json:"request_id"`
	RequesterID    UserID         `json:"requester_id"`
	PoolSize       int            `json:"pool_size"`
	GatedPoolSize  int            `json:"gated_pool_size"`
	ScoredCount    int            `json:"scored_count"`
	GateRejections map[string]int `json:"gate_rejections,omitempty"`
	BoostedCohorts []string       `json:"boosted_cohorts,omitempty"`
	LatencyMS      int64          `json:"latency_ms"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Size returns the total number of candidates across the three output lists.
func (r *FeedResult) Size() int {
	n := len(r.MainFeed) + len(r.Exploration)
	if r.MostCompatible != nil {
		n++
	}
	return n
}
