// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emberline/emberline/internal/metrics"
)

// ErrInvalidPreferences marks malformed hard constraints (e.g. an inverted
// age range). This is a caller bug, surfaced immediately rather than
// degraded around.
var ErrInvalidPreferences = errors.New("invalid preferences")

// defaultSeed keeps exploration sampling reproducible when no seed is
// configured.
const defaultSeed = 42

// Engine sequences gating, scoring, calibration, featured-slot selection,
// and exploration into one feed request. It is an explicit value with
// injected collaborators; there is no ambient global engine. Safe for
// concurrent use: one GenerateFeed invocation is independent of any other,
// and the engine owns no cross-request mutable state beyond counters.
type Engine struct {
	config    *Config
	logger    zerolog.Logger
	providers Providers

	gate       *ConstraintGate
	scorer     *ReciprocalScorer
	selector   *StableSlotSelector
	explorer   *BanditExplorer
	calibrator *FairnessCalibrator

	requestCount atomic.Int64
	emptyFeeds   atomic.Int64
	scoreErrors  atomic.Int64
}

// FeedRequest describes one feed generation call.
type FeedRequest struct {
	RequesterID UserID
	Preferences UserPreferences
	Context     MatchingContext

	// FeedSize is the maximum total candidates across all three output
	// lists. Zero means the configured default.
	FeedSize int

	// RequestID is generated when empty.
	RequestID string
}

// NewEngine creates a matching engine with the given collaborators.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, providers Providers, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := providers.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // exploration sampling does not need crypto randomness

	model := NewPreferenceModel(cfg, providers.Embeddings, providers.History)

	return &Engine{
		config:     cfg,
		logger:     logger.With().Str("component", "match").Logger(),
		providers:  providers,
		gate:       NewConstraintGate(providers.Blocks),
		scorer:     NewReciprocalScorer(cfg, model, providers.Embeddings, providers.History),
		selector:   NewStableSlotSelector(cfg),
		explorer:   NewBanditExplorer(cfg, providers.Beliefs, rng),
		calibrator: NewFairnessCalibrator(cfg, providers.Exposure),
	}, nil
}

// GenerateFeed produces the featured candidate, the ranked main feed, and
// the exploration list for one requester.
//
// An empty gated pool is a valid terminal state and returns an empty
// result, not an error. A failure while scoring one candidate excludes
// only that candidate; the rest of the pool is unaffected.
func (e *Engine) GenerateFeed(ctx context.Context, req FeedRequest) (*FeedResult, error) {
	start := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("requester_id", string(req.RequesterID)).
		Logger()

	if err := validatePreferences(req.Preferences); err != nil {
		return nil, err
	}

	pool, err := e.providers.Candidates.CandidatePool(ctx, req.RequesterID, req.Preferences, e.config.Limits.MaxPoolSize)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate pool: %w", err)
	}

	requester, err := e.providers.Profiles.Profile(ctx, req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("fetch requester profile: %w", err)
	}

	// One round trip for every candidate profile; per-candidate fetches
	// would dominate latency at pool sizes in the hundreds.
	profiles, err := e.providers.Profiles.Profiles(ctx, pool)
	if err != nil {
		// Fail closed for the whole pool: no candidate is verifiable.
		logger.Warn().Err(err).Msg("batch profile fetch failed, returning empty feed")
		profiles = map[UserID]*Profile{}
	}

	scored, rejections := e.gateAndScore(ctx, requester, pool, profiles, req, logger)

	result := &FeedResult{
		MainFeed:    []CandidateScore{},
		Exploration: []CandidateScore{},
		Metadata: FeedMetadata{
			RequestID:      req.RequestID,
			RequesterID:    req.RequesterID,
			PoolSize:       len(pool),
			GatedPoolSize:  len(scored),
			ScoredCount:    len(scored),
			GateRejections: rejections,
			Timestamp:      time.Now(),
		},
	}

	if len(scored) == 0 {
		e.emptyFeeds.Add(1)
		result.Metadata.LatencyMS = time.Since(start).Milliseconds()
		logger.Debug().Int("pool", len(pool)).Msg("no candidates survived gating")
		return result, nil
	}

	sortByScore(scored)
	result.Metadata.BoostedCohorts = e.calibrator.EnforceExposureParity(ctx, scored, profiles)

	e.assemble(ctx, req, scored, result)

	result.Metadata.LatencyMS = time.Since(start).Milliseconds()
	logger.Debug().
		Int("pool", len(pool)).
		Int("gated", len(scored)).
		Int("main", len(result.MainFeed)).
		Int("exploration", len(result.Exploration)).
		Bool("featured", result.MostCompatible != nil).
		Int64("latency_ms", result.Metadata.LatencyMS).
		Msg("feed generated")

	return result, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
func (e *Engine) prepareRequest(req FeedRequest) FeedRequest {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.FeedSize <= 0 {
		req.FeedSize = e.config.Limits.DefaultFeedSize
	}
	if req.FeedSize > e.config.Limits.MaxFeedSize {
		req.FeedSize = e.config.Limits.MaxFeedSize
	}
	return req
}

// gateAndScore runs the constraint gate and the reciprocal scorer over the
// pool with a bounded worker pool. Scoring each candidate depends only on
// the requester and that one candidate, so the fan-out is embarrassingly
// parallel. A panic or failure for one candidate excludes only that
// candidate (fail closed).
func (e *Engine) gateAndScore(ctx context.Context, requester *Profile, pool []UserID, profiles map[UserID]*Profile, req FeedRequest, logger zerolog.Logger) ([]CandidateScore, map[string]int) {
	workers := e.config.Limits.ScoringConcurrency
	if workers > len(pool) {
		workers = len(pool)
	}
	if workers < 1 {
		workers = 1
	}

	ids := make(chan UserID)
	outcomes := make(chan outcome, len(pool))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				outcomes <- e.scoreOne(ctx, requester, profiles[id], id, req, logger)
			}
		}()
	}

	go func() {
		defer close(ids)
		for _, id := range pool {
			select {
			case ids <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	scored := make([]CandidateScore, 0, len(pool))
	rejections := make(map[string]int)
	for out := range outcomes {
		if out.passed {
			scored = append(scored, out.score)
		} else {
			rejections[out.reason.String()]++
		}
	}
	if len(rejections) == 0 {
		rejections = nil
	}
	return scored, rejections
}

// outcome is the result of gating and scoring one candidate.
type outcome struct {
	score  CandidateScore
	passed bool
	reason GateReason
}

// scoreOne gates and scores a single candidate, converting panics into
// fail-closed exclusion so one bad profile cannot abort the pool.
func (e *Engine) scoreOne(ctx context.Context, requester, candidate *Profile, id UserID, req FeedRequest, logger zerolog.Logger) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.scoreErrors.Add(1)
			metrics.RecordScoringFailure()
			logger.Error().
				Str("candidate_id", string(id)).
				Interface("panic", r).
				Msg("candidate scoring panicked, excluding candidate")
			out.passed = false
			out.reason = ReasonDataUnavailable
		}
	}()

	gate := e.gate.PassesGates(ctx, requester, candidate, req.Preferences)
	if !gate.Passes {
		out.passed = false
		out.reason = gate.Reason
		return out
	}

	out.score = e.scorer.CalculateScore(ctx, requester, candidate, req.Context)
	out.passed = true
	return out
}

// assemble fills the three output lists. The featured slot comes first,
// exploration picks are disjoint from it, and the main feed is everything
// else truncated to the remaining budget.
func (e *Engine) assemble(ctx context.Context, req FeedRequest, scored []CandidateScore, result *FeedResult) {
	result.MostCompatible = e.selector.FindMostCompatible(scored)

	exclude := make(map[UserID]struct{}, 1)
	if result.MostCompatible != nil {
		exclude[result.MostCompatible.CandidateID] = struct{}{}
	}

	gatedIDs := make([]UserID, len(scored))
	byID := make(map[UserID]CandidateScore, len(scored))
	for i, s := range scored {
		gatedIDs[i] = s.CandidateID
		byID[s.CandidateID] = s
	}

	explorationIDs := e.explorer.SelectExplorationCandidates(ctx, gatedIDs, len(scored), exclude)

	slots := req.FeedSize
	if result.MostCompatible != nil {
		slots--
	}
	if len(explorationIDs) > slots {
		explorationIDs = explorationIDs[:slots]
	}

	explorationSet := make(map[UserID]struct{}, len(explorationIDs))
	for _, id := range explorationIDs {
		result.Exploration = append(result.Exploration, byID[id])
		explorationSet[id] = struct{}{}
	}
	slots -= len(explorationIDs)

	for _, s := range scored {
		if slots <= 0 {
			break
		}
		if _, skip := exclude[s.CandidateID]; skip {
			continue
		}
		if _, skip := explorationSet[s.CandidateID]; skip {
			continue
		}
		result.MainFeed = append(result.MainFeed, s)
		slots--
	}
}

// validatePreferences rejects malformed hard constraints.
func validatePreferences(prefs UserPreferences) error {
	if prefs.AgeMin <= 0 || prefs.AgeMax <= 0 {
		return fmt.Errorf("%w: age bounds must be positive, got [%d, %d]", ErrInvalidPreferences, prefs.AgeMin, prefs.AgeMax)
	}
	if prefs.AgeMin > prefs.AgeMax {
		return fmt.Errorf("%w: age_min %d exceeds age_max %d", ErrInvalidPreferences, prefs.AgeMin, prefs.AgeMax)
	}
	if prefs.MaxDistanceKM < 0 {
		return fmt.Errorf("%w: max_distance_km must be non-negative, got %f", ErrInvalidPreferences, prefs.MaxDistanceKM)
	}
	if len(prefs.AcceptedGenders) == 0 {
		return fmt.Errorf("%w: accepted_genders must not be empty", ErrInvalidPreferences)
	}
	return nil
}

// Metrics is a snapshot of engine counters.
type Metrics struct {
	Requests      int64 `json:"requests"`
	EmptyFeeds    int64 `json:"empty_feeds"`
	ScoringErrors int64 `json:"scoring_errors"`
}

// Snapshot returns current engine counters.
func (e *Engine) Snapshot() Metrics {
	return Metrics{
		Requests:      e.requestCount.Load(),
		EmptyFeeds:    e.emptyFeeds.Load(),
		ScoringErrors: e.scoreErrors.Load(),
	}
}
