// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/emberline/emberline/internal/match"
)

// Memory implements every matching provider interface in process. It backs
// development mode and tests; production deployments point the engine at
// upstream services and keep only beliefs, exposure, and the feed cache
// local.
//
// All methods are safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	profiles   map[match.UserID]*match.Profile
	blocked    map[[2]match.UserID]bool
	embeddings map[match.UserID][]float64

	responseRates map[match.UserID]float64
	likeOverlaps  map[[2]match.UserID]float64
	recentlySeen  map[match.UserID][]match.UserID

	// exposure counts candidate impressions per cohort field and value.
	exposure map[string]map[string]int64

	beliefs map[match.UserID]match.Belief
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		profiles:      make(map[match.UserID]*match.Profile),
		blocked:       make(map[[2]match.UserID]bool),
		embeddings:    make(map[match.UserID][]float64),
		responseRates: make(map[match.UserID]float64),
		likeOverlaps:  make(map[[2]match.UserID]float64),
		recentlySeen:  make(map[match.UserID][]match.UserID),
		exposure:      make(map[string]map[string]int64),
		beliefs:       make(map[match.UserID]match.Belief),
	}
}

// Providers returns the provider bundle backed by this store.
func (m *Memory) Providers() match.Providers {
	return match.Providers{
		Candidates: m,
		Blocks:     m,
		Profiles:   m,
		Embeddings: m,
		History:    m,
		Exposure:   m,
		Beliefs:    m,
	}
}

// PutProfile stores or replaces a profile.
func (m *Memory) PutProfile(p *match.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

// DeleteProfile removes a profile. Subsequent lookups fail with
// match.ErrUnavailable, which the gate treats as fail closed.
func (m *Memory) DeleteProfile(id match.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
}

// SetBlocked records a block between two users in either direction.
func (m *Memory) SetBlocked(a, b match.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked[[2]match.UserID{a, b}] = true
}

// PutEmbedding stores a profile embedding.
func (m *Memory) PutEmbedding(id match.UserID, vec []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[id] = vec
}

// SetResponseRate sets a user's historical reply rate.
func (m *Memory) SetResponseRate(id match.UserID, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseRates[id] = rate
}

// SetLikeOverlap sets the directional collaborative-filtering signal.
func (m *Memory) SetLikeOverlap(from, to match.UserID, overlap float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likeOverlaps[[2]match.UserID{from, to}] = overlap
}

// RecordSeen prepends a candidate to the viewer's recently-seen list.
func (m *Memory) RecordSeen(viewer, candidate match.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := m.recentlySeen[viewer]
	m.recentlySeen[viewer] = append([]match.UserID{candidate}, seen...)
}

// CandidatePool returns every stored profile except the requester, cheaply
// prefiltered on accepted genders. Full gating happens downstream; the
// pool only needs to avoid shipping obviously incompatible candidates.
func (m *Memory) CandidatePool(ctx context.Context, requesterID match.UserID, prefs match.UserPreferences, limit int) ([]match.UserID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accepted := make(map[string]struct{}, len(prefs.AcceptedGenders))
	for _, g := range prefs.AcceptedGenders {
		accepted[g] = struct{}{}
	}

	out := make([]match.UserID, 0, len(m.profiles))
	for id, p := range m.profiles {
		if id == requesterID {
			continue
		}
		if len(accepted) > 0 {
			if _, ok := accepted[p.Gender]; !ok {
				continue
			}
		}
		out = append(out, id)
	}

	// Deterministic order keeps feeds reproducible under a fixed seed.
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// IsBlocked reports whether either user has blocked the other.
func (m *Memory) IsBlocked(ctx context.Context, a, b match.UserID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blocked[[2]match.UserID{a, b}] || m.blocked[[2]match.UserID{b, a}], nil
}

// Profile returns one profile, or match.ErrUnavailable when unknown.
func (m *Memory) Profile(ctx context.Context, id match.UserID) (*match.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, match.ErrUnavailable
	}
	return p, nil
}

// Profiles returns the profiles found for the given IDs. Unknown IDs are
// simply absent from the result map.
func (m *Memory) Profiles(ctx context.Context, ids []match.UserID) (map[match.UserID]*match.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[match.UserID]*match.Profile, len(ids))
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// Embedding returns a user's profile embedding. Users without one get nil,
// which the preference model treats as a missing signal.
func (m *Memory) Embedding(ctx context.Context, id match.UserID) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.embeddings[id], nil
}

// ResponseRate returns a user's reply rate, or match.ErrNoHistory for new
// users.
func (m *Memory) ResponseRate(ctx context.Context, id match.UserID) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.responseRates[id]
	if !ok {
		return 0, match.ErrNoHistory
	}
	return r, nil
}

// LikeOverlap returns the directional collaborative signal, or
// match.ErrNoHistory when none has been recorded.
func (m *Memory) LikeOverlap(ctx context.Context, from, to match.UserID) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.likeOverlaps[[2]match.UserID{from, to}]
	if !ok {
		return 0, match.ErrNoHistory
	}
	return v, nil
}

// RecentlySeen returns up to limit of the viewer's most recent candidates,
// newest first.
func (m *Memory) RecentlySeen(ctx context.Context, id match.UserID, limit int) ([]match.UserID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := m.recentlySeen[id]
	if len(seen) > limit {
		seen = seen[:limit]
	}
	out := make([]match.UserID, len(seen))
	copy(out, seen)
	return out, nil
}

// RecordImpression increments the impression counter for one cohort.
func (m *Memory) RecordImpression(ctx context.Context, cohortField, cohort string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := m.exposure[cohortField]
	if counts == nil {
		counts = make(map[string]int64)
		m.exposure[cohortField] = counts
	}
	counts[cohort]++
	return nil
}

// ExposureRates returns each cohort's share of recorded impressions for
// the given field. An empty map means no impressions yet.
func (m *Memory) ExposureRates(ctx context.Context, cohortField string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := m.exposure[cohortField]
	var total int64
	for _, c := range counts {
		total += c
	}
	out := make(map[string]float64, len(counts))
	if total == 0 {
		return out, nil
	}
	for cohort, c := range counts {
		out[cohort] = float64(c) / float64(total)
	}
	return out, nil
}

// RecordOutcome folds one binary engagement outcome into a candidate's
// Beta posterior: positive outcomes increment alpha, negative beta.
func (m *Memory) RecordOutcome(ctx context.Context, id match.UserID, positive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beliefs[id]
	if !ok {
		b = match.NewBelief()
	}
	if positive {
		b.Alpha++
	} else {
		b.Beta++
	}
	m.beliefs[id] = b
	return nil
}

// Beliefs returns the stored posteriors for the given IDs. IDs with no
// recorded outcomes are absent; callers fall back to the uniform prior.
func (m *Memory) Beliefs(ctx context.Context, ids []match.UserID) (map[match.UserID]match.Belief, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[match.UserID]match.Belief, len(ids))
	for _, id := range ids {
		if b, ok := m.beliefs[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}
