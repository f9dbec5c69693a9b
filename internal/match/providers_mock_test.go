// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
)

// mockStores implements every provider interface for testing. Error fields
// override the happy path per store.
type mockStores struct {
	pool     []UserID
	poolErr  error
	profiles map[UserID]*Profile

	profileErr  error
	profilesErr error

	blocked  map[[2]UserID]bool
	blockErr error

	embeddings map[UserID][]float64
	embErr     error

	// embPanicOn makes Embedding panic for one user, exercising the
	// engine's per-candidate panic isolation.
	embPanicOn UserID

	responseRates map[UserID]float64
	likeOverlaps  map[[2]UserID]float64
	recentlySeen  map[UserID][]UserID
	historyErr    error

	exposureRates map[string]float64
	exposureErr   error

	beliefs    map[UserID]Belief
	beliefsErr error
}

func newMockStores() *mockStores {
	return &mockStores{
		profiles:      make(map[UserID]*Profile),
		blocked:       make(map[[2]UserID]bool),
		embeddings:    make(map[UserID][]float64),
		responseRates: make(map[UserID]float64),
		likeOverlaps:  make(map[[2]UserID]float64),
		recentlySeen:  make(map[UserID][]UserID),
		exposureRates: make(map[string]float64),
		beliefs:       make(map[UserID]Belief),
	}
}

func (m *mockStores) providers() Providers {
	return Providers{
		Candidates: m,
		Blocks:     m,
		Profiles:   m,
		Embeddings: m,
		History:    m,
		Exposure:   m,
		Beliefs:    m,
	}
}

func (m *mockStores) addProfile(p *Profile) {
	m.profiles[p.ID] = p
	m.pool = append(m.pool, p.ID)
}

func (m *mockStores) CandidatePool(ctx context.Context, requesterID UserID, prefs UserPreferences, limit int) ([]UserID, error) {
	if m.poolErr != nil {
		return nil, m.poolErr
	}
	out := make([]UserID, 0, len(m.pool))
	for _, id := range m.pool {
		if id != requesterID {
			out = append(out, id)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStores) IsBlocked(ctx context.Context, a, b UserID) (bool, error) {
	if m.blockErr != nil {
		return false, m.blockErr
	}
	return m.blocked[[2]UserID{a, b}] || m.blocked[[2]UserID{b, a}], nil
}

func (m *mockStores) Profile(ctx context.Context, id UserID) (*Profile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrUnavailable
	}
	return p, nil
}

func (m *mockStores) Profiles(ctx context.Context, ids []UserID) (map[UserID]*Profile, error) {
	if m.profilesErr != nil {
		return nil, m.profilesErr
	}
	out := make(map[UserID]*Profile, len(ids))
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockStores) Embedding(ctx context.Context, id UserID) ([]float64, error) {
	if m.embPanicOn != "" && id == m.embPanicOn {
		panic("corrupt embedding record")
	}
	if m.embErr != nil {
		return nil, m.embErr
	}
	if v, ok := m.embeddings[id]; ok {
		return v, nil
	}
	// Unknown users get the store's neutral default: a zero vector.
	return make([]float64, 4), nil
}

func (m *mockStores) ResponseRate(ctx context.Context, id UserID) (float64, error) {
	if m.historyErr != nil {
		return 0, m.historyErr
	}
	if r, ok := m.responseRates[id]; ok {
		return r, nil
	}
	return 0, ErrNoHistory
}

func (m *mockStores) LikeOverlap(ctx context.Context, from, to UserID) (float64, error) {
	if m.historyErr != nil {
		return 0, m.historyErr
	}
	if v, ok := m.likeOverlaps[[2]UserID{from, to}]; ok {
		return v, nil
	}
	return 0, ErrNoHistory
}

func (m *mockStores) RecentlySeen(ctx context.Context, id UserID, limit int) ([]UserID, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	seen := m.recentlySeen[id]
	if len(seen) > limit {
		seen = seen[:limit]
	}
	return seen, nil
}

func (m *mockStores) ExposureRates(ctx context.Context, cohortField string) (map[string]float64, error) {
	if m.exposureErr != nil {
		return nil, m.exposureErr
	}
	return m.exposureRates, nil
}

func (m *mockStores) Beliefs(ctx context.Context, ids []UserID) (map[UserID]Belief, error) {
	if m.beliefsErr != nil {
		return nil, m.beliefsErr
	}
	out := make(map[UserID]Belief, len(ids))
	for _, id := range ids {
		if b, ok := m.beliefs[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

// testProfile returns a minimal passing profile for the default test prefs.
func testProfile(id UserID, age int) *Profile {
	return &Profile{
		ID:             id,
		Age:            age,
		Gender:         "woman",
		SeekingGenders: []string{"man"},
		Interests:      []string{"hiking", "film"},
		Language:       "en",
		SafetyScore:    1.0,
		Completeness:   1.0,
	}
}

// testRequester returns a requester compatible with testProfile candidates.
func testRequester(id UserID) *Profile {
	return &Profile{
		ID:             id,
		Age:            30,
		Gender:         "man",
		SeekingGenders: []string{"woman"},
		Interests:      []string{"hiking", "film"},
		Language:       "en",
		SafetyScore:    1.0,
		Completeness:   1.0,
	}
}

// testPrefs returns hard constraints matching testProfile candidates.
func testPrefs() UserPreferences {
	return UserPreferences{
		AgeMin:          25,
		AgeMax:          35,
		MaxDistanceKM:   100,
		AcceptedGenders: []string{"woman"},
	}
}
