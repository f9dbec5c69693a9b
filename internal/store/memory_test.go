// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package store

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/emberline/emberline/internal/match"
)

func memProfile(id match.UserID, gender string) *match.Profile {
	return &match.Profile{
		ID:             id,
		Age:            30,
		Gender:         gender,
		SeekingGenders: []string{"man", "woman"},
	}
}

func TestMemoryCandidatePool(t *testing.T) {
	m := NewMemory()
	m.PutProfile(memProfile("a", "woman"))
	m.PutProfile(memProfile("b", "woman"))
	m.PutProfile(memProfile("c", "man"))
	m.PutProfile(memProfile("req", "man"))

	prefs := match.UserPreferences{
		AgeMin: 20, AgeMax: 40,
		AcceptedGenders: []string{"woman"},
	}

	pool, err := m.CandidatePool(context.Background(), "req", prefs, 10)
	if err != nil {
		t.Fatalf("CandidatePool: %v", err)
	}
	if len(pool) != 2 || pool[0] != "a" || pool[1] != "b" {
		t.Errorf("pool = %v, want [a b]", pool)
	}

	limited, err := m.CandidatePool(context.Background(), "req", prefs, 1)
	if err != nil {
		t.Fatalf("CandidatePool: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited pool size = %d, want 1", len(limited))
	}
}

func TestMemoryProfileLookups(t *testing.T) {
	m := NewMemory()
	m.PutProfile(memProfile("a", "woman"))

	p, err := m.Profile(context.Background(), "a")
	if err != nil || p.ID != "a" {
		t.Fatalf("Profile(a) = %v, %v", p, err)
	}

	if _, err := m.Profile(context.Background(), "ghost"); !errors.Is(err, match.ErrUnavailable) {
		t.Errorf("Profile(ghost) err = %v, want ErrUnavailable", err)
	}

	m.DeleteProfile("a")
	if _, err := m.Profile(context.Background(), "a"); !errors.Is(err, match.ErrUnavailable) {
		t.Errorf("deleted profile err = %v, want ErrUnavailable", err)
	}

	batch, err := m.Profiles(context.Background(), []match.UserID{"a", "ghost"})
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("batch = %v, want empty", batch)
	}
}

func TestMemoryBlocksSymmetric(t *testing.T) {
	m := NewMemory()
	m.SetBlocked("a", "b")

	for _, pair := range [][2]match.UserID{{"a", "b"}, {"b", "a"}} {
		blocked, err := m.IsBlocked(context.Background(), pair[0], pair[1])
		if err != nil {
			t.Fatalf("IsBlocked: %v", err)
		}
		if !blocked {
			t.Errorf("IsBlocked(%s, %s) = false, want true", pair[0], pair[1])
		}
	}
}

func TestMemoryHistory(t *testing.T) {
	m := NewMemory()

	if _, err := m.ResponseRate(context.Background(), "new"); !errors.Is(err, match.ErrNoHistory) {
		t.Errorf("ResponseRate err = %v, want ErrNoHistory", err)
	}
	if _, err := m.LikeOverlap(context.Background(), "a", "b"); !errors.Is(err, match.ErrNoHistory) {
		t.Errorf("LikeOverlap err = %v, want ErrNoHistory", err)
	}

	m.SetResponseRate("a", 0.7)
	m.SetLikeOverlap("a", "b", 0.4)

	if r, err := m.ResponseRate(context.Background(), "a"); err != nil || r != 0.7 {
		t.Errorf("ResponseRate = %v, %v", r, err)
	}
	if v, err := m.LikeOverlap(context.Background(), "a", "b"); err != nil || v != 0.4 {
		t.Errorf("LikeOverlap = %v, %v", v, err)
	}
	// The signal is directional.
	if _, err := m.LikeOverlap(context.Background(), "b", "a"); !errors.Is(err, match.ErrNoHistory) {
		t.Errorf("reverse LikeOverlap err = %v, want ErrNoHistory", err)
	}
}

func TestMemoryRecentlySeenNewestFirst(t *testing.T) {
	m := NewMemory()
	m.RecordSeen("viewer", "first")
	m.RecordSeen("viewer", "second")
	m.RecordSeen("viewer", "third")

	seen, err := m.RecentlySeen(context.Background(), "viewer", 2)
	if err != nil {
		t.Fatalf("RecentlySeen: %v", err)
	}
	if len(seen) != 2 || seen[0] != "third" || seen[1] != "second" {
		t.Errorf("seen = %v, want [third second]", seen)
	}
}

func TestMemoryExposureRates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rates, err := m.ExposureRates(ctx, "gender")
	if err != nil {
		t.Fatalf("ExposureRates: %v", err)
	}
	if len(rates) != 0 {
		t.Errorf("rates before impressions = %v, want empty", rates)
	}

	for i := 0; i < 3; i++ {
		if err := m.RecordImpression(ctx, "gender", "woman"); err != nil {
			t.Fatalf("RecordImpression: %v", err)
		}
	}
	if err := m.RecordImpression(ctx, "gender", "man"); err != nil {
		t.Fatalf("RecordImpression: %v", err)
	}

	rates, err = m.ExposureRates(ctx, "gender")
	if err != nil {
		t.Fatalf("ExposureRates: %v", err)
	}
	if math.Abs(rates["woman"]-0.75) > 1e-12 || math.Abs(rates["man"]-0.25) > 1e-12 {
		t.Errorf("rates = %v, want woman=0.75 man=0.25", rates)
	}

	// Fields are tracked independently.
	other, err := m.ExposureRates(ctx, "region")
	if err != nil {
		t.Fatalf("ExposureRates: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("region rates = %v, want empty", other)
	}
}

func TestMemoryBeliefs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	beliefs, err := m.Beliefs(ctx, []match.UserID{"a"})
	if err != nil {
		t.Fatalf("Beliefs: %v", err)
	}
	if len(beliefs) != 0 {
		t.Errorf("beliefs = %v, want empty before outcomes", beliefs)
	}

	if err := m.RecordOutcome(ctx, "a", true); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := m.RecordOutcome(ctx, "a", true); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := m.RecordOutcome(ctx, "a", false); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	beliefs, err = m.Beliefs(ctx, []match.UserID{"a"})
	if err != nil {
		t.Fatalf("Beliefs: %v", err)
	}
	b, ok := beliefs["a"]
	if !ok {
		t.Fatal("belief for a missing")
	}
	// Prior Beta(1,1) plus two positives and one negative.
	if b.Alpha != 3 || b.Beta != 2 {
		t.Errorf("belief = %+v, want Alpha=3 Beta=2", b)
	}
}

func TestMemoryProvidersComplete(t *testing.T) {
	if err := NewMemory().Providers().Validate(); err != nil {
		t.Fatalf("Providers().Validate() = %v", err)
	}
}
