// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
	"errors"
	"testing"
)

func TestPassesGatesOrder(t *testing.T) {
	ctx := context.Background()

	requester := testRequester("req")
	prefs := testPrefs()

	tests := []struct {
		name       string
		candidate  *Profile
		blocked    bool
		wantPass   bool
		wantReason GateReason
	}{
		{
			name:       "passes all gates",
			candidate:  testProfile("c1", 30),
			wantPass:   true,
			wantReason: ReasonNone,
		},
		{
			name:       "blocked wins over age",
			candidate:  testProfile("c2", 99),
			blocked:    true,
			wantPass:   false,
			wantReason: ReasonBlocked,
		},
		{
			name:       "age below range",
			candidate:  testProfile("c3", 24),
			wantPass:   false,
			wantReason: ReasonAge,
		},
		{
			name:       "age above range",
			candidate:  testProfile("c4", 36),
			wantPass:   false,
			wantReason: ReasonAge,
		},
		{
			name: "too far away",
			candidate: func() *Profile {
				p := testProfile("c5", 30)
				p.Latitude = 10 // ~1100km from the requester at origin
				return p
			}(),
			wantPass:   false,
			wantReason: ReasonDistance,
		},
		{
			name: "gender not accepted",
			candidate: func() *Profile {
				p := testProfile("c6", 30)
				p.Gender = "man"
				return p
			}(),
			wantPass:   false,
			wantReason: ReasonOrientation,
		},
		{
			name: "candidate not seeking requester gender",
			candidate: func() *Profile {
				p := testProfile("c7", 30)
				p.SeekingGenders = []string{"woman"}
				return p
			}(),
			wantPass:   false,
			wantReason: ReasonOrientation,
		},
		{
			name: "dealbreaker match",
			candidate: func() *Profile {
				p := testProfile("c8", 30)
				p.Attributes = map[string]string{"smoking": "regularly"}
				return p
			}(),
			wantPass:   false,
			wantReason: ReasonDealbreaker,
		},
		{
			name:       "nil candidate fails closed",
			candidate:  nil,
			wantPass:   false,
			wantReason: ReasonDataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newMockStores()
			if tt.blocked && tt.candidate != nil {
				stores.blocked[[2]UserID{requester.ID, tt.candidate.ID}] = true
			}
			prefs := prefs
			prefs.Dealbreakers = map[string]string{"smoking": "regularly"}

			gate := NewConstraintGate(stores)
			got := gate.PassesGates(ctx, requester, tt.candidate, prefs)

			if got.Passes != tt.wantPass {
				t.Errorf("Passes = %v, want %v", got.Passes, tt.wantPass)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %v, want %v", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestPassesGatesBlockStoreError(t *testing.T) {
	stores := newMockStores()
	stores.blockErr = errors.New("store down")

	gate := NewConstraintGate(stores)
	got := gate.PassesGates(context.Background(), testRequester("req"), testProfile("c1", 30), testPrefs())

	if got.Passes {
		t.Fatal("expected fail-closed on block store error")
	}
	if got.Reason != ReasonDataUnavailable {
		t.Errorf("Reason = %v, want %v", got.Reason, ReasonDataUnavailable)
	}
}

func TestPassesGatesDeterministic(t *testing.T) {
	stores := newMockStores()
	gate := NewConstraintGate(stores)
	requester := testRequester("req")
	candidate := testProfile("c1", 30)
	prefs := testPrefs()

	first := gate.PassesGates(context.Background(), requester, candidate, prefs)
	for i := 0; i < 10; i++ {
		got := gate.PassesGates(context.Background(), requester, candidate, prefs)
		if got != first {
			t.Fatalf("gate result changed between identical calls: %+v vs %+v", got, first)
		}
	}
}

func TestPassesGatesZeroMaxDistanceSkipsCheck(t *testing.T) {
	stores := newMockStores()
	gate := NewConstraintGate(stores)

	candidate := testProfile("c1", 30)
	candidate.Latitude = 50 // far away

	prefs := testPrefs()
	prefs.MaxDistanceKM = 0 // no distance constraint declared

	got := gate.PassesGates(context.Background(), testRequester("req"), candidate, prefs)
	if !got.Passes {
		t.Errorf("expected pass with unset distance constraint, got reason %v", got.Reason)
	}
}

func TestHaversineKM(t *testing.T) {
	// Paris to London is roughly 344km.
	d := haversineKM(48.8566, 2.3522, 51.5074, -0.1278)
	if d < 330 || d > 360 {
		t.Errorf("haversineKM(Paris, London) = %f, want ~344", d)
	}

	if d := haversineKM(10, 20, 10, 20); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestGateReasonString(t *testing.T) {
	tests := []struct {
		reason GateReason
		want   string
	}{
		{ReasonNone, "none"},
		{ReasonBlocked, "blocked"},
		{ReasonAge, "age"},
		{ReasonDistance, "distance"},
		{ReasonOrientation, "orientation"},
		{ReasonDealbreaker, "dealbreaker"},
		{ReasonDataUnavailable, "data_unavailable"},
		{GateReason(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.want {
			t.Errorf("GateReason(%d).String() = %q, want %q", tt.reason, got, tt.want)
		}
	}
}
