// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
	"math"
)

// ConstraintGate applies hard pass/fail eligibility checks. It has no
// learned component and is deterministic given the same data. Checks run
// cheapest and most safety-critical first and short-circuit on the first
// failure.
type ConstraintGate struct {
	blocks BlockStore
}

// NewConstraintGate creates a constraint gate backed by the given block store.
func NewConstraintGate(blocks BlockStore) *ConstraintGate {
	return &ConstraintGate{blocks: blocks}
}

// GateResult reports the outcome of gating one candidate.
type GateResult struct {
	Passes bool
	Reason GateReason
}

// PassesGates checks a candidate against the requester's hard constraints.
// Order: block exclusion, age, distance, orientation, dealbreakers.
//
// Any upstream fetch error fails closed with ReasonDataUnavailable: a
// candidate the engine cannot verify as safe and eligible is never shown.
// A nil candidate profile counts as unavailable data.
func (g *ConstraintGate) PassesGates(ctx context.Context, requester *Profile, candidate *Profile, prefs UserPreferences) GateResult {
	if requester == nil || candidate == nil {
		return GateResult{Passes: false, Reason: ReasonDataUnavailable}
	}

	blocked, err := g.blocks.IsBlocked(ctx, requester.ID, candidate.ID)
	if err != nil {
		return GateResult{Passes: false, Reason: ReasonDataUnavailable}
	}
	if blocked {
		return GateResult{Passes: false, Reason: ReasonBlocked}
	}

	if candidate.Age < prefs.AgeMin || candidate.Age > prefs.AgeMax {
		return GateResult{Passes: false, Reason: ReasonAge}
	}

	if prefs.MaxDistanceKM > 0 {
		dist := haversineKM(requester.Latitude, requester.Longitude, candidate.Latitude, candidate.Longitude)
		if dist > prefs.MaxDistanceKM {
			return GateResult{Passes: false, Reason: ReasonDistance}
		}
	}

	if !orientationCompatible(requester, candidate, prefs) {
		return GateResult{Passes: false, Reason: ReasonOrientation}
	}

	for attr, rejected := range prefs.Dealbreakers {
		if val, ok := candidate.Attributes[attr]; ok && val == rejected {
			return GateResult{Passes: false, Reason: ReasonDealbreaker}
		}
	}

	return GateResult{Passes: true, Reason: ReasonNone}
}

// orientationCompatible requires the match to work in both directions: the
// candidate's gender must be in the requester's accepted set, and the
// requester's gender must be in the candidate's seeking set.
func orientationCompatible(requester, candidate *Profile, prefs UserPreferences) bool {
	if !containsString(prefs.AcceptedGenders, candidate.Gender) {
		return false
	}
	return containsString(candidate.SeekingGenders, requester.Gender)
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// earthRadiusKM is the mean Earth radius used for distance gating.
const earthRadiusKM = 6371.0

// haversineKM returns the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
