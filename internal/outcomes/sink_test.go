// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package outcomes

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/store"
)

func TestDirectSinkAppliesSwipes(t *testing.T) {
	mem := store.NewMemory()
	sink := NewDirectSink(mem, mem, mem, zerolog.Nop())

	ctx := context.Background()
	for _, e := range []*Event{
		NewEvent(OutcomeLike, "a", "b"),
		NewEvent(OutcomeMatch, "c", "b"),
		NewEvent(OutcomePass, "d", "b"),
	} {
		if err := sink.Apply(ctx, e); err != nil {
			t.Fatalf("Apply(%s): %v", e.Type, err)
		}
	}

	beliefs, err := mem.Beliefs(ctx, []match.UserID{"b"})
	if err != nil {
		t.Fatalf("Beliefs: %v", err)
	}
	b := beliefs["b"]
	// Prior Beta(1,1) plus two positives and one pass.
	if b.Alpha != 3 || b.Beta != 2 {
		t.Errorf("belief = %+v, want Alpha=3 Beta=2", b)
	}
}

func TestDirectSinkAppliesImpressions(t *testing.T) {
	mem := store.NewMemory()
	sink := NewDirectSink(mem, mem, mem, zerolog.Nop())

	ctx := context.Background()
	e := NewEvent(OutcomeImpression, "viewer", "candidate")
	e.Cohorts = map[string]string{"gender": "woman"}
	if err := sink.Apply(ctx, e); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rates, err := mem.ExposureRates(ctx, "gender")
	if err != nil {
		t.Fatalf("ExposureRates: %v", err)
	}
	if rates["woman"] != 1.0 {
		t.Errorf("rates = %v, want woman=1.0", rates)
	}

	seen, err := mem.RecentlySeen(ctx, "viewer", 10)
	if err != nil {
		t.Fatalf("RecentlySeen: %v", err)
	}
	if len(seen) != 1 || seen[0] != "candidate" {
		t.Errorf("seen = %v, want [candidate]", seen)
	}
}

func TestDirectSinkRejectsInvalid(t *testing.T) {
	mem := store.NewMemory()
	sink := NewDirectSink(mem, mem, nil, zerolog.Nop())

	e := NewEvent(OutcomeLike, "a", "a")
	if err := sink.Apply(context.Background(), e); err == nil {
		t.Error("expected validation error for self outcome")
	}
}
