// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package store

import (
	"context"
	"math"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/emberline/emberline/internal/match"
)

// testDB opens an in-memory BadgerDB for the test and closes it on cleanup.
func testDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := Open("")
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close badger: %v", err)
		}
	})
	return db
}

func TestOpenPersistentPath(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("close badger: %v", err)
	}
}

func TestBadgerBeliefStoreRoundTrip(t *testing.T) {
	store := NewBadgerBeliefStore(testDB(t))
	ctx := context.Background()

	beliefs, err := store.Beliefs(ctx, []match.UserID{"a", "b"})
	if err != nil {
		t.Fatalf("Beliefs: %v", err)
	}
	if len(beliefs) != 0 {
		t.Errorf("beliefs = %v, want empty before outcomes", beliefs)
	}

	if err := store.RecordOutcome(ctx, "a", true); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.RecordOutcome(ctx, "a", false); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.RecordOutcome(ctx, "a", false); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.RecordOutcome(ctx, "b", true); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	beliefs, err = store.Beliefs(ctx, []match.UserID{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Beliefs: %v", err)
	}
	if len(beliefs) != 2 {
		t.Fatalf("got %d beliefs, want 2", len(beliefs))
	}
	if a := beliefs["a"]; a.Alpha != 2 || a.Beta != 3 {
		t.Errorf("belief a = %+v, want Alpha=2 Beta=3", a)
	}
	if b := beliefs["b"]; b.Alpha != 2 || b.Beta != 1 {
		t.Errorf("belief b = %+v, want Alpha=2 Beta=1", b)
	}
}

func TestBadgerExposureTracker(t *testing.T) {
	tracker := NewBadgerExposureTracker(testDB(t))
	ctx := context.Background()

	rates, err := tracker.ExposureRates(ctx, "gender")
	if err != nil {
		t.Fatalf("ExposureRates: %v", err)
	}
	if len(rates) != 0 {
		t.Errorf("rates = %v, want empty before impressions", rates)
	}

	for i := 0; i < 8; i++ {
		if err := tracker.RecordImpression(ctx, "gender", "woman"); err != nil {
			t.Fatalf("RecordImpression: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := tracker.RecordImpression(ctx, "gender", "nonbinary"); err != nil {
			t.Fatalf("RecordImpression: %v", err)
		}
	}
	// A different field must not leak into gender rates.
	if err := tracker.RecordImpression(ctx, "region", "pnw"); err != nil {
		t.Fatalf("RecordImpression: %v", err)
	}

	rates, err = tracker.ExposureRates(ctx, "gender")
	if err != nil {
		t.Fatalf("ExposureRates: %v", err)
	}
	if len(rates) != 2 {
		t.Fatalf("rates = %v, want two cohorts", rates)
	}
	if math.Abs(rates["woman"]-0.8) > 1e-12 {
		t.Errorf("woman rate = %f, want 0.8", rates["woman"])
	}
	if math.Abs(rates["nonbinary"]-0.2) > 1e-12 {
		t.Errorf("nonbinary rate = %f, want 0.2", rates["nonbinary"])
	}
}

func TestBadgerStoresShareDB(t *testing.T) {
	db := testDB(t)
	beliefs := NewBadgerBeliefStore(db)
	tracker := NewBadgerExposureTracker(db)
	ctx := context.Background()

	if err := beliefs.RecordOutcome(ctx, "gender", true); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := tracker.RecordImpression(ctx, "gender", "woman"); err != nil {
		t.Fatalf("RecordImpression: %v", err)
	}

	// Key prefixes keep the two stores from colliding even with
	// overlapping identifiers.
	got, err := beliefs.Beliefs(ctx, []match.UserID{"gender"})
	if err != nil {
		t.Fatalf("Beliefs: %v", err)
	}
	if b := got["gender"]; b.Alpha != 2 || b.Beta != 1 {
		t.Errorf("belief = %+v, want Alpha=2 Beta=1", b)
	}
}
