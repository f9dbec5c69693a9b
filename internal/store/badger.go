// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/emberline/emberline/internal/match"
)

// Key prefixes for BadgerDB storage.
const (
	beliefKeyPrefix   = "belief:"
	exposureKeyPrefix = "exposure:"
)

// Open opens the embedded BadgerDB at path. An empty path opens an
// in-memory database, used in development mode and tests.
func Open(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	// Badger logs through its own interface; the server logs open/close
	// events itself, so the internal chatter is silenced.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// beliefRecord is the stored form of a Beta posterior.
type beliefRecord struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// BadgerBeliefStore persists Thompson-sampling posteriors in BadgerDB.
// Reads serve the exploration sampler; writes arrive from the outcome
// consumer.
type BadgerBeliefStore struct {
	db *badger.DB
}

// NewBadgerBeliefStore creates a BadgerDB-backed belief store.
func NewBadgerBeliefStore(db *badger.DB) *BadgerBeliefStore {
	return &BadgerBeliefStore{db: db}
}

// Beliefs returns the stored posteriors for the given IDs in one read
// transaction. IDs with no recorded outcomes are absent from the result.
func (s *BadgerBeliefStore) Beliefs(ctx context.Context, ids []match.UserID) (map[match.UserID]match.Belief, error) {
	out := make(map[match.UserID]match.Belief, len(ids))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get([]byte(beliefKeyPrefix + string(id)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get belief %s: %w", id, err)
			}

			var rec beliefRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshal belief %s: %w", id, err)
			}
			out[id] = match.Belief{Alpha: rec.Alpha, Beta: rec.Beta}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordOutcome folds one binary engagement outcome into a candidate's
// posterior with a read-modify-write transaction.
func (s *BadgerBeliefStore) RecordOutcome(ctx context.Context, id match.UserID, positive bool) error {
	key := []byte(beliefKeyPrefix + string(id))

	return s.db.Update(func(txn *badger.Txn) error {
		prior := match.NewBelief()
		rec := beliefRecord{Alpha: prior.Alpha, Beta: prior.Beta}

		item, err := txn.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshal belief %s: %w", id, err)
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get belief %s: %w", id, err)
		}

		if positive {
			rec.Alpha++
		} else {
			rec.Beta++
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal belief %s: %w", id, err)
		}
		return txn.Set(key, data)
	})
}

// exposureRecord is the stored form of one cohort's impression counter.
type exposureRecord struct {
	Count int64 `json:"count"`
}

// BadgerExposureTracker persists cohort impression counters in BadgerDB.
// Keys are exposure:<field>:<cohort>, so rates for one field are a single
// prefix scan.
type BadgerExposureTracker struct {
	db *badger.DB
}

// NewBadgerExposureTracker creates a BadgerDB-backed exposure tracker.
func NewBadgerExposureTracker(db *badger.DB) *BadgerExposureTracker {
	return &BadgerExposureTracker{db: db}
}

func exposureKey(cohortField, cohort string) []byte {
	return []byte(exposureKeyPrefix + cohortField + ":" + cohort)
}

// RecordImpression increments the impression counter for one cohort.
func (s *BadgerExposureTracker) RecordImpression(ctx context.Context, cohortField, cohort string) error {
	key := exposureKey(cohortField, cohort)

	return s.db.Update(func(txn *badger.Txn) error {
		var rec exposureRecord

		item, err := txn.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshal exposure %s/%s: %w", cohortField, cohort, err)
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get exposure %s/%s: %w", cohortField, cohort, err)
		}

		rec.Count++
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal exposure %s/%s: %w", cohortField, cohort, err)
		}
		return txn.Set(key, data)
	})
}

// ExposureRates returns each cohort's share of recorded impressions for
// the given field. An empty map means no impressions yet.
func (s *BadgerExposureTracker) ExposureRates(ctx context.Context, cohortField string) (map[string]float64, error) {
	counts := make(map[string]int64)
	var total int64

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(exposureKeyPrefix + cohortField + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			cohort := string(item.Key()[len(prefix):])

			var rec exposureRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshal exposure %s: %w", cohort, err)
			}
			counts[cohort] = rec.Count
			total += rec.Count
		}
		return nil
	})
	if err != nil {
		return nil, err
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
