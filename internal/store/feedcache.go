// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/emberline/emberline/internal/match"
)

const feedKeyPrefix = "feed:"

// FeedCache stores generated feeds per requester with a TTL. The engine
// itself stays stateless; the API layer decides when a cached feed is
// acceptable and when to regenerate.
type FeedCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewFeedCache creates a BadgerDB-backed feed cache. Entries expire after
// ttl; a non-positive ttl disables expiry.
func NewFeedCache(db *badger.DB, ttl time.Duration) *FeedCache {
	return &FeedCache{db: db, ttl: ttl}
}

// Get returns the cached feed for a requester. The second return value is
// false on a miss or after expiry.
func (c *FeedCache) Get(ctx context.Context, requesterID match.UserID) (*match.FeedResult, bool, error) {
	var result match.FeedResult

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(feedKeyPrefix + string(requesterID)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached feed for %s: %w", requesterID, err)
	}
	return &result, true, nil
}

// Put caches a feed for a requester, replacing any previous entry.
func (c *FeedCache) Put(ctx context.Context, requesterID match.UserID, feed *match.FeedResult) error {
	data, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("marshal feed for %s: %w", requesterID, err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(feedKeyPrefix+string(requesterID)), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Invalidate drops the cached feed for a requester. Called when a swipe or
// a preference change makes the cached ranking stale.
func (c *FeedCache) Invalidate(ctx context.Context, requesterID match.UserID) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(feedKeyPrefix + string(requesterID)))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("invalidate feed for %s: %w", requesterID, err)
	}
	return nil
}
