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

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/metrics"
)

// BreakerConfig tunes the circuit protection around upstream stores.
type BreakerConfig struct {
	// MaxRequests allowed through in half-open state.
	MaxRequests uint32 `json:"max_requests"`

	// Interval resets the failure counts while closed.
	Interval time.Duration `json:"interval"`

	// Timeout before an open circuit transitions to half-open.
	Timeout time.Duration `json:"timeout"`

	// MinRequests before the failure ratio is considered meaningful.
	MinRequests uint32 `json:"min_requests"`

	// FailureRatio at or above which the circuit opens.
	FailureRatio float64 `json:"failure_ratio"`

	// CallTimeout bounds each individual upstream call.
	CallTimeout time.Duration `json:"call_timeout"`
}

// DefaultBreakerConfig returns production defaults: open after a 60%
// failure rate over at least 10 requests, recover after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
		CallTimeout:  2 * time.Second,
	}
}

func newBreaker(name string, cfg BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			metrics.SetBreakerState(name, int(to))
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
		},
	})
}

// execute runs fn under the breaker with a per-call timeout. A rejected
// call (open circuit) surfaces as match.ErrUnavailable so the gate fails
// closed instead of bubbling a transport error through scoring.
func execute(ctx context.Context, cb *gobreaker.CircuitBreaker[any], timeout time.Duration, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := cb.Execute(func() (any, error) {
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", match.ErrUnavailable, err)
		}
		return nil, err
	}
	return result, nil
}

func cast[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// BreakerProfileStore wraps an upstream ProfileStore with circuit
// protection and per-call timeouts.
type BreakerProfileStore struct {
	inner   match.ProfileStore
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

// NewBreakerProfileStore wraps inner with the given breaker configuration.
func NewBreakerProfileStore(inner match.ProfileStore, cfg BreakerConfig, logger zerolog.Logger) *BreakerProfileStore {
	return &BreakerProfileStore{
		inner:   inner,
		cb:      newBreaker("profile-store", cfg, logger),
		timeout: cfg.CallTimeout,
	}
}

// Profile fetches one profile with circuit protection.
func (s *BreakerProfileStore) Profile(ctx context.Context, id match.UserID) (*match.Profile, error) {
	return cast[*match.Profile](execute(ctx, s.cb, s.timeout, func(ctx context.Context) (any, error) {
		return s.inner.Profile(ctx, id)
	}))
}

// Profiles fetches a batch of profiles with circuit protection.
func (s *BreakerProfileStore) Profiles(ctx context.Context, ids []match.UserID) (map[match.UserID]*match.Profile, error) {
	return cast[map[match.UserID]*match.Profile](execute(ctx, s.cb, s.timeout, func(ctx context.Context) (any, error) {
		return s.inner.Profiles(ctx, ids)
	}))
}

// BreakerEmbeddingStore wraps an upstream EmbeddingStore with circuit
// protection and per-call timeouts.
type BreakerEmbeddingStore struct {
	inner   match.EmbeddingStore
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

// NewBreakerEmbeddingStore wraps inner with the given breaker configuration.
func NewBreakerEmbeddingStore(inner match.EmbeddingStore, cfg BreakerConfig, logger zerolog.Logger) *BreakerEmbeddingStore {
	return &BreakerEmbeddingStore{
		inner:   inner,
		cb:      newBreaker("embedding-store", cfg, logger),
		timeout: cfg.CallTimeout,
	}
}

// Embedding fetches one embedding with circuit protection.
func (s *BreakerEmbeddingStore) Embedding(ctx context.Context, id match.UserID) ([]float64, error) {
	return cast[[]float64](execute(ctx, s.cb, s.timeout, func(ctx context.Context) (any, error) {
		return s.inner.Embedding(ctx, id)
	}))
}
