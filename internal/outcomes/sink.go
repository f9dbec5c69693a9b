// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package outcomes

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberline/emberline/internal/metrics"
)

// DirectSink applies outcome events synchronously, without a broker.
// Single-instance deployments and development mode use it in place of
// the NATS pipeline.
type DirectSink struct {
	beliefs  BeliefRecorder
	exposure ImpressionRecorder
	seen     SeenRecorder // optional
	logger   zerolog.Logger
}

// NewDirectSink wires the sink to the same recorders the broker consumer
// would use. seen may be nil.
func NewDirectSink(beliefs BeliefRecorder, exposure ImpressionRecorder, seen SeenRecorder, logger zerolog.Logger) *DirectSink {
	return &DirectSink{
		beliefs:  beliefs,
		exposure: exposure,
		seen:     seen,
		logger:   logger.With().Str("component", "outcomes").Logger(),
	}
}

// Apply validates and folds one event into the stores.
func (s *DirectSink) Apply(ctx context.Context, event *Event) error {
	if err := event.Validate(); err != nil {
		metrics.RecordOutcomeDropped("invalid")
		return fmt.Errorf("invalid outcome event: %w", err)
	}

	start := time.Now()
	if err := applyEvent(ctx, s.beliefs, s.exposure, s.seen, event); err != nil {
		return err
	}
	metrics.RecordOutcomeConsumed(string(event.Type), time.Since(start))
	return nil
}
