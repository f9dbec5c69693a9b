// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package outcomes

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/metrics"
)

// BeliefRecorder folds binary engagement outcomes into Beta posteriors.
type BeliefRecorder interface {
	RecordOutcome(ctx context.Context, id match.UserID, positive bool) error
}

// ImpressionRecorder counts candidate impressions per cohort.
type ImpressionRecorder interface {
	RecordImpression(ctx context.Context, cohortField, cohort string) error
}

// SeenRecorder tracks which candidates a viewer has recently seen, feeding
// the diversity multiplier.
type SeenRecorder interface {
	RecordSeen(viewer, candidate match.UserID)
}

// ConsumerConfig tunes the outcome consumer.
type ConsumerConfig struct {
	// Topic to subscribe to. Defaults to the outcomes wildcard.
	Topic string `json:"topic"`

	// RatePerSecond bounds store writes so an event replay cannot swamp
	// the embedded database. Zero disables the limit.
	RatePerSecond float64 `json:"rate_per_second"`

	// Burst for the rate limiter.
	Burst int `json:"burst"`
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topic:         WildcardTopic,
		RatePerSecond: 500,
		Burst:         100,
	}
}

// Consumer subscribes to outcome events and applies them to the belief
// store and exposure tracker. It implements suture.Service via Serve.
type Consumer struct {
	subscriber message.Subscriber
	beliefs    BeliefRecorder
	exposure   ImpressionRecorder
	seen       SeenRecorder // optional
	limiter    *rate.Limiter
	topic      string
	logger     zerolog.Logger

	consumed atomic.Int64
	dropped  atomic.Int64
}

// NewConsumer creates an outcome consumer. seen may be nil when recently
// seen tracking lives upstream.
func NewConsumer(cfg ConsumerConfig, subscriber message.Subscriber, beliefs BeliefRecorder, exposure ImpressionRecorder, seen SeenRecorder, logger zerolog.Logger) (*Consumer, error) {
	if subscriber == nil {
		return nil, fmt.Errorf("outcome consumer requires a subscriber")
	}
	if beliefs == nil {
		return nil, fmt.Errorf("outcome consumer requires a belief recorder")
	}
	if exposure == nil {
		return nil, fmt.Errorf("outcome consumer requires an impression recorder")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = WildcardTopic
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Consumer{
		subscriber: subscriber,
		beliefs:    beliefs,
		exposure:   exposure,
		seen:       seen,
		limiter:    limiter,
		topic:      topic,
		logger:     logger.With().Str("component", "outcomes").Logger(),
	}, nil
}

// Serve consumes events until the context is canceled. Messages are acked
// on success and on permanently malformed payloads; transient store
// failures nack so the broker redelivers.
func (c *Consumer) Serve(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	c.logger.Info().Str("topic", c.topic).Msg("outcome consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			c.processMessage(ctx, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *message.Message) {
	event, err := UnmarshalEvent(msg.Payload)
	cause := "malformed"
	if err == nil {
		err = event.Validate()
		cause = "invalid"
	}
	if err != nil {
		// Poison message: redelivery cannot fix it. Ack and count it.
		c.dropped.Add(1)
		metrics.RecordOutcomeDropped(cause)
		c.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed outcome event")
		msg.Ack()
		return
	}

	start := time.Now()
	if err := c.Apply(ctx, event); err != nil {
		c.logger.Error().Err(err).
			Str("event_id", event.EventID).
			Str("type", string(event.Type)).
			Msg("applying outcome failed, nacking for redelivery")
		msg.Nack()
		return
	}

	c.consumed.Add(1)
	metrics.RecordOutcomeConsumed(string(event.Type), time.Since(start))
	msg.Ack()
}

// Apply folds one validated event into the stores.
func (c *Consumer) Apply(ctx context.Context, event *Event) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return applyEvent(ctx, c.beliefs, c.exposure, c.seen, event)
}

// applyEvent is the single fold shared by the broker consumer and the
// in-process sink.
func applyEvent(ctx context.Context, beliefs BeliefRecorder, exposure ImpressionRecorder, seen SeenRecorder, event *Event) error {
	switch event.Type {
	case OutcomeImpression:
		for field, cohort := range event.Cohorts {
			if err := exposure.RecordImpression(ctx, field, cohort); err != nil {
				return fmt.Errorf("record impression for %s: %w", event.SubjectID, err)
			}
		}
		if seen != nil {
			seen.RecordSeen(event.ActorID, event.SubjectID)
		}
		return nil
	case OutcomeLike, OutcomePass, OutcomeMatch, OutcomeReply:
		if err := beliefs.RecordOutcome(ctx, event.SubjectID, event.Type.Positive()); err != nil {
			return fmt.Errorf("record outcome for %s: %w", event.SubjectID, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown outcome type %q", event.Type)
	}
}

// Stats is a snapshot of consumer counters.
type Stats struct {
	Consumed int64 `json:"consumed"`
	Dropped  int64 `json:"dropped"`
}

// Snapshot returns current consumer counters.
func (c *Consumer) Snapshot() Stats {
	return Stats{
		Consumed: c.consumed.Load(),
		Dropped:  c.dropped.Load(),
	}
}

// CohortsFor extracts the cohort values an impression event should carry
// for a profile, covering every field the calibrator can group by.
func CohortsFor(p *match.Profile) map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string, 3)
	if p.Gender != "" {
		out["gender"] = p.Gender
	}
	if p.Region != "" {
		out["region"] = p.Region
	}
	if p.Language != "" {
		out["language"] = p.Language
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
