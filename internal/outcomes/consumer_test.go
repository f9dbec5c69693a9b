// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package outcomes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/store"
)

const testTopic = "outcomes.test"

func testConsumer(t *testing.T, mem *store.Memory) (*Consumer, message.Publisher) {
	t.Helper()

	// Persistent so messages published before the consumer's Subscribe
	// takes effect are still delivered.
	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() {
		if err := pubsub.Close(); err != nil {
			t.Errorf("close pubsub: %v", err)
		}
	})

	cfg := DefaultConsumerConfig()
	// The in-process pubsub delivers on exact topics only.
	cfg.Topic = testTopic

	consumer, err := NewConsumer(cfg, pubsub, mem, mem, mem, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return consumer, pubsub
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func publishEvent(t *testing.T, pub message.Publisher, e *Event) {
	t.Helper()
	payload, err := e.Marshal()
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := pub.Publish(testTopic, message.NewMessage(e.EventID, payload)); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestConsumerAppliesSwipes(t *testing.T) {
	mem := store.NewMemory()
	consumer, pub := testConsumer(t, mem)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- consumer.Serve(ctx) }()

	publishEvent(t, pub, NewEvent(OutcomeLike, "a", "b"))
	publishEvent(t, pub, NewEvent(OutcomeLike, "c", "b"))
	publishEvent(t, pub, NewEvent(OutcomePass, "d", "b"))

	waitFor(t, func() bool { return consumer.Snapshot().Consumed == 3 })

	beliefs, err := mem.Beliefs(context.Background(), []match.UserID{"b"})
	if err != nil {
		t.Fatalf("Beliefs: %v", err)
	}
	b := beliefs["b"]
	// Prior Beta(1,1) plus two likes and one pass.
	if b.Alpha != 3 || b.Beta != 2 {
		t.Errorf("belief = %+v, want Alpha=3 Beta=2", b)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

func TestConsumerAppliesImpressions(t *testing.T) {
	mem := store.NewMemory()
	consumer, pub := testConsumer(t, mem)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Serve(ctx) }()

	e := NewEvent(OutcomeImpression, "viewer", "candidate")
	e.Cohorts = map[string]string{"gender": "woman"}
	publishEvent(t, pub, e)

	waitFor(t, func() bool { return consumer.Snapshot().Consumed == 1 })

	rates, err := mem.ExposureRates(context.Background(), "gender")
	if err != nil {
		t.Fatalf("ExposureRates: %v", err)
	}
	if rates["woman"] != 1.0 {
		t.Errorf("rates = %v, want woman=1.0", rates)
	}

	seen, err := mem.RecentlySeen(context.Background(), "viewer", 10)
	if err != nil {
		t.Fatalf("RecentlySeen: %v", err)
	}
	if len(seen) != 1 || seen[0] != "candidate" {
		t.Errorf("seen = %v, want [candidate]", seen)
	}
}

func TestConsumerDropsMalformed(t *testing.T) {
	mem := store.NewMemory()
	consumer, pub := testConsumer(t, mem)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Serve(ctx) }()

	if err := pub.Publish(testTopic, message.NewMessage("bad", []byte("not json"))); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// A structurally valid but semantically broken event is also dropped.
	if err := pub.Publish(testTopic, message.NewMessage("bad2", []byte(`{"event_id":"x","type":"wink","actor_id":"a","subject_id":"b"}`))); err != nil {
		t.Fatalf("publish: %v", err)
	}
	publishEvent(t, pub, NewEvent(OutcomeLike, "a", "b"))

	waitFor(t, func() bool {
		s := consumer.Snapshot()
		return s.Dropped == 2 && s.Consumed == 1
	})
}

func TestApplyDirect(t *testing.T) {
	mem := store.NewMemory()
	consumer, _ := testConsumer(t, mem)
	ctx := context.Background()

	if err := consumer.Apply(ctx, NewEvent(OutcomeMatch, "a", "b")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := consumer.Apply(ctx, NewEvent(OutcomeReply, "a", "b")); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	beliefs, err := mem.Beliefs(ctx, []match.UserID{"b"})
	if err != nil {
		t.Fatalf("Beliefs: %v", err)
	}
	if b := beliefs["b"]; b.Alpha != 3 || b.Beta != 1 {
		t.Errorf("belief = %+v, want Alpha=3 Beta=1", b)
	}
}

func TestNewConsumerValidation(t *testing.T) {
	mem := store.NewMemory()
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	if _, err := NewConsumer(DefaultConsumerConfig(), nil, mem, mem, nil, zerolog.Nop()); err == nil {
		t.Error("expected error without subscriber")
	}
	if _, err := NewConsumer(DefaultConsumerConfig(), pubsub, nil, mem, nil, zerolog.Nop()); err == nil {
		t.Error("expected error without belief recorder")
	}
	if _, err := NewConsumer(DefaultConsumerConfig(), pubsub, mem, nil, nil, zerolog.Nop()); err == nil {
		t.Error("expected error without impression recorder")
	}

	// seen recorder is optional.
	if _, err := NewConsumer(DefaultConsumerConfig(), pubsub, mem, mem, nil, zerolog.Nop()); err != nil {
		t.Errorf("NewConsumer without seen recorder: %v", err)
	}
}
