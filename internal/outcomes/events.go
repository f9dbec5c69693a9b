// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package outcomes

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/emberline/emberline/internal/match"
)

// SchemaVersion is the current event schema version. Increment on breaking
// changes to Event.
const SchemaVersion = 1

// OutcomeType classifies one engagement event.
type OutcomeType string

// Outcome types, ordered by engagement depth.
const (
	// OutcomeImpression records that a candidate was shown in a feed.
	OutcomeImpression OutcomeType = "impression"

	// OutcomeLike records a right swipe.
	OutcomeLike OutcomeType = "like"

	// OutcomePass records a left swipe.
	OutcomePass OutcomeType = "pass"

	// OutcomeMatch records a mutual like.
	OutcomeMatch OutcomeType = "match"

	// OutcomeReply records a message reply after a match.
	OutcomeReply OutcomeType = "reply"
)

// Valid reports whether t is a known outcome type.
func (t OutcomeType) Valid() bool {
	switch t {
	case OutcomeImpression, OutcomeLike, OutcomePass, OutcomeMatch, OutcomeReply:
		return true
	}
	return false
}

// Positive reports whether the outcome counts as positive engagement for
// the subject's Beta posterior. Impressions are neutral: they update
// exposure, not beliefs.
func (t OutcomeType) Positive() bool {
	switch t {
	case OutcomeLike, OutcomeMatch, OutcomeReply:
		return true
	}
	return false
}

// Event is one engagement outcome. The actor performed the action; the
// subject received it (the candidate who was shown, liked, or replied to).
type Event struct {
	// SchemaVersion tracks the event format for forward compatibility.
	SchemaVersion int `json:"schema_version,omitempty"`

	EventID   string       `json:"event_id"`
	Type      OutcomeType  `json:"type"`
	ActorID   match.UserID `json:"actor_id"`
	SubjectID match.UserID `json:"subject_id"`
	Timestamp time.Time    `json:"timestamp"`

	// Cohorts carries the subject's cohort values at event time, keyed by
	// cohort field ("gender", "region", "language"). Impressions use these
	// to update exposure counters without a profile lookup on the consume
	// path.
	Cohorts map[string]string `json:"cohorts,omitempty"`
}

// NewEvent creates an event with a unique ID, timestamp, and schema version.
func NewEvent(t OutcomeType, actor, subject match.UserID) *Event {
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		Type:          t,
		ActorID:       actor,
		SubjectID:     subject,
		Timestamp:     time.Now().UTC(),
	}
}

// Validate checks required fields.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id: required")
	}
	if !e.Type.Valid() {
		return fmt.Errorf("type: unknown outcome type %q", e.Type)
	}
	if e.ActorID == "" {
		return fmt.Errorf("actor_id: required")
	}
	if e.SubjectID == "" {
		return fmt.Errorf("subject_id: required")
	}
	if e.SubjectID == e.ActorID {
		return fmt.Errorf("subject_id: must differ from actor_id")
	}
	return nil
}

// Topic returns the pubsub subject for this event.
// Format: outcomes.<type>, e.g. outcomes.like.
func (e *Event) Topic() string {
	return "outcomes." + string(e.Type)
}

// WildcardTopic matches every outcome subject.
const WildcardTopic = "outcomes.>"

// Marshal encodes the event after validating it.
func (e *Event) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalEvent decodes one event. Events without an explicit schema
// version are treated as version 1.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = 1
	}
	return &e, nil
}
