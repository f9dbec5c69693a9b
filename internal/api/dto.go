// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package api

import (
	"time"

	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/outcomes"
)

// APIResponse is the envelope shared by every JSON endpoint.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only on failure.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries per-response diagnostics.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Cached    bool      `json:"cached,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError describes a failed request in a machine-readable way.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes used across endpoints.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInvalidPreferences = "INVALID_PREFERENCES"
	CodeUpstreamDown       = "UPSTREAM_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
	CodePublishFailed      = "PUBLISH_FAILED"
)

// FeedRequestBody is the POST body for feed generation. The requester ID
// comes from the URL, not the body.
type FeedRequestBody struct {
	Preferences PreferencesBody `json:"preferences" validate:"required"`

	// FeedSize caps the total feed length. Zero selects the server default.
	FeedSize int `json:"feed_size" validate:"gte=0"`

	Session SessionBody `json:"session"`
}

// PreferencesBody mirrors the requester's hard constraints.
type PreferencesBody struct {
	AgeMin          int               `json:"age_min" validate:"gt=0"`
	AgeMax          int               `json:"age_max" validate:"gtefield=AgeMin"`
	MaxDistanceKM   float64           `json:"max_distance_km" validate:"gte=0"`
	AcceptedGenders []string          `json:"accepted_genders" validate:"min=1,dive,required"`
	Dealbreakers    map[string]string `json:"dealbreakers,omitempty"`
}

// SessionBody carries ephemeral session state that biases diversity.
type SessionBody struct {
	Latitude   float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" validate:"gte=-180,lte=180"`
	HourBucket int     `json:"hour_bucket" validate:"gte=0,lte=23"`
	Weekday    int     `json:"weekday" validate:"gte=0,lte=6"`

	SessionSwipes    int `json:"session_swipes" validate:"gte=0"`
	SessionLikes     int `json:"session_likes" validate:"gte=0"`
	SessionElapsedMS int `json:"session_elapsed_ms" validate:"gte=0"`
}

// toFeedRequest converts the body into the engine's request type.
func (b *FeedRequestBody) toFeedRequest(requesterID match.UserID) match.FeedRequest {
	return match.FeedRequest{
		RequesterID: requesterID,
		FeedSize:    b.FeedSize,
		Preferences: match.UserPreferences{
			AgeMin:          b.Preferences.AgeMin,
			AgeMax:          b.Preferences.AgeMax,
			MaxDistanceKM:   b.Preferences.MaxDistanceKM,
			AcceptedGenders: b.Preferences.AcceptedGenders,
			Dealbreakers:    b.Preferences.Dealbreakers,
		},
		Context: match.MatchingContext{
			Latitude:       b.Session.Latitude,
			Longitude:      b.Session.Longitude,
			HourBucket:     b.Session.HourBucket,
			Weekday:        b.Session.Weekday,
			SessionSwipes:  b.Session.SessionSwipes,
			SessionLikes:   b.Session.SessionLikes,
			SessionElapsed: time.Duration(b.Session.SessionElapsedMS) * time.Millisecond,
		},
	}
}

// OutcomeBody is the POST body for outcome ingestion.
type OutcomeBody struct {
	Type      string `json:"type" validate:"required,oneof=impression like pass match reply"`
	ActorID   string `json:"actor_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required,nefield=ActorID"`

	// Cohorts optionally carries the subject's cohort values for impression
	// accounting. When empty the server fills it from the profile store.
	Cohorts map[string]string `json:"cohorts,omitempty"`
}

// toEvent converts the body into a validated pipeline event.
func (b *OutcomeBody) toEvent() *outcomes.Event {
	event := outcomes.NewEvent(
		outcomes.OutcomeType(b.Type),
		match.UserID(b.ActorID),
		match.UserID(b.SubjectID),
	)
	event.Cohorts = b.Cohorts
	return event
}
