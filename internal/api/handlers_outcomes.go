// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package api

import (
	"net/http"

	"github.com/emberline/emberline/internal/logging"
	"github.com/emberline/emberline/internal/metrics"
	"github.com/emberline/emberline/internal/outcomes"
)

// PostOutcome handles POST /api/v1/outcomes.
//
// The event is published to the broker when one is configured; otherwise
// it is applied to the stores in-process. Either way the client gets a
// 202 with the event ID once the outcome is accepted.
func (h *Handler) PostOutcome(w http.ResponseWriter, r *http.Request) {
	var body OutcomeBody
	if !h.decodeBody(w, r, &body) {
		return
	}

	event := body.toEvent()
	if event.Type == outcomes.OutcomeImpression && len(event.Cohorts) == 0 {
		h.backfillCohorts(r, event)
	}
	if err := event.Validate(); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	if h.deps.Publisher != nil {
		if err := outcomes.Publish(h.deps.Publisher, event); err != nil {
			logger := logging.FromContext(r.Context())
			logger.Error().Err(err).
				Str("event_id", event.EventID).
				Msg("publishing outcome failed")
			respondError(w, r, http.StatusServiceUnavailable, CodePublishFailed, "outcome could not be published")
			return
		}
		metrics.RecordOutcomePublished()
	} else if h.deps.Sink != nil {
		if err := h.deps.Sink.Apply(r.Context(), event); err != nil {
			logger := logging.FromContext(r.Context())
			logger.Error().Err(err).
				Str("event_id", event.EventID).
				Msg("applying outcome failed")
			respondError(w, r, http.StatusInternalServerError, CodeInternal, "outcome could not be applied")
			return
		}
	}

	respondJSON(w, r, http.StatusAccepted, &APIResponse{
		Status: "success",
		Data:   map[string]string{"event_id": event.EventID},
	})
}

// backfillCohorts fills impression cohort values from the subject's
// profile so the consumer never needs a profile lookup.
func (h *Handler) backfillCohorts(r *http.Request, event *outcomes.Event) {
	if h.deps.Profiles == nil {
		return
	}
	profile, err := h.deps.Profiles.Profile(r.Context(), event.SubjectID)
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Debug().Err(err).
			Str("subject_id", string(event.SubjectID)).
			Msg("cohort backfill skipped, profile unavailable")
		return
	}
	event.Cohorts = outcomes.CohortsFor(profile)
}
