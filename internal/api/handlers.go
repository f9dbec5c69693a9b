// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/emberline/emberline/internal/logging"
	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/outcomes"
	"github.com/emberline/emberline/internal/store"
)

// OutcomeSink applies outcome events directly, bypassing the broker. Used
// when the NATS pipeline is disabled.
type OutcomeSink interface {
	Apply(ctx context.Context, event *outcomes.Event) error
}

// HandlerDeps bundles handler collaborators. Engine is required; the rest
// degrade gracefully when nil.
type HandlerDeps struct {
	Engine *match.Engine

	// Cache serves repeated feed requests. Nil disables caching.
	Cache *store.FeedCache

	// Publisher routes outcomes through the broker. When nil, Sink is
	// used instead.
	Publisher message.Publisher
	Sink      OutcomeSink

	// Profiles backfills cohort values on impression outcomes.
	Profiles match.ProfileStore

	// Ready reports backend readiness for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Handler serves the HTTP endpoints.
type Handler struct {
	deps      HandlerDeps
	validate  *validator.Validate
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps HandlerDeps, logger zerolog.Logger) *Handler {
	return &Handler{
		deps:      deps,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
}

// respondJSON writes the shared envelope with the request ID from context.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, resp *APIResponse) {
	resp.Metadata.Timestamp = time.Now().UTC()
	resp.Metadata.RequestID = logging.RequestIDFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(resp)
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("marshaling response failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("writing response failed")
	}
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, &APIResponse{
		Status: "error",
		Error:  &APIError{Code: code, Message: message},
	})
}

// decodeBody unmarshals and validates a request body. It writes the error
// response itself and reports whether decoding succeeded.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidationError, err.Error())
		return false
	}
	return true
}
