// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emberline/emberline/internal/logging"
	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/metrics"
)

// GenerateFeed handles POST /api/v1/users/{userID}/feed.
//
// A cached feed is served when present unless the client passes
// ?refresh=true. Fresh results are cached for subsequent requests.
func (h *Handler) GenerateFeed(w http.ResponseWriter, r *http.Request) {
	requesterID := match.UserID(chi.URLParam(r, "userID"))
	if requesterID == "" {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "user ID is required")
		return
	}

	var body FeedRequestBody
	if !h.decodeBody(w, r, &body) {
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"
	if h.deps.Cache != nil && !refresh {
		cached, ok, err := h.deps.Cache.Get(r.Context(), requesterID)
		if err != nil {
			logger := logging.FromContext(r.Context())
			logger.Warn().Err(err).Msg("feed cache lookup failed")
		}
		metrics.RecordFeedCache(ok)
		if ok {
			respondJSON(w, r, http.StatusOK, &APIResponse{
				Status:   "success",
				Data:     cached,
				Metadata: Metadata{Cached: true},
			})
			return
		}
	}

	start := time.Now()
	result, err := h.deps.Engine.GenerateFeed(r.Context(), body.toFeedRequest(requesterID))
	if err != nil {
		status, code := http.StatusInternalServerError, CodeInternal
		switch {
		case errors.Is(err, match.ErrInvalidPreferences):
			status, code = http.StatusBadRequest, CodeInvalidPreferences
		case errors.Is(err, match.ErrUnavailable):
			status, code = http.StatusServiceUnavailable, CodeUpstreamDown
		}
		metrics.RecordFeedRequest("error", time.Since(start), 0)
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).
			Str("requester_id", string(requesterID)).
			Msg("feed generation failed")
		respondError(w, r, status, code, err.Error())
		return
	}

	h.recordFeedMetrics(result, time.Since(start))

	if h.deps.Cache != nil {
		if err := h.deps.Cache.Put(r.Context(), requesterID, result); err != nil {
			logger := logging.FromContext(r.Context())
			logger.Warn().Err(err).Msg("feed cache store failed")
		}
	}

	respondJSON(w, r, http.StatusOK, &APIResponse{Status: "success", Data: result})
}

// InvalidateFeed handles DELETE /api/v1/users/{userID}/feed.
func (h *Handler) InvalidateFeed(w http.ResponseWriter, r *http.Request) {
	requesterID := match.UserID(chi.URLParam(r, "userID"))
	if requesterID == "" {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "user ID is required")
		return
	}
	if h.deps.Cache != nil {
		if err := h.deps.Cache.Invalidate(r.Context(), requesterID); err != nil {
			respondError(w, r, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
	}
	respondJSON(w, r, http.StatusOK, &APIResponse{Status: "success", Data: map[string]bool{"invalidated": true}})
}

func (h *Handler) recordFeedMetrics(result *match.FeedResult, elapsed time.Duration) {
	status := "ok"
	if result.Size() == 0 {
		status = "empty"
	}
	metrics.RecordFeedRequest(status, elapsed, result.Size())
	metrics.RecordPoolSize(result.Metadata.PoolSize)
	metrics.RecordGateRejections(result.Metadata.GateRejections)
	metrics.RecordExplorationPicks(len(result.Exploration))
	metrics.RecordFairnessBoosts(result.Metadata.BoostedCohorts)
}
