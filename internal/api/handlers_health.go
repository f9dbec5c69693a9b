// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package api

import (
	"net/http"
	"time"

	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/version"
)

// healthPayload is the /healthz and /readyz response body.
type healthPayload struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime_seconds"`
}

// HealthLive handles GET /healthz.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status: "success",
		Data: healthPayload{
			Status:  "alive",
			Version: version.Version,
			Uptime:  time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthReady handles GET /readyz. It consults the readiness probe when
// one is configured.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ready != nil {
		if err := h.deps.Ready(r.Context()); err != nil {
			respondJSON(w, r, http.StatusServiceUnavailable, &APIResponse{
				Status: "error",
				Error:  &APIError{Code: CodeUpstreamDown, Message: err.Error()},
			})
			return
		}
	}
	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status: "success",
		Data: healthPayload{
			Status:  "ready",
			Version: version.Version,
			Uptime:  time.Since(h.startTime).Seconds(),
		},
	})
}

// statsPayload aggregates engine counters for GET /api/v1/stats.
type statsPayload struct {
	Engine match.Metrics `json:"engine"`
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   statsPayload{Engine: h.deps.Engine.Snapshot()},
	})
}
