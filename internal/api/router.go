// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the full HTTP handler: global middleware, health
// probes, the versioned API and the metrics endpoint.
func NewRouter(h *Handler, mw *Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	// Health probes stay outside the rate limiter so orchestrator checks
	// never get throttled away.
	r.Get("/healthz", h.HealthLive)
	r.Get("/readyz", h.HealthReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(SecurityHeaders)
		r.Use(Instrument)

		r.Route("/users/{userID}/feed", func(r chi.Router) {
			r.Post("/", h.GenerateFeed)
			r.Delete("/", h.InvalidateFeed)
		})

		r.Post("/outcomes", h.PostOutcome)
		r.Get("/stats", h.Stats)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
