// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package api provides the HTTP surface of the matching engine using the
// Chi router.
//
// Endpoints:
//
//	POST   /api/v1/users/{userID}/feed   generate (or serve cached) feed
//	DELETE /api/v1/users/{userID}/feed   invalidate the cached feed
//	POST   /api/v1/outcomes              ingest an engagement outcome
//	GET    /api/v1/stats                 engine and consumer counters
//	GET    /healthz                      liveness
//	GET    /readyz                       readiness
//	GET    /metrics                      Prometheus metrics
//
// All JSON responses share one envelope (APIResponse) with a status,
// payload, metadata and an optional error block. Request bodies are
// validated with go-playground/validator before they touch the engine.
package api
