// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package logging provides zerolog-based structured logging for Emberline.
//
// The process builds one root logger at startup from the loaded
// configuration: JSON output in production, console output in development.
// Components take child loggers with a "component" field rather than
// logging through globals, and request handlers propagate request IDs via
// context so one feed request can be traced across the API layer and the
// engine.
//
// An slog adapter bridges zerolog to libraries that speak log/slog, such
// as the suture supervision tree's sutureslog handler.
package logging
