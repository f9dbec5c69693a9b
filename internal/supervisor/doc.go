// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package supervisor wires the service's long-running components into a
// suture v4 supervision tree. The root supervisor owns two child layers,
// pipeline and api, so a restart loop in one does not disturb the other.
package supervisor
