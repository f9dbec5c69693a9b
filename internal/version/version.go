// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package version holds the build version stamp.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/emberline/emberline/internal/version.Version=v1.2.3"
var Version = "dev"
