// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package config loads and validates the application configuration.
//
// Configuration is layered with Koanf v2: built-in defaults first, then an
// optional YAML file, then environment variables. Later layers override
// earlier ones, so a bare deployment works with no file at all and any
// single knob can be flipped from the environment.
//
// The Config struct composes the section types owned by each package
// (engine weights from match, logging from logging, breaker settings from
// store, NATS settings from outcomes) so defaults and validation live next
// to the code that consumes them.
package config
