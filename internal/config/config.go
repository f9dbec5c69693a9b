// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package config

import (
	"fmt"
	"time"

	"github.com/emberline/emberline/internal/logging"
	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/outcomes"
	"github.com/emberline/emberline/internal/store"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML file (config.yaml)
//  3. Environment variables: override any single setting
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Engine   match.Config   `json:"engine"`
	Server   ServerConfig   `json:"server"`
	Store    StoreConfig    `json:"store"`
	Outcomes OutcomesConfig `json:"outcomes"`
	Logging  logging.Config `json:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`

	// ShutdownTimeout bounds graceful drain on termination.
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	CORSOrigins []string `json:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs     int           `json:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `json:"rate_limit_window"`
	RateLimitDisabled bool          `json:"rate_limit_disabled"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// Path is the Badger database directory. Empty selects an in-memory
	// database, which is the right mode for development and tests.
	Path string `json:"path"`

	// FeedCacheTTL bounds how long a generated feed is served from cache.
	// Zero disables expiry; a negative value disables the cache.
	FeedCacheTTL time.Duration `json:"feed_cache_ttl"`

	Breaker store.BreakerConfig `json:"breaker"`
}

// OutcomesConfig configures the outcome event pipeline.
type OutcomesConfig struct {
	// Enabled turns on the NATS-backed consumer. When false, outcomes
	// posted to the API are applied to the stores in-process.
	Enabled bool `json:"enabled"`

	NATS     outcomes.NATSConfig     `json:"nats"`
	Consumer outcomes.ConsumerConfig `json:"consumer"`
}

// defaultConfig returns the built-in defaults. These are applied first,
// then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Engine: *match.DefaultConfig(),
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Store: StoreConfig{
			Path:         "",
			FeedCacheTTL: 2 * time.Minute,
			Breaker:      store.DefaultBreakerConfig(),
		},
		Outcomes: OutcomesConfig{
			Enabled:  false,
			NATS:     outcomes.DefaultNATSConfig(),
			Consumer: outcomes.DefaultConsumerConfig(),
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the configuration for values that would misbehave at
// runtime. It returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs <= 0 {
			return fmt.Errorf("server.rate_limit_reqs must be positive, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive, got %s", c.Server.RateLimitWindow)
		}
	}
	if c.Store.Breaker.FailureRatio <= 0 || c.Store.Breaker.FailureRatio > 1 {
		return fmt.Errorf("store.breaker.failure_ratio must be in (0, 1], got %g", c.Store.Breaker.FailureRatio)
	}
	if c.Store.Breaker.CallTimeout <= 0 {
		return fmt.Errorf("store.breaker.call_timeout must be positive, got %s", c.Store.Breaker.CallTimeout)
	}
	if c.Outcomes.Enabled {
		if c.Outcomes.NATS.URL == "" {
			return fmt.Errorf("outcomes.nats.url is required when outcomes.enabled is true")
		}
		if c.Outcomes.Consumer.RatePerSecond <= 0 {
			return fmt.Errorf("outcomes.consumer.rate_per_second must be positive, got %g", c.Outcomes.Consumer.RatePerSecond)
		}
	}
	return nil
}
