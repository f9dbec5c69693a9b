// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/emberline/config.yaml",
	"/etc/emberline/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Defaults from defaultConfig()
//  2. Optional YAML config file (if one exists)
//  3. Environment variables (highest priority)
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	return loadFrom(findConfigFile())
}

// loadFrom is Load with an explicit config file path. An empty path skips
// the file layer.
func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "json"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, checking the
// CONFIG_PATH environment variable before the default search paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to config paths. Only
// listed variables are honored so unrelated environment noise never leaks
// into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_read_timeout":   "server.read_timeout",
		"http_write_timeout":  "server.write_timeout",
		"shutdown_timeout":    "server.shutdown_timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		// Store
		"badger_path":           "store.path",
		"feed_cache_ttl":        "store.feed_cache_ttl",
		"breaker_max_requests":  "store.breaker.max_requests",
		"breaker_interval":      "store.breaker.interval",
		"breaker_timeout":       "store.breaker.timeout",
		"breaker_min_requests":  "store.breaker.min_requests",
		"breaker_failure_ratio": "store.breaker.failure_ratio",
		"breaker_call_timeout":  "store.breaker.call_timeout",

		// Outcomes pipeline
		"outcomes_enabled":         "outcomes.enabled",
		"nats_url":                 "outcomes.nats.url",
		"nats_queue_group":         "outcomes.nats.queue_group",
		"nats_durable_name":        "outcomes.nats.durable_name",
		"nats_max_reconnects":      "outcomes.nats.max_reconnects",
		"nats_reconnect_wait":      "outcomes.nats.reconnect_wait",
		"nats_ack_wait":            "outcomes.nats.ack_wait",
		"nats_max_deliver":         "outcomes.nats.max_deliver",
		"consumer_topic":           "outcomes.consumer.topic",
		"consumer_rate_per_second": "outcomes.consumer.rate_per_second",
		"consumer_burst":           "outcomes.consumer.burst",

		// Engine tunables. Nested weights are file-only; the knobs
		// operators actually flip at runtime get env names.
		"engine_seed":           "engine.seed",
		"fairness_cohort_field": "engine.fairness.cohort_field",
		"fairness_boost":        "engine.fairness.boost",
		"bandit_budget":         "engine.bandit.budget",
		"selector_top_k":        "engine.selector.top_k",
		"max_pool_size":         "engine.limits.max_pool_size",
		"default_feed_size":     "engine.limits.default_feed_size",
		"max_feed_size":         "engine.limits.max_feed_size",
		"scoring_concurrency":   "engine.limits.scoring_concurrency",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped entirely.
	return ""
}
