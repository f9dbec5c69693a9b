// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8470" {
		t.Errorf("Addr() = %q, want 0.0.0.0:8470", cfg.Server.Addr())
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := loadFrom("")
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}
	if cfg.Server.Port != 8470 {
		t.Errorf("Server.Port = %d, want 8470", cfg.Server.Port)
	}
	if cfg.Engine.Selector.TopK != 20 {
		t.Errorf("Engine.Selector.TopK = %d, want 20", cfg.Engine.Selector.TopK)
	}
	if cfg.Outcomes.Enabled {
		t.Error("Outcomes.Enabled should default to false")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
  read_timeout: 5s
store:
  path: /data/emberline
  feed_cache_ttl: 30s
engine:
  selector:
    top_k: 10
  fairness:
    cohort_field: region
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server.ReadTimeout = %s, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Store.Path != "/data/emberline" {
		t.Errorf("Store.Path = %q, want /data/emberline", cfg.Store.Path)
	}
	if cfg.Store.FeedCacheTTL != 30*time.Second {
		t.Errorf("Store.FeedCacheTTL = %s, want 30s", cfg.Store.FeedCacheTTL)
	}
	if cfg.Engine.Selector.TopK != 10 {
		t.Errorf("Engine.Selector.TopK = %d, want 10", cfg.Engine.Selector.TopK)
	}
	if cfg.Engine.Fairness.CohortField != "region" {
		t.Errorf("Engine.Fairness.CohortField = %q, want region", cfg.Engine.Fairness.CohortField)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("Server.WriteTimeout = %s, want default 30s", cfg.Server.WriteTimeout)
	}
	if cfg.Engine.Bandit.Budget != 0.10 {
		t.Errorf("Engine.Bandit.Budget = %g, want default 0.10", cfg.Engine.Bandit.Budget)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	t.Setenv("HTTP_PORT", "7001")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SCORING_CONCURRENCY", "4")
	t.Setenv("FEED_CACHE_TTL", "90s")

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want env override 7001", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Engine.Limits.ScoringConcurrency != 4 {
		t.Errorf("ScoringConcurrency = %d, want 4", cfg.Engine.Limits.ScoringConcurrency)
	}
	if cfg.Store.FeedCacheTTL != 90*time.Second {
		t.Errorf("Store.FeedCacheTTL = %s, want 90s", cfg.Store.FeedCacheTTL)
	}
}

func TestUnmappedEnvIgnored(t *testing.T) {
	t.Setenv("PATH_INFO", "should-not-leak")
	t.Setenv("SERVER_PORT", "1234") // not a mapped name; HTTP_PORT is

	cfg, err := loadFrom("")
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}
	if cfg.Server.Port != 8470 {
		t.Errorf("Server.Port = %d, want default 8470", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HTTP_PORT", "99999")
	if _, err := loadFrom(""); err == nil {
		t.Fatal("expected validation error for out-of-range port")
	}
}

func TestFindConfigFileEnvVar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	got := findConfigFile()
	if got == filepath.Join(dir, "missing.yaml") {
		t.Error("findConfigFile() returned a path that does not exist")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantSub: "server.port",
		},
		{
			name:    "bad read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantSub: "server.read_timeout",
		},
		{
			name:    "bad rate limit",
			mutate:  func(c *Config) { c.Server.RateLimitReqs = 0 },
			wantSub: "server.rate_limit_reqs",
		},
		{
			name: "rate limit disabled skips check",
			mutate: func(c *Config) {
				c.Server.RateLimitDisabled = true
				c.Server.RateLimitReqs = 0
			},
			wantSub: "",
		},
		{
			name:    "bad breaker ratio",
			mutate:  func(c *Config) { c.Store.Breaker.FailureRatio = 1.5 },
			wantSub: "store.breaker.failure_ratio",
		},
		{
			name: "outcomes enabled without url",
			mutate: func(c *Config) {
				c.Outcomes.Enabled = true
				c.Outcomes.NATS.URL = ""
			},
			wantSub: "outcomes.nats.url",
		},
		{
			name:    "bad engine section",
			mutate:  func(c *Config) { c.Engine.Selector.TopK = 0 },
			wantSub: "engine:",
		},
		{
			name:    "bad logging level",
			mutate:  func(c *Config) { c.Logging.Level = "shout" },
			wantSub: "logging:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantSub == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}
