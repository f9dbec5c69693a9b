// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/store"
)

func TestRequestIDPropagation(t *testing.T) {
	fx := newTestFixture(t, nil)

	resp, err := http.Get(fx.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("expected a generated X-Request-ID header")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	fx := newTestFixture(t, nil)

	req, err := http.NewRequest(http.MethodGet, fx.server.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("X-Request-ID", "client-supplied-id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "client-supplied-id" {
		t.Errorf("X-Request-ID = %q, want client-supplied-id", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	fx := newTestFixture(t, nil)

	resp, err := http.Get(fx.server.URL + "/api/v1/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	defer resp.Body.Close()

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for name, want := range headers {
		if got := resp.Header.Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestRateLimitEnforced(t *testing.T) {
	mem := store.NewMemory()
	engine, err := match.NewEngine(match.DefaultConfig(), mem.Providers(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	h := NewHandler(HandlerDeps{Engine: engine}, zerolog.Nop())
	mw := NewMiddleware(MiddlewareConfig{
		CORSOrigins:       []string{"*"},
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	}, zerolog.Nop())

	srv := httptest.NewServer(NewRouter(h, mw))
	defer srv.Close()

	var last int
	for i := 0; i < 4; i++ {
		resp, err := http.Get(srv.URL + "/api/v1/stats")
		if err != nil {
			t.Fatalf("GET stats: %v", err)
		}
		last = resp.StatusCode
		resp.Body.Close()
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("final status = %d, want 429", last)
	}

	// Health probes bypass the limiter.
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", resp.StatusCode)
	}
}
