// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

// Package main is the entry point for the Emberline matching server.
//
// Emberline generates reciprocal match feeds for two-sided discovery
// products. Each feed request gates a candidate pool against hard
// constraints, scores survivors on mutual-interest probabilities, and
// assembles a featured pick, a ranked main feed, and a Thompson-sampled
// exploration slice.
//
// # Startup Order
//
//  1. Configuration: layered load via Koanf v2 (defaults, config.yaml,
//     environment variables)
//  2. Storage: embedded BadgerDB for beliefs, exposure counters, and the
//     feed cache (in-memory when STORE path is unset)
//  3. Engine: the scoring pipeline with circuit-broken profile access
//  4. Outcomes: NATS JetStream consumer when OUTCOMES_ENABLED=true,
//     otherwise a direct in-process sink
//  5. HTTP API: chi router under a suture supervision tree
//
// # Configuration
//
// Highest priority wins:
//   - Environment variables (HTTP_PORT, BADGER_PATH, NATS_URL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Outcome Pipeline Modes
//
// With OUTCOMES_ENABLED=true the API publishes outcome events to NATS
// JetStream and a queue-grouped consumer folds them into the belief and
// exposure stores, so multiple engine instances share one event stream:
//
//	export OUTCOMES_ENABLED=true
//	export NATS_URL=nats://localhost:4222
//	./emberline
//
// Without NATS the API applies outcomes synchronously in process, which
// is the right mode for a single instance or local development:
//
//	export BADGER_PATH=/var/lib/emberline
//	./emberline
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests within SHUTDOWN_TIMEOUT, the consumer stops, and
// the database closes last.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/emberline/emberline/internal/api"
	"github.com/emberline/emberline/internal/config"
	"github.com/emberline/emberline/internal/logging"
	"github.com/emberline/emberline/internal/match"
	"github.com/emberline/emberline/internal/metrics"
	"github.com/emberline/emberline/internal/outcomes"
	"github.com/emberline/emberline/internal/store"
	"github.com/emberline/emberline/internal/supervisor"
	"github.com/emberline/emberline/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet, log with defaults.
		fallback := logging.New(logging.DefaultConfig())
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Logging)
	logger.Info().
		Str("version", version.Version).
		Str("addr", cfg.Server.Addr()).
		Bool("outcomes_enabled", cfg.Outcomes.Enabled).
		Msg("starting emberline")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("emberline exited with error")
	}
	logger.Info().Msg("emberline stopped")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	start := time.Now()
	metrics.SetAppInfo(version.Version)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing badger")
		}
	}()
	if cfg.Store.Path == "" {
		logger.Info().Msg("badger opened in memory, engine state will not survive restarts")
	} else {
		logger.Info().Str("path", cfg.Store.Path).Msg("badger opened")
	}

	// The in-memory store serves profiles, blocks, embeddings, and
	// interaction history. Deployments with an upstream profile service
	// swap their client in here; the breaker decorators keep either
	// choice from hanging feed requests.
	mem := store.NewMemory()
	beliefs := store.NewBadgerBeliefStore(db)
	exposure := store.NewBadgerExposureTracker(db)

	providers := mem.Providers()
	providers.Profiles = store.NewBreakerProfileStore(mem, cfg.Store.Breaker, logger)
	providers.Embeddings = store.NewBreakerEmbeddingStore(mem, cfg.Store.Breaker, logger)
	providers.Beliefs = beliefs
	providers.Exposure = exposure

	engine, err := match.NewEngine(&cfg.Engine, providers, logger)
	if err != nil {
		return err
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	deps := api.HandlerDeps{
		Engine:   engine,
		Profiles: mem,
		Ready:    readyProbe(db),
	}
	if cfg.Store.FeedCacheTTL >= 0 {
		deps.Cache = store.NewFeedCache(db, cfg.Store.FeedCacheTTL)
	}

	var publisher message.Publisher
	if cfg.Outcomes.Enabled {
		publisher, err = outcomes.NewNATSPublisher(cfg.Outcomes.NATS, logger)
		if err != nil {
			return err
		}
		defer closeQuietly(publisher, "outcome publisher", logger)

		subscriber, err := outcomes.NewNATSSubscriber(cfg.Outcomes.NATS, logger)
		if err != nil {
			return err
		}
		defer closeQuietly(subscriber, "outcome subscriber", logger)

		consumer, err := outcomes.NewConsumer(cfg.Outcomes.Consumer, subscriber, beliefs, exposure, mem, logger)
		if err != nil {
			return err
		}
		tree.AddPipelineService(consumer)
		deps.Publisher = publisher
		logger.Info().Str("url", cfg.Outcomes.NATS.URL).Msg("outcome pipeline on NATS JetStream")
	} else {
		deps.Sink = outcomes.NewDirectSink(beliefs, exposure, mem, logger)
		logger.Info().Msg("outcome pipeline in process")
	}

	handler := api.NewHandler(deps, logger)
	middleware := api.NewMiddleware(api.MiddlewareConfig{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
	}, logger)

	server := api.NewServer(api.ServerConfig{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, api.NewRouter(handler, middleware), logger)
	tree.AddAPIService(server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go trackUptime(ctx, start)

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
			for _, svc := range report {
				logger.Warn().Str("service", svc.Name).Msg("service did not stop in time")
			}
		}
		return err
	}
	return nil
}

// readyProbe reports backend readiness for /readyz.
func readyProbe(db *badger.DB) func(context.Context) error {
	return func(context.Context) error {
		if db.IsClosed() {
			return errors.New("badger is closed")
		}
		return nil
	}
}

func trackUptime(ctx context.Context, start time.Time) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetUptime(start)
		}
	}
}

type closer interface{ Close() error }

func closeQuietly(c closer, name string, logger zerolog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error().Err(err).Str("component", name).Msg("error during close")
	}
}
