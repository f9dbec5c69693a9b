// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed generation metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed generation requests",
		},
		[]string{"status"}, // "ok", "empty", "error"
	)

	FeedGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_generation_duration_seconds",
			Help:    "End-to-end feed generation latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	FeedSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_size",
			Help:    "Number of candidates in generated feeds",
			Buckets: []float64{0, 5, 10, 20, 30, 50, 100},
		},
	)

	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_pool_size",
			Help:    "Raw candidate pool size before gating",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
		},
	)

	// Gating and scoring metrics
	GateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_rejections_total",
			Help: "Total number of candidates rejected by the constraint gate",
		},
		[]string{"reason"},
	)

	ScoringFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_failures_total",
			Help: "Total number of per-candidate scoring failures",
		},
	)

	// Exploration and fairness metrics
	ExplorationPicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exploration_picks_total",
			Help: "Total number of candidates surfaced through exploration slots",
		},
	)

	FairnessBoostedCohorts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairness_boosted_cohorts_total",
			Help: "Times a cohort received an under-exposure boost",
		},
		[]string{"cohort"},
	)

	// Feed cache metrics
	FeedCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Total number of feed cache hits",
		},
	)

	FeedCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Total number of feed cache misses",
		},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Outcome pipeline metrics
	OutcomeEventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outcome_events_published_total",
			Help: "Total number of outcome events published",
		},
	)

	OutcomeEventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outcome_events_consumed_total",
			Help: "Total number of outcome events applied to the stores",
		},
		[]string{"type"},
	)

	OutcomeEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outcome_events_dropped_total",
			Help: "Total number of outcome events dropped without being applied",
		},
		[]string{"cause"}, // "malformed", "invalid"
	)

	OutcomeProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outcome_processing_duration_seconds",
			Help:    "Duration of outcome event processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordFeedRequest records one feed generation with its outcome, latency
// and final size. Status is "ok", "empty" or "error".
func RecordFeedRequest(status string, duration time.Duration, feedSize int) {
	FeedRequestsTotal.WithLabelValues(status).Inc()
	FeedGenerationDuration.Observe(duration.Seconds())
	if status != "error" {
		FeedSize.Observe(float64(feedSize))
	}
}

// RecordPoolSize records the raw pool size fetched for a request.
func RecordPoolSize(size int) {
	CandidatePoolSize.Observe(float64(size))
}

// RecordGateRejections records gate rejection counts keyed by reason.
func RecordGateRejections(rejections map[string]int) {
	for reason, n := range rejections {
		GateRejections.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordScoringFailure records one isolated per-candidate scoring failure.
func RecordScoringFailure() {
	ScoringFailures.Inc()
}

// RecordExplorationPicks records how many exploration slots were filled.
func RecordExplorationPicks(n int) {
	if n > 0 {
		ExplorationPicks.Add(float64(n))
	}
}

// RecordFairnessBoosts records the cohorts boosted in one request.
func RecordFairnessBoosts(cohorts []string) {
	for _, cohort := range cohorts {
		FairnessBoostedCohorts.WithLabelValues(cohort).Inc()
	}
}

// RecordFeedCache records a feed cache lookup.
func RecordFeedCache(hit bool) {
	if hit {
		FeedCacheHits.Inc()
	} else {
		FeedCacheMisses.Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rate-limited request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordOutcomePublished records one published outcome event.
func RecordOutcomePublished() {
	OutcomeEventsPublished.Inc()
}

// RecordOutcomeConsumed records one applied outcome event by type.
func RecordOutcomeConsumed(eventType string, duration time.Duration) {
	OutcomeEventsConsumed.WithLabelValues(eventType).Inc()
	OutcomeProcessingDuration.Observe(duration.Seconds())
}

// RecordOutcomeDropped records one dropped outcome event. Cause is
// "malformed" or "invalid".
func RecordOutcomeDropped(cause string) {
	OutcomeEventsDropped.WithLabelValues(cause).Inc()
}

// SetBreakerState sets the state gauge for a named breaker.
func SetBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBreakerTransition records a breaker state change.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// SetAppInfo stamps the build info gauge. Call once at startup.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// SetUptime updates the uptime gauge from the process start time.
func SetUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}
