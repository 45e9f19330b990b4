// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Feature Store Metrics
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_writes_total",
			Help: "Total number of feature store writes",
		},
		[]string{"keyspace"}, // "features", "genres"
	)

	StoreFeatureRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_feature_records",
			Help: "Current number of stored feature records",
		},
	)

	// Extraction Metrics
	ExtractionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_attempts_total",
			Help: "Total number of feature extraction attempts",
		},
		[]string{"outcome"}, // "cached", "extracted", "rate_limited", "unavailable", "failed"
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Duration of feature extraction calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	SeedAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seed_attempts_per_winner",
			Help:    "Extraction attempts consumed before a winner yielded a seed",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	SeedExhaustions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seed_exhaustions_total",
			Help: "Total number of winners abandoned after the attempt budget",
		},
	)

	// Genre Resolution Metrics
	GenreLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genre_lookups_total",
			Help: "Total number of genre source lookups",
		},
		[]string{"source", "outcome"}, // outcome: "hit", "empty", "error"
	)

	GenreCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "genre_cache_hits_total",
			Help: "Total number of genre cache hits",
		},
	)

	GenreCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "genre_cache_misses_total",
			Help: "Total number of genre cache misses",
		},
	)

	// Matching Metrics
	MatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_outcomes_total",
			Help: "Total number of similarity match attempts by outcome",
		},
		[]string{"phase"}, // "strict", "relaxed", "distance", "none"
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_duration_seconds",
			Help:    "Duration of candidate scans in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Lottery Metrics
	LotteryDraws = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_draws_total",
			Help: "Total number of weighted lottery draws",
		},
	)

	// Run Metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runs_total",
			Help: "Total number of discovery runs",
		},
		[]string{"outcome"}, // "completed", "partial", "failed"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "run_duration_seconds",
			Help:    "Duration of discovery runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	RunRecommendations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "run_recommendations",
			Help:    "Recommendations produced per run",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// Job Registry Metrics
	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobs_active",
			Help: "Current number of jobs in the registry",
		},
	)

	JobsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_expired_total",
			Help: "Total number of finished jobs removed by the janitor",
		},
	)
)

// RecordAPIRequest records one handled API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordExtraction records one extraction call outcome.
func RecordExtraction(outcome string, duration time.Duration) {
	ExtractionAttempts.WithLabelValues(outcome).Inc()
	ExtractionDuration.Observe(duration.Seconds())
}

// RecordGenreLookup records one external genre source lookup.
func RecordGenreLookup(source, outcome string) {
	GenreLookups.WithLabelValues(source, outcome).Inc()
}

// RecordRun records a finished discovery run.
func RecordRun(outcome string, duration time.Duration, recommendations int) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Observe(duration.Seconds())
	RunRecommendations.Observe(float64(recommendations))
}
