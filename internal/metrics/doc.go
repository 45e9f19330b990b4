// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

/*
Package metrics provides Prometheus metrics collection and export.

Collectors are registered through promauto at package initialization and
exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:5930/metrics

# Available Metrics

API:
  - api_requests_total (counter): method, endpoint, status_code
  - api_request_duration_seconds (histogram): method, endpoint
  - api_rate_limit_hits_total (counter): endpoint

Feature store:
  - store_writes_total (counter): keyspace ("features", "genres")
  - store_feature_records (gauge)

Extraction:
  - extraction_attempts_total (counter): outcome
  - extraction_duration_seconds (histogram)
  - seed_attempts_per_winner (histogram)
  - seed_exhaustions_total (counter)

Genre resolution:
  - genre_lookups_total (counter): source, outcome
  - genre_cache_hits_total / genre_cache_misses_total (counters)

Matching and runs:
  - match_outcomes_total (counter): phase
  - match_duration_seconds (histogram)
  - lottery_draws_total (counter)
  - runs_total (counter): outcome
  - run_duration_seconds, run_recommendations (histograms)

Infrastructure:
  - circuit_breaker_state (gauge): name
  - jobs_active (gauge), jobs_expired_total (counter)

# Cardinality

Label values are drawn from small fixed vocabularies. Artist names,
track ids and job ids never appear as labels.

All recording functions are safe for concurrent use; the Prometheus
client handles synchronization internally.
*/
package metrics
