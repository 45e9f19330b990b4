// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package extractor is the client boundary to the audio-analysis
// sidecar. Extraction is the slowest and flakiest operation in the
// system; the client classifies failures so the ingestion orchestrator
// can back off on rate limits without ever hanging a run.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/oscillatefm/oscillate/internal/config"
	"github.com/oscillatefm/oscillate/internal/feature"
	"github.com/oscillatefm/oscillate/internal/metrics"
)

// Typed failures let callers distinguish a source that needs backoff
// from one that is down. Both count as ordinary extraction failures
// for attempt budgeting.
var (
	// ErrRateLimited means the sidecar answered HTTP 429.
	ErrRateLimited = errors.New("extractor: rate limited")

	// ErrUnavailable means the sidecar could not be reached or
	// answered with a server error.
	ErrUnavailable = errors.New("extractor: source unavailable")

	// ErrTrackNotFound means the sidecar cannot analyze this track at
	// all; retrying the same track is pointless.
	ErrTrackNotFound = errors.New("extractor: track not found")
)

const maxErrorBodySize = 8 * 1024

// Extractor is the interface the ingestion orchestrator consumes.
type Extractor interface {
	Extract(ctx context.Context, trackID string) (feature.Vector, error)
}

// Client calls the extraction sidecar over HTTP with a per-call
// timeout, a rate limiter, and a circuit breaker.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[feature.Vector]
	logger  zerolog.Logger
}

// NewClient builds the sidecar client from configuration.
func NewClient(cfg config.ExtractorConfig, logger zerolog.Logger) *Client {
	componentLogger := logger.With().Str("component", "extractor").Logger()

	breaker := gobreaker.NewCircuitBreaker[feature.Vector](gobreaker.Settings{
		Name:     "extractor",
		Interval: cfg.Breaker.Interval,
		Timeout:  cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			componentLogger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerS), cfg.Burst),
		breaker: breaker,
		logger:  componentLogger,
	}
}

// extractResponse is the sidecar's analysis payload.
type extractResponse struct {
	TrackID  string         `json:"track_id"`
	Features feature.Vector `json:"features"`
}

// Extract analyzes one track and returns its feature vector. The call
// is bounded by the configured per-call timeout; a timeout surfaces as
// ErrUnavailable so the caller's retry budget handles it like any
// other failure.
func (c *Client) Extract(ctx context.Context, trackID string) (feature.Vector, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return feature.Vector{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vec, err := c.breaker.Execute(func() (feature.Vector, error) {
		return c.doExtract(callCtx, trackID)
	})

	switch {
	case err == nil:
		metrics.RecordExtraction("extracted", time.Since(start))
	case errors.Is(err, ErrRateLimited):
		metrics.RecordExtraction("rate_limited", time.Since(start))
	case errors.Is(err, gobreaker.ErrOpenState):
		// An open breaker is just another flavor of unavailable to the
		// retry budget.
		metrics.RecordExtraction("unavailable", time.Since(start))
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, ErrUnavailable):
		metrics.RecordExtraction("unavailable", time.Since(start))
	default:
		metrics.RecordExtraction("failed", time.Since(start))
	}

	return vec, err
}

func (c *Client) doExtract(ctx context.Context, trackID string) (feature.Vector, error) {
	reqURL := fmt.Sprintf("%s/extract/%s", c.baseURL, url.PathEscape(trackID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, http.NoBody)
	if err != nil {
		return feature.Vector{}, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return feature.Vector{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Decoded below.
	case resp.StatusCode == http.StatusTooManyRequests:
		return feature.Vector{}, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return feature.Vector{}, fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	case resp.StatusCode >= 500:
		return feature.Vector{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return feature.Vector{}, fmt.Errorf("extract %s: HTTP %d: %s", trackID, resp.StatusCode, snippet)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return feature.Vector{}, fmt.Errorf("decode extract response: %w", err)
	}

	return out.Features, nil
}
