// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/config"
)

func testConfig(baseURL string) config.ExtractorConfig {
	return config.ExtractorConfig{
		BaseURL:      baseURL,
		Timeout:      2 * time.Second,
		RequestsPerS: 1000,
		Burst:        1000,
		Breaker: config.BreakerConfig{
			FailureThreshold: 100,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
		},
	}
}

func TestExtractSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/extract/t-001" {
			t.Errorf("path = %s, want /extract/t-001", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"track_id":"t-001","features":{"tempo_bpm":128.5,"energy":0.91}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())

	vec, err := c.Extract(context.Background(), "t-001")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vec.TempoBPM != 128.5 {
		t.Errorf("tempo = %v, want 128.5", vec.TempoBPM)
	}
	if vec.Energy != 0.91 {
		t.Errorf("energy = %v, want 0.91", vec.Energy)
	}
}

func TestExtractRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())

	_, err := c.Extract(context.Background(), "t-001")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestExtractUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())

	_, err := c.Extract(context.Background(), "t-001")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestExtractTrackNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())

	_, err := c.Extract(context.Background(), "missing")
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("err = %v, want ErrTrackNotFound", err)
	}
}

func TestExtractBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Breaker.FailureThreshold = 3
	c := NewClient(cfg, zerolog.Nop())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Extract(ctx, "t-001"); err == nil {
			t.Fatalf("attempt %d: expected failure", i+1)
		}
	}

	// The breaker should now be open and fail fast as unavailable.
	_, err := c.Extract(ctx, "t-001")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err with open breaker = %v, want ErrUnavailable", err)
	}
}

func TestExtractTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := NewClient(cfg, zerolog.Nop())

	_, err := c.Extract(context.Background(), "t-001")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable on timeout", err)
	}
}
