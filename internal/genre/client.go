// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package genre

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 8 * 1024

// sourceClient is the shared HTTP plumbing for external genre sources:
// a per-source rate limiter and circuit breaker around JSON GETs. The
// public metadata APIs used here are unauthenticated or token-based and
// aggressively rate limited, so the limiter defaults stay conservative.
type sourceClient struct {
	name    string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func newSourceClient(name string, timeout time.Duration, rps float64) *sourceClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &sourceClient{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    name,
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// getJSON performs a rate-limited, breaker-protected GET and decodes
// the response into result.
func (c *sourceClient) getJSON(req *http.Request, result interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", c.name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			return nil, fmt.Errorf("%s returned HTTP %d: %s", c.name, resp.StatusCode, snippet)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}
