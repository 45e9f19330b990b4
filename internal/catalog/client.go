// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package catalog is the client for the listener's music service: the
// source of liked tracks, recent listening, artist metadata, and the
// playlists that receive recommendations.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/oscillatefm/oscillate/internal/config"
)

const maxErrorBodySize = 8 * 1024

// pageLimit is the catalog API's maximum page size.
const pageLimit = 50

// Client talks to the catalog API. All calls are bearer-authenticated
// through the oauth2 transport and rate limited client-side; the
// catalog throttles aggressively and a 429 here would stall a whole
// run.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient builds the catalog client from configuration.
func NewClient(cfg config.CatalogConfig, logger zerolog.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = cfg.Timeout

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerS), cfg.Burst),
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// getJSON performs a rate-limited GET against the catalog API.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, reqURL, nil, result)
}

// doJSON performs a rate-limited request with an optional JSON body.
func (c *Client) doJSON(ctx context.Context, method, reqURL string, payload, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal catalog request: %w", err)
		}
		body = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("catalog %s %s: HTTP %d: %s", method, reqURL, resp.StatusCode, snippet)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}
