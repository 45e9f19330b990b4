// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package scrobble reads a listener's recent play history from Last.fm.
// It feeds the lottery's recency boost when the caller listens through
// a scrobbler rather than the catalog service's own player.
package scrobble

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// recentTrackLimit is how many recent plays one lookup examines. One
// page of 200 covers a few days of normal listening.
const recentTrackLimit = 200

// Client calls the Last.fm user API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient builds a Last.fm user-history client. It shares Last.fm's
// rate budget with the genre source, so it stays at one request per
// second too.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  logger.With().Str("component", "scrobble").Logger(),
	}
}

type recentTracksPage struct {
	RecentTracks struct {
		Track []struct {
			Artist struct {
				Name string `json:"#text"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"recenttracks"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// RecentArtists returns the set of artist names in the user's recent
// play history, keyed case-insensitively.
func (c *Client) RecentArtists(ctx context.Context, user string) (map[string]bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("method", "user.getrecenttracks")
	params.Set("user", user)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", fmt.Sprintf("%d", recentTrackLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build recent tracks request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch recent tracks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recent tracks lookup: status %d", resp.StatusCode)
	}

	var page recentTracksPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode recent tracks: %w", err)
	}
	if page.Error != 0 {
		return nil, fmt.Errorf("lastfm error %d: %s", page.Error, page.Message)
	}

	artists := make(map[string]bool)
	for _, t := range page.RecentTracks.Track {
		if name := strings.TrimSpace(t.Artist.Name); name != "" {
			artists[strings.ToLower(name)] = true
		}
	}

	c.logger.Debug().
		Str("user", user).
		Int("artists", len(artists)).
		Msg("recent play history fetched")
	return artists, nil
}
