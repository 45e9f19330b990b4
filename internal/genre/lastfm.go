// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package genre

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// minTagCount filters out drive-by Last.fm tags. Tags below this count
// are noise ("seen live", misspellings, jokes).
const minTagCount = 10

// LastFMSource resolves artist tags through the Last.fm
// artist.getTopTags endpoint.
type LastFMSource struct {
	baseURL string
	apiKey  string
	client  *sourceClient
}

// NewLastFMSource creates the Last.fm source. Last.fm asks for no more
// than 5 requests per second averaged; one per second is plenty here.
func NewLastFMSource(baseURL, apiKey string, timeout time.Duration) *LastFMSource {
	return &LastFMSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newSourceClient("lastfm", timeout, 1),
	}
}

func (s *LastFMSource) Name() string { return "lastfm" }

type lastFMTopTags struct {
	TopTags struct {
		Tag []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// Lookup returns the artist's top tags above the noise threshold.
func (s *LastFMSource) Lookup(ctx context.Context, artist string) (Set, error) {
	params := url.Values{}
	params.Set("method", "artist.gettoptags")
	params.Set("artist", artist)
	params.Set("api_key", s.apiKey)
	params.Set("format", "json")
	params.Set("autocorrect", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build lastfm request: %w", err)
	}

	var out lastFMTopTags
	if err := s.client.getJSON(req, &out); err != nil {
		return nil, err
	}
	if out.Error != 0 {
		// Error 6 is "artist not found"; a definitive empty answer.
		if out.Error == 6 {
			return NewSet(), nil
		}
		return nil, fmt.Errorf("lastfm error %d: %s", out.Error, out.Message)
	}

	tags := make([]string, 0, len(out.TopTags.Tag))
	for _, tag := range out.TopTags.Tag {
		if tag.Count >= minTagCount {
			tags = append(tags, tag.Name)
		}
	}
	return NewSet(tags...), nil
}
