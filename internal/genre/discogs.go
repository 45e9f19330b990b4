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

// DiscogsSource resolves artist genres through the Discogs database
// search endpoint, merging the genre and style facets of the artist's
// top release hits. It is the last resort in the fallback chain: the
// release-oriented data model makes its artist answers the fuzziest.
type DiscogsSource struct {
	baseURL string
	token   string
	client  *sourceClient
}

// NewDiscogsSource creates the Discogs source. Authenticated clients
// get 60 requests per minute; the limiter stays just under that.
func NewDiscogsSource(baseURL, token string, timeout time.Duration) *DiscogsSource {
	return &DiscogsSource{
		baseURL: baseURL,
		token:   token,
		client:  newSourceClient("discogs", timeout, 0.9),
	}
}

func (s *DiscogsSource) Name() string { return "discogs" }

type discogsSearch struct {
	Results []struct {
		Genre []string `json:"genre"`
		Style []string `json:"style"`
	} `json:"results"`
}

// Lookup searches releases by artist and merges genre/style facets of
// the first few hits.
func (s *DiscogsSource) Lookup(ctx context.Context, artist string) (Set, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("type", "release")
	params.Set("per_page", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/database/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build discogs request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+s.token)
	req.Header.Set("User-Agent", "oscillate/1.0 +https://github.com/oscillatefm/oscillate")

	var out discogsSearch
	if err := s.client.getJSON(req, &out); err != nil {
		return nil, err
	}

	var tags []string
	for _, result := range out.Results {
		tags = append(tags, result.Genre...)
		tags = append(tags, result.Style...)
	}
	return NewSet(tags...), nil
}
