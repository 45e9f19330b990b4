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

// MusicBrainzSource resolves artist genres through the MusicBrainz
// artist search endpoint. MusicBrainz requires a descriptive User-Agent
// and caps anonymous clients at one request per second.
type MusicBrainzSource struct {
	baseURL   string
	userAgent string
	client    *sourceClient
}

func NewMusicBrainzSource(baseURL, userAgent string, timeout time.Duration) *MusicBrainzSource {
	return &MusicBrainzSource{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    newSourceClient("musicbrainz", timeout, 1),
	}
}

func (s *MusicBrainzSource) Name() string { return "musicbrainz" }

type musicBrainzSearch struct {
	Artists []struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
		Tags  []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tags"`
	} `json:"artists"`
}

// Lookup searches for the artist and returns the tags of the top hit.
// Only a confident match (search score 90 or better) is accepted; a
// weaker hit risks tagging the wrong artist entirely.
func (s *MusicBrainzSource) Lookup(ctx context.Context, artist string) (Set, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("artist:%q", artist))
	params.Set("fmt", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/artist?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build musicbrainz request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	var out musicBrainzSearch
	if err := s.client.getJSON(req, &out); err != nil {
		return nil, err
	}

	if len(out.Artists) == 0 || out.Artists[0].Score < 90 {
		return NewSet(), nil
	}

	hit := out.Artists[0]
	tags := make([]string, 0, len(hit.Tags))
	for _, tag := range hit.Tags {
		if tag.Count > 0 {
			tags = append(tags, tag.Name)
		}
	}
	return NewSet(tags...), nil
}
