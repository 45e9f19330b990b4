// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package catalog

import (
	"context"
	"net/url"

	"github.com/oscillatefm/oscillate/internal/genre"
)

// GenreSource adapts the catalog's artist search into the genre
// resolver's Source interface. It is the primary source in the
// fallback chain: the catalog's genre taxonomy matches the tracks
// being recommended.
type GenreSource struct {
	client *Client
}

func NewGenreSource(c *Client) *GenreSource {
	return &GenreSource{client: c}
}

func (s *GenreSource) Name() string { return "catalog" }

type artistSearchPage struct {
	Artists struct {
		Items []struct {
			Name      string   `json:"name"`
			Genres    []string `json:"genres"`
			Followers struct {
				Total int `json:"total"`
			} `json:"followers"`
		} `json:"items"`
	} `json:"artists"`
}

// searchArtist runs a single-result artist search. An unknown artist
// comes back as an empty items list, not an error.
func (c *Client) searchArtist(ctx context.Context, artist string) (*artistSearchPage, error) {
	params := url.Values{}
	params.Set("q", "artist:"+artist)
	params.Set("type", "artist")
	params.Set("limit", "1")

	var page artistSearchPage
	if err := c.getJSON(ctx, "/v1/search", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ArtistFollowers returns the follower count of the artist's top search
// hit. Unknown artists report zero followers.
func (c *Client) ArtistFollowers(ctx context.Context, artist string) (int, error) {
	page, err := c.searchArtist(ctx, artist)
	if err != nil {
		return 0, err
	}
	if len(page.Artists.Items) == 0 {
		return 0, nil
	}
	return page.Artists.Items[0].Followers.Total, nil
}

// Lookup searches the catalog for the artist and returns the top hit's
// genres. An absent artist is a definitive empty answer.
func (s *GenreSource) Lookup(ctx context.Context, artist string) (genre.Set, error) {
	page, err := s.client.searchArtist(ctx, artist)
	if err != nil {
		return nil, err
	}

	if len(page.Artists.Items) == 0 {
		return genre.NewSet(), nil
	}
	return genre.NewSet(page.Artists.Items[0].Genres...), nil
}
