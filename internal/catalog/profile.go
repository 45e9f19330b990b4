// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package catalog

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oscillatefm/oscillate/internal/feature"
)

// Profile is the listener's standing at run start: everything the
// lottery and the exclusion filter need, computed fresh per run and
// never persisted.
type Profile struct {
	// LikedTracks is every saved track, newest first.
	LikedTracks []feature.Track

	// ArtistCounts maps case-folded artist name to liked-track count.
	ArtistCounts map[string]int

	// TracksByArtist groups liked tracks by case-folded artist name.
	// These are the candidate seed tracks for a winning artist.
	TracksByArtist map[string][]feature.Track

	// RecentArtists holds case-folded names of recently played
	// artists, used for the lottery's recency boost.
	RecentArtists map[string]bool
}

// LikedArtists returns the display-cased artist names of all liked
// tracks, for the matcher's exclusion set.
func (p *Profile) LikedArtists() []string {
	seen := make(map[string]bool, len(p.ArtistCounts))
	var out []string
	for _, track := range p.LikedTracks {
		key := foldArtist(track.Artist)
		if !seen[key] {
			seen[key] = true
			out = append(out, track.Artist)
		}
	}
	return out
}

// CandidateTracks returns the liked tracks for one artist.
func (p *Profile) CandidateTracks(artist string) []feature.Track {
	return p.TracksByArtist[foldArtist(artist)]
}

func foldArtist(artist string) string {
	return strings.ToLower(strings.TrimSpace(artist))
}

// API payload shapes for the saved-tracks and recently-played
// endpoints.
type savedTracksPage struct {
	Items []struct {
		AddedAt time.Time    `json:"added_at"`
		Track   catalogTrack `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

type recentlyPlayedPage struct {
	Items []struct {
		PlayedAt time.Time    `json:"played_at"`
		Track    catalogTrack `json:"track"`
	} `json:"items"`
}

type catalogTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (t catalogTrack) toTrack() feature.Track {
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return feature.Track{
		ID:     t.ID,
		Artist: artist,
		Title:  t.Name,
		Link:   t.ExternalURLs.Spotify,
	}
}

// FetchProfile loads the listener profile: the full liked-track
// library page by page, plus the most recent plays.
func (c *Client) FetchProfile(ctx context.Context) (*Profile, error) {
	profile := &Profile{
		ArtistCounts:   make(map[string]int),
		TracksByArtist: make(map[string][]feature.Track),
		RecentArtists:  make(map[string]bool),
	}

	offset := 0
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(pageLimit))
		params.Set("offset", strconv.Itoa(offset))

		var page savedTracksPage
		if err := c.getJSON(ctx, "/v1/me/tracks", params, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			track := item.Track.toTrack()
			if track.ID == "" || track.Artist == "" {
				continue
			}
			key := foldArtist(track.Artist)
			profile.LikedTracks = append(profile.LikedTracks, track)
			profile.ArtistCounts[key]++
			profile.TracksByArtist[key] = append(profile.TracksByArtist[key], track)
		}

		if page.Next == "" || len(page.Items) == 0 {
			break
		}
		offset += pageLimit
	}

	var recent recentlyPlayedPage
	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageLimit))
	if err := c.getJSON(ctx, "/v1/me/player/recently-played", params, &recent); err != nil {
		// Recent listening is a boost signal, not a requirement.
		c.logger.Warn().Err(err).Msg("recently-played lookup failed, skipping recency boost")
		return profile, nil
	}
	for _, item := range recent.Items {
		track := item.Track.toTrack()
		if track.Artist != "" {
			profile.RecentArtists[foldArtist(track.Artist)] = true
		}
	}

	return profile, nil
}
