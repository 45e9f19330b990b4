// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oscillatefm/oscillate/internal/match"
)

// PlaylistEntry is one track currently on a playlist, with when it was
// added.
type PlaylistEntry struct {
	TrackID string
	AddedAt time.Time
}

type playlistTracksPage struct {
	Items []struct {
		AddedAt time.Time    `json:"added_at"`
		Track   catalogTrack `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

// PlaylistTracks lists every entry on a playlist.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	var entries []PlaylistEntry

	offset := 0
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(pageLimit))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("fields", "items(added_at,track(id)),next")

		var page playlistTracksPage
		if err := c.getJSON(ctx, "/v1/playlists/"+url.PathEscape(playlistID)+"/tracks", params, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID == "" {
				continue
			}
			entries = append(entries, PlaylistEntry{TrackID: item.Track.ID, AddedAt: item.AddedAt})
		}

		if page.Next == "" || len(page.Items) == 0 {
			break
		}
		offset += pageLimit
	}

	return entries, nil
}

// AddTracks appends tracks to a playlist.
func (c *Client) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = "spotify:track:" + id
	}

	payload := map[string]interface{}{"uris": uris}
	return c.doJSON(ctx, http.MethodPost,
		c.baseURL+"/v1/playlists/"+url.PathEscape(playlistID)+"/tracks", payload, nil)
}

// RemoveTracks deletes tracks from a playlist.
func (c *Client) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	tracks := make([]map[string]string, len(trackIDs))
	for i, id := range trackIDs {
		tracks[i] = map[string]string{"uri": "spotify:track:" + id}
	}

	payload := map[string]interface{}{"tracks": tracks}
	return c.doJSON(ctx, http.MethodDelete,
		c.baseURL+"/v1/playlists/"+url.PathEscape(playlistID)+"/tracks", payload, nil)
}

type currentUser struct {
	ID string `json:"id"`
}

type createdPlaylist struct {
	ID string `json:"id"`
}

// CreatePlaylist makes a new private playlist for the current user and
// returns its id.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (string, error) {
	var user currentUser
	if err := c.getJSON(ctx, "/v1/me", nil, &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("catalog returned empty user id")
	}

	payload := map[string]interface{}{
		"name":   name,
		"public": false,
	}
	var created createdPlaylist
	err := c.doJSON(ctx, http.MethodPost,
		c.baseURL+"/v1/users/"+url.PathEscape(user.ID)+"/playlists", payload, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("catalog returned empty playlist id")
	}
	return created.ID, nil
}

// PlaylistWriter delivers accepted recommendations to a playlist,
// pruning entries past their shelf life first so the playlist stays a
// rotating discovery feed rather than an archive.
type PlaylistWriter struct {
	client     *Client
	staleAfter time.Duration
	now        func() time.Time
}

// NewPlaylistWriter builds a writer. staleAfter is how long an entry
// stays on the playlist before pruning.
func NewPlaylistWriter(c *Client, staleAfter time.Duration) *PlaylistWriter {
	if staleAfter <= 0 {
		staleAfter = 7 * 24 * time.Hour
	}
	return &PlaylistWriter{client: c, staleAfter: staleAfter, now: time.Now}
}

// CreatePlaylist makes a new playlist for runs that do not target an
// existing one.
func (w *PlaylistWriter) CreatePlaylist(ctx context.Context, name string) (string, error) {
	return w.client.CreatePlaylist(ctx, name)
}

// Write prunes stale entries, then appends the run's accepted
// candidates in order.
func (w *PlaylistWriter) Write(ctx context.Context, playlistID string, candidates []match.Candidate) error {
	entries, err := w.client.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("read playlist %s: %w", playlistID, err)
	}

	cutoff := w.now().Add(-w.staleAfter)
	var stale []string
	for _, entry := range entries {
		if entry.AddedAt.Before(cutoff) {
			stale = append(stale, entry.TrackID)
		}
	}
	if err := w.client.RemoveTracks(ctx, playlistID, stale); err != nil {
		return fmt.Errorf("prune playlist %s: %w", playlistID, err)
	}

	ids := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		ids = append(ids, cand.Track.ID)
	}
	if err := w.client.AddTracks(ctx, playlistID, ids); err != nil {
		return fmt.Errorf("append playlist %s: %w", playlistID, err)
	}
	return nil
}
