// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/feature"
	"github.com/oscillatefm/oscillate/internal/genre"
)

// sliceSource serves candidates from a slice in index order, standing
// in for the store's key-ordered enumeration.
type sliceSource struct {
	records []feature.Record
}

func (s *sliceSource) ForEachFeature(ctx context.Context, fn func(feature.Record) (bool, error)) error {
	for _, rec := range s.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		cont, err := fn(rec)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// mapResolver answers genre lookups from a fixed map and counts calls.
type mapResolver struct {
	genres map[string]genre.Set
	calls  int
}

func (r *mapResolver) Resolve(_ context.Context, artist string) (genre.Set, error) {
	r.calls++
	return r.genres[strings.ToLower(artist)], nil
}

func track(id, artist string, tempo float64) feature.Record {
	return feature.Record{
		Track:  feature.Track{ID: id, Artist: artist, Title: "Track " + id},
		Vector: feature.Vector{TempoBPM: tempo},
	}
}

func TestSeedNeverMatchesItself(t *testing.T) {
	seed := track("t-001", "Ada", 120)
	src := &sliceSource{records: []feature.Record{seed}}
	res := &mapResolver{genres: map[string]genre.Set{"ada": genre.NewSet("rock", "indie", "alt")}}

	m := New(src, res, nil, Params{}, zerolog.Nop())

	_, err := m.FindMatch(context.Background(), seed, nil, 0)
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestStrictPhaseReturnsFirstHighOverlap(t *testing.T) {
	// Scenario: an overlap-3 candidate early in enumeration wins even
	// though a much closer candidate with overlap 1 sits later.
	seed := track("seed", "Ada", 120)
	src := &sliceSource{records: []feature.Record{
		track("t-001", "Far Out", 900),
		track("t-002", "Triple", 500),
		track("t-003", "Close", 120.1),
	}}
	res := &mapResolver{genres: map[string]genre.Set{
		"ada":     genre.NewSet("rock", "indie", "alt"),
		"far out": genre.NewSet("jazz"),
		"triple":  genre.NewSet("rock", "indie", "alt"),
		"close":   genre.NewSet("rock"),
	}}

	m := New(src, res, nil, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), seed, nil, 0)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-002" {
		t.Errorf("matched %s, want t-002 (strict overlap winner)", got.Track.ID)
	}
	if got.GenreOverlap != 3 {
		t.Errorf("overlap = %d, want 3", got.GenreOverlap)
	}
	if got.Distance != nil {
		t.Errorf("distance = %v, want nil on genre-gated match", *got.Distance)
	}
}

func TestRelaxedPhaseAfterStrictCutoff(t *testing.T) {
	// The only qualifying candidate has overlap 1 and sits beyond the
	// strict-phase window, so phase 2's restart must find it.
	records := make([]feature.Record, 0, 102)
	for i := 0; i < 101; i++ {
		records = append(records, track(fmt.Sprintf("t-%03d", i), fmt.Sprintf("Filler %d", i), 200))
	}
	records = append(records, track("t-match", "Kindred", 130))

	genres := map[string]genre.Set{
		"ada":     genre.NewSet("rock", "indie", "alt"),
		"kindred": genre.NewSet("rock"),
	}
	for i := 0; i < 101; i++ {
		genres[fmt.Sprintf("filler %d", i)] = genre.NewSet("classical")
	}

	m := New(&sliceSource{records: records}, &mapResolver{genres: genres}, nil, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), track("seed", "Ada", 120), nil, 0)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-match" {
		t.Errorf("matched %s, want t-match", got.Track.ID)
	}
	if got.GenreOverlap != 1 {
		t.Errorf("overlap = %d, want 1", got.GenreOverlap)
	}
}

func TestStrictCutoffCountsEligibleOnly(t *testing.T) {
	// Excluded candidates must not consume strict-phase slots: with 99
	// excluded records in front, an overlap-3 candidate at position 100
	// of the eligible sequence is still inside the window.
	records := make([]feature.Record, 0, 200)
	for i := 0; i < 99; i++ {
		records = append(records, track(fmt.Sprintf("x-%03d", i), "Blocked", 200))
	}
	for i := 0; i < 99; i++ {
		records = append(records, track(fmt.Sprintf("t-%03d", i), fmt.Sprintf("Filler %d", i), 200))
	}
	records = append(records, track("t-hit", "Triple", 500))

	genres := map[string]genre.Set{
		"ada":    genre.NewSet("rock", "indie", "alt"),
		"triple": genre.NewSet("rock", "indie", "alt"),
	}
	for i := 0; i < 99; i++ {
		genres[fmt.Sprintf("filler %d", i)] = genre.NewSet("classical")
	}

	m := New(&sliceSource{records: records}, &mapResolver{genres: genres}, nil, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), track("seed", "Ada", 120), []string{"Blocked"}, 0)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-hit" {
		t.Errorf("matched %s, want t-hit", got.Track.ID)
	}
	if got.GenreOverlap != 3 {
		t.Errorf("overlap = %d, want 3 (strict phase)", got.GenreOverlap)
	}
}

func TestNoGenreSeedUsesDistance(t *testing.T) {
	// Scenario: empty seed genres, eligible distances 5.0, 2.1, 9.9.
	seed := track("seed", "Ada", 100)
	src := &sliceSource{records: []feature.Record{
		track("t-001", "Bix", 105),    // distance 5.0
		track("t-002", "Cleo", 102.1), // distance 2.1
		track("t-003", "Dex", 109.9),  // distance 9.9
	}}
	res := &mapResolver{genres: map[string]genre.Set{
		"cleo": genre.NewSet("ambient"),
	}}

	m := New(src, res, nil, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), seed, nil, 0)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-002" {
		t.Errorf("matched %s, want t-002 (minimum distance)", got.Track.ID)
	}
	if got.Distance == nil || *got.Distance < 2.09 || *got.Distance > 2.11 {
		t.Errorf("distance = %v, want 2.1", got.Distance)
	}
}

func TestExcludedArtistsAreSkipped(t *testing.T) {
	seed := track("seed", "Ada", 120)
	src := &sliceSource{records: []feature.Record{
		track("t-001", "Liked Already", 120),
		track("t-002", "Fresh", 130),
	}}
	res := &mapResolver{genres: map[string]genre.Set{
		"ada":           genre.NewSet("rock", "indie", "alt"),
		"liked already": genre.NewSet("rock", "indie", "alt"),
		"fresh":         genre.NewSet("rock", "indie", "alt"),
	}}

	m := New(src, res, nil, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), seed, []string{"liked already"}, 0)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-002" {
		t.Errorf("matched %s, want t-002 (exclusion filter)", got.Track.ID)
	}
}

// mapArtistInfo serves follower counts from a fixed map and counts
// lookups.
type mapArtistInfo struct {
	followers map[string]int
	calls     int
}

func (a *mapArtistInfo) ArtistFollowers(_ context.Context, artist string) (int, error) {
	a.calls++
	return a.followers[strings.ToLower(artist)], nil
}

func TestFollowerCapSkipsPopularArtists(t *testing.T) {
	// Both candidates qualify on overlap; the first is over the cap, so
	// the scan continues to the second.
	seed := track("seed", "Ada", 120)
	src := &sliceSource{records: []feature.Record{
		track("t-001", "Superstar", 130),
		track("t-002", "Obscure", 140),
	}}
	res := &mapResolver{genres: map[string]genre.Set{
		"ada":       genre.NewSet("rock", "indie", "alt"),
		"superstar": genre.NewSet("rock", "indie", "alt"),
		"obscure":   genre.NewSet("rock", "indie", "alt"),
	}}
	artists := &mapArtistInfo{followers: map[string]int{
		"superstar": 2_000_000,
		"obscure":   4_000,
	}}

	m := New(src, res, artists, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), seed, nil, 10_000)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-002" {
		t.Errorf("matched %s, want t-002 (follower cap)", got.Track.ID)
	}
}

func TestFollowerCapMemoizesLookups(t *testing.T) {
	// Three tracks by the same over-cap artist cost one lookup.
	seed := track("seed", "Ada", 120)
	src := &sliceSource{records: []feature.Record{
		track("t-001", "Superstar", 130),
		track("t-002", "Superstar", 131),
		track("t-003", "Superstar", 132),
		track("t-004", "Obscure", 140),
	}}
	res := &mapResolver{genres: map[string]genre.Set{
		"ada":       genre.NewSet("rock", "indie", "alt"),
		"superstar": genre.NewSet("rock", "indie", "alt"),
		"obscure":   genre.NewSet("rock", "indie", "alt"),
	}}
	artists := &mapArtistInfo{followers: map[string]int{
		"superstar": 2_000_000,
		"obscure":   4_000,
	}}

	m := New(src, res, artists, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), seed, nil, 10_000)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-004" {
		t.Errorf("matched %s, want t-004", got.Track.ID)
	}
	if artists.calls != 2 {
		t.Errorf("follower lookups = %d, want 2 (memoized per artist)", artists.calls)
	}
}

func TestZeroCapDisablesFollowerGate(t *testing.T) {
	seed := track("seed", "Ada", 120)
	src := &sliceSource{records: []feature.Record{
		track("t-001", "Superstar", 130),
	}}
	res := &mapResolver{genres: map[string]genre.Set{
		"ada":       genre.NewSet("rock", "indie", "alt"),
		"superstar": genre.NewSet("rock", "indie", "alt"),
	}}
	artists := &mapArtistInfo{followers: map[string]int{"superstar": 2_000_000}}

	m := New(src, res, artists, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), seed, nil, 0)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-001" {
		t.Errorf("matched %s, want t-001 (cap disabled)", got.Track.ID)
	}
	if artists.calls != 0 {
		t.Errorf("follower lookups = %d, want 0 when cap is unset", artists.calls)
	}
}

func TestTieBreakFirstEncountered(t *testing.T) {
	// Equal distances; the earlier record in enumeration order wins.
	seed := track("seed", "Ada", 100)
	src := &sliceSource{records: []feature.Record{
		track("t-001", "Bix", 103),
		track("t-002", "Cleo", 97),
	}}
	res := &mapResolver{genres: map[string]genre.Set{}}

	m := New(src, res, nil, Params{}, zerolog.Nop())

	got, err := m.FindMatch(context.Background(), seed, nil, 0)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Track.ID != "t-001" {
		t.Errorf("matched %s, want t-001 (first encountered)", got.Track.ID)
	}
}
