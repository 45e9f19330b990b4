// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package match implements the two-phase genre-gated similarity
// matcher: given a seed track's feature vector, it scans the Feature
// Store for a validated neighbor.
package match

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/feature"
	"github.com/oscillatefm/oscillate/internal/genre"
	"github.com/oscillatefm/oscillate/internal/metrics"
)

// ErrNoMatch is returned when the candidate population is exhausted
// without a qualifying candidate.
var ErrNoMatch = errors.New("match: no qualifying candidate")

// Defaults for the phase parameters.
const (
	defaultStrictScanLimit = 100
	defaultStrictOverlap   = 3
	defaultRelaxedOverlap  = 1
)

// Params tunes the two genre phases. Zero values take the defaults.
type Params struct {
	// StrictScanLimit is how many eligible candidates the strict
	// phase examines before the matcher relaxes.
	StrictScanLimit int
	StrictOverlap   int
	RelaxedOverlap  int
}

func (p Params) withDefaults() Params {
	if p.StrictScanLimit <= 0 {
		p.StrictScanLimit = defaultStrictScanLimit
	}
	if p.StrictOverlap <= 0 {
		p.StrictOverlap = defaultStrictOverlap
	}
	if p.RelaxedOverlap <= 0 {
		p.RelaxedOverlap = defaultRelaxedOverlap
	}
	return p
}

// CandidateSource enumerates the candidate population in a fixed,
// deterministic order. The order is load-bearing: the strict-phase
// cutoff and all tie-breaks depend on it being stable across repeated
// scans. Satisfied by *store.Store.
type CandidateSource interface {
	ForEachFeature(ctx context.Context, fn func(feature.Record) (bool, error)) error
}

// GenreResolver resolves an artist's genre set, cache-first.
// Satisfied by *genre.Resolver.
type GenreResolver interface {
	Resolve(ctx context.Context, artist string) (genre.Set, error)
}

// ArtistInfo reports artist follower counts for the popularity cap.
// Satisfied by *catalog.Client. May be nil, disabling the cap.
type ArtistInfo interface {
	ArtistFollowers(ctx context.Context, artist string) (int, error)
}

// Candidate is one accepted recommendation: the chosen track, why it
// was chosen, and where it came from. Distance is nil when genre
// overlap, not distance, drove selection.
type Candidate struct {
	SeedArtist   string        `json:"seed_artist"`
	Track        feature.Track `json:"track"`
	GenreOverlap int           `json:"genre_overlap"`
	Distance     *float64      `json:"distance,omitempty"`
	Genres       genre.Set     `json:"genres,omitempty"`
}

// Matcher finds validated neighbors for seed tracks.
type Matcher struct {
	candidates CandidateSource
	genres     GenreResolver
	artists    ArtistInfo
	params     Params
	logger     zerolog.Logger
}

func New(candidates CandidateSource, genres GenreResolver, artists ArtistInfo, params Params, logger zerolog.Logger) *Matcher {
	return &Matcher{
		candidates: candidates,
		genres:     genres,
		artists:    artists,
		params:     params.withDefaults(),
		logger:     logger.With().Str("component", "matcher").Logger(),
	}
}

// excluded holds the per-match exclusion filter with case-folded
// artist names.
type excluded map[string]struct{}

func newExcluded(artists []string) excluded {
	ex := make(excluded, len(artists))
	for _, a := range artists {
		ex[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}
	return ex
}

func (ex excluded) has(artist string) bool {
	_, ok := ex[strings.ToLower(strings.TrimSpace(artist))]
	return ok
}

// FindMatch searches the candidate population for a track similar to
// the seed. Candidates by the seed artist, by any excluded artist, or
// sharing the seed's own track id are never eligible.
//
// When the seed artist has genres, matching is genre-gated in two
// phases: a strict pass wanting an overlap of three or more within the
// first hundred eligible candidates, then an unbounded relaxed pass
// accepting any overlap. A seed with no resolvable genres falls back
// to pure nearest-neighbor distance over the full eligible population.
//
// A positive maxFollowers rejects candidates by artists above that
// follower count; the scan continues past them.
func (m *Matcher) FindMatch(ctx context.Context, seed feature.Record, excludedArtists []string, maxFollowers int) (*Candidate, error) {
	start := time.Now()
	defer func() {
		metrics.MatchDuration.Observe(time.Since(start).Seconds())
	}()

	ex := newExcluded(excludedArtists)
	gate := m.followerGate(ctx, maxFollowers)

	seedGenres, err := m.genres.Resolve(ctx, seed.Track.Artist)
	if err != nil {
		return nil, err
	}

	if seedGenres.Empty() {
		return m.findNearest(ctx, seed, ex, gate)
	}

	// Phase 1: strict overlap within the bounded scan window.
	cand, err := m.scanForOverlap(ctx, seed, seedGenres, ex, gate, m.params.StrictOverlap, m.params.StrictScanLimit)
	if err != nil {
		return nil, err
	}
	if cand != nil {
		metrics.MatchOutcomes.WithLabelValues("strict").Inc()
		return cand, nil
	}

	// Phase 2: restart from the top, relaxed overlap, no scan bound.
	cand, err = m.scanForOverlap(ctx, seed, seedGenres, ex, gate, m.params.RelaxedOverlap, 0)
	if err != nil {
		return nil, err
	}
	if cand != nil {
		metrics.MatchOutcomes.WithLabelValues("relaxed").Inc()
		return cand, nil
	}

	metrics.MatchOutcomes.WithLabelValues("none").Inc()
	m.logger.Debug().
		Str("seed_artist", seed.Track.Artist).
		Str("seed_track", seed.Track.ID).
		Msg("candidate population exhausted without match")
	return nil, ErrNoMatch
}

// eligible reports whether a candidate passes the exclusion filter for
// the given seed.
func eligible(rec feature.Record, seed feature.Record, ex excluded) bool {
	if rec.Track.ID == seed.Track.ID {
		return false
	}
	if strings.EqualFold(rec.Track.Artist, seed.Track.Artist) {
		return false
	}
	return !ex.has(rec.Track.Artist)
}

// followerGate returns a per-match filter enforcing the artist follower
// cap. Lookups are memoized for the lifetime of one match so repeated
// tracks by the same artist cost one catalog call. A failed lookup
// passes the artist rather than sinking the whole match.
func (m *Matcher) followerGate(ctx context.Context, maxFollowers int) func(artist string) bool {
	if maxFollowers <= 0 || m.artists == nil {
		return func(string) bool { return true }
	}

	memo := make(map[string]bool)
	return func(artist string) bool {
		key := strings.ToLower(artist)
		if pass, seen := memo[key]; seen {
			return pass
		}

		followers, err := m.artists.ArtistFollowers(ctx, artist)
		if err != nil {
			m.logger.Warn().Err(err).Str("artist", artist).Msg("follower lookup failed, candidate accepted")
			memo[key] = true
			return true
		}

		pass := followers <= maxFollowers
		if !pass {
			m.logger.Debug().
				Str("artist", artist).
				Int("followers", followers).
				Int("cap", maxFollowers).
				Msg("candidate artist over follower cap")
		}
		memo[key] = pass
		return pass
	}
}

// scanForOverlap walks the candidate population in enumeration order
// and returns the first eligible candidate whose artist's genres
// overlap the seed's by at least minOverlap. A limit of zero means
// unbounded. Returns (nil, nil) when the scan ends without a hit.
// Candidates failing the follower gate still count toward the limit.
func (m *Matcher) scanForOverlap(ctx context.Context, seed feature.Record, seedGenres genre.Set, ex excluded, gate func(string) bool, minOverlap, limit int) (*Candidate, error) {
	var (
		found    *Candidate
		examined int
		scanErr  error
	)

	err := m.candidates.ForEachFeature(ctx, func(rec feature.Record) (bool, error) {
		if !eligible(rec, seed, ex) {
			return true, nil
		}
		examined++

		candGenres, err := m.genres.Resolve(ctx, rec.Track.Artist)
		if err != nil {
			scanErr = err
			return false, nil
		}

		if overlap := seedGenres.Overlap(candGenres); overlap >= minOverlap && gate(rec.Track.Artist) {
			found = &Candidate{
				SeedArtist:   seed.Track.Artist,
				Track:        rec.Track,
				GenreOverlap: overlap,
				Genres:       candGenres,
			}
			return false, nil
		}

		if limit > 0 && examined >= limit {
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}

	return found, nil
}

// findNearest handles the no-genre seed: pure minimum Euclidean
// distance over all eligible candidates, first-encountered wins ties.
// The follower gate is consulted only when a candidate would become the
// new nearest, keeping catalog lookups rare.
func (m *Matcher) findNearest(ctx context.Context, seed feature.Record, ex excluded, gate func(string) bool) (*Candidate, error) {
	var (
		best     *Candidate
		bestDist float64
	)

	err := m.candidates.ForEachFeature(ctx, func(rec feature.Record) (bool, error) {
		if !eligible(rec, seed, ex) {
			return true, nil
		}

		d := feature.Distance(seed.Vector, rec.Vector)
		if (best == nil || d < bestDist) && gate(rec.Track.Artist) {
			dist := d
			best = &Candidate{
				SeedArtist: seed.Track.Artist,
				Track:      rec.Track,
				Distance:   &dist,
			}
			bestDist = d
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if best == nil {
		metrics.MatchOutcomes.WithLabelValues("none").Inc()
		return nil, ErrNoMatch
	}

	// Genres are attached for display only on the distance branch.
	if genres, err := m.genres.Resolve(ctx, best.Track.Artist); err == nil {
		best.Genres = genres
		best.GenreOverlap = 0
	}

	metrics.MatchOutcomes.WithLabelValues("distance").Inc()
	return best, nil
}
