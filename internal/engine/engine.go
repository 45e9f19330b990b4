// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package engine composes the lottery, ingestion, and matching stages
// into one discovery run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/catalog"
	"github.com/oscillatefm/oscillate/internal/config"
	"github.com/oscillatefm/oscillate/internal/feature"
	"github.com/oscillatefm/oscillate/internal/ingest"
	"github.com/oscillatefm/oscillate/internal/lottery"
	"github.com/oscillatefm/oscillate/internal/match"
	"github.com/oscillatefm/oscillate/internal/metrics"
)

// ProfileProvider supplies the listener profile at run start.
// Satisfied by *catalog.Client.
type ProfileProvider interface {
	FetchProfile(ctx context.Context) (*catalog.Profile, error)
}

// SeedProvider guarantees a winner has a usable seed vector.
// Satisfied by *ingest.Orchestrator.
type SeedProvider interface {
	EnsureSeed(ctx context.Context, winner string, candidateTracks []feature.Track) (*feature.Record, error)
}

// MatchFinder finds a validated neighbor for a ready seed.
// Satisfied by *match.Matcher.
type MatchFinder interface {
	FindMatch(ctx context.Context, seed feature.Record, excludedArtists []string, maxFollowers int) (*match.Candidate, error)
}

// RecentSource reads recent play history from an external scrobbler.
// Satisfied by *scrobble.Client. May be nil when no scrobbler is
// configured.
type RecentSource interface {
	RecentArtists(ctx context.Context, user string) (map[string]bool, error)
}

// PlaylistWriter receives the run's accepted candidates.
// Satisfied by *catalog.PlaylistWriter.
type PlaylistWriter interface {
	CreatePlaylist(ctx context.Context, name string) (string, error)
	Write(ctx context.Context, playlistID string, candidates []match.Candidate) error
}

// Request describes one discovery run. Songs of zero means the
// configured default. Leave PlaylistID empty to create a new playlist
// named PlaylistName.
type Request struct {
	Songs        int
	PlaylistID   string
	PlaylistName string

	// RecentUsername, when set, sources the recency boost from that
	// scrobbler account instead of the catalog's recently-played feed.
	RecentUsername string

	// MaxFollowers, when positive, rejects candidates by artists with
	// more followers than this.
	MaxFollowers int
}

// Result is the run's outcome: best-effort up to the requested count,
// never all-or-nothing.
type Result struct {
	Candidates []match.Candidate `json:"candidates"`
	Requested  int               `json:"requested"`
	Draws      int               `json:"draws"`
	PlaylistID string            `json:"playlist_id,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Engine drives discovery runs.
type Engine struct {
	profiles  ProfileProvider
	seeds     SeedProvider
	matcher   MatchFinder
	playlists PlaylistWriter
	recent    RecentSource
	cfg       config.RunConfig
	logger    zerolog.Logger

	// newRand is swapped in tests for deterministic draws.
	newRand func() *rand.Rand
}

func New(profiles ProfileProvider, seeds SeedProvider, matcher MatchFinder, playlists PlaylistWriter, recent RecentSource, cfg config.RunConfig, logger zerolog.Logger) *Engine {
	return &Engine{
		profiles:  profiles,
		seeds:     seeds,
		matcher:   matcher,
		playlists: playlists,
		recent:    recent,
		cfg:       cfg,
		logger:    logger.With().Str("component", "engine").Logger(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Run executes one discovery run. Winners are processed sequentially:
// each accepted candidate's artist joins the exclusion set for the
// winners after it, which a parallel ordering could not honor.
//
// Per-winner failures never abort the run. An exhausted seed triggers
// a replacement draw, bounded by a run-level cap on total draws; a
// matcher miss just leaves that slot unfilled. Only an empty artist
// pool fails the run outright.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	songs := req.Songs
	if songs <= 0 {
		songs = e.cfg.DefaultSongs
	}
	if songs > e.cfg.MaxSongs {
		songs = e.cfg.MaxSongs
	}
	drawCap := e.cfg.DrawCapMultiplier * songs

	profile, err := e.profiles.FetchProfile(ctx)
	if err != nil {
		metrics.RecordRun("failed", time.Since(started), 0)
		return nil, fmt.Errorf("fetch listener profile: %w", err)
	}

	recent := profile.RecentArtists
	if req.RecentUsername != "" && e.recent != nil {
		if fetched, err := e.recent.RecentArtists(ctx, req.RecentUsername); err != nil {
			// The boost signal is optional; fall back to the catalog's
			// recently-played feed.
			e.logger.Warn().Err(err).Str("user", req.RecentUsername).Msg("scrobbler history unavailable")
		} else {
			recent = fetched
		}
	}

	selector := lottery.NewSelector(buildPool(profile, recent), e.newRand())

	excluded := profile.LikedArtists()
	result := &Result{Requested: songs, StartedAt: started}

	// One slot per requested song. An exhausted seed re-rolls the same
	// slot with a replacement draw; a matcher miss consumes the slot
	// unfilled. Total draws stay under the run-level cap either way.
	slots := 0
	for slots < songs && result.Draws < drawCap {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		winner, err := selector.Draw()
		if errors.Is(err, lottery.ErrEmptyPool) {
			if result.Draws == 0 {
				metrics.RecordRun("failed", time.Since(started), 0)
				return nil, lottery.ErrEmptyPool
			}
			break
		}
		if err != nil {
			return nil, err
		}
		result.Draws++
		metrics.LotteryDraws.Inc()

		seed, err := e.seeds.EnsureSeed(ctx, winner, profile.CandidateTracks(winner))
		if errors.Is(err, ingest.ErrSeedExhausted) {
			// The winner is discarded; the slot gets a replacement draw.
			continue
		}
		if err != nil {
			metrics.RecordRun("failed", time.Since(started), len(result.Candidates))
			return nil, fmt.Errorf("ensure seed for %s: %w", winner, err)
		}

		cand, err := e.matcher.FindMatch(ctx, *seed, excluded, req.MaxFollowers)
		if errors.Is(err, match.ErrNoMatch) {
			// No re-roll for a matcher miss; the slot stays empty.
			e.logger.Debug().Str("winner", winner).Msg("no qualifying candidate for winner")
			slots++
			continue
		}
		if err != nil {
			metrics.RecordRun("failed", time.Since(started), len(result.Candidates))
			return nil, fmt.Errorf("match for %s: %w", winner, err)
		}

		slots++
		result.Candidates = append(result.Candidates, *cand)
		excluded = append(excluded, cand.Track.Artist)
	}

	result.PlaylistID = req.PlaylistID
	if len(result.Candidates) > 0 {
		if result.PlaylistID == "" {
			name := req.PlaylistName
			if name == "" {
				name = "Oscillate Discoveries"
			}
			id, err := e.playlists.CreatePlaylist(ctx, name)
			if err != nil {
				metrics.RecordRun("failed", time.Since(started), len(result.Candidates))
				return nil, fmt.Errorf("create playlist: %w", err)
			}
			result.PlaylistID = id
		}
		if err := e.playlists.Write(ctx, result.PlaylistID, result.Candidates); err != nil {
			metrics.RecordRun("failed", time.Since(started), len(result.Candidates))
			return nil, fmt.Errorf("write playlist: %w", err)
		}
	}

	result.FinishedAt = time.Now()

	outcome := "completed"
	if len(result.Candidates) < songs {
		outcome = "partial"
	}
	metrics.RecordRun(outcome, result.FinishedAt.Sub(started), len(result.Candidates))

	e.logger.Info().
		Int("requested", songs).
		Int("accepted", len(result.Candidates)).
		Int("draws", result.Draws).
		Str("playlist_id", result.PlaylistID).
		Dur("elapsed", result.FinishedAt.Sub(started)).
		Msg("discovery run finished")

	return result, nil
}

// buildPool converts the listener profile into weighted lottery
// entries. recent carries case-folded artist names, from either the
// catalog's recently-played feed or a scrobbler account.
func buildPool(profile *catalog.Profile, recent map[string]bool) []lottery.Profile {
	pool := make([]lottery.Profile, 0, len(profile.ArtistCounts))
	for artist, count := range profile.ArtistCounts {
		pool = append(pool, lottery.Profile{
			Artist:         artist,
			LikedCount:     count,
			RecentlyPlayed: recent[artist],
		})
	}
	return pool
}
