// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package ingest guarantees a lottery winner has a usable seed vector:
// on a store miss it extracts and caches features, retrying across the
// winner's alternate tracks under a fixed attempt budget.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/extractor"
	"github.com/oscillatefm/oscillate/internal/feature"
	"github.com/oscillatefm/oscillate/internal/metrics"
)

// ErrSeedExhausted means every attempt for one winner failed and the
// winner must be discarded in favor of a replacement draw.
var ErrSeedExhausted = errors.New("ingest: seed attempts exhausted")

// state is the per-winner machine. Attempt counting and termination
// live here, not in loop bookkeeping, so they are testable on their
// own.
type state int

const (
	stateTrying state = iota
	stateReady
	stateExhausted
)

// FeatureCache is the store surface the orchestrator needs. Satisfied
// by *store.Store.
type FeatureCache interface {
	GetFeatures(ctx context.Context, trackID string) (*feature.Record, error)
	PutFeatures(ctx context.Context, rec feature.Record) error
}

// Orchestrator ensures seed vectors exist for winners.
type Orchestrator struct {
	cache       FeatureCache
	extract     extractor.Extractor
	maxAttempts int
	logger      zerolog.Logger
}

// New builds an orchestrator. maxAttempts is the per-winner extraction
// budget; attempts are scoped to one winner and never shared.
func New(cache FeatureCache, ext extractor.Extractor, maxAttempts int, logger zerolog.Logger) *Orchestrator {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Orchestrator{
		cache:       cache,
		extract:     ext,
		maxAttempts: maxAttempts,
		logger:      logger.With().Str("component", "ingest").Logger(),
	}
}

// EnsureSeed returns a ready feature record for one of the winner's
// candidate tracks. Tracks are tried in the given order, one attempt
// each, at most maxAttempts total. A store hit is free: it consumes no
// attempt and makes no extraction call. Rate-limited extraction
// failures wait out an exponential backoff before the next attempt;
// the attempt count never varies by failure type.
func (o *Orchestrator) EnsureSeed(ctx context.Context, winner string, candidateTracks []feature.Track) (*feature.Record, error) {
	// Store hits short-circuit before the attempt budget applies.
	for _, track := range candidateTracks {
		rec, err := o.cache.GetFeatures(ctx, track.ID)
		if err == nil {
			metrics.RecordExtraction("cached", 0)
			metrics.SeedAttempts.Observe(0)
			return rec, nil
		}
	}

	wait := backoff.NewExponentialBackOff()
	wait.InitialInterval = time.Second
	wait.MaxInterval = 30 * time.Second

	st := stateTrying
	attempt := 0

	for _, track := range candidateTracks {
		if st != stateTrying {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempt++
		vec, err := o.extract.Extract(ctx, track.ID)
		if err == nil {
			rec := feature.Record{Track: track, Vector: vec, ExtractedAt: time.Now().UTC()}
			if err := o.cache.PutFeatures(ctx, rec); err != nil {
				return nil, err
			}
			st = stateReady
			metrics.SeedAttempts.Observe(float64(attempt))
			return &rec, nil
		}

		o.logger.Debug().
			Err(err).
			Str("winner", winner).
			Str("track", track.ID).
			Int("attempt", attempt).
			Msg("extraction attempt failed")

		if attempt >= o.maxAttempts {
			st = stateExhausted
			break
		}

		if errors.Is(err, extractor.ErrRateLimited) {
			select {
			case <-time.After(wait.NextBackOff()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	metrics.SeedExhaustions.Inc()
	o.logger.Info().
		Str("winner", winner).
		Int("attempts", attempt).
		Msg("winner discarded after exhausting seed attempts")
	return nil, ErrSeedExhausted
}
