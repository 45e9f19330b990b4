// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/metrics"
)

// GCService runs periodic badger value-log garbage collection and
// refreshes the feature-record gauge. It implements suture.Service.
type GCService struct {
	store        *Store
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
}

// NewGCService creates the GC service. interval controls how often a
// collection round runs; discardRatio is passed through to badger.
func NewGCService(s *Store, interval time.Duration, discardRatio float64, logger zerolog.Logger) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &GCService{
		store:        s,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("component", "store-gc").Logger(),
	}
}

// Serve runs until the context is canceled.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.logger.Info().
		Dur("interval", g.interval).
		Float64("discard_ratio", g.discardRatio).
		Msg("store gc service started")

	for {
		select {
		case <-ctx.Done():
			g.logger.Info().Msg("store gc service stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := g.store.RunGC(g.discardRatio); err != nil {
				g.logger.Warn().Err(err).Msg("value log gc failed")
			}
			if n, err := g.store.CountFeatures(ctx); err == nil {
				metrics.StoreFeatureRecords.Set(float64(n))
			}
		}
	}
}

// String implements suture's service naming.
func (g *GCService) String() string {
	return "store-gc"
}
