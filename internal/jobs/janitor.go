// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/config"
)

// Janitor periodically sweeps expired jobs from the registry. It
// implements suture.Service.
type Janitor struct {
	registry *Registry
	cfg      config.JobsConfig
	logger   zerolog.Logger
}

func NewJanitor(registry *Registry, cfg config.JobsConfig, logger zerolog.Logger) *Janitor {
	return &Janitor{
		registry: registry,
		cfg:      cfg,
		logger:   logger.With().Str("component", "jobs-janitor").Logger(),
	}
}

// Serve runs until the context is canceled.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := j.registry.Sweep(j.cfg.CompletedTTL, j.cfg.TTL); removed > 0 {
				j.logger.Debug().Int("removed", removed).Msg("swept expired jobs")
			}
		}
	}
}

// String implements suture's service naming.
func (j *Janitor) String() string {
	return "jobs-janitor"
}
