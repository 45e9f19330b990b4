// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package genre

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/metrics"
)

// Source looks up genre tags for an artist from one external metadata
// provider. Lookup returns an empty Set (not an error) when the
// provider knows the artist but has no tags for them.
type Source interface {
	Name() string
	Lookup(ctx context.Context, artist string) (Set, error)
}

// Cache is the persistence surface the resolver needs. Satisfied by
// *store.Store.
type Cache interface {
	GetGenres(ctx context.Context, artist string) (Set, bool, error)
	PutGenres(ctx context.Context, artist string, set Set) error
}

// Resolver answers artist genre queries cache-first, falling back
// through an ordered chain of external sources. The first source that
// returns a non-empty set wins and its result is cached. Source
// failures are skipped, not propagated. When every source fails or
// comes back empty, an empty set is cached so the chain is not walked
// again for the same artist.
type Resolver struct {
	cache   Cache
	sources []Source
	logger  zerolog.Logger
}

// NewResolver builds a resolver over the given source chain. Order is
// significant: earlier sources are authoritative.
func NewResolver(cache Cache, sources []Source, logger zerolog.Logger) *Resolver {
	return &Resolver{
		cache:   cache,
		sources: sources,
		logger:  logger.With().Str("component", "genre-resolver").Logger(),
	}
}

// Resolve returns the genre set for an artist. The returned set may be
// empty; that is a definitive "no known genres" answer, not an error.
// An error is returned only for cache faults or context cancellation.
func (r *Resolver) Resolve(ctx context.Context, artist string) (Set, error) {
	cached, ok, err := r.cache.GetGenres(ctx, artist)
	if err != nil {
		return nil, err
	}
	if ok {
		metrics.GenreCacheHits.Inc()
		return cached, nil
	}
	metrics.GenreCacheMisses.Inc()

	result := NewSet()
	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		set, err := src.Lookup(ctx, artist)
		if err != nil {
			metrics.RecordGenreLookup(src.Name(), "error")
			r.logger.Warn().
				Err(err).
				Str("source", src.Name()).
				Str("artist", artist).
				Msg("genre lookup failed, trying next source")
			continue
		}
		if set.Empty() {
			metrics.RecordGenreLookup(src.Name(), "empty")
			continue
		}

		metrics.RecordGenreLookup(src.Name(), "hit")
		result = set
		break
	}

	if err := r.cache.PutGenres(ctx, artist, result); err != nil {
		// A failed cache write does not invalidate the lookup.
		r.logger.Warn().Err(err).Str("artist", artist).Msg("genre cache write failed")
	}

	return result, nil
}
