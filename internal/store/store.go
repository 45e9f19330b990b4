// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package store implements the persistent Feature Store: a badger-backed
// keyed store holding track feature vectors and the artist genre cache.
//
// Both keyspaces are upsert-only with wholesale record replacement and
// no eviction; the store is a growing knowledge base, not a transient
// cache. Per-key atomicity comes from badger transactions.
//
// Enumeration order is load-bearing for the similarity matcher: badger
// iterates keys in lexicographic byte order, so ForEachFeature visits
// records in ascending track-id order. The order is stable for a given
// store snapshot and identical across repeated scans within one read
// transaction's view.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/feature"
	"github.com/oscillatefm/oscillate/internal/genre"
	"github.com/oscillatefm/oscillate/internal/metrics"
)

// Key prefixes for the two keyspaces.
const (
	trackKeyPrefix = "track:"
	genreKeyPrefix = "genre:"
)

// ErrNotFound is returned when a key has no record.
var ErrNotFound = errors.New("store: record not found")

// Options configures the store.
type Options struct {
	// Path is the badger data directory. Ignored when InMemory is set.
	Path string

	// InMemory runs badger without disk persistence. Used by tests.
	InMemory bool
}

// Store is the badger-backed Feature Store and genre cache.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the store.
func Open(opts Options, logger zerolog.Logger) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithInMemory(opts.InMemory)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}

	return &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutFeatures upserts a feature record keyed by its track ID. An
// existing record for the same track is replaced wholesale.
func (s *Store) PutFeatures(ctx context.Context, rec feature.Record) error {
	if rec.Track.ID == "" {
		return errors.New("store: empty track id")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal feature record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(trackKeyPrefix+rec.Track.ID), data)
	})
	if err != nil {
		return fmt.Errorf("put features %s: %w", rec.Track.ID, err)
	}

	metrics.StoreWrites.WithLabelValues("features").Inc()
	return nil
}

// GetFeatures returns the feature record for a track ID, or ErrNotFound.
func (s *Store) GetFeatures(ctx context.Context, trackID string) (*feature.Record, error) {
	var rec feature.Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(trackKeyPrefix + trackID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get features %s: %w", trackID, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// ForEachFeature visits every feature record in ascending track-id key
// order within a single read transaction. The callback returns false to
// stop early. This is the candidate enumeration order contract relied
// on by the similarity matcher.
func (s *Store) ForEachFeature(ctx context.Context, fn func(feature.Record) (bool, error)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(trackKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var rec feature.Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode feature record %s: %w", it.Item().Key(), err)
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
	})
}

// CountFeatures returns the number of stored feature records.
func (s *Store) CountFeatures(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(trackKeyPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// genreKey normalizes the artist name: genre lookups are
// case-insensitive.
func genreKey(artist string) []byte {
	return []byte(genreKeyPrefix + strings.ToLower(strings.TrimSpace(artist)))
}

// PutGenres upserts the genre set for an artist, replacing any previous
// set (never merged). Empty sets are stored deliberately: a cached
// empty result suppresses repeated failing external lookups.
func (s *Store) PutGenres(ctx context.Context, artist string, set genre.Set) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal genre set: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(genreKey(artist), data)
	})
	if err != nil {
		return fmt.Errorf("put genres %q: %w", artist, err)
	}

	metrics.StoreWrites.WithLabelValues("genres").Inc()
	return nil
}

// GetGenres returns the cached genre set for an artist. The second
// return value reports whether a cached entry exists at all; an empty
// set with ok=true is a valid negative-cache hit.
func (s *Store) GetGenres(ctx context.Context, artist string) (genre.Set, bool, error) {
	var set genre.Set
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(genreKey(artist))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get genres %q: %w", artist, err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &set)
		})
	})
	if err != nil {
		return nil, false, err
	}

	return set, found, nil
}

// RunGC runs one round of badger value-log garbage collection.
// badger.ErrNoRewrite (nothing to collect) is not an error.
func (s *Store) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("value log gc: %w", err)
	}
	return nil
}
