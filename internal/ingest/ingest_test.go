// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/feature"
)

// memCache is an in-memory FeatureCache for orchestrator tests.
type memCache struct {
	records map[string]feature.Record
	puts    int
}

func newMemCache() *memCache {
	return &memCache{records: make(map[string]feature.Record)}
}

func (c *memCache) GetFeatures(_ context.Context, trackID string) (*feature.Record, error) {
	rec, ok := c.records[trackID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &rec, nil
}

func (c *memCache) PutFeatures(_ context.Context, rec feature.Record) error {
	c.records[rec.Track.ID] = rec
	c.puts++
	return nil
}

// scriptedExtractor fails or succeeds per track id and counts calls.
type scriptedExtractor struct {
	fail  map[string]error
	calls []string
}

func (e *scriptedExtractor) Extract(_ context.Context, trackID string) (feature.Vector, error) {
	e.calls = append(e.calls, trackID)
	if err, ok := e.fail[trackID]; ok {
		return feature.Vector{}, err
	}
	return feature.Vector{TempoBPM: 120}, nil
}

func tracks(ids ...string) []feature.Track {
	out := make([]feature.Track, len(ids))
	for i, id := range ids {
		out[i] = feature.Track{ID: id, Artist: "Ada", Title: "Track " + id}
	}
	return out
}

func TestEnsureSeedCacheHitSkipsExtraction(t *testing.T) {
	cache := newMemCache()
	cache.records["t-002"] = feature.Record{
		Track:  feature.Track{ID: "t-002", Artist: "Ada"},
		Vector: feature.Vector{TempoBPM: 99},
	}
	ext := &scriptedExtractor{}

	o := New(cache, ext, 5, zerolog.Nop())

	rec, err := o.EnsureSeed(context.Background(), "Ada", tracks("t-001", "t-002"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if rec.Track.ID != "t-002" {
		t.Errorf("seed = %s, want cached t-002", rec.Track.ID)
	}
	if len(ext.calls) != 0 {
		t.Errorf("extractor called %d times on cache hit, want 0", len(ext.calls))
	}
}

func TestEnsureSeedExtractsAndCaches(t *testing.T) {
	cache := newMemCache()
	ext := &scriptedExtractor{}

	o := New(cache, ext, 5, zerolog.Nop())

	rec, err := o.EnsureSeed(context.Background(), "Ada", tracks("t-001"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if rec.Vector.TempoBPM != 120 {
		t.Errorf("tempo = %v, want 120", rec.Vector.TempoBPM)
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d, want 1", cache.puts)
	}
	if _, err := cache.GetFeatures(context.Background(), "t-001"); err != nil {
		t.Error("extracted vector was not cached")
	}
}

func TestEnsureSeedFallsThroughToAlternateTrack(t *testing.T) {
	cache := newMemCache()
	ext := &scriptedExtractor{fail: map[string]error{
		"t-001": errors.New("decode failure"),
		"t-002": errors.New("decode failure"),
	}}

	o := New(cache, ext, 5, zerolog.Nop())

	rec, err := o.EnsureSeed(context.Background(), "Ada", tracks("t-001", "t-002", "t-003"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if rec.Track.ID != "t-003" {
		t.Errorf("seed = %s, want t-003", rec.Track.ID)
	}
	if len(ext.calls) != 3 {
		t.Errorf("extraction calls = %d, want 3", len(ext.calls))
	}
}

func TestEnsureSeedExhaustsAfterFiveAttempts(t *testing.T) {
	cache := newMemCache()
	fail := make(map[string]error)
	var ids []string
	for i := 1; i <= 8; i++ {
		id := fmt.Sprintf("t-%03d", i)
		fail[id] = errors.New("always failing")
		ids = append(ids, id)
	}
	ext := &scriptedExtractor{fail: fail}

	o := New(cache, ext, 5, zerolog.Nop())

	_, err := o.EnsureSeed(context.Background(), "Ada", tracks(ids...))
	if !errors.Is(err, ErrSeedExhausted) {
		t.Fatalf("err = %v, want ErrSeedExhausted", err)
	}

	// Exactly five attempts on distinct tracks, never a sixth.
	if len(ext.calls) != 5 {
		t.Fatalf("extraction calls = %d, want exactly 5", len(ext.calls))
	}
	seen := make(map[string]bool)
	for _, id := range ext.calls {
		if seen[id] {
			t.Errorf("track %s attempted twice", id)
		}
		seen[id] = true
	}
}

func TestEnsureSeedExhaustsWhenTracksRunOut(t *testing.T) {
	cache := newMemCache()
	ext := &scriptedExtractor{fail: map[string]error{
		"t-001": errors.New("boom"),
		"t-002": errors.New("boom"),
	}}

	o := New(cache, ext, 5, zerolog.Nop())

	_, err := o.EnsureSeed(context.Background(), "Ada", tracks("t-001", "t-002"))
	if !errors.Is(err, ErrSeedExhausted) {
		t.Errorf("err = %v, want ErrSeedExhausted when track list runs out", err)
	}
}

func TestEnsureSeedNoCandidateTracks(t *testing.T) {
	o := New(newMemCache(), &scriptedExtractor{}, 5, zerolog.Nop())

	_, err := o.EnsureSeed(context.Background(), "Ada", nil)
	if !errors.Is(err, ErrSeedExhausted) {
		t.Errorf("err = %v, want ErrSeedExhausted for empty candidate list", err)
	}
}
