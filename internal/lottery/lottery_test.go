// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package lottery

import (
	"errors"
	"math/rand"
	"testing"
)

func TestWeightTable(t *testing.T) {
	tests := []struct {
		liked int
		want  float64
	}{
		{0, 0},
		{-1, 0},
		{1, 10},
		{2, 5},
		{3, 2},
		{4, 1},
		{17, 1},
	}
	for _, tt := range tests {
		if got := Weight(tt.liked); got != tt.want {
			t.Errorf("Weight(%d) = %v, want %v", tt.liked, got, tt.want)
		}
	}
}

func TestDrawEmptyPool(t *testing.T) {
	s := NewSelector(nil, rand.New(rand.NewSource(1)))
	if _, err := s.Draw(); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("err = %v, want ErrEmptyPool", err)
	}

	// A pool of only zero-weight artists is also empty.
	s = NewSelector([]Profile{{Artist: "Ada", LikedCount: 0}}, rand.New(rand.NewSource(1)))
	if _, err := s.Draw(); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("zero-weight pool err = %v, want ErrEmptyPool", err)
	}
}

func TestDrawWithoutReplacement(t *testing.T) {
	profiles := []Profile{
		{Artist: "Ada", LikedCount: 1},
		{Artist: "Bix", LikedCount: 2},
		{Artist: "Cleo", LikedCount: 5},
	}
	s := NewSelector(profiles, rand.New(rand.NewSource(42)))

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		artist, err := s.Draw()
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if seen[artist] {
			t.Fatalf("artist %q drawn twice", artist)
		}
		seen[artist] = true
	}

	if _, err := s.Draw(); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("exhausted pool err = %v, want ErrEmptyPool", err)
	}
}

func TestDrawIsDeterministicForSeed(t *testing.T) {
	profiles := []Profile{
		{Artist: "Ada", LikedCount: 1},
		{Artist: "Bix", LikedCount: 3},
		{Artist: "Cleo", LikedCount: 1, RecentlyPlayed: true},
		{Artist: "Dex", LikedCount: 8},
	}

	first, err := NewSelector(profiles, rand.New(rand.NewSource(7))).DrawN(4)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	second, err := NewSelector(profiles, rand.New(rand.NewSource(7))).DrawN(4)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sequences diverge: %v vs %v", first, second)
		}
	}
}

func TestRareArtistDominatesDraws(t *testing.T) {
	// 10 tickets vs 1 ticket: the rare artist should win the first
	// draw far more often than the saturated one.
	profiles := []Profile{
		{Artist: "Rare", LikedCount: 1},
		{Artist: "Saturated", LikedCount: 20},
	}

	rng := rand.New(rand.NewSource(99))
	rareWins := 0
	const trials = 1000
	for i := 0; i < trials; i++ {
		s := NewSelector(profiles, rng)
		artist, err := s.Draw()
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		if artist == "Rare" {
			rareWins++
		}
	}

	// Expected ratio 10/11. Allow slack for sampling noise.
	if rareWins < trials*80/100 {
		t.Errorf("rare artist won %d/%d draws, expected > 80%%", rareWins, trials)
	}
}

func TestRecencyBoost(t *testing.T) {
	// Equal liked counts; recency boost tips the expected ratio to
	// 1.5:1 in favor of the recently played artist.
	profiles := []Profile{
		{Artist: "Recent", LikedCount: 4, RecentlyPlayed: true},
		{Artist: "Dormant", LikedCount: 4},
	}

	rng := rand.New(rand.NewSource(3))
	recentWins := 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		s := NewSelector(profiles, rng)
		artist, err := s.Draw()
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		if artist == "Recent" {
			recentWins++
		}
	}

	// Expected share 60%. Fail only on gross deviation.
	if recentWins < trials*52/100 || recentWins > trials*68/100 {
		t.Errorf("recent artist won %d/%d draws, expected around 60%%", recentWins, trials)
	}
}

func TestDrawNPartialPool(t *testing.T) {
	profiles := []Profile{
		{Artist: "Ada", LikedCount: 1},
		{Artist: "Bix", LikedCount: 1},
	}
	s := NewSelector(profiles, rand.New(rand.NewSource(5)))

	winners, err := s.DrawN(10)
	if err != nil {
		t.Fatalf("drawn: %v", err)
	}
	if len(winners) != 2 {
		t.Errorf("got %d winners, want 2", len(winners))
	}
}
