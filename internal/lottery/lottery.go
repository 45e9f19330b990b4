// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package lottery implements the weighted artist lottery: rarely-liked
// artists get the highest ticket counts, so discovery leans toward the
// fringes of the listener's taste rather than the center.
package lottery

import (
	"errors"
	"math/rand"
	"sort"
)

// ErrEmptyPool is returned when no artist has a positive weight.
var ErrEmptyPool = errors.New("lottery: no artists with positive weight")

// recencyBoost multiplies the weight of artists the listener has
// played recently.
const recencyBoost = 1.5

// Profile is one artist's standing in the listener's library.
type Profile struct {
	Artist     string
	LikedCount int
	// RecentlyPlayed marks artists present in the listener's recent
	// play history.
	RecentlyPlayed bool
}

// Weight maps a liked-track count to lottery tickets. The scale is
// deliberately inverted: one liked track earns ten tickets, a
// well-represented artist earns one.
func Weight(likedCount int) float64 {
	switch {
	case likedCount <= 0:
		return 0
	case likedCount == 1:
		return 10
	case likedCount == 2:
		return 5
	case likedCount == 3:
		return 2
	default:
		return 1
	}
}

// entry is a weighted artist in deterministic draw order.
type entry struct {
	artist string
	weight float64
}

// Selector draws artists without replacement from a weighted pool.
// The randomness source is injected so runs are reproducible in tests.
// Not safe for concurrent use; each run owns its own Selector.
type Selector struct {
	entries []entry
	total   float64
	rng     *rand.Rand
}

// NewSelector builds a selector from artist profiles. Artists with
// zero weight are excluded from the pool entirely. Entries are kept in
// sorted artist order so the same profile set and seed always produce
// the same draw sequence.
func NewSelector(profiles []Profile, rng *rand.Rand) *Selector {
	entries := make([]entry, 0, len(profiles))
	for _, p := range profiles {
		w := Weight(p.LikedCount)
		if w == 0 {
			continue
		}
		if p.RecentlyPlayed {
			w *= recencyBoost
		}
		entries = append(entries, entry{artist: p.Artist, weight: w})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].artist < entries[j].artist })

	total := 0.0
	for _, e := range entries {
		total += e.weight
	}

	return &Selector{entries: entries, total: total, rng: rng}
}

// Remaining reports how many artists are still in the pool.
func (s *Selector) Remaining() int {
	return len(s.entries)
}

// Draw removes and returns one artist, chosen with probability
// proportional to weight.
func (s *Selector) Draw() (string, error) {
	if len(s.entries) == 0 || s.total <= 0 {
		return "", ErrEmptyPool
	}

	target := s.rng.Float64() * s.total

	idx := len(s.entries) - 1
	cum := 0.0
	for i, e := range s.entries {
		cum += e.weight
		if target < cum {
			idx = i
			break
		}
	}

	winner := s.entries[idx]
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.total -= winner.weight

	return winner.artist, nil
}

// DrawN draws up to n distinct artists. Fewer are returned when the
// pool runs dry; ErrEmptyPool only when the pool starts empty.
func (s *Selector) DrawN(n int) ([]string, error) {
	if s.Remaining() == 0 {
		return nil, ErrEmptyPool
	}

	winners := make([]string, 0, n)
	for len(winners) < n {
		artist, err := s.Draw()
		if errors.Is(err, ErrEmptyPool) {
			break
		}
		if err != nil {
			return nil, err
		}
		winners = append(winners, artist)
	}
	return winners, nil
}
