// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package genre resolves artist genre tags through a cached, ordered
// chain of external metadata sources.
package genre

import (
	"sort"
	"strings"
)

// Set is a normalized set of genre tags for one artist: lowercase,
// deduplicated, sorted. The sorted-slice representation keeps JSON
// encoding deterministic for the cache.
type Set []string

// NewSet builds a Set from raw tags, lowercasing, trimming and
// deduplicating. Empty tags are dropped.
func NewSet(tags ...string) Set {
	seen := make(map[string]struct{}, len(tags))
	out := make(Set, 0, len(tags))

	for _, tag := range tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}

	sort.Strings(out)
	return out
}

// Empty reports whether the set has no tags. A cached empty set is a
// valid resolution result (negative cache).
func (s Set) Empty() bool {
	return len(s) == 0
}

// Contains reports whether the set holds the given tag (normalized).
func (s Set) Contains(tag string) bool {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	i := sort.SearchStrings(s, normalized)
	return i < len(s) && s[i] == normalized
}

// Overlap returns the number of tags shared with other.
func (s Set) Overlap(other Set) int {
	if len(s) == 0 || len(other) == 0 {
		return 0
	}

	// Both sides are sorted; merge-count the intersection.
	count, i, j := 0, 0, 0
	for i < len(s) && j < len(other) {
		switch {
		case s[i] == other[j]:
			count++
			i++
			j++
		case s[i] < other[j]:
			i++
		default:
			j++
		}
	}
	return count
}
