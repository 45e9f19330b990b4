// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package genre

import (
	"reflect"
	"testing"
)

func TestNewSetNormalizes(t *testing.T) {
	got := NewSet("Rock", " indie ", "ROCK", "", "Alt-Rock")
	want := Set{"alt-rock", "indie", "rock"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewSet = %v, want %v", got, want)
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b Set
		want int
	}{
		{"disjoint", NewSet("rock"), NewSet("jazz"), 0},
		{"identical", NewSet("rock", "indie"), NewSet("indie", "rock"), 2},
		{"partial", NewSet("rock", "indie", "alt"), NewSet("rock", "indie", "pop"), 2},
		{"empty left", NewSet(), NewSet("rock"), 0},
		{"empty right", NewSet("rock"), NewSet(), 0},
		{"case folded", NewSet("Rock"), NewSet("ROCK"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlap(tt.b); got != tt.want {
				t.Errorf("Overlap(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	s := NewSet("rock", "indie")
	if !s.Contains("Rock") {
		t.Error("expected Contains to fold case")
	}
	if s.Contains("jazz") {
		t.Error("unexpected membership")
	}
}

func TestEmpty(t *testing.T) {
	if !NewSet().Empty() {
		t.Error("NewSet() should be empty")
	}
	if NewSet("rock").Empty() {
		t.Error("non-empty set reported empty")
	}
}
