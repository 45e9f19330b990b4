// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package feature defines the audio-feature data model shared by the
// Feature Store, the extraction pipeline, and the similarity matcher.
package feature

import (
	"math"
	"time"
)

// Track identifies one track in the catalog. Immutable once observed.
type Track struct {
	// ID is the catalog track identifier and the source-of-truth key
	// for the Feature Store.
	ID     string `json:"id"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Link   string `json:"link"`
}

// Vector is the audio-feature profile of one track: sixteen numeric
// dimensions compared by the similarity matcher, plus the musical key,
// which is categorical and carried for display only.
//
// Field names mirror the extraction sidecar's output columns: rhythm
// (tempo, beat regularity), spectral (brightness, treble, fullness,
// dynamic range), temporal (percussiveness, loudness), harmonic/
// percussive (warmth, punch), timbral (texture), and four perceptual
// 0-1 scores plus instrumental.
type Vector struct {
	TempoBPM       float64 `json:"tempo_bpm"`
	MusicalKey     int     `json:"key_musical"`
	BeatRegularity float64 `json:"beat_regularity"`

	BrightnessHz float64 `json:"brightness_hz"`
	TrebleHz     float64 `json:"treble_hz"`
	FullnessHz   float64 `json:"fullness_hz"`
	DynamicRange float64 `json:"dynamic_range"`

	Percussiveness float64 `json:"percussiveness"`
	Loudness       float64 `json:"loudness"`

	Warmth float64 `json:"warmth"`
	Punch  float64 `json:"punch"`

	Texture float64 `json:"texture"`

	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	MoodPositive float64 `json:"mood_positive"`
	Acousticness float64 `json:"acousticness"`
	Instrumental float64 `json:"instrumental"`
}

// NumDimensions is the number of dimensions entering distance
// computation. MusicalKey is excluded.
const NumDimensions = 16

// dims returns the comparable dimensions in their fixed order.
func (v Vector) dims() [NumDimensions]float64 {
	return [NumDimensions]float64{
		v.TempoBPM,
		v.BeatRegularity,
		v.BrightnessHz,
		v.TrebleHz,
		v.FullnessHz,
		v.DynamicRange,
		v.Percussiveness,
		v.Loudness,
		v.Warmth,
		v.Punch,
		v.Texture,
		v.Energy,
		v.Danceability,
		v.MoodPositive,
		v.Acousticness,
		v.Instrumental,
	}
}

// Distance returns the Euclidean distance between two vectors over the
// sixteen comparable dimensions, each in its native scale. No weighting
// or standardization is applied: dimensions with naturally larger
// numeric range (tempo, the Hz-valued spectral features) dominate.
func Distance(a, b Vector) float64 {
	da, db := a.dims(), b.dims()

	var sum float64
	for i := 0; i < NumDimensions; i++ {
		d := da[i] - db[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Record is the unit stored in the Feature Store: a track, its feature
// vector, and when the vector was extracted. Records are replaced
// wholesale on overwrite, never field-merged.
type Record struct {
	Track       Track     `json:"track"`
	Vector      Vector    `json:"vector"`
	ExtractedAt time.Time `json:"extracted_at"`
}
