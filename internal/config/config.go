// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package config loads and validates Oscillate configuration.
//
// Configuration is layered: struct defaults, then an optional YAML file,
// then environment variables (highest priority). Environment variables
// map to config paths by lowercasing and replacing the first underscore
// group: SERVER_ADDR -> server.addr, GENRE_LASTFM_API_KEY ->
// genre.lastfm_api_key.
package config

import (
	"time"
)

// Config is the root configuration for the Oscillate server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Extractor ExtractorConfig `koanf:"extractor"`
	Genre     GenreConfig     `koanf:"genre"`
	Run       RunConfig       `koanf:"run"`
	Jobs      JobsConfig      `koanf:"jobs"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig configures the badger-backed Feature Store.
type StoreConfig struct {
	// Path is the badger data directory. Ignored when InMemory is set.
	Path     string `koanf:"path" validate:"required_unless=InMemory true"`
	InMemory bool   `koanf:"in_memory"`

	// GCInterval controls how often the value-log GC service runs.
	GCInterval     time.Duration `koanf:"gc_interval" validate:"min=1m"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio" validate:"gt=0,lt=1"`
}

// CatalogConfig configures the music-service catalog client.
type CatalogConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// AccessToken is a bearer token for the catalog API. The OAuth
	// login flow that produces it lives outside this service.
	AccessToken string `koanf:"access_token"`

	Timeout      time.Duration `koanf:"timeout" validate:"min=1s"`
	RequestsPerS float64       `koanf:"requests_per_s" validate:"gt=0"`
	Burst        int           `koanf:"burst" validate:"min=1"`
}

// ExtractorConfig configures the audio-analysis sidecar client.
type ExtractorConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// Timeout bounds a single extraction call. A timed-out call is an
	// ordinary extraction failure and feeds the retry state machine.
	Timeout      time.Duration `koanf:"timeout" validate:"min=1s"`
	RequestsPerS float64       `koanf:"requests_per_s" validate:"gt=0"`
	Burst        int           `koanf:"burst" validate:"min=1"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig holds circuit breaker settings for an external collaborator.
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout" validate:"min=1s"`
}

// GenreConfig configures the external genre-metadata fallback chain.
// The catalog service is always the first source; the secondary sources
// below are tried in the order listed here and skipped when unconfigured.
type GenreConfig struct {
	SourceTimeout time.Duration `koanf:"source_timeout" validate:"min=1s"`

	LastFMBaseURL string `koanf:"lastfm_base_url" validate:"omitempty,url"`
	LastFMAPIKey  string `koanf:"lastfm_api_key"`

	MusicBrainzBaseURL   string `koanf:"musicbrainz_base_url" validate:"omitempty,url"`
	MusicBrainzUserAgent string `koanf:"musicbrainz_user_agent"`

	DiscogsBaseURL string `koanf:"discogs_base_url" validate:"omitempty,url"`
	DiscogsToken   string `koanf:"discogs_token"`
}

// RunConfig holds the recommendation run parameters.
type RunConfig struct {
	DefaultSongs int `koanf:"default_songs" validate:"min=1,max=50"`
	MaxSongs     int `koanf:"max_songs" validate:"min=1,max=50"`

	// MaxSeedAttempts is the per-winner extraction attempt budget.
	MaxSeedAttempts int `koanf:"max_seed_attempts" validate:"min=1"`

	// Phase1Limit is the number of eligible candidates the strict
	// genre phase examines before relaxing.
	Phase1Limit    int `koanf:"phase1_limit" validate:"min=1"`
	StrictOverlap  int `koanf:"strict_overlap" validate:"min=1"`
	RelaxedOverlap int `koanf:"relaxed_overlap" validate:"min=1"`

	// DrawCapMultiplier bounds total winner draws at multiplier * N.
	DrawCapMultiplier int `koanf:"draw_cap_multiplier" validate:"min=1"`

	// PlaylistStaleAfter controls pruning of old playlist entries
	// before new recommendations are appended.
	PlaylistStaleAfter time.Duration `koanf:"playlist_stale_after"`
}

// JobsConfig configures the background job registry.
type JobsConfig struct {
	// TTL is the maximum lifetime of any job record.
	TTL time.Duration `koanf:"ttl" validate:"min=1m"`

	// CompletedTTL is how long finished jobs remain pollable.
	CompletedTTL time.Duration `koanf:"completed_ttl" validate:"min=1m"`

	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"min=10s"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:5930",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Path:           "/data/oscillate",
			InMemory:       false,
			GCInterval:     30 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Catalog: CatalogConfig{
			BaseURL:      "https://api.spotify.com",
			Timeout:      15 * time.Second,
			RequestsPerS: 3,
			Burst:        5,
		},
		Extractor: ExtractorConfig{
			BaseURL:      "http://127.0.0.1:5931",
			Timeout:      2 * time.Minute,
			RequestsPerS: 1,
			Burst:        2,
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
			},
		},
		Genre: GenreConfig{
			SourceTimeout:        10 * time.Second,
			LastFMBaseURL:        "https://ws.audioscrobbler.com/2.0/",
			LastFMAPIKey:         "",
			MusicBrainzBaseURL:   "https://musicbrainz.org/ws/2",
			MusicBrainzUserAgent: "oscillate/1.0 (https://github.com/oscillatefm/oscillate)",
			DiscogsBaseURL:       "https://api.discogs.com",
			DiscogsToken:         "",
		},
		Run: RunConfig{
			DefaultSongs:       10,
			MaxSongs:           50,
			MaxSeedAttempts:    5,
			Phase1Limit:        100,
			StrictOverlap:      3,
			RelaxedOverlap:     1,
			DrawCapMultiplier:  3,
			PlaylistStaleAfter: 7 * 24 * time.Hour,
		},
		Jobs: JobsConfig{
			TTL:             time.Hour,
			CompletedTTL:    10 * time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}
