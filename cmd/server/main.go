// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package main is the entry point for the Oscillate server.
//
// Oscillate recommends unfamiliar music grounded in a listener's
// library: a weighted lottery picks artists the listener barely knows,
// an audio-analysis sidecar turns one of their tracks into a feature
// vector, and a genre-gated nearest-neighbor search over the cached
// feature corpus produces one recommendation per winner. Results land
// in a playlist on the music service.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, config file, environment (Koanf v2)
//  2. Feature Store: BadgerDB key-value store for vectors and genre cache
//  3. Catalog client: music-service API (profile, search, playlists)
//  4. Genre resolver: catalog first, then the configured fallback sources
//  5. Extractor client: audio-analysis sidecar with circuit breaker
//  6. Engine: lottery, seed ingestion, and matching composed per run
//  7. HTTP server: run submission and polling under a supervision tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SERVER_ADDR, CATALOG_ACCESS_TOKEN, ...)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Minimal setup needs a catalog token and an extractor endpoint:
//
//	export CATALOG_ACCESS_TOKEN=your-token
//	export EXTRACTOR_BASE_URL=http://localhost:5931
//	export STORE_PATH=/data/oscillate
//	./oscillate
//
// Secondary genre sources are optional and enabled by configuring
// their credentials (GENRE_LASTFM_API_KEY, GENRE_DISCOGS_TOKEN).
// MusicBrainz needs no key and is on by default.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP
// server stops accepting connections, in-flight requests get the
// configured shutdown timeout, and the store is closed last.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oscillatefm/oscillate/internal/api"
	"github.com/oscillatefm/oscillate/internal/catalog"
	"github.com/oscillatefm/oscillate/internal/config"
	"github.com/oscillatefm/oscillate/internal/engine"
	"github.com/oscillatefm/oscillate/internal/extractor"
	"github.com/oscillatefm/oscillate/internal/genre"
	"github.com/oscillatefm/oscillate/internal/ingest"
	"github.com/oscillatefm/oscillate/internal/jobs"
	"github.com/oscillatefm/oscillate/internal/logging"
	"github.com/oscillatefm/oscillate/internal/match"
	"github.com/oscillatefm/oscillate/internal/scrobble"
	"github.com/oscillatefm/oscillate/internal/store"
	"github.com/oscillatefm/oscillate/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Str("store_path", cfg.Store.Path).
		Str("catalog_url", cfg.Catalog.BaseURL).
		Str("extractor_url", cfg.Extractor.BaseURL).
		Msg("Configuration loaded")

	st, err := store.Open(store.Options{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
	}, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open feature store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing feature store")
		}
	}()

	catalogClient := catalog.NewClient(cfg.Catalog, logger)

	// The catalog is always the first genre source; the rest of the
	// chain is tried in order and skipped when unconfigured.
	sources := []genre.Source{catalog.NewGenreSource(catalogClient)}
	var recentSource engine.RecentSource
	if cfg.Genre.LastFMAPIKey != "" {
		sources = append(sources, genre.NewLastFMSource(cfg.Genre.LastFMBaseURL, cfg.Genre.LastFMAPIKey, cfg.Genre.SourceTimeout))
		recentSource = scrobble.NewClient(cfg.Genre.LastFMBaseURL, cfg.Genre.LastFMAPIKey, cfg.Genre.SourceTimeout, logger)
		logging.Info().Msg("Last.fm genre source and scrobble history enabled")
	}
	if cfg.Genre.MusicBrainzUserAgent != "" {
		sources = append(sources, genre.NewMusicBrainzSource(cfg.Genre.MusicBrainzBaseURL, cfg.Genre.MusicBrainzUserAgent, cfg.Genre.SourceTimeout))
		logging.Info().Msg("MusicBrainz genre source enabled")
	}
	if cfg.Genre.DiscogsToken != "" {
		sources = append(sources, genre.NewDiscogsSource(cfg.Genre.DiscogsBaseURL, cfg.Genre.DiscogsToken, cfg.Genre.SourceTimeout))
		logging.Info().Msg("Discogs genre source enabled")
	}
	resolver := genre.NewResolver(st, sources, logger)

	extractorClient := extractor.NewClient(cfg.Extractor, logger)
	orchestrator := ingest.New(st, extractorClient, cfg.Run.MaxSeedAttempts, logger)

	matcher := match.New(st, resolver, catalogClient, match.Params{
		StrictScanLimit: cfg.Run.Phase1Limit,
		StrictOverlap:   cfg.Run.StrictOverlap,
		RelaxedOverlap:  cfg.Run.RelaxedOverlap,
	}, logger)

	playlists := catalog.NewPlaylistWriter(catalogClient, cfg.Run.PlaylistStaleAfter)
	eng := engine.New(catalogClient, orchestrator, matcher, playlists, recentSource, cfg.Run, logger)

	// Context governing background runs and the supervisor tree.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := jobs.NewRegistry()
	handler := api.NewHandler(ctx, eng, registry, cfg.Run, logger)
	router := api.NewRouter(handler, cfg.Server, logger)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	tree := supervisor.NewTree(logging.Slog(), supervisor.Config{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	tree.Add(store.NewGCService(st, cfg.Store.GCInterval, cfg.Store.GCDiscardRatio, logger))
	tree.Add(jobs.NewJanitor(registry, cfg.Jobs, logger))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
