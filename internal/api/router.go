// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package api provides the HTTP caller surface: starting discovery
// runs, polling their status, health, and metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/config"
	"github.com/oscillatefm/oscillate/internal/metrics"
)

// Router wires handlers and middleware into the service's HTTP
// surface.
type Router struct {
	handler *Handler
	cfg     config.ServerConfig
	logger  zerolog.Logger
}

func NewRouter(handler *Handler, cfg config.ServerConfig, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		cfg:     cfg,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// Setup builds the route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogging(rt.logger))

	if len(rt.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         86400,
		}))
	}

	r.Get("/healthz", rt.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			rt.cfg.RateLimitReqs,
			rt.cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
				metrics.APIRateLimitHits.WithLabelValues(req.URL.Path).Inc()
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}),
		))

		r.Post("/runs", rt.handler.StartRun)
		r.Get("/runs/{id}", rt.handler.RunStatus)
	})

	return r
}
