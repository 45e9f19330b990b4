// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/config"
	"github.com/oscillatefm/oscillate/internal/engine"
	"github.com/oscillatefm/oscillate/internal/jobs"
	"github.com/oscillatefm/oscillate/internal/logging"
)

// Runner starts discovery runs. Satisfied by *engine.Engine.
type Runner interface {
	Run(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// Handler implements the HTTP endpoints.
type Handler struct {
	runner   Runner
	registry *jobs.Registry
	runCfg   config.RunConfig
	logger   zerolog.Logger

	// baseCtx parents the background run contexts so runs survive the
	// request but still stop on shutdown.
	baseCtx context.Context
}

func NewHandler(baseCtx context.Context, runner Runner, registry *jobs.Registry, runCfg config.RunConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		runner:   runner,
		registry: registry,
		runCfg:   runCfg,
		logger:   logger.With().Str("component", "api-handler").Logger(),
		baseCtx:  baseCtx,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// startRunRequest is the POST /api/v1/runs payload.
type startRunRequest struct {
	Songs        int    `json:"songs"`
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`

	// LastFMUsername sources the recency boost from that scrobbler
	// account instead of the catalog's recently-played feed.
	LastFMUsername string `json:"lastfm_username"`

	// MaxFollowerCount caps candidate artist popularity. Zero means no
	// cap.
	MaxFollowerCount int `json:"max_follower_count"`
}

// startRunResponse returns the job to poll.
type startRunResponse struct {
	JobID  string      `json:"job_id"`
	Status jobs.Status `json:"status"`
}

// StartRun launches a discovery run as a background job and returns
// 202 with the job id.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if req.Songs < 0 || req.Songs > h.runCfg.MaxSongs {
		writeError(w, http.StatusBadRequest, "songs out of range")
		return
	}
	if req.MaxFollowerCount < 0 {
		writeError(w, http.StatusBadRequest, "max_follower_count must not be negative")
		return
	}

	job := h.registry.Create()
	runID := job.ID

	go h.execute(runID, engine.Request{
		Songs:          req.Songs,
		PlaylistID:     req.PlaylistID,
		PlaylistName:   req.PlaylistName,
		RecentUsername: req.LastFMUsername,
		MaxFollowers:   req.MaxFollowerCount,
	})

	writeJSON(w, http.StatusAccepted, startRunResponse{JobID: runID, Status: job.Status})
}

// execute drives one background run and records its outcome.
func (h *Handler) execute(runID string, req engine.Request) {
	ctx := logging.ContextWithRunID(h.baseCtx, runID)

	h.registry.SetRunning(runID)

	result, err := h.runner.Run(ctx, req)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", runID).Msg("discovery run failed")
		h.registry.Fail(runID, err)
		return
	}
	h.registry.Complete(runID, result)
}

// RunStatus returns the current state of a run job.
func (h *Handler) RunStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.registry.Get(id)
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "job lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, job)
}
