// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

// Package jobs tracks background discovery runs so callers can start a
// run and poll its status.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oscillatefm/oscillate/internal/engine"
	"github.com/oscillatefm/oscillate/internal/metrics"
)

// ErrNotFound is returned when a job id is unknown or already swept.
var ErrNotFound = errors.New("jobs: not found")

// Status is a job's lifecycle state.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// terminal reports whether a status is final.
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one tracked discovery run.
type Job struct {
	ID        string         `json:"id"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Result    *engine.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Registry is an in-memory job store. Jobs are transient run state,
// not durable records; a restart forgetting them is acceptable.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

// Create registers a new job in the starting state and returns its id.
func (r *Registry) Create() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusStarting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.jobs[job.ID] = job
	metrics.JobsActive.Set(float64(len(r.jobs)))
	return r.snapshot(job)
}

// Get returns a copy of the job, or ErrNotFound.
func (r *Registry) Get(id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.snapshot(job), nil
}

// SetRunning marks the job as in progress.
func (r *Registry) SetRunning(id string) {
	r.update(id, func(job *Job) {
		job.Status = StatusRunning
	})
}

// Complete records a successful result.
func (r *Registry) Complete(id string, result *engine.Result) {
	r.update(id, func(job *Job) {
		job.Status = StatusCompleted
		job.Result = result
	})
}

// Fail records a failed run.
func (r *Registry) Fail(id string, err error) {
	r.update(id, func(job *Job) {
		job.Status = StatusFailed
		job.Error = err.Error()
	})
}

func (r *Registry) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = r.now()
}

// Sweep removes finished jobs older than completedTTL and any job
// older than maxTTL, and returns how many were removed. maxTTL guards
// against jobs orphaned by a panicked runner goroutine.
func (r *Registry) Sweep(completedTTL, maxTTL time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, job := range r.jobs {
		expired := job.Status.terminal() && now.Sub(job.UpdatedAt) > completedTTL
		orphaned := now.Sub(job.CreatedAt) > maxTTL
		if expired || orphaned {
			delete(r.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		metrics.JobsExpired.Add(float64(removed))
	}
	metrics.JobsActive.Set(float64(len(r.jobs)))
	return removed
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// snapshot copies a job so callers never share registry memory.
func (r *Registry) snapshot(job *Job) *Job {
	copied := *job
	return &copied
}
