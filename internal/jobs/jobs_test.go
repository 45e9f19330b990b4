// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/oscillatefm/oscillate/internal/engine"
)

func TestJobLifecycle(t *testing.T) {
	r := NewRegistry()

	job := r.Create()
	if job.ID == "" {
		t.Fatal("job id empty")
	}
	if job.Status != StatusStarting {
		t.Errorf("status = %s, want starting", job.Status)
	}

	r.SetRunning(job.ID)
	got, err := r.Get(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusRunning {
		t.Errorf("status = %s, want running", got.Status)
	}

	r.Complete(job.ID, &engine.Result{Requested: 5})
	got, err = r.Get(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Result == nil || got.Result.Requested != 5 {
		t.Errorf("result = %+v, want requested 5", got.Result)
	}
}

func TestJobFailure(t *testing.T) {
	r := NewRegistry()
	job := r.Create()

	r.Fail(job.ID, errors.New("pool exhausted"))

	got, err := r.Get(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Error != "pool exhausted" {
		t.Errorf("error = %q, want pool exhausted", got.Error)
	}
}

func TestGetUnknownJob(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	job := r.Create()

	got, _ := r.Get(job.ID)
	got.Status = StatusFailed

	again, _ := r.Get(job.ID)
	if again.Status != StatusStarting {
		t.Error("mutating a returned job leaked into the registry")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	finished := r.Create()
	r.Complete(finished.ID, nil)
	running := r.Create()
	r.SetRunning(running.ID)

	// One hour later: the finished job is past its completed TTL, the
	// running one stays.
	r.now = func() time.Time { return base.Add(time.Hour) }
	removed := r.Sweep(30*time.Minute, 24*time.Hour)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := r.Get(finished.ID); !errors.Is(err, ErrNotFound) {
		t.Error("finished job should have been swept")
	}
	if _, err := r.Get(running.ID); err != nil {
		t.Error("running job should survive the sweep")
	}

	// Past the max TTL even a running job is orphaned.
	r.now = func() time.Time { return base.Add(25 * time.Hour) }
	if removed := r.Sweep(30*time.Minute, 24*time.Hour); removed != 1 {
		t.Errorf("orphan sweep removed = %d, want 1", removed)
	}
	if r.Len() != 0 {
		t.Errorf("len = %d, want 0", r.Len())
	}
}
