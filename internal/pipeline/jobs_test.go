package pipeline

import (
	"testing"
	"time"
)

func TestNewJob_IDsAreUniqueAndOrdered(t *testing.T) {
	a := NewJob(Request{DataPath: "a.json"})
	b := NewJob(Request{DataPath: "b.json"})
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q twice", a.ID)
	}
	if a.ID > b.ID {
		t.Errorf("expected ids ordered by creation, got %q then %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued || a.DataFile != "a.json" {
		t.Errorf("unexpected initial job state %+v", a.Snapshot())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusLoading, "loading"},
		{StatusPopulating, "populating 1/2"},
		{StatusConverting, "converting 1/2"},
		{StatusPopulating, "populating 2/2"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("document 3: conversion failed")
	job.AddError("document 7: conversion failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "document 3: conversion failed" {
		t.Errorf("expected first error %q, got %q", "document 3: conversion failed", snap.Progress.Errors[0])
	}
}

func TestJob_AddOutputCounts(t *testing.T) {
	job := &Job{ID: "out-test", UpdatedAt: time.Now()}
	job.SetDocuments(3)
	job.AddOutput(Output{Document: 0, Deck: "a.pptx", PDF: "a.pdf"})
	job.AddOutput(Output{Document: 1, Deck: "b.pptx", Error: "boom"})
	job.AddOutput(Output{Document: 2, Deck: "c.pptx", Skipped: true})

	snap := job.Snapshot()
	if snap.Progress.Documents != 3 {
		t.Errorf("expected 3 documents, got %d", snap.Progress.Documents)
	}
	if snap.Progress.Populated != 2 {
		t.Errorf("expected 2 populated, got %d", snap.Progress.Populated)
	}
	if snap.Progress.Converted != 1 {
		t.Errorf("expected 1 converted, got %d", snap.Progress.Converted)
	}
	if len(snap.Outputs) != 3 {
		t.Errorf("expected 3 outputs, got %d", len(snap.Outputs))
	}
}

func TestJob_SnapshotIsACopy(t *testing.T) {
	job := &Job{ID: "copy-test", UpdatedAt: time.Now()}
	job.AddOutput(Output{Deck: "a.pptx"})
	snap := job.Snapshot()
	snap.Outputs[0].Deck = "changed"
	if job.Outputs()[0].Deck != "a.pptx" {
		t.Error("expected snapshot mutation not to leak into the job")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if snap.Outputs == nil {
		t.Error("expected non-nil outputs slice in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", Status: StatusCompleted, UpdatedAt: time.Now()}
	running := &Job{ID: "running", Status: StatusConverting, UpdatedAt: time.Now()}
	store.Put(expired)
	store.Put(running)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", Status: StatusCompleted, UpdatedAt: time.Now()}
	store.Put(fresh)

	evicted := store.Cleanup()

	if len(evicted) != 1 || evicted[0].ID != "old" {
		t.Errorf("expected only the old job evicted, got %d jobs", len(evicted))
	}
	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("running") == nil {
		t.Error("expected running job to survive cleanup")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	if evicted := store.Cleanup(); len(evicted) != 0 {
		t.Errorf("expected nothing evicted, got %d", len(evicted))
	}
}

func TestJob_SetRequest(t *testing.T) {
	job := NewJob(Request{})
	job.SetRequest(Request{DataPath: "in/rows.json", TemplatePath: "in/brand.pptx", OutputRoot: "out"})
	snap := job.Snapshot()
	if snap.DataFile != "in/rows.json" || snap.Template != "in/brand.pptx" {
		t.Errorf("expected snapshot to carry request files, got %+v", snap)
	}
	if job.Request().OutputRoot != "out" {
		t.Errorf("expected output root %q, got %q", "out", job.Request().OutputRoot)
	}
}
