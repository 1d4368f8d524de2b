package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/autopages/internal/config"
)

func TestOrchestrator_RunsSubmittedJob(t *testing.T) {
	f := newFixture(t)
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 4, JobTTL: time.Hour, WorkDir: t.TempDir()}
	orch := NewOrchestrator(cfg, f.runner, quiet)
	orch.Start(context.Background())
	defer orch.Stop()

	data := f.data(t, "data.json", `[{"A": "x"}]`)
	job := NewJob(f.request(data, "report"))
	if _, err := orch.NewWorkspace(job); err != nil {
		t.Fatalf("workspace: %v", err)
	}
	if err := orch.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := orch.GetJob(job.ID).Snapshot(); snap.Status == StatusCompleted || snap.Status == StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap := orch.GetJob(job.ID).Snapshot(); snap.Status != StatusCompleted {
		t.Fatalf("expected completed job, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	orch := NewOrchestrator(cfg, NewRunner(nil, RunnerOptions{}, quiet), quiet)

	if err := orch.Submit(NewJob(Request{})); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job := NewJob(Request{})
	if err := orch.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", job.Snapshot().Status)
	}
}

func TestOrchestrator_CleanupRemovesWorkspace(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Millisecond, WorkDir: t.TempDir()}
	orch := NewOrchestrator(cfg, NewRunner(nil, RunnerOptions{}, quiet), quiet)

	job := NewJob(Request{})
	dir, err := orch.NewWorkspace(job)
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	if filepath.Dir(dir) != cfg.WorkDir {
		t.Errorf("expected workspace under %q, got %q", cfg.WorkDir, dir)
	}
	job.SetStatus(StatusCompleted, "done")
	orch.jobs.Put(job)
	time.Sleep(5 * time.Millisecond)

	orch.Cleanup()
	if orch.GetJob(job.ID) != nil {
		t.Error("expected job evicted")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected workspace removed, stat returned %v", err)
	}
}
