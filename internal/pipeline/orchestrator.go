package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/autopages/internal/config"
)

// Orchestrator runs queued deck jobs for the HTTP service.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	runner *Runner
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, runner *Runner, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		runner: runner,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for w := 0; w < o.cfg.WorkerCount; w++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					// The error is recorded on the job.
					_ = o.runner.Run(workerCtx, job.Request(), job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// NewWorkspace creates the private directory of a job about to be submitted.
func (o *Orchestrator) NewWorkspace(job *Job) (string, error) {
	dir := filepath.Join(o.cfg.WorkDir, job.ID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	job.SetWorkspace(dir)
	return dir, nil
}

// Submit queues a job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Cleanup evicts expired jobs and removes their workspaces.
func (o *Orchestrator) Cleanup() {
	for _, job := range o.jobs.Cleanup() {
		dir := job.Workspace()
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			o.log.Warn("workspace cleanup failed", "job_id", job.ID, "dir", dir, "error", err)
		}
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Workers returns the configured worker count.
func (o *Orchestrator) Workers() int {
	return o.cfg.WorkerCount
}

// JobCount returns how many jobs are tracked.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}
