package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of a deck job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusLoading    JobStatus = "loading"
	StatusPopulating JobStatus = "populating"
	StatusConverting JobStatus = "converting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Job tracks one run: a data file populated onto a template, or one file of
// a batch conversion.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	DataFile string    `json:"data_file"`
	Template string    `json:"template"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	req       Request
	workspace string
	outputs   []Output
	errors    []string
}

// Progress tracks processing progress.
type Progress struct {
	Documents int      `json:"documents"`
	Populated int      `json:"populated"`
	Converted int      `json:"converted"`
	Errors    []string `json:"errors"`
}

// Output is what one document produced.
type Output struct {
	Document int    `json:"document"`
	Deck     string `json:"deck,omitempty"`
	PDF      string `json:"pdf,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewJob returns a queued job with a fresh id.
func NewJob(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        newJobID(),
		Status:    StatusQueued,
		Phase:     "queued",
		DataFile:  req.DataPath,
		Template:  req.TemplatePath,
		CreatedAt: now,
		UpdatedAt: now,
		req:       req,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs that are no longer running and returns them.
func (s *JobStore) Cleanup() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var evicted []*Job
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl && job.Status.done()
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
			evicted = append(evicted, job)
		}
	}
	return evicted
}

func (st JobStatus) done() bool {
	switch st {
	case StatusCompleted, StatusFailed, StatusPartial:
		return true
	}
	return false
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetDocuments records how many documents the run produces.
func (j *Job) SetDocuments(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Documents = n
	j.UpdatedAt = time.Now()
}

// AddOutput records the result of one document.
func (j *Job) AddOutput(out Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outputs = append(j.outputs, out)
	if out.Deck != "" && !out.Skipped {
		j.Progress.Populated++
	}
	if out.PDF != "" {
		j.Progress.Converted++
	}
	j.UpdatedAt = time.Now()
}

// Outputs returns the recorded outputs.
func (j *Job) Outputs() []Output {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Output(nil), j.outputs...)
}

// Workspace returns the private directory of the job, if any.
func (j *Job) Workspace() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.workspace
}

// SetWorkspace sets the private directory removed when the job is evicted.
func (j *Job) SetWorkspace(dir string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.workspace = dir
}

// Request returns the run request of the job.
func (j *Job) Request() Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.req
}

// SetRequest replaces the run request, for jobs whose inputs are written
// into the workspace after the job is created.
func (j *Job) SetRequest(req Request) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.req = req
	j.DataFile = req.DataPath
	j.Template = req.TemplatePath
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	DataFile string    `json:"data_file,omitempty"`
	Template string    `json:"template,omitempty"`
	Progress Progress  `json:"progress"`
	Outputs  []Output  `json:"outputs"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	outputs := append([]Output{}, j.outputs...)
	return JobSnapshot{
		ID:       j.ID,
		Status:   j.Status,
		Phase:    j.Phase,
		DataFile: j.DataFile,
		Template: j.Template,
		Progress: Progress{
			Documents: j.Progress.Documents,
			Populated: j.Progress.Populated,
			Converted: j.Progress.Converted,
			Errors:    errs,
		},
		Outputs: outputs,
	}
}
