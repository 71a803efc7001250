// Package jobs owns job identity, lifecycle state and the background
// execution of the evaluation pipeline.
package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/cv-screener/internal/evaluation"
)

// ErrNotFound is returned when a job id is unknown to the registry.
var ErrNotFound = errors.New("job not found")

// Status is the job lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a single evaluation request. Once the status leaves queued or
// processing, exactly one of Result and Error is set.
type Job struct {
	ID        string                   `json:"job_id"`
	Status    Status                   `json:"status"`
	Result    *evaluation.FinalResult  `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Registry is the in-memory job store. Job state is volatile by design and
// lives until process termination; records are mutated only through the
// transition methods, atomically with respect to concurrent readers.
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

// Create allocates a fresh job in queued state and returns its id.
func (r *Registry) Create() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	now := r.now()
	r.jobs[id] = &Job{
		ID:        id,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return id
}

// Get returns a snapshot of the job. The copy keeps readers isolated from
// later transitions.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// SetProcessing transitions a queued job to processing.
func (r *Registry) SetProcessing(id string) error {
	return r.transition(id, StatusProcessing, func(job *Job) {
		job.Result = nil
		job.Error = ""
	})
}

// SetCompleted transitions a processing job to completed with its result.
func (r *Registry) SetCompleted(id string, result *evaluation.FinalResult) error {
	return r.transition(id, StatusCompleted, func(job *Job) {
		job.Result = result
		job.Error = ""
	})
}

// SetFailed transitions a job to failed with a human-readable error.
func (r *Registry) SetFailed(id string, message string) error {
	return r.transition(id, StatusFailed, func(job *Job) {
		job.Result = nil
		job.Error = message
	})
}

func (r *Registry) transition(id string, next Status, apply func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// Terminal states are sticky. A transition out of one is a bug in the
	// caller, not a runtime condition, so fail fast.
	if job.Status.Terminal() {
		panic(fmt.Sprintf("jobs: illegal transition %s -> %s for job %s", job.Status, next, id))
	}

	job.Status = next
	apply(job)
	job.UpdatedAt = r.now()

	return nil
}
