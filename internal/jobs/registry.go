// Package jobs tracks background work, such as document ingestion, in an
// in-memory registry that handlers and websocket watchers can poll or follow.
package jobs

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is a point-in-time snapshot of one tracked job.
type Job struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Status     Status     `json:"status"`
	Progress   int        `json:"progress"`
	Total      int        `json:"total"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Done reports whether the job has reached a terminal state.
func (j Job) Done() bool {
	return j.Status != StatusRunning
}

type tracked struct {
	mu       sync.Mutex
	job      Job
	watchers map[chan Job]struct{}
}

// Registry holds all known jobs. Finished jobs stay visible until the
// process exits; ingestion runs are rare enough that eviction is not worth
// the bookkeeping.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*tracked
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*tracked)}
}

// Start registers a new running job and returns a handle for the worker.
func (r *Registry) Start(kind string, total int) *Handle {
	t := &tracked{
		job: Job{
			ID:        uuid.NewString(),
			Kind:      kind,
			Status:    StatusRunning,
			Total:     total,
			StartedAt: time.Now(),
		},
		watchers: make(map[chan Job]struct{}),
	}

	r.mu.Lock()
	r.jobs[t.job.ID] = t
	r.mu.Unlock()

	return &Handle{t: t}
}

// Get returns a snapshot of the job, if known.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	t, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return Job{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job, true
}

// List returns snapshots of all jobs, newest first.
func (r *Registry) List() []Job {
	r.mu.RLock()
	all := make([]*tracked, 0, len(r.jobs))
	for _, t := range r.jobs {
		all = append(all, t)
	}
	r.mu.RUnlock()

	out := make([]Job, 0, len(all))
	for _, t := range all {
		t.mu.Lock()
		out = append(out, t.job)
		t.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Watch subscribes to updates for a job. The current snapshot is delivered
// immediately; the channel closes once the job finishes. The returned cancel
// function must be called when the watcher is done.
func (r *Registry) Watch(id string) (<-chan Job, func(), bool) {
	r.mu.RLock()
	t, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}

	ch := make(chan Job, 16)

	t.mu.Lock()
	ch <- t.job
	if t.job.Done() {
		close(ch)
		t.mu.Unlock()
		return ch, func() {}, true
	}
	t.watchers[ch] = struct{}{}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		if _, still := t.watchers[ch]; still {
			delete(t.watchers, ch)
			close(ch)
		}
		t.mu.Unlock()
	}
	return ch, cancel, true
}

// Handle is the worker-side view of a job.
type Handle struct {
	t *tracked
}

// ID returns the job's registry ID.
func (h *Handle) ID() string {
	h.t.mu.Lock()
	defer h.t.mu.Unlock()
	return h.t.job.ID
}

// SetTotal updates the total once the amount of work is known.
func (h *Handle) SetTotal(total int) {
	h.update(func(j *Job) { j.Total = total })
}

// Progress records completed units of work.
func (h *Handle) Progress(done int) {
	h.update(func(j *Job) { j.Progress = done })
}

// Complete marks the job finished successfully.
func (h *Handle) Complete() {
	h.update(func(j *Job) {
		now := time.Now()
		j.Status = StatusCompleted
		j.FinishedAt = &now
	})
}

// Fail marks the job failed with the given error.
func (h *Handle) Fail(err error) {
	h.update(func(j *Job) {
		now := time.Now()
		j.Status = StatusFailed
		j.Error = err.Error()
		j.FinishedAt = &now
	})
}

func (h *Handle) update(fn func(*Job)) {
	t := h.t
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.job.Done() {
		return
	}
	fn(&t.job)

	for ch := range t.watchers {
		select {
		case ch <- t.job:
		default:
			// Slow watcher: drop the update, it will see the next one.
		}
	}
	if t.job.Done() {
		for ch := range t.watchers {
			close(ch)
			delete(t.watchers, ch)
		}
	}
}
