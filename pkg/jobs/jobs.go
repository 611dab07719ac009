package jobs

import (
	"sort"
	"sync"
	"time"
)

// Status represents the lifecycle of a contig comparison.
type Status string

const (
	Queued    Status = "queued"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "failed"
)

// Job keeps track of one candidate pair's secondary alignment.
type Job struct {
	Key       string
	Status    Status
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Manager stores job states indexed by candidate key.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewManager constructs a job manager with no jobs.
func NewManager() *Manager {
	return &Manager{
		jobs: make(map[string]*Job),
	}
}

// Enqueue registers a queued job. Re-enqueueing a key resets it.
func (m *Manager) Enqueue(key string) *Job {
	now := time.Now()
	job := &Job{
		Key:       key,
		Status:    Queued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.jobs[key] = job
	m.mu.Unlock()
	return job
}

// SetRunning marks the job as running.
func (m *Manager) SetRunning(key string) {
	m.updateJob(key, func(job *Job) {
		job.Status = Running
	})
}

// Complete marks the job complete.
func (m *Manager) Complete(key string) {
	m.updateJob(key, func(job *Job) {
		job.Status = Completed
	})
}

// Fail records a failure message.
func (m *Manager) Fail(key string, err error) {
	m.updateJob(key, func(job *Job) {
		job.Status = Failed
		job.Error = err.Error()
	})
}

// Get fetches a copy of a job by key.
func (m *Manager) Get(key string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[key]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Counts tallies jobs per status.
func (m *Manager) Counts() map[Status]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[Status]int)
	for _, job := range m.jobs {
		counts[job.Status]++
	}
	return counts
}

// Unfinished lists keys that never reached Completed, sorted.
func (m *Manager) Unfinished() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for key, job := range m.jobs {
		if job.Status != Completed {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (m *Manager) updateJob(key string, update func(job *Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[key]
	if !ok {
		return
	}

	update(job)
	job.UpdatedAt = time.Now()
}
