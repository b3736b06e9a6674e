package job

import (
	"context"
	"sync"

	"github.com/alexkibler/sticker-nester/pkg/observability"
)

// MemoryStore is an in-process Store for development, tests, and the CLI.
// Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Get retrieves a job by ID. Expired jobs are treated as absent.
func (s *MemoryStore) Get(ctx context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	j, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok || j.Expired() {
		observability.Store().OnStoreMiss(ctx, jobID)
		return nil, nil
	}
	observability.Store().OnStoreHit(ctx, jobID)

	cp := *j
	return &cp, nil
}

// Set stores a snapshot of the job. The store keeps its own copy so
// later mutations by the job goroutine are not observable through Get.
func (s *MemoryStore) Set(ctx context.Context, j *Job) error {
	cp := *j
	s.mu.Lock()
	s.jobs[j.ID] = &cp
	s.mu.Unlock()

	observability.Store().OnStoreSet(ctx, j.ID, 0)
	return nil
}

// Delete removes a job. Deleting an absent job is not an error.
func (s *MemoryStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	delete(s.jobs, jobID)
	s.mu.Unlock()
	return nil
}

// Cleanup removes expired jobs.
func (s *MemoryStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if j.Expired() {
			delete(s.jobs, id)
		}
	}
	return nil
}

// Len reports the number of stored jobs, mainly for tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
