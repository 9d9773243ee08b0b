package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"aivideo/internal/domain"
)

// MemoryJobRepository keeps jobs in process memory. Contents are lost on
// restart; it is the default store for local runs and tests.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*memoryEntry
	seq  uint64
	now  func() time.Time
}

type memoryEntry struct {
	job *domain.Job
	seq uint64
}

// NewMemoryJobRepository returns an empty in-memory store.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*memoryEntry), now: time.Now}
}

func (r *MemoryJobRepository) Save(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	r.seq++
	r.jobs[job.ID] = &memoryEntry{job: job.Clone(), seq: r.seq}
	return nil
}

func (r *MemoryJobRepository) Get(ctx context.Context, id string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.job.Clone(), nil
}

// Update applies u under the write lock, so readers never observe a
// partially applied change.
func (r *MemoryJobRepository) Update(ctx context.Context, id string, u domain.Update) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := e.job.Clone()
	if err := next.Apply(u, r.now().UTC()); err != nil {
		return nil, err
	}
	e.job = next
	return next.Clone(), nil
}

func (r *MemoryJobRepository) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	// Entries are cloned under the lock; Update swaps e.job concurrently.
	r.mu.RLock()
	snapshot := make([]memoryEntry, 0, len(r.jobs))
	for _, e := range r.jobs {
		snapshot = append(snapshot, memoryEntry{job: e.job.Clone(), seq: e.seq})
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		a, b := snapshot[i], snapshot[j]
		if !a.job.CreatedAt.Equal(b.job.CreatedAt) {
			return a.job.CreatedAt.After(b.job.CreatedAt)
		}
		return a.seq > b.seq
	})

	limit = domain.ClampLimit(limit)
	if len(snapshot) > limit {
		snapshot = snapshot[:limit]
	}
	out := make([]*domain.Job, 0, len(snapshot))
	for _, e := range snapshot {
		out = append(out, e.job)
	}
	return out, nil
}

func (r *MemoryJobRepository) ListActive(ctx context.Context) ([]*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Job, 0)
	for _, e := range r.jobs {
		if !e.job.Status.Terminal() {
			out = append(out, e.job.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryJobRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

func (r *MemoryJobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.jobs {
		if e.job.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed, nil
}

var _ domain.JobStore = (*MemoryJobRepository)(nil)
