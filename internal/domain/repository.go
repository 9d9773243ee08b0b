package domain

import (
	"context"
	"time"
)

// MaxListLimit caps the size of a single List page.
const MaxListLimit = 50

// JobStore persists generation jobs. Implementations must return
// ErrNotFound for unknown ids and must refuse to modify terminal jobs.
type JobStore interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	// Update loads the job, applies u and persists the result atomically.
	Update(ctx context.Context, id string, u Update) (*Job, error)
	// List returns jobs ordered by CreatedAt descending.
	List(ctx context.Context, limit int) ([]*Job, error)
	Delete(ctx context.Context, id string) error
	// DeleteOlderThan removes jobs created before cutoff and reports how many.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	// ListActive returns jobs that have not reached a terminal state.
	ListActive(ctx context.Context) ([]*Job, error)
}

// ClampLimit normalizes a caller supplied page size.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
