package repo

import (
	"context"
	"fmt"
	"time"

	"aivideo/internal/domain"
	"aivideo/internal/infra"
	"aivideo/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobStore on the videos table.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
	now func() time.Time
}

// NewJobRepository creates a new job repository backed by PostgreSQL. sql is
// normally an *infra.SQLRunner wrapping the pgx pool.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql, now: time.Now}
}

// Save inserts a new job record.
func (r *JobRepositoryPG) Save(ctx context.Context, job *domain.Job) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertVideo,
		job.ID,
		job.Prompt,
		string(job.Status),
		job.Progress,
		job.VideoURL,
		job.Error,
		job.Duration,
		job.Style,
		job.AspectRatio,
		job.Provider,
		job.TaskID,
		job.Mode,
		job.Country,
		job.CreatedAt,
		job.UpdatedAt,
		job.CompletedAt,
		job.FailedAt,
	)
	return err
}

// Get fetches a job by its identifier.
func (r *JobRepositoryPG) Get(ctx context.Context, id string) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectVideo, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Update applies u in Go and writes the result back. The statement only
// matches non-terminal rows, so a job finished by another writer in between
// is reported as an invalid transition instead of being overwritten.
func (r *JobRepositoryPG) Update(ctx context.Context, id string, u domain.Update) (*domain.Job, error) {
	job, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := job.Apply(u, r.now().UTC()); err != nil {
		return nil, err
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateVideo,
		job.ID,
		string(job.Status),
		job.Progress,
		job.VideoURL,
		job.Error,
		job.TaskID,
		job.Mode,
		job.UpdatedAt,
		job.CompletedAt,
		job.FailedAt,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: job %s finished concurrently", domain.ErrInvalidTransition, id)
	}
	return job, nil
}

// List returns up to limit jobs, newest first.
func (r *JobRepositoryPG) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	return r.query(ctx, sqlinline.QListVideos, domain.ClampLimit(limit))
}

// ListActive returns every job that has not reached a terminal status.
func (r *JobRepositoryPG) ListActive(ctx context.Context) ([]*domain.Job, error) {
	return r.query(ctx, sqlinline.QListActiveVideos)
}

// Delete removes a job by id.
func (r *JobRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteVideo, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes jobs created before cutoff.
func (r *JobRepositoryPG) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteVideosBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *JobRepositoryPG) query(ctx context.Context, query string, args ...any) ([]*domain.Job, error) {
	rows, err := r.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job    domain.Job
		status string
	)
	if err := row.Scan(
		&job.ID,
		&job.Prompt,
		&status,
		&job.Progress,
		&job.VideoURL,
		&job.Error,
		&job.Duration,
		&job.Style,
		&job.AspectRatio,
		&job.Provider,
		&job.TaskID,
		&job.Mode,
		&job.Country,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
		&job.FailedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.JobStore = (*JobRepositoryPG)(nil)
