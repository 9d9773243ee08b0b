package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"aivideo/internal/domain"
)

// TableClient is the part of *supabase.Client the repository needs.
type TableClient interface {
	From(table string) *postgrest.QueryBuilder
}

// JobRepositorySupabase implements domain.JobStore over the Supabase REST API.
// The hosted table has the same columns as the postgres schema.
type JobRepositorySupabase struct {
	client TableClient
	table  string
	now    func() time.Time
}

// NewSupabaseJobRepository wires the repository to table (usually "videos").
func NewSupabaseJobRepository(client TableClient, table string) *JobRepositorySupabase {
	if table == "" {
		table = "videos"
	}
	return &JobRepositorySupabase{client: client, table: table, now: time.Now}
}

type supabaseRow struct {
	ID          string     `json:"id"`
	Prompt      string     `json:"prompt"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	VideoURL    string     `json:"video_url"`
	Error       string     `json:"error"`
	Duration    int        `json:"duration"`
	Style       string     `json:"style"`
	AspectRatio string     `json:"aspect_ratio"`
	Provider    string     `json:"provider"`
	TaskID      string     `json:"task_id"`
	Mode        string     `json:"mode"`
	Country     string     `json:"country"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
	FailedAt    *time.Time `json:"failed_at"`
}

// supabasePatch carries the columns a status update may change.
type supabasePatch struct {
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	VideoURL    string     `json:"video_url"`
	Error       string     `json:"error"`
	TaskID      string     `json:"task_id"`
	Mode        string     `json:"mode"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
	FailedAt    *time.Time `json:"failed_at"`
}

func toSupabaseRow(job *domain.Job) supabaseRow {
	return supabaseRow{
		ID:          job.ID,
		Prompt:      job.Prompt,
		Status:      string(job.Status),
		Progress:    job.Progress,
		VideoURL:    job.VideoURL,
		Error:       job.Error,
		Duration:    job.Duration,
		Style:       job.Style,
		AspectRatio: job.AspectRatio,
		Provider:    job.Provider,
		TaskID:      job.TaskID,
		Mode:        job.Mode,
		Country:     job.Country,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		CompletedAt: job.CompletedAt,
		FailedAt:    job.FailedAt,
	}
}

func (r supabaseRow) job() *domain.Job {
	return &domain.Job{
		ID:       r.ID,
		Prompt:   r.Prompt,
		Status:   domain.JobStatus(r.Status),
		Progress: r.Progress,
		VideoURL: r.VideoURL,
		Error:    r.Error,
		Settings: domain.Settings{
			Duration:    r.Duration,
			Style:       r.Style,
			AspectRatio: r.AspectRatio,
		},
		Provider:    r.Provider,
		TaskID:      r.TaskID,
		Mode:        r.Mode,
		Country:     r.Country,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
		FailedAt:    r.FailedAt,
	}
}

func (r *JobRepositorySupabase) Save(ctx context.Context, job *domain.Job) error {
	_, _, err := r.client.From(r.table).
		Insert(toSupabaseRow(job), false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("supabase insert %s: %w", job.ID, err)
	}
	return nil
}

func (r *JobRepositorySupabase) Get(ctx context.Context, id string) (*domain.Job, error) {
	data, _, err := r.client.From(r.table).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase select %s: %w", id, err)
	}
	jobs, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, domain.ErrNotFound
	}
	return jobs[0], nil
}

// Update mirrors the postgres repository: apply in Go, then patch only rows
// that are still non-terminal.
func (r *JobRepositorySupabase) Update(ctx context.Context, id string, u domain.Update) (*domain.Job, error) {
	job, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := job.Apply(u, r.now().UTC()); err != nil {
		return nil, err
	}
	patch := supabasePatch{
		Status:      string(job.Status),
		Progress:    job.Progress,
		VideoURL:    job.VideoURL,
		Error:       job.Error,
		TaskID:      job.TaskID,
		Mode:        job.Mode,
		UpdatedAt:   job.UpdatedAt,
		CompletedAt: job.CompletedAt,
		FailedAt:    job.FailedAt,
	}
	data, _, err := r.client.From(r.table).
		Update(patch, "representation", "").
		Eq("id", id).
		Not("status", "in", "(completed,failed)").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase update %s: %w", id, err)
	}
	updated, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("%w: job %s finished concurrently", domain.ErrInvalidTransition, id)
	}
	return job, nil
}

func (r *JobRepositorySupabase) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	data, _, err := r.client.From(r.table).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(domain.ClampLimit(limit), "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase list: %w", err)
	}
	return decodeRows(data)
}

func (r *JobRepositorySupabase) ListActive(ctx context.Context) ([]*domain.Job, error) {
	data, _, err := r.client.From(r.table).
		Select("*", "", false).
		Not("status", "in", "(completed,failed)").
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase list active: %w", err)
	}
	return decodeRows(data)
}

func (r *JobRepositorySupabase) Delete(ctx context.Context, id string) error {
	data, _, err := r.client.From(r.table).
		Delete("representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("supabase delete %s: %w", id, err)
	}
	removed, err := decodeRows(data)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *JobRepositorySupabase) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	data, _, err := r.client.From(r.table).
		Delete("representation", "").
		Lt("created_at", cutoff.UTC().Format(time.RFC3339)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("supabase sweep: %w", err)
	}
	removed, err := decodeRows(data)
	if err != nil {
		return 0, err
	}
	return len(removed), nil
}

func decodeRows(data []byte) ([]*domain.Job, error) {
	var rows []supabaseRow
	if len(data) == 0 {
		return []*domain.Job{}, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode supabase rows: %w", err)
	}
	jobs := make([]*domain.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.job())
	}
	return jobs, nil
}

var _ domain.JobStore = (*JobRepositorySupabase)(nil)
