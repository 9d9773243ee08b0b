// Package jobs owns the generation job lifecycle: creation and validation,
// the queue between the API and the workers, the worker pool itself and
// housekeeping (retention sweep, restart recovery).
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aivideo/internal/domain"
	"aivideo/internal/events"
	"aivideo/internal/prompt"
)

// Canceler stops an in-flight job. *Pool implements it.
type Canceler interface {
	Cancel(jobID string) bool
}

// CreateRequest is the caller input for a new job.
type CreateRequest struct {
	Prompt      string
	Duration    int
	Style       string
	AspectRatio string
	Provider    string
	Country     string
}

// Options tunes Manager validation.
type Options struct {
	MinPromptLength int
}

// Manager is the entry point used by the HTTP layer.
type Manager struct {
	store      domain.JobStore
	queue      Queue
	generators Resolver
	canceler   Canceler
	events     events.Publisher
	logger     zerolog.Logger
	opts       Options

	newID func() string
	now   func() time.Time
}

func NewManager(store domain.JobStore, queue Queue, generators Resolver, publisher events.Publisher, logger zerolog.Logger, opts Options) *Manager {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Manager{
		store:      store,
		queue:      queue,
		generators: generators,
		events:     publisher,
		logger:     logger,
		opts:       opts,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// SetCanceler connects the manager to the pool running jobs in this process.
func (m *Manager) SetCanceler(c Canceler) {
	m.canceler = c
}

// Create validates req, stores a pending job and queues it. It returns as
// soon as the job is queued.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*domain.Job, error) {
	text, err := prompt.Validate(req.Prompt, m.opts.MinPromptLength)
	if err != nil {
		return nil, err
	}
	settings := domain.Settings{
		Duration:    req.Duration,
		Style:       req.Style,
		AspectRatio: strings.TrimSpace(req.AspectRatio),
	}.WithDefaults()
	if settings.Style, err = prompt.ValidateStyle(settings.Style); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	gen, err := m.generators.Resolve(req.Provider)
	if err != nil {
		return nil, err
	}

	job := domain.NewJob(m.newID(), text, settings, gen.Name(), m.now().UTC())
	job.Mode = gen.Mode()
	job.Country = req.Country
	if err := m.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	_ = m.events.Publish(ctx, events.Event{Type: events.JobCreated, Job: job, At: job.CreatedAt})

	if err := m.queue.Enqueue(ctx, job.ID); err != nil {
		msg := "could not queue job"
		if errors.Is(err, domain.ErrQueueFull) {
			msg = "queue full"
		}
		if failed, uerr := m.store.Update(context.WithoutCancel(ctx), job.ID, domain.Update{Status: domain.JobStatusFailed, Error: msg}); uerr == nil {
			_ = m.events.Publish(ctx, events.ForJob(failed))
		} else {
			m.logger.Error().Err(uerr).Str("job_id", job.ID).Msg("jobs: mark unqueued job failed")
		}
		if errors.Is(err, domain.ErrQueueFull) {
			return nil, fmt.Errorf("enqueue %s: %w", job.ID, domain.ErrQueueFull)
		}
		return nil, fmt.Errorf("enqueue %s: %w", job.ID, err)
	}
	m.logger.Info().Str("job_id", job.ID).Str("provider", job.Provider).Str("mode", job.Mode).Msg("jobs: queued")
	return job, nil
}

// Get returns a snapshot of the job.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Job, error) {
	return m.store.Get(ctx, id)
}

// List returns up to limit jobs, newest first; limit is capped at
// domain.MaxListLimit.
func (m *Manager) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	return m.store.List(ctx, domain.ClampLimit(limit))
}

// Delete cancels any in-flight generation for id and removes the job.
func (m *Manager) Delete(ctx context.Context, id string) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.canceler != nil && m.canceler.Cancel(id) {
		m.logger.Info().Str("job_id", id).Msg("jobs: cancelled in-flight generation")
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	_ = m.events.Publish(ctx, events.Event{Type: events.JobDeleted, Job: job, At: m.now().UTC()})
	return nil
}

// QueueDepth reports how many jobs are waiting for a worker.
func (m *Manager) QueueDepth(ctx context.Context) (int64, error) {
	return m.queue.Len(ctx)
}

// Sweep deletes jobs created more than olderThan ago.
func (m *Manager) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := m.now().UTC().Add(-olderThan)
	n, err := m.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}
	if n > 0 {
		m.logger.Info().Int("deleted", n).Time("cutoff", cutoff).Msg("jobs: swept expired jobs")
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 || retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx, retention); err != nil {
				m.logger.Error().Err(err).Msg("jobs: sweep failed")
			}
		}
	}
}

// queueMembership is implemented by queues that can tell whether an id is
// still waiting to be consumed.
type queueMembership interface {
	Contains(ctx context.Context, jobID string) (bool, error)
}

// Recover fails every job a previous process left unfinished. Call it once
// at startup from the process that owns the pool, before the pool starts.
// With a durable queue keepQueued leaves pending jobs alone while their ids
// are still queued. A pending job whose id a crashed worker already popped
// is failed like the others when the queue can report membership.
func (m *Manager) Recover(ctx context.Context, keepQueued bool) (int, error) {
	active, err := m.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("recover: %w", err)
	}
	members, _ := m.queue.(queueMembership)
	recovered := 0
	for _, job := range active {
		if keepQueued && job.Status == domain.JobStatusPending {
			if members == nil {
				continue
			}
			queued, err := members.Contains(ctx, job.ID)
			if err != nil {
				m.logger.Warn().Err(err).Str("job_id", job.ID).Msg("jobs: recover check queue")
				continue
			}
			if queued {
				continue
			}
		}
		failed, err := m.store.Update(ctx, job.ID, domain.Update{Status: domain.JobStatusFailed, Error: "interrupted by restart"})
		if err != nil {
			m.logger.Warn().Err(err).Str("job_id", job.ID).Msg("jobs: recover job")
			continue
		}
		_ = m.events.Publish(ctx, events.ForJob(failed))
		recovered++
	}
	if recovered > 0 {
		m.logger.Warn().Int("jobs", recovered).Msg("jobs: failed jobs interrupted by restart")
	}
	return recovered, nil
}
