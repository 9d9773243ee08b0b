// Package events fans job state changes out to interested parties: the
// WebSocket status stream in process and NATS subscribers outside it.
package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"aivideo/internal/domain"
)

// Type names a job event. It doubles as the NATS subject suffix.
type Type string

const (
	JobCreated   Type = "job.created"
	JobUpdated   Type = "job.updated"
	JobCompleted Type = "job.completed"
	JobFailed    Type = "job.failed"
	JobDeleted   Type = "job.deleted"
)

// Event is one job state change. Job is a snapshot and must not be mutated.
type Event struct {
	Type Type        `json:"type"`
	Job  *domain.Job `json:"job"`
	At   time.Time   `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// ForJob picks the event type matching job's current status.
func ForJob(job *domain.Job) Event {
	t := JobUpdated
	switch job.Status {
	case domain.JobStatusCompleted:
		t = JobCompleted
	case domain.JobStatusFailed:
		t = JobFailed
	}
	return Event{Type: t, Job: job, At: job.UpdatedAt}
}

// Multi publishes to every publisher in order. Failures are logged and
// never returned: events are best effort.
type Multi struct {
	publishers []Publisher
	logger     zerolog.Logger
}

func NewMulti(logger zerolog.Logger, publishers ...Publisher) *Multi {
	out := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return &Multi{publishers: out, logger: logger}
}

func (m *Multi) Publish(ctx context.Context, ev Event) error {
	for _, p := range m.publishers {
		if err := p.Publish(ctx, ev); err != nil {
			l := m.logger.Warn().Err(err).Str("event", string(ev.Type))
			if ev.Job != nil {
				l = l.Str("job_id", ev.Job.ID)
			}
			l.Msg("publish event")
		}
	}
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
