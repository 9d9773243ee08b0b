package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"aivideo/internal/domain"
	"aivideo/internal/events"
	"aivideo/internal/providers/runway"
	"aivideo/internal/providers/video"
)

var (
	// ErrJobDeleted is the cancellation cause when a job is deleted while running.
	ErrJobDeleted = errors.New("job deleted")
	// ErrShutdown is the cancellation cause for jobs interrupted by shutdown.
	ErrShutdown = errors.New("interrupted by shutdown")
)

// Resolver looks up the generator for a provider name.
type Resolver interface {
	Resolve(name string) (video.Generator, error)
}

// Runner drives one job from pending to a terminal state.
type Runner struct {
	store      domain.JobStore
	generators Resolver
	events     events.Publisher
	logger     zerolog.Logger
}

func NewRunner(store domain.JobStore, generators Resolver, publisher events.Publisher, logger zerolog.Logger) *Runner {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Runner{store: store, generators: generators, events: publisher, logger: logger}
}

// Process runs the generation sequence for jobID:
// pending -> generating -> processing -> completed | failed.
// Store errors are logged; the job is abandoned if it disappears.
func (r *Runner) Process(ctx context.Context, jobID string) {
	logger := r.logger.With().Str("job_id", jobID).Logger()

	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info().Msg("worker: job vanished before start")
			return
		}
		logger.Error().Err(err).Msg("worker: load job")
		return
	}
	if job.Status.Terminal() {
		logger.Debug().Str("status", string(job.Status)).Msg("worker: job already finished")
		return
	}

	gen, err := r.generators.Resolve(job.Provider)
	if err != nil {
		r.fail(ctx, jobID, err)
		return
	}

	if !r.update(ctx, jobID, domain.Update{Status: domain.JobStatusGenerating, Progress: 5, Mode: gen.Mode()}) {
		return
	}

	taskID, err := gen.Start(ctx, video.Request{
		JobID:       job.ID,
		Prompt:      job.Prompt,
		Style:       job.Style,
		Duration:    job.Duration,
		AspectRatio: job.AspectRatio,
	})
	if err != nil {
		r.fail(ctx, jobID, err)
		return
	}
	logger.Info().Str("task_id", taskID).Str("provider", gen.Name()).Msg("worker: task started")

	if !r.update(ctx, jobID, domain.Update{Status: domain.JobStatusProcessing, Progress: 10, TaskID: taskID}) {
		return
	}

	url, err := gen.Wait(ctx, taskID, func(percent int) {
		r.update(ctx, jobID, domain.Update{Progress: percent})
	})
	if err != nil {
		r.fail(ctx, jobID, err)
		return
	}

	if r.update(ctx, jobID, domain.Update{Status: domain.JobStatusCompleted, VideoURL: url}) {
		logger.Info().Str("task_id", taskID).Msg("worker: job completed")
	}
}

// update persists u and publishes the result. It reports false when the
// job can no longer be advanced.
func (r *Runner) update(ctx context.Context, jobID string, u domain.Update) bool {
	job, err := r.store.Update(ctx, jobID, u)
	if err != nil {
		level := zerolog.ErrorLevel
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) || ctx.Err() != nil {
			level = zerolog.WarnLevel
		}
		r.logger.WithLevel(level).Err(err).Str("job_id", jobID).Str("status", string(u.Status)).Msg("worker: update job")
		return false
	}
	_ = r.events.Publish(ctx, events.ForJob(job))
	return true
}

func (r *Runner) fail(ctx context.Context, jobID string, cause error) {
	if errors.Is(context.Cause(ctx), ErrJobDeleted) {
		r.logger.Info().Str("job_id", jobID).Msg("worker: job deleted while running")
		return
	}
	msg := failureMessage(ctx, cause)
	r.logger.Warn().Err(cause).Str("job_id", jobID).Msg("worker: job failed")
	r.update(context.WithoutCancel(ctx), jobID, domain.Update{Status: domain.JobStatusFailed, Error: msg})
}

// failureMessage is what callers see in the job's error field.
func failureMessage(ctx context.Context, err error) string {
	var taskErr *runway.TaskFailedError
	switch {
	case ctx.Err() != nil:
		return context.Cause(ctx).Error()
	case errors.As(err, &taskErr):
		return taskErr.Reason
	case errors.Is(err, runway.ErrPollTimeout):
		return "generation timed out"
	case errors.Is(err, runway.ErrNoVideoURL):
		return "generation finished without a video url"
	default:
		return fmt.Sprint(err)
	}
}
