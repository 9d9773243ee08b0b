package runway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"aivideo/internal/infra"
)

var (
	// ErrPollTimeout is returned when the attempt budget runs out while the
	// task is still running.
	ErrPollTimeout = errors.New("runway: task did not finish in time")
	// ErrNoVideoURL is returned when a task succeeds without a usable URL.
	ErrNoVideoURL = errors.New("runway: task succeeded without a video url")
)

// TaskFailedError carries the reason reported by the remote API.
type TaskFailedError struct {
	TaskID string
	Status string
	Reason string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("runway: task %s %s: %s", e.TaskID, e.Status, e.Reason)
}

// TaskFetcher is the status query the poller repeats. *Client implements it.
type TaskFetcher interface {
	GetTask(ctx context.Context, taskID string) (*Task, error)
}

// ProgressFunc receives the remote status and progress (0..1) after each
// non-terminal query.
type ProgressFunc func(status string, progress float64)

// Result is the terminal outcome of a successful wait.
type Result struct {
	TaskID   string
	Status   string
	VideoURL string
	Attempts int
}

// Poller waits for a remote task with a bounded number of status queries.
// The delay before query n+1 is min(Cap, Floor+(n-1)*Step).
type Poller struct {
	Fetcher     TaskFetcher
	MaxAttempts int
	Floor       time.Duration
	Step        time.Duration
	Cap         time.Duration
	RetryDelay  time.Duration
	Logger      *infra.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller returns a poller with the default budget: 60 attempts, 3s floor,
// 1s step, 15s cap and a 2s retry delay after transport errors.
func NewPoller(fetcher TaskFetcher, logger *infra.Logger) *Poller {
	return &Poller{
		Fetcher:     fetcher,
		MaxAttempts: 60,
		Floor:       3 * time.Second,
		Step:        time.Second,
		Cap:         15 * time.Second,
		RetryDelay:  2 * time.Second,
		Logger:      logger,
	}
}

// Backoff returns the wait after attempt n (1-based).
func (p *Poller) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := p.Floor + time.Duration(n-1)*p.Step
	if p.Cap > 0 && d > p.Cap {
		return p.Cap
	}
	return d
}

// Wait queries taskID until it reaches a terminal status, the attempt budget
// is spent, or ctx is done.
func (p *Poller) Wait(ctx context.Context, taskID string, onProgress ProgressFunc) (Result, error) {
	logger := p.logger().With().Str("task_id", taskID).Logger()
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		task, err := p.Fetcher.GetTask(ctx, taskID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			lastErr = err
			logger.Warn().Err(err).Int("attempt", attempt).Msg("runway: status query failed")
			if attempt < maxAttempts {
				if err := p.wait(ctx, p.RetryDelay); err != nil {
					return Result{}, err
				}
			}
			continue
		}
		lastErr = nil

		switch Classify(task.Status) {
		case BucketSucceeded:
			url := ExtractVideoURL(task.Raw)
			if url == "" {
				return Result{}, fmt.Errorf("%w (task %s)", ErrNoVideoURL, taskID)
			}
			logger.Debug().Int("attempt", attempt).Msg("runway: task succeeded")
			return Result{TaskID: taskID, Status: task.Status, VideoURL: url, Attempts: attempt}, nil
		case BucketFailed:
			reason := task.Failure
			if reason == "" {
				reason = "generation failed"
			}
			return Result{}, &TaskFailedError{TaskID: taskID, Status: task.Status, Reason: reason}
		}

		if onProgress != nil {
			onProgress(task.Status, task.Progress)
		}
		logger.Debug().Int("attempt", attempt).Str("status", task.Status).Msg("runway: task pending")
		if attempt < maxAttempts {
			if err := p.wait(ctx, p.Backoff(attempt)); err != nil {
				return Result{}, err
			}
		}
	}

	if lastErr != nil {
		return Result{}, fmt.Errorf("%w after %d attempts: %v", ErrPollTimeout, maxAttempts, lastErr)
	}
	return Result{}, fmt.Errorf("%w after %d attempts", ErrPollTimeout, maxAttempts)
}

func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func (p *Poller) logger() *infra.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	l := zerolog.New(io.Discard)
	return &l
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
