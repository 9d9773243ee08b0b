package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pool runs a fixed number of workers that take job ids from a queue.
type Pool struct {
	queue   Queue
	runner  *Runner
	workers int
	logger  zerolog.Logger
	cancels *cancelRegistry

	mu      sync.Mutex
	stop    context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewPool(queue Queue, runner *Runner, workers int, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{queue: queue, runner: runner, workers: workers, logger: logger, cancels: newCancelRegistry()}
}

// Start launches the workers. They run until Shutdown or ctx is done.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	runCtx, stop := context.WithCancel(ctx)
	p.stop = stop
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(runCtx, i)
	}
	p.logger.Info().Int("workers", p.workers).Msg("worker: pool started")
}

func (p *Pool) work(ctx context.Context, n int) {
	defer p.wg.Done()
	logger := p.logger.With().Int("worker", n).Logger()
	for {
		jobID, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("worker: dequeue failed")
			if sleepErr := sleepCtx(ctx, time.Second); sleepErr != nil {
				return
			}
			continue
		}
		if ctx.Err() != nil {
			logger.Warn().Str("job_id", jobID).Msg("worker: stopping, job left pending")
			return
		}
		p.run(ctx, jobID)
	}
}

// run processes jobID unless Shutdown already started. A skipped job stays
// pending for Recover.
func (p *Pool) run(ctx context.Context, jobID string) {
	jobCtx, cancel := context.WithCancelCause(ctx)
	if !p.cancels.add(jobID, cancel) {
		cancel(ErrShutdown)
		p.logger.Warn().Str("job_id", jobID).Msg("worker: pool shut down, job left pending")
		return
	}
	defer func() {
		p.cancels.remove(jobID)
		cancel(nil)
	}()
	p.runner.Process(jobCtx, jobID)
}

// Cancel stops jobID if a worker of this pool is running it.
func (p *Pool) Cancel(jobID string) bool {
	return p.cancels.cancel(jobID, ErrJobDeleted)
}

// Active reports how many jobs are being processed.
func (p *Pool) Active() int {
	return p.cancels.len()
}

// Shutdown stops taking new jobs, cancels running ones with ErrShutdown and
// waits for the workers to record the failure.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	stop := p.stop
	p.mu.Unlock()

	_ = p.queue.Close()
	p.cancels.cancelAll(ErrShutdown)
	if stop != nil {
		stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info().Msg("worker: pool stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
