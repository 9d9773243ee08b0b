package jobs

import (
	"context"
	"errors"
	"sync"

	"aivideo/internal/domain"
)

// ErrQueueClosed is returned by Dequeue once the queue has been closed.
var ErrQueueClosed = errors.New("queue closed")

// Queue hands job ids from the API to the worker pool.
type Queue interface {
	// Enqueue adds jobID without blocking; a full queue yields domain.ErrQueueFull.
	Enqueue(ctx context.Context, jobID string) error
	// Dequeue blocks until a job id is available, ctx is done or the queue closes.
	Dequeue(ctx context.Context) (string, error)
	Len(ctx context.Context) (int64, error)
	Close() error
}

// MemoryQueue is a bounded channel shared by the API and an in-process pool.
type MemoryQueue struct {
	ch   chan string
	done chan struct{}
	once sync.Once
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryQueue{ch: make(chan string, capacity), done: make(chan struct{})}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, jobID string) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- jobID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue never hands out an id once Close has been called, even when ids
// are still buffered.
func (q *MemoryQueue) Dequeue(ctx context.Context) (string, error) {
	select {
	case <-q.done:
		return "", ErrQueueClosed
	default:
	}
	select {
	case id := <-q.ch:
		select {
		case <-q.done:
			return "", ErrQueueClosed
		default:
			return id, nil
		}
	case <-q.done:
		return "", ErrQueueClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *MemoryQueue) Len(context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}

// Close stops consumers. Ids still buffered are left for Recover to fail on
// the next start.
func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

var _ Queue = (*MemoryQueue)(nil)
