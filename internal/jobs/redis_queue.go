package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"aivideo/internal/domain"
)

// RedisQueue stores job ids in a Redis list so the API and cmd/worker can
// run as separate processes. Producers LPUSH, consumers BRPOP.
type RedisQueue struct {
	client   redis.Cmdable
	key      string
	capacity int64
	timeout  time.Duration
	closed   atomic.Bool
}

func NewRedisQueue(client redis.Cmdable, key string, capacity int) *RedisQueue {
	if key == "" {
		key = "jobs:video"
	}
	return &RedisQueue{client: client, key: key, capacity: int64(capacity), timeout: 5 * time.Second}
}

// Enqueue checks LLEN against the capacity before pushing. Two producers can
// race past the check; the bound is approximate by at most the number of
// API replicas.
func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	if q.capacity > 0 {
		n, err := q.client.LLen(ctx, q.key).Result()
		if err != nil {
			return fmt.Errorf("redis llen: %w", err)
		}
		if n >= q.capacity {
			return domain.ErrQueueFull
		}
	}
	if err := q.client.LPush(ctx, q.key, jobID).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

// Dequeue polls with a bounded BRPOP so Close and ctx are noticed promptly.
func (q *RedisQueue) Dequeue(ctx context.Context) (string, error) {
	for {
		if q.closed.Load() {
			return "", ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := q.client.BRPop(ctx, q.timeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("redis brpop: %w", err)
		}
		if len(res) != 2 {
			return "", fmt.Errorf("redis brpop: unexpected reply %v", res)
		}
		return res[1], nil
	}
}

// Contains reports whether jobID is still waiting in the list. A job a
// consumer already popped is no longer there.
func (q *RedisQueue) Contains(ctx context.Context, jobID string) (bool, error) {
	_, err := q.client.LPos(ctx, q.key, jobID, redis.LPosArgs{}).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis lpos: %w", err)
	}
	return true, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Close only stops this process from consuming; the Redis client is owned
// by the caller.
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

var _ Queue = (*RedisQueue)(nil)
