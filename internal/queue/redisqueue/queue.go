// Package redisqueue implements the work queue on Redis lists: LPUSH to
// enqueue, blocking BRPOP with a bounded wait to dequeue, and a separate
// list that collects failed items.
package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"candlefill/internal/config"

	"github.com/redis/go-redis/v9"
)

type Queue struct {
	client      *redis.Client
	workKey     string
	failedKey   string
	dequeueWait time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg config.RedisConfig) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  cfg.DequeueWait() + 3*time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s failed: %w", cfg.Addr, err)
	}

	return &Queue{
		client:      client,
		workKey:     cfg.KeyPrefix + ":ohlc:work",
		failedKey:   cfg.KeyPrefix + ":ohlc:failed",
		dequeueWait: cfg.DequeueWait(),
	}, nil
}

func (q *Queue) Enqueue(ctx context.Context, payload []byte) error {
	return q.client.LPush(ctx, q.workKey, payload).Err()
}

// Dequeue blocks up to the configured wait window. An empty window is not
// an error; it returns (nil, nil) so callers can apply their own backoff.
func (q *Queue) Dequeue(ctx context.Context) ([]byte, error) {
	res, err := q.client.BRPop(ctx, q.dequeueWait, q.workKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP replies [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	return []byte(res[1]), nil
}

func (q *Queue) EnqueueFailed(ctx context.Context, payload []byte) error {
	return q.client.LPush(ctx, q.failedKey, payload).Err()
}

// Depth reports the pending and failed list lengths for the status endpoint.
func (q *Queue) Depth(ctx context.Context) (pending, failed int64, err error) {
	pending, err = q.client.LLen(ctx, q.workKey).Result()
	if err != nil {
		return 0, 0, err
	}
	failed, err = q.client.LLen(ctx, q.failedKey).Result()
	if err != nil {
		return 0, 0, err
	}
	return pending, failed, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}
