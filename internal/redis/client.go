package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

const ingestLockKey = "ingest:run-lock"

// JobLock guards the ingestion job so the in-process scheduler and a manual
// /api/cron trigger never run concurrently against the shared provider rate limit.
type JobLock struct {
	client *redis.Client
}

func NewJobLock(client *Client) *JobLock {
	return &JobLock{client: client.Client}
}

// TryAcquire takes the lock if it is free. Returns false when another run
// already holds it.
func (l *JobLock) TryAcquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, ingestLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire ingest lock: %w", err)
	}
	return ok, nil
}

func (l *JobLock) Release(ctx context.Context) error {
	if err := l.client.Del(ctx, ingestLockKey).Err(); err != nil {
		return fmt.Errorf("release ingest lock: %w", err)
	}
	return nil
}
