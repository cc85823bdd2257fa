package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const syncCheckpointKey = "hala:sync:last_run"

// SyncCheckpoint remembers when the last successful sync started, so an
// incremental run only picks up rows touched since then.
type SyncCheckpoint interface {
	Load(ctx context.Context) (time.Time, error)
	Save(ctx context.Context, t time.Time) error
}

type memoryCheckpoint struct {
	mu   sync.Mutex
	last time.Time
}

func NewMemoryCheckpoint() SyncCheckpoint {
	return &memoryCheckpoint{}
}

func (c *memoryCheckpoint) Load(ctx context.Context) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, nil
}

func (c *memoryCheckpoint) Save(ctx context.Context, t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = t
	return nil
}

type redisCheckpoint struct {
	rdb *redis.Client
}

// NewRedisCheckpoint shares the checkpoint between the API and the sync CLI.
func NewRedisCheckpoint(rdb *redis.Client) SyncCheckpoint {
	return &redisCheckpoint{rdb: rdb}
}

func (c *redisCheckpoint) Load(ctx context.Context) (time.Time, error) {
	raw, err := c.rdb.Get(ctx, syncCheckpointKey).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func (c *redisCheckpoint) Save(ctx context.Context, t time.Time) error {
	return c.rdb.Set(ctx, syncCheckpointKey, t.UTC().Format(time.RFC3339Nano), 0).Err()
}
