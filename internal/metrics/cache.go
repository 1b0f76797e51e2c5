// internal/metrics/cache.go
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/jetmatch-backend/internal/model"
)

// Cache holds the latest snapshot per handle. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, handle string) (*model.MetricsSnapshot, error)
	Put(ctx context.Context, snap *model.MetricsSnapshot) error
}

// ====================== Memory ======================

type MemoryCache struct {
	mux   sync.RWMutex
	store map[string]model.MetricsSnapshot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: make(map[string]model.MetricsSnapshot)}
}

func (c *MemoryCache) Get(_ context.Context, handle string) (*model.MetricsSnapshot, error) {
	c.mux.RLock()
	snap, ok := c.store[handle]
	c.mux.RUnlock()
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (c *MemoryCache) Put(_ context.Context, snap *model.MetricsSnapshot) error {
	if snap == nil || snap.Handle == "" {
		return errors.New("snapshot handle is required")
	}
	c.mux.Lock()
	c.store[snap.Handle] = *snap
	c.mux.Unlock()
	return nil
}

// ====================== Redis ======================

const snapshotKeyPrefix = "metrics:snapshot:"

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisCache stores snapshots as JSON strings. TTL bounds how long an
// abandoned handle lingers; it is well past the staleness window.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, handle string) (*model.MetricsSnapshot, error) {
	raw, err := c.client.Get(ctx, snapshotKeyPrefix+handle).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", handle, err)
	}
	var snap model.MetricsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", handle, err)
	}
	return &snap, nil
}

func (c *RedisCache) Put(ctx context.Context, snap *model.MetricsSnapshot) error {
	if snap == nil || snap.Handle == "" {
		return errors.New("snapshot handle is required")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.Handle, err)
	}
	if err := c.client.Set(ctx, snapshotKeyPrefix+snap.Handle, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot %s: %w", snap.Handle, err)
	}
	return nil
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
