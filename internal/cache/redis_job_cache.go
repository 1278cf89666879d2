package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justsurfingit/career-atlas/internal/models"
)

// JobCache keeps serialized job details keyed by slug.
type JobCache interface {
	Get(ctx context.Context, slug string) (*models.Job, bool, error)
	Set(ctx context.Context, job models.Job) error
	Delete(ctx context.Context, slug string) error
}

// RedisJobCache stores job details in Redis.
type RedisJobCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisJobCache initializes a Redis-backed JobCache.
func NewRedisJobCache(addr, prefix string, ttl time.Duration) *RedisJobCache {
	return NewRedisJobCacheWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

// NewRedisJobCacheWithClient builds a cache over an existing client (tests).
func NewRedisJobCacheWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisJobCache {
	return &RedisJobCache{client: client, prefix: prefix, ttl: ttl}
}

// Close closes the Redis client.
func (c *RedisJobCache) Close() error {
	return c.client.Close()
}

// Ping checks connectivity.
func (c *RedisJobCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisJobCache) Get(ctx context.Context, slug string) (*models.Job, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+slug).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var job models.Job
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, false, err
	}
	return &job, true, nil
}

func (c *RedisJobCache) Set(ctx context.Context, job models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+job.Slug, payload, c.ttl).Err()
}

func (c *RedisJobCache) Delete(ctx context.Context, slug string) error {
	return c.client.Del(ctx, c.prefix+slug).Err()
}
