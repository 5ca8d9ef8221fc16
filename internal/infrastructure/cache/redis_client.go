// Package cache implements the Redis-backed cache-aside layer fronting
// embedding generation and search results.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/infrastructure/config"
)

const opTimeout = 2 * time.Second

// Client wraps go-redis with an availability flag. When the backend was
// unreachable at startup every operation is a silent no-op; the cache is
// never a user-visible failure.
type Client struct {
	rdb       *redis.Client
	logger    *zap.Logger
	available bool
}

// NewClient connects to Redis and probes it once. An unreachable backend
// yields a degraded client, not an error.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  opTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	c := &Client{rdb: rdb, logger: logger}

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, cache disabled", zap.Error(err))
		return c
	}
	c.available = true
	logger.Info("redis cache connected", zap.String("addr", cfg.Addr()))
	return c
}

// NewClientFromRedis wraps an existing redis client, for tests.
func NewClientFromRedis(rdb *redis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger, available: true}
}

// Available reports whether the startup probe succeeded.
func (c *Client) Available() bool {
	return c.available
}

// Get fetches a key. Misses and backend failures both report absent.
func (c *Client) Get(ctx context.Context, key string) (string, bool) {
	if !c.available {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return val, true
}

// Set stores a key with TTL, ignoring failures.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if !c.available {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a key, ignoring failures.
func (c *Client) Delete(ctx context.Context, key string) {
	if !c.available {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Debug("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// DeleteByPattern evicts all keys matching a glob pattern via SCAN.
func (c *Client) DeleteByPattern(ctx context.Context, pattern string) int {
	if !c.available {
		return 0
	}

	deleted := 0
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err == nil {
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Debug("cache scan failed", zap.String("pattern", pattern), zap.Error(err))
	}
	return deleted
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
