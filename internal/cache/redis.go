// Package cache wraps the Redis client used for login sessions, the video
// listing snapshot and metadata lookups. Every operation except Ping absorbs
// failures: callers treat an error as a cache miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/videohub/backend/internal/logging"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "videohub_cache_operations_total",
		Help: "Cache operations by operation and result",
	},
	[]string{"op", "result"},
)

// Client is a fault-tolerant JSON key/value store backed by Redis.
type Client struct {
	rdb *redis.Client
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Connect opens a Redis client from a redis:// URL and verifies it.
func Connect(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Get decodes the value stored at key into dest. It reports false on a miss,
// a decode failure or a Redis error.
func (c *Client) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			operationsTotal.WithLabelValues("get", "miss").Inc()
			return false
		}
		operationsTotal.WithLabelValues("get", "error").Inc()
		logging.FromContext(ctx).Warn("cache get failed", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		operationsTotal.WithLabelValues("get", "error").Inc()
		logging.FromContext(ctx).Warn("cache value undecodable", "key", key, "error", err)
		return false
	}

	operationsTotal.WithLabelValues("get", "hit").Inc()
	return true
}

// Set stores value as JSON under key with the provided ttl.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if c == nil || c.rdb == nil {
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		operationsTotal.WithLabelValues("set", "error").Inc()
		logging.FromContext(ctx).Error("cache value unencodable", "key", key, "error", err)
		return false
	}

	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		operationsTotal.WithLabelValues("set", "error").Inc()
		logging.FromContext(ctx).Warn("cache set failed", "key", key, "error", err)
		return false
	}

	operationsTotal.WithLabelValues("set", "ok").Inc()
	return true
}

// Delete removes key. Deleting an absent key succeeds.
func (c *Client) Delete(ctx context.Context, key string) bool {
	if c == nil || c.rdb == nil {
		return false
	}

	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		operationsTotal.WithLabelValues("delete", "error").Inc()
		logging.FromContext(ctx).Warn("cache delete failed", "key", key, "error", err)
		return false
	}

	operationsTotal.WithLabelValues("delete", "ok").Inc()
	return true
}

// Ping verifies the Redis connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return errors.New("cache not configured")
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
