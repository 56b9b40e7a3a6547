// Package cache wraps the shared Redis client. It backs the catalog response
// store, the trip event stream and the readiness probe.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool defaults used when Options leaves a field at zero.
const (
	DefaultPoolSize     = 10
	DefaultMinIdleConns = 2
)

// Options tunes the connection pool. Zero fields take the defaults.
type Options struct {
	PoolSize     int
	MinIdleConns int
}

// Cache owns the Redis client shared by the catalog store and the event stream.
type Cache struct {
	client *redis.Client
}

// New parses redisURL, applies the pool options and pings the server.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	opt, err := clientOptions(redisURL, opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

func clientOptions(redisURL string, opts Options) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = DefaultPoolSize
	if opts.PoolSize > 0 {
		opt.PoolSize = opts.PoolSize
	}
	opt.MinIdleConns = DefaultMinIdleConns
	if opts.MinIdleConns > 0 {
		opt.MinIdleConns = min(opts.MinIdleConns, opt.PoolSize)
	}
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	return opt, nil
}

// Ping checks Redis connectivity for /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client for the event stream publisher.
func (c *Cache) Client() *redis.Client {
	return c.client
}
