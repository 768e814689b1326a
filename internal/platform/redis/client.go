// Package redis connects the service to Redis, which backs the password
// reset token store. Redis is optional: without a URL the service falls
// back to the in-memory store.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gatepass/internal/platform/config"
)

// Client embeds the go-redis client so callers use its command surface
// directly.
type Client struct {
	*redis.Client
}

// New dials Redis from the configured URL. Returns (nil, nil) when no URL is
// set so the caller can pick the fallback without an error branch.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
