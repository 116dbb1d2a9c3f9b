package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client is the process-wide Redis handle. It backs both the directory
// response cache and claim-session storage.
type Client struct {
	*redis.Client
}

// Open connects and pings, so a bad address fails startup instead of the
// first request.
func Open(ctx context.Context, addr, password string, db int) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is not configured")
	}

	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	return &Client{Client: c}, nil
}
