// Package redis wraps go-redis/v9 for the hit stream: hit records are
// appended to a capped stream that downstream consumers tail.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/config"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the connection with a PING.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Append adds entries to stream in one pipeline. maxLen > 0 trims the stream
// approximately to that length.
func (c *Client) Append(ctx context.Context, stream string, maxLen int64, entries []map[string]any) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, values := range entries {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: stream,
				MaxLen: maxLen,
				Approx: maxLen > 0,
				Values: values,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("appending %d entries to %s: %w", len(entries), stream, err)
	}
	return nil
}

// Len returns the number of entries in stream.
func (c *Client) Len(ctx context.Context, stream string) (int64, error) {
	return c.rdb.XLen(ctx, stream).Result()
}

// Range returns the field maps of every entry in stream, oldest first.
func (c *Client) Range(ctx context.Context, stream string) ([]map[string]any, error) {
	msgs, err := c.rdb.XRange(ctx, stream, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("reading stream %s: %w", stream, err)
	}
	out := make([]map[string]any, len(msgs))
	for i, m := range msgs {
		out[i] = m.Values
	}
	return out, nil
}

// Del deletes one or more keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
