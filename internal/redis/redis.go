// Package redis wraps go-redis for the session store's redis backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"socialclient/internal/config"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = 6379
	dialTimeout = 3 * time.Second
)

var (
	// ErrCacheMiss mirrors redis.Nil for callers.
	ErrCacheMiss = redis.Nil

	errNotInitialized = errors.New("redis client not initialized")
)

// Client is a nil-safe handle over a go-redis client.
type Client struct {
	inner  *redis.Client
	prefix string
}

// NewRedisClient connects using cfg.Redis and verifies the connection with a PING.
// Keys are namespaced with prefix.
func NewRedisClient(ctx context.Context, cfg *config.Config, prefix string) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	host := cfg.Redis.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Redis.Port
	if port == 0 {
		port = defaultPort
	}

	inner := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Username:    cfg.Redis.Username,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: dialTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := inner.Ping(pingCtx).Err(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("redis ping %s:%d: %w", host, port, err)
	}
	return &Client{inner: inner, prefix: prefix}, nil
}

func (c *Client) key(k string) string {
	return c.prefix + k
}

// Set stores value under key. A zero ttl keeps the key until deleted.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	return c.inner.Set(ctx, c.key(key), value, ttl).Err()
}

// Get returns the raw value, or ErrCacheMiss when the key is absent.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.inner == nil {
		return nil, errNotInitialized
	}
	return c.inner.Get(ctx, c.key(key)).Bytes()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.inner.Del(ctx, full...).Err()
}

func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}
