// Package redis provides a Redis-backed cache so the latest report
// survives restarts and is shared across replicas.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evergreenlabs/leadscope/internal/cache"
)

// Config captures the Redis connection parameters.
type Config struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Cache stores values in Redis. A zero TTL keeps entries until
// overwritten.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis cache and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{client: client, ttl: cfg.TTL}, nil
}

var _ cache.Cache = (*Cache)(nil)

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Put stores a value under the key.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get fetches a value; redis.Nil maps to a plain miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}
