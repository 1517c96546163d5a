// Package cache keeps the latest report of each dataset in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-sod/seqwin/internal/pipeline"
)

const keyPrefix = "seqwin:report:"

type Config struct {
	Addr     string        `envconfig:"SEQWIN_REDIS_ADDR" toml:"addr"`
	Password string        `envconfig:"SEQWIN_REDIS_PASSWORD" toml:"password"`
	DB       int           `envconfig:"SEQWIN_REDIS_DB" default:"0" toml:"db"`
	TTL      time.Duration `envconfig:"SEQWIN_REPORT_CACHE_TTL" default:"10m" toml:"ttl"`
}

// Enabled reports whether a redis address is configured.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// NewClient connects to redis and pings it once.
func NewClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection to %s failed: %w", cfg.Addr, err)
	}
	return client, nil
}

func New(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func key(dataset string) string {
	return keyPrefix + dataset
}

func (c *Cache) Set(ctx context.Context, r *pipeline.Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := c.client.Set(ctx, key(r.Dataset), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache report of %s: %w", r.Dataset, err)
	}
	return nil
}

// Get returns the cached report of dataset; a miss returns nil, nil.
func (c *Cache) Get(ctx context.Context, dataset string) (*pipeline.Report, error) {
	b, err := c.client.Get(ctx, key(dataset)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached report of %s: %w", dataset, err)
	}
	var r pipeline.Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("unmarshal cached report of %s: %w", dataset, err)
	}
	return &r, nil
}

func (c *Cache) Invalidate(ctx context.Context, dataset string) error {
	return c.client.Del(ctx, key(dataset)).Err()
}
