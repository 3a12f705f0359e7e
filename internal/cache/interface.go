// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package cache stores computed results with a TTL behind a backend-neutral
// interface. The in-process TTL cache suits a single server; the Redis
// backend lets several servers share entries and invalidations.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/cinematch/internal/config"
)

// Backend names, also used as the metrics label.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Cacher defines the interface for cache implementations.
// Values are opaque bytes so every backend stores the same encoding.
//
// Usage:
//
//	c := cache.NewMemory(10 * time.Minute)
//	defer c.Close()
//
//	_ = c.Set(ctx, "key", data, 0)
//	if data, ok, err := c.Get(ctx, "key"); err == nil && ok {
//	    // Use cached value
//	}
type Cacher interface {
	// Get returns the value and true if found and not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key starting with prefix and returns the count.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Backend returns the backend name.
	Backend() string

	// Close releases background resources.
	Close() error
}

// Options holds configuration for creating a cache.
type Options struct {
	// Backend is BackendMemory (default) or BackendRedis.
	Backend string

	// TTL is the default time-to-live for entries.
	TTL time.Duration

	// Redis connection, used only by BackendRedis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// OptionsFromConfig maps the cache section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Backend:       cfg.Cache.Backend,
		TTL:           cfg.Cache.RecommendTTL,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
	}
}

// NewCacher creates a cache based on the options. For Redis it pings the
// server before returning.
func NewCacher(ctx context.Context, opts Options) (Cacher, error) {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(opts.TTL), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
		}
		return NewRedis(client, opts.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Verify interface implementations at compile time
var (
	_ Cacher = (*Cache)(nil)
	_ Cacher = (*Redis)(nil)
)
