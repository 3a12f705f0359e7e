// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/cinematch/internal/metrics"
)

// keyNamespace prefixes every key written to Redis.
const keyNamespace = "cinematch:"

// scanBatch is the COUNT hint for SCAN during prefix deletes.
const scanBatch = 500

// globEscaper escapes Redis MATCH metacharacters.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Redis is a Cacher backed by a Redis server.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis wraps an existing client. The cache owns the client and closes
// it on Close.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Backend implements Cacher.
func (r *Redis) Backend() string { return BackendRedis }

// Get implements Cacher.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, keyNamespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss(BackendRedis)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	metrics.RecordCacheHit(BackendRedis)
	return data, true, nil
}

// Set implements Cacher.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, keyNamespace+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Cacher.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyNamespace + k
	}
	n, err := r.client.Del(ctx, full...).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	metrics.RecordCacheEviction(BackendRedis, "invalidated", int(n))
	return nil
}

// DeletePrefix scans for matching keys and deletes them in batches.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	pattern := keyNamespace + globEscaper.Replace(prefix) + "*"

	removed := 0
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return removed, err
	}

	metrics.RecordCacheEviction(BackendRedis, "invalidated", removed)
	return removed, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
