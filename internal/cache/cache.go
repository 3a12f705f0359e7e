// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/cinematch/internal/metrics"
)

// Entry represents a cached item with expiration
type Entry struct {
	Data      []byte
	ExpiresAt time.Time
}

// Cache provides a thread-safe in-memory cache with TTL support
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	stats   Stats

	now       func() time.Time
	stop      chan struct{}
	closeOnce sync.Once
}

// Stats tracks cache performance metrics
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// NewMemory creates an in-memory cache whose entries expire after ttl.
// A background goroutine removes expired entries every cleanup interval
// until Close is called.
func NewMemory(ttl time.Duration) *Cache {
	return newMemory(ttl, 5*time.Minute, time.Now)
}

func newMemory(ttl, cleanupEvery time.Duration, now func() time.Time) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     now,
		stop:    make(chan struct{}),
		stats: Stats{
			LastCleanup: now(),
		},
	}

	go c.cleanupLoop(cleanupEvery)

	return c
}

// Backend implements Cacher.
func (c *Cache) Backend() string { return BackendMemory }

// Get retrieves a value by key. Expired entries are removed and count as
// a miss.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false, nil
	}

	if c.now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.recordMiss()
		c.recordEvictions("expired", 1)
		return nil, false, nil
	}

	c.recordHit()
	return entry.Data, true, nil
}

// Set stores a value; a zero ttl uses the cache default.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: c.now().Add(ttl),
	}

	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(len(c.entries))
	c.stats.mu.Unlock()
	return nil
}

// Delete removes entries by key.
func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	removed := 0
	for _, key := range keys {
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.setTotalKeys(size)
	c.recordEvictions("invalidated", removed)
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix.
// An empty prefix clears the cache.
func (c *Cache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	removed := 0
	if prefix == "" {
		removed = len(c.entries)
		c.entries = make(map[string]Entry)
	} else {
		for key := range c.entries {
			if strings.HasPrefix(key, prefix) {
				delete(c.entries, key)
				removed++
			}
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.setTotalKeys(size)
	c.recordEvictions("invalidated", removed)
	return removed, nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	return nil
}

// GetStats returns a snapshot of current cache statistics.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// cleanupLoop periodically removes expired entries
func (c *Cache) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes all expired entries
func (c *Cache) cleanup() {
	now := c.now()
	c.mu.Lock()

	evictions := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evictions++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(size)
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()

	c.recordEvictions("expired", evictions)
}

func (c *Cache) setTotalKeys(n int) {
	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(n)
	c.stats.mu.Unlock()
}

// recordHit increments the hit counter
func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.RecordCacheHit(BackendMemory)
}

// recordMiss increments the miss counter
func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.RecordCacheMiss(BackendMemory)
}

func (c *Cache) recordEvictions(reason string, n int) {
	if n == 0 {
		return
	}
	c.stats.mu.Lock()
	c.stats.Evictions += int64(n)
	c.stats.mu.Unlock()
	metrics.RecordCacheEviction(BackendMemory, reason, n)
}
