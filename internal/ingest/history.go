// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	// lastRunKey holds the stats of the most recent run.
	lastRunKey = "ingest:last_run"

	// runKeyPrefix prefixes one entry per run, keyed by start time.
	runKeyPrefix = "ingest:run:"
)

// RunHistory persists the stats of finished runs.
type RunHistory interface {
	// Record stores the stats of a finished run.
	Record(ctx context.Context, stats *Stats) error

	// Last returns the most recent run, or nil if none was recorded.
	Last(ctx context.Context) (*Stats, error)

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]Stats, error)
}

// runKey sorts lexically by start time.
func runKey(stats *Stats) []byte {
	return []byte(fmt.Sprintf("%s%020d", runKeyPrefix, stats.StartTime.UnixNano()))
}

// BadgerHistory implements RunHistory on BadgerDB.
type BadgerHistory struct {
	db *badger.DB
}

// NewBadgerHistory creates a history store on an open BadgerDB.
func NewBadgerHistory(db *badger.DB) *BadgerHistory {
	return &BadgerHistory{db: db}
}

// OpenBadgerHistory opens (or creates) a BadgerDB at dir for run history.
// The caller closes the returned DB.
func OpenBadgerHistory(dir string) (*BadgerHistory, *badger.DB, error) {
	opts := badger.DefaultOptions(dir)

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open history store %s: %w", dir, err)
	}
	return NewBadgerHistory(db), db, nil
}

// Record stores stats under both the last-run key and its own run key.
func (h *BadgerHistory) Record(_ context.Context, stats *Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	return h.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(lastRunKey), data); err != nil {
			return err
		}
		return txn.Set(runKey(stats), data)
	})
}

// Last returns the most recent run, or nil, nil if none was recorded.
func (h *BadgerHistory) Last(_ context.Context) (*Stats, error) {
	var stats *Stats

	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastRunKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			stats = &Stats{}
			return json.Unmarshal(val, stats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load last run: %w", err)
	}

	return stats, nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all.
func (h *BadgerHistory) List(_ context.Context, limit int) ([]Stats, error) {
	var runs []Stats
	prefix := []byte(runKeyPrefix)

	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte(nil), prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var s Stats
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				return err
			}
			runs = append(runs, s)
			if limit > 0 && len(runs) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return runs, nil
}

// InMemoryHistory implements RunHistory in memory.
// This is useful for testing or when persistence is not required.
type InMemoryHistory struct {
	mu   sync.Mutex
	runs []Stats
}

// NewInMemoryHistory creates an empty in-memory history.
func NewInMemoryHistory() *InMemoryHistory {
	return &InMemoryHistory{}
}

// Record stores a copy of stats.
func (h *InMemoryHistory) Record(_ context.Context, stats *Stats) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, *stats)
	return nil
}

// Last returns the most recent run.
func (h *InMemoryHistory) Last(_ context.Context) (*Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.runs) == 0 {
		return nil, nil
	}
	last := h.runs[len(h.runs)-1]
	return &last, nil
}

// List returns up to limit runs, newest first.
func (h *InMemoryHistory) List(_ context.Context, limit int) ([]Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Stats, 0, n)
	for i := len(h.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.runs[i])
	}
	return out, nil
}
