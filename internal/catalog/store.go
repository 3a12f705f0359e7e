// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package catalog serves the ingested movie catalog from memory.
//
// The snapshot is read lazily on first access. Concurrent first callers
// share one load; afterwards every read goes through an immutable view held
// in an atomic pointer, so readers never block each other. Invalidate drops
// the view and the next access reloads from disk.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
)

// ErrNotFound is returned by ByID for an unknown title id.
var ErrNotFound = errors.New("movie not found")

// view is one loaded, indexed snapshot. It is never mutated after build.
type view struct {
	entries []models.Movie
	byID    map[string]int
	byGenre map[string][]int
	genres  []string
}

// Store is the read side of the catalog.
type Store struct {
	path   string
	group  singleflight.Group
	view   atomic.Pointer[view]
	loads  atomic.Int64
	loader func(path string) ([]models.Movie, error)

	// mu orders Invalidate against publishing a loaded view. A load that
	// started before the last Invalidate never publishes.
	mu  sync.Mutex
	gen uint64
}

// NewStore returns a store backed by the snapshot at path. Nothing is read
// until the first query.
func NewStore(path string) *Store {
	return &Store{path: path, loader: ReadSnapshot}
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Invalidate drops the loaded view. The next query re-reads the snapshot.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.view.Store(nil)
	s.mu.Unlock()
	logging.Debug().Str("component", "catalog").Msg("Catalog view invalidated")
}

// Loads returns how many times the snapshot has been read from disk.
func (s *Store) Loads() int64 {
	return s.loads.Load()
}

// Len returns the number of entries, loading the snapshot if needed.
func (s *Store) Len(ctx context.Context) (int, error) {
	v, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(v.entries), nil
}

// All returns every entry in snapshot order.
func (s *Store) All(ctx context.Context) ([]models.Movie, error) {
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]models.Movie(nil), v.entries...), nil
}

// ByID returns the entry with the given id.
func (s *Store) ByID(ctx context.Context, id string) (models.Movie, error) {
	v, err := s.load(ctx)
	if err != nil {
		return models.Movie{}, err
	}
	idx, ok := v.byID[id]
	if !ok {
		return models.Movie{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v.entries[idx], nil
}

// Genres returns every distinct genre, sorted.
func (s *Store) Genres(ctx context.Context) ([]string, error) {
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.genres...), nil
}

// ByGenre returns entries tagged with genre, in snapshot order.
func (s *Store) ByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idxs := v.byGenre[genre]
	out := make([]models.Movie, len(idxs))
	for i, idx := range idxs {
		out[i] = v.entries[idx]
	}
	return out, nil
}

// ByCastMember returns entries crediting name as actor or actress, in
// snapshot order. Directors are not cast.
func (s *Store) ByCastMember(ctx context.Context, name string) ([]models.Movie, error) {
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Movie
	for i := range v.entries {
		for _, credited := range v.entries[i].CastNames() {
			if credited == name {
				out = append(out, v.entries[i])
				break
			}
		}
	}
	return out, nil
}

// load returns the current view, reading the snapshot once if there is none.
func (s *Store) load(ctx context.Context) (*view, error) {
	if v := s.view.Load(); v != nil {
		return v, nil
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	// Keyed by generation so callers arriving after Invalidate start a
	// fresh read instead of joining one that may see the old file.
	res, err, shared := s.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		if v := s.view.Load(); v != nil {
			return v, nil
		}

		start := time.Now()
		movies, err := s.loader(s.path)
		metrics.RecordCatalogLoad(time.Since(start), len(movies), err)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", s.path, err)
		}

		v := buildView(movies)
		s.loads.Add(1)
		if !s.publish(gen, v) {
			logging.Ctx(ctx).Debug().
				Str("component", "catalog").
				Msg("Catalog invalidated during load, view not published")
			return v, nil
		}

		logging.Ctx(ctx).Info().
			Str("component", "catalog").
			Str("path", s.path).
			Int("entries", len(v.entries)).
			Int("genres", len(v.genres)).
			Dur("duration", time.Since(start)).
			Msg("Catalog loaded")
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Ctx(ctx).Trace().Str("component", "catalog").Msg("Joined in-flight catalog load")
	}
	return res.(*view), nil
}

// publish stores v unless the store was invalidated after gen was read.
func (s *Store) publish(gen uint64, v *view) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.view.Store(v)
	return true
}

func buildView(movies []models.Movie) *view {
	v := &view{
		entries: movies,
		byID:    make(map[string]int, len(movies)),
		byGenre: make(map[string][]int),
	}
	for i := range movies {
		v.byID[movies[i].ID] = i
		for _, g := range movies[i].Genres {
			if _, ok := v.byGenre[g]; !ok {
				v.genres = append(v.genres, g)
			}
			v.byGenre[g] = append(v.byGenre[g], i)
		}
	}
	sort.Strings(v.genres)
	return v
}
