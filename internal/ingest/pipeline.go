// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ingest

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
)

// ErrEmptyCatalog is returned when no title survives the basics stage.
// The previous snapshot is kept.
var ErrEmptyCatalog = errors.New("no movies matched the ingestion filters")

// errMalformed marks a row that could not be parsed.
var errMalformed = errors.New("malformed row")

// cancelCheckEvery is how many rows pass between context checks.
const cancelCheckEvery = 1024

// Options configures a Pipeline.
type Options struct {
	// DatasetDir holds the four gzipped dataset files.
	DatasetDir string

	// SnapshotPath is where the catalog snapshot is written.
	SnapshotPath string

	// MinVotes is the inclusive vote threshold for the ratings stage.
	MinVotes int

	// ProgressEvery logs progress every N rows per stage; 0 disables it.
	ProgressEvery int64
}

// OptionsFromConfig builds Options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DatasetDir:    cfg.Data.IMDbPath(),
		SnapshotPath:  cfg.Data.CatalogPath(),
		MinVotes:      cfg.Ingest.MinVotes,
		ProgressEvery: int64(cfg.Ingest.ProgressEvery),
	}
}

// Invalidator is notified after a new snapshot is written.
type Invalidator interface {
	Invalidate()
}

// Pipeline turns the raw dataset dump into a catalog snapshot.
type Pipeline struct {
	opts         Options
	history      RunHistory
	invalidators []Invalidator

	mu      sync.RWMutex
	running bool
	stats   *Stats
}

// NewPipeline creates a pipeline. history may be nil.
func NewPipeline(opts Options, history RunHistory, invalidators ...Invalidator) *Pipeline {
	return &Pipeline{
		opts:         opts,
		history:      history,
		invalidators: invalidators,
	}
}

// ratingRow is a kept row of the ratings stage.
type ratingRow struct {
	average float64
	votes   int
}

// basicRow is a kept row of the basics stage.
type basicRow struct {
	id      string
	title   string
	year    int
	runtime *int
	genres  []string
}

// Run executes all stages and replaces the snapshot. On any stage failure
// the result holds no movies and the snapshot on disk is left as it was.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrRunInProgress
	}
	p.running = true
	p.stats = &Stats{StartTime: time.Now()}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	logger := logging.Ctx(ctx).With().Str("component", "ingest").Logger()
	logger.Info().Str("dataset_dir", p.opts.DatasetDir).Int("min_votes", p.opts.MinVotes).Msg("Starting ingestion")

	movies, err := p.run(ctx)
	if err == nil {
		err = p.write(movies)
	}

	p.mu.Lock()
	p.stats.EndTime = time.Now()
	if err != nil {
		p.stats.Error = err.Error()
		movies = nil
	} else {
		p.stats.Entries = len(movies)
	}
	stats := *p.stats
	p.mu.Unlock()

	metrics.RecordIngestRun(stats.Duration(), resultLabel(err))
	p.recordHistory(ctx, &stats)

	if err != nil {
		logger.Error().Err(err).Dur("duration", stats.Duration()).Msg("Ingestion failed")
		return &Result{Stats: stats}, err
	}

	for _, inv := range p.invalidators {
		inv.Invalidate()
	}

	logger.Info().
		Int("entries", stats.Entries).
		Int64("rows_seen", stats.RowsSeen()).
		Float64("rows_per_second", stats.RecordsPerSecond()).
		Dur("duration", stats.Duration()).
		Msg("Ingestion completed")

	return &Result{Movies: movies, Stats: stats}, nil
}

func (p *Pipeline) run(ctx context.Context) ([]models.Movie, error) {
	ratings, err := p.readRatings(ctx)
	if err != nil {
		return nil, err
	}

	basics, index, err := p.readBasics(ctx, ratings)
	if err != nil {
		return nil, err
	}
	if len(basics) == 0 {
		return nil, ErrEmptyCatalog
	}

	names, err := p.readNames(ctx)
	if err != nil {
		return nil, err
	}

	casts, err := p.readPrincipals(ctx, index, names)
	if err != nil {
		return nil, err
	}

	return join(basics, ratings, casts), nil
}

func (p *Pipeline) write(movies []models.Movie) error {
	if err := catalog.WriteSnapshot(p.opts.SnapshotPath, movies); err != nil {
		return &IOError{Stage: "snapshot", Path: p.opts.SnapshotPath, Err: err}
	}
	return nil
}

func (p *Pipeline) recordHistory(ctx context.Context, stats *Stats) {
	if p.history == nil {
		return
	}
	if err := p.history.Record(ctx, stats); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("component", "ingest").Msg("Failed to record ingestion history")
	}
}

// readRatings keeps rows with at least MinVotes votes.
func (p *Pipeline) readRatings(ctx context.Context) (map[string]ratingRow, error) {
	ratings := make(map[string]ratingRow)

	err := p.scan(ctx, StageRatings, RatingsFile, []string{"tconst", "averageRating", "numVotes"},
		func(f []string) (bool, error) {
			votes, err := strconv.Atoi(f[2])
			if err != nil {
				return false, errMalformed
			}
			average, err := strconv.ParseFloat(f[1], 64)
			if err != nil || average < 0 || average > 10 {
				return false, errMalformed
			}
			if votes < p.opts.MinVotes {
				return false, nil
			}
			ratings[f[0]] = ratingRow{average: average, votes: votes}
			return true, nil
		})
	return ratings, err
}

// readBasics keeps non-adult movies with a release year and a kept rating.
func (p *Pipeline) readBasics(ctx context.Context, ratings map[string]ratingRow) ([]basicRow, map[string]int, error) {
	var rows []basicRow
	index := make(map[string]int)

	cols := []string{"tconst", "titleType", "primaryTitle", "isAdult", "startYear", "runtimeMinutes", "genres"}
	err := p.scan(ctx, StageBasics, BasicsFile, cols, func(f []string) (bool, error) {
		id := f[0]
		if f[1] != "movie" || f[3] == "1" || f[4] == nullValue {
			return false, nil
		}
		if _, ok := ratings[id]; !ok {
			return false, nil
		}

		year, err := strconv.Atoi(f[4])
		if err != nil {
			return false, errMalformed
		}
		var runtime *int
		if f[5] != nullValue {
			minutes, err := strconv.Atoi(f[5])
			if err != nil {
				return false, errMalformed
			}
			runtime = &minutes
		}
		genres := []string{}
		if f[6] != nullValue && f[6] != "" {
			genres = strings.Split(f[6], ",")
		}

		if _, dup := index[id]; dup {
			return false, nil
		}
		index[id] = len(rows)
		rows = append(rows, basicRow{id: id, title: f[2], year: year, runtime: runtime, genres: genres})
		return true, nil
	})
	return rows, index, err
}

// readNames loads the full person id to name table.
func (p *Pipeline) readNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)

	err := p.scan(ctx, StageNames, NamesFile, []string{"nconst", "primaryName"},
		func(f []string) (bool, error) {
			names[f[0]] = f[1]
			return true, nil
		})
	return names, err
}

// readPrincipals collects actor, actress and director names per kept movie.
// The result is indexed like the basics rows.
func (p *Pipeline) readPrincipals(ctx context.Context, index map[string]int, names map[string]string) ([]models.Cast, error) {
	casts := make([]models.Cast, len(index))

	err := p.scan(ctx, StagePrincipals, PrincipalsFile, []string{"tconst", "category", "nconst"},
		func(f []string) (bool, error) {
			pos, ok := index[f[0]]
			if !ok {
				return false, nil
			}
			name, ok := names[f[2]]
			if !ok {
				return false, nil
			}

			cast := &casts[pos]
			switch f[1] {
			case models.CategoryActor:
				cast.Actor = appendUnique(cast.Actor, name)
			case models.CategoryActress:
				cast.Actress = appendUnique(cast.Actress, name)
			case models.CategoryDirector:
				cast.Director = appendUnique(cast.Director, name)
			default:
				return false, nil
			}
			return true, nil
		})
	return casts, err
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

// join builds catalog entries in basics order.
func join(basics []basicRow, ratings map[string]ratingRow, casts []models.Cast) []models.Movie {
	movies := make([]models.Movie, len(basics))
	for i, b := range basics {
		r := ratings[b.id]
		cast := casts[i]
		if cast.Actor == nil {
			cast.Actor = []string{}
		}
		if cast.Actress == nil {
			cast.Actress = []string{}
		}
		if cast.Director == nil {
			cast.Director = []string{}
		}
		movies[i] = models.Movie{
			ID:      b.id,
			Title:   b.title,
			Year:    b.year,
			Genres:  b.genres,
			Runtime: b.runtime,
			Rating:  r.average,
			Votes:   r.votes,
			Cast:    cast,
		}
	}
	return movies
}

// scan streams one dataset file through fn. fn reports whether the row was
// kept; an error from fn counts the row as malformed and scanning goes on.
// Only a file-level failure or cancellation stops the scan.
func (p *Pipeline) scan(ctx context.Context, stage, file string, columns []string, fn func([]string) (bool, error)) error {
	path := filepath.Join(p.opts.DatasetDir, file)
	logger := logging.Ctx(ctx).With().Str("component", "ingest").Str("stage", stage).Logger()

	t, err := openTSV(path, columns...)
	if err != nil {
		return &IOError{Stage: stage, Path: path, Err: err}
	}
	defer t.Close() //nolint:errcheck // read-only

	var st StageStats
	start := time.Now()
	logger.Info().Str("file", file).Msg("Reading dataset file")

	for {
		if st.Seen%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				p.setStage(stage, st)
				return err
			}
		}

		fields, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if isMalformedRow(err) {
			st.Seen++
			st.Malformed++
			continue
		}
		if err != nil {
			p.setStage(stage, st)
			return &IOError{Stage: stage, Path: path, Err: err}
		}

		st.Seen++
		kept, err := fn(fields)
		switch {
		case err != nil:
			st.Malformed++
		case kept:
			st.Kept++
		}

		if p.opts.ProgressEvery > 0 && st.Seen%p.opts.ProgressEvery == 0 {
			p.setStage(stage, st)
			logger.Info().Int64("seen", st.Seen).Int64("kept", st.Kept).Msg("Ingestion progress")
		}
	}

	p.setStage(stage, st)
	metrics.RecordIngestStage(stage, st.Seen, st.Kept, st.Malformed)
	logger.Info().
		Int64("seen", st.Seen).
		Int64("kept", st.Kept).
		Int64("filtered", st.Filtered()).
		Int64("malformed", st.Malformed).
		Dur("duration", time.Since(start)).
		Msg("Stage complete")
	return nil
}

func (p *Pipeline) setStage(stage string, st StageStats) {
	p.mu.Lock()
	*p.stats.stage(stage) = st
	p.mu.Unlock()
}

// GetStats returns a copy of the current or last run's statistics.
func (p *Pipeline) GetStats() *Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stats == nil {
		return &Stats{}
	}
	stats := *p.stats
	return &stats
}

// IsRunning returns whether a run is in progress.
func (p *Pipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// History returns the run history store, which may be nil.
func (p *Pipeline) History() RunHistory {
	return p.history
}

func resultLabel(err error) string {
	var ioErr *IOError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ioErr):
		return "io_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrEmptyCatalog):
		return "empty"
	default:
		return "error"
	}
}

