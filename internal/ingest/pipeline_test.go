// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ingest

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tomtom215/cinematch/internal/catalog"
)

// writeGz writes a gzipped TSV file with the given lines.
func writeGz(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

const (
	ratingsHeader    = "tconst\taverageRating\tnumVotes"
	basicsHeader     = "tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres"
	namesHeader      = "nconst\tprimaryName\tbirthYear\tdeathYear\tprimaryProfession\tknownForTitles"
	principalsHeader = "tconst\tordering\tnconst\tcategory\tjob\tcharacters"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate() { c.calls++ }

func newTestPipeline(t *testing.T, dir string, invalidators ...Invalidator) (*Pipeline, *InMemoryHistory) {
	t.Helper()
	history := NewInMemoryHistory()
	p := NewPipeline(Options{
		DatasetDir:   dir,
		SnapshotPath: filepath.Join(dir, "out", "movies.json"),
		MinVotes:     1000,
	}, history, invalidators...)
	return p, history
}

func TestRunThreeRowFixture(t *testing.T) {
	dir := t.TempDir()
	writeGz(t, dir, RatingsFile, ratingsHeader,
		"tt0000001\t7.5\t1000",
		"tt0000002\t9.1\t999",
		"tt0000003\t8.0\t12",
	)
	writeGz(t, dir, BasicsFile, basicsHeader,
		"tt0000001\tmovie\tKept\tKept\t0\t1999\t\\N\t\\N\t\\N",
		"tt0000002\tmovie\tFew Votes\tFew Votes\t0\t2001\t\\N\t95\tDrama",
		"tt0000003\tmovie\tFewer Votes\tFewer Votes\t0\t2002\t\\N\t80\tComedy",
	)
	writeGz(t, dir, NamesFile, namesHeader)
	writeGz(t, dir, PrincipalsFile, principalsHeader)

	p, _ := newTestPipeline(t, dir)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Movies) != 1 {
		t.Fatalf("got %d entries, want 1", len(res.Movies))
	}
	m := res.Movies[0]
	if m.ID != "tt0000001" || m.Votes != 1000 || m.Rating != 7.5 {
		t.Errorf("entry = %+v", m)
	}
	if len(m.Genres) != 0 || m.Runtime != nil {
		t.Errorf("genres = %v runtime = %v, want empty and absent", m.Genres, m.Runtime)
	}
	if res.Stats.Ratings.Seen != 3 || res.Stats.Ratings.Kept != 1 {
		t.Errorf("ratings stats = %+v", res.Stats.Ratings)
	}

	stored, err := catalog.ReadSnapshot(filepath.Join(dir, "out", "movies.json"))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("snapshot has %d entries, want 1", len(stored))
	}
}

func writeFullFixture(t *testing.T, dir string) {
	t.Helper()
	writeGz(t, dir, RatingsFile, ratingsHeader,
		"tt0000010\t8.1\t250000",
		"tt0000011\t6.0\t4000",
		"tt0000012\t7.7\t3000",
		"tt0000013\t5.5\t8000",
		"tt0000014\t7.0\t9000",
		"tt0000015\tbad\t9000",
		"tt0000016\t7.0",
		"tt0000017\t6.6\t1500",
	)
	writeGz(t, dir, BasicsFile, basicsHeader,
		"tt0000017\tmovie\tSecond In File\tSecond In File\t0\t2010\t\\N\t101\tThriller",
		"tt0000010\tmovie\tFirst Feature\tFirst Feature\t0\t1994\t\\N\t142\tDrama,Crime",
		"tt0000011\ttvSeries\tA Show\tA Show\t0\t2005\t2010\t45\tDrama",
		"tt0000012\tmovie\tAdult Title\tAdult Title\t1\t2001\t\\N\t90\tDrama",
		"tt0000013\tmovie\tNo Year\tNo Year\t0\t\\N\t\\N\t90\tDrama",
		"tt0000014\tmovie\tBad Runtime\tBad Runtime\t0\t2003\t\\N\tabc\tDrama",
		"tt0000099\tmovie\tUnrated\tUnrated\t0\t2003\t\\N\t90\tDrama",
	)
	writeGz(t, dir, NamesFile, namesHeader,
		"nm01\tTim Robbins\t1958\t\\N\tactor\ttt0000010",
		"nm02\tMorgan Freeman\t1937\t\\N\tactor\ttt0000010",
		"nm03\tFrank Darabont\t1959\t\\N\tdirector\ttt0000010",
		"nm04\tJane Doe\t1970\t\\N\tactress\ttt0000017",
		"nm05\tSome Producer\t1960\t\\N\tproducer\ttt0000010",
	)
	writeGz(t, dir, PrincipalsFile, principalsHeader,
		"tt0000010\t1\tnm01\tactor\t\\N\t[\"Andy\"]",
		"tt0000010\t2\tnm02\tactor\t\\N\t[\"Red\"]",
		"tt0000010\t3\tnm01\tactor\t\\N\t[\"Andy again\"]",
		"tt0000010\t4\tnm03\tdirector\t\\N\t\\N",
		"tt0000010\t5\tnm05\tproducer\tproducer\t\\N",
		"tt0000010\t6\tnm99\tactor\t\\N\t\\N",
		"tt0000017\t1\tnm04\tactress\t\\N\t\\N",
		"tt0000011\t1\tnm01\tactor\t\\N\t\\N",
		"tt0000010\t7",
	)
}

func TestRunFullFixture(t *testing.T) {
	dir := t.TempDir()
	writeFullFixture(t, dir)

	inv := &countingInvalidator{}
	p, history := newTestPipeline(t, dir, inv)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	gotIDs := make([]string, len(res.Movies))
	for i, m := range res.Movies {
		gotIDs[i] = m.ID
	}
	if want := []string{"tt0000017", "tt0000010"}; !reflect.DeepEqual(gotIDs, want) {
		t.Fatalf("ids = %v, want %v (basics order)", gotIDs, want)
	}

	first := res.Movies[1]
	if want := []string{"Tim Robbins", "Morgan Freeman"}; !reflect.DeepEqual(first.Cast.Actor, want) {
		t.Errorf("actors = %v, want %v", first.Cast.Actor, want)
	}
	if want := []string{"Frank Darabont"}; !reflect.DeepEqual(first.Cast.Director, want) {
		t.Errorf("directors = %v", first.Cast.Director)
	}
	if len(first.Cast.Actress) != 0 {
		t.Errorf("actresses = %v", first.Cast.Actress)
	}
	if want := []string{"Drama", "Crime"}; !reflect.DeepEqual(first.Genres, want) {
		t.Errorf("genres = %v", first.Genres)
	}
	if first.Runtime == nil || *first.Runtime != 142 {
		t.Errorf("runtime = %v", first.Runtime)
	}
	if got := res.Movies[0].Cast.Actress; !reflect.DeepEqual(got, []string{"Jane Doe"}) {
		t.Errorf("actresses = %v", got)
	}

	for _, m := range res.Movies {
		if m.Votes < 1000 {
			t.Errorf("%s has %d votes, below the threshold", m.ID, m.Votes)
		}
		if m.Rating <= 0 {
			t.Errorf("%s has no rating", m.ID)
		}
	}

	st := res.Stats
	checks := []struct {
		name string
		got  StageStats
		want StageStats
	}{
		{StageRatings, st.Ratings, StageStats{Seen: 8, Kept: 6, Malformed: 2}},
		{StageBasics, st.Basics, StageStats{Seen: 7, Kept: 2, Malformed: 1}},
		{StageNames, st.Names, StageStats{Seen: 5, Kept: 5}},
		{StagePrincipals, st.Principals, StageStats{Seen: 9, Kept: 5, Malformed: 1}},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s stats = %+v, want %+v", c.name, c.got, c.want)
		}
	}
	if st.Entries != 2 || !st.Succeeded() {
		t.Errorf("entries = %d succeeded = %v", st.Entries, st.Succeeded())
	}

	if inv.calls != 1 {
		t.Errorf("invalidator called %d times, want 1", inv.calls)
	}
	last, _ := history.Last(context.Background())
	if last == nil || last.Entries != 2 {
		t.Errorf("history last = %+v", last)
	}
	if p.IsRunning() {
		t.Error("IsRunning() after Run returned")
	}
}

func TestRunMissingFileKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFullFixture(t, dir)

	inv := &countingInvalidator{}
	p, history := newTestPipeline(t, dir, inv)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	snapshot := filepath.Join(dir, "out", "movies.json")
	before, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(dir, PrincipalsFile)); err != nil {
		t.Fatal(err)
	}
	res, err := p.Run(context.Background())

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want *IOError", err)
	}
	if ioErr.Stage != StagePrincipals {
		t.Errorf("Stage = %q, want %q", ioErr.Stage, StagePrincipals)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("IOError does not wrap os.ErrNotExist: %v", err)
	}
	if res == nil || len(res.Movies) != 0 {
		t.Errorf("result movies = %v, want none", res)
	}

	after, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("snapshot changed after a failed run")
	}
	if inv.calls != 1 {
		t.Errorf("invalidator called %d times, want 1", inv.calls)
	}

	last, _ := history.Last(context.Background())
	if last == nil || last.Succeeded() || last.Error == "" {
		t.Errorf("history last = %+v, want a failed run", last)
	}
}

func TestRunMissingRatingsFile(t *testing.T) {
	p, _ := newTestPipeline(t, t.TempDir())

	res, err := p.Run(context.Background())
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Stage != StageRatings {
		t.Fatalf("err = %v, want ratings IOError", err)
	}
	if len(res.Movies) != 0 {
		t.Errorf("got %d movies", len(res.Movies))
	}
}

func TestRunMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeGz(t, dir, RatingsFile, "tconst\taverageRating", "tt1\t8.0")

	p, _ := newTestPipeline(t, dir)
	_, err := p.Run(context.Background())

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want *IOError", err)
	}
	if !strings.Contains(err.Error(), "numVotes") {
		t.Errorf("error %q does not name the missing column", err)
	}
}

func TestRunNotGzip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, RatingsFile), []byte(ratingsHeader+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, _ := newTestPipeline(t, dir)
	_, err := p.Run(context.Background())

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want *IOError", err)
	}
}

func TestRunEmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	writeGz(t, dir, RatingsFile, ratingsHeader, "tt1\t8.0\t10")
	writeGz(t, dir, BasicsFile, basicsHeader, "tt1\tmovie\tX\tX\t0\t2000\t\\N\t90\tDrama")

	p, _ := newTestPipeline(t, dir)
	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("err = %v, want ErrEmptyCatalog", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "movies.json")); !errors.Is(err, os.ErrNotExist) {
		t.Error("snapshot written for an empty result")
	}
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFullFixture(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := newTestPipeline(t, dir)
	_, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "movies.json")); !errors.Is(err, os.ErrNotExist) {
		t.Error("snapshot written by a canceled run")
	}
}

func TestRunInProgress(t *testing.T) {
	p, _ := newTestPipeline(t, t.TempDir())

	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	if !p.IsRunning() {
		t.Fatal("IsRunning() = false")
	}
	if _, err := p.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("err = %v, want ErrRunInProgress", err)
	}
}

func TestStats(t *testing.T) {
	s := StageStats{Seen: 10, Kept: 4, Malformed: 1}
	if s.Filtered() != 5 {
		t.Errorf("Filtered() = %d, want 5", s.Filtered())
	}

	var st Stats
	if st.Succeeded() {
		t.Error("zero Stats reported success")
	}
	if st.RowsSeen() != 0 {
		t.Errorf("RowsSeen() = %d", st.RowsSeen())
	}
}
