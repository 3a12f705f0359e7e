// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/cinematch/internal/models"
)

func intPtr(v int) *int { return &v }

func fixtureMovies() []models.Movie {
	return []models.Movie{
		{
			ID: "tt0000009", Title: "Zulu Dawn", Year: 1979, Genres: []string{"Drama", "War"},
			Runtime: intPtr(117), Rating: 6.3, Votes: 4200,
			Cast: models.Cast{Actor: []string{"Burt Lancaster"}, Director: []string{"Douglas Hickox"}},
		},
		{
			ID: "tt0000001", Title: "Alien", Year: 1979, Genres: []string{"Horror", "Sci-Fi"},
			Rating: 8.5, Votes: 900000,
			Cast: models.Cast{Actress: []string{"Sigourney Weaver"}, Director: []string{"Ridley Scott"}},
		},
		{
			ID: "tt0000005", Title: "Gladiator", Year: 2000, Genres: []string{"Action", "Drama"},
			Runtime: intPtr(155), Rating: 8.5, Votes: 1500000,
			Cast: models.Cast{Actor: []string{"Russell Crowe"}, Director: []string{"Ridley Scott"}},
		},
	}
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.json")
	if err := WriteSnapshot(path, fixtureMovies()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	return path
}

func ids(movies []models.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func TestStoreAllKeepsSnapshotOrder(t *testing.T) {
	s := NewStore(writeFixture(t))
	ctx := context.Background()

	first, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := []string{"tt0000009", "tt0000001", "tt0000005"}
	if got := ids(first); !reflect.DeepEqual(got, want) {
		t.Errorf("All() order = %v, want %v", got, want)
	}

	second, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("All() returned different sequences on repeated calls")
	}
	if s.Loads() != 1 {
		t.Errorf("Loads() = %d, want 1", s.Loads())
	}
}

func TestStoreByID(t *testing.T) {
	s := NewStore(writeFixture(t))
	ctx := context.Background()

	m, err := s.ByID(ctx, "tt0000005")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if m.Title != "Gladiator" || m.Runtime == nil || *m.Runtime != 155 {
		t.Errorf("ByID() = %+v", m)
	}

	_, err = s.ByID(ctx, "tt404")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ByID(unknown) err = %v, want ErrNotFound", err)
	}
}

func TestStoreIndexes(t *testing.T) {
	s := NewStore(writeFixture(t))
	ctx := context.Background()

	genres, err := s.Genres(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Action", "Drama", "Horror", "Sci-Fi", "War"}; !reflect.DeepEqual(genres, want) {
		t.Errorf("Genres() = %v, want %v", genres, want)
	}

	drama, err := s.ByGenre(ctx, "Drama")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(drama); !reflect.DeepEqual(got, []string{"tt0000009", "tt0000005"}) {
		t.Errorf("ByGenre(Drama) = %v", got)
	}

	none, err := s.ByGenre(ctx, "Western")
	if err != nil || len(none) != 0 {
		t.Errorf("ByGenre(Western) = %v, %v", none, err)
	}

	crowe, err := s.ByCastMember(ctx, "Russell Crowe")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(crowe); !reflect.DeepEqual(got, []string{"tt0000005"}) {
		t.Errorf("ByCastMember(Russell Crowe) = %v", got)
	}

	directed, err := s.ByCastMember(ctx, "Ridley Scott")
	if err != nil || len(directed) != 0 {
		t.Errorf("ByCastMember(Ridley Scott) = %v, %v; directors are not cast", ids(directed), err)
	}

	weaver, _ := s.ByCastMember(ctx, "Sigourney Weaver")
	if got := ids(weaver); !reflect.DeepEqual(got, []string{"tt0000001"}) {
		t.Errorf("ByCastMember(Sigourney Weaver) = %v", got)
	}

	n, err := s.Len(ctx)
	if err != nil || n != 3 {
		t.Errorf("Len() = %d, %v", n, err)
	}
}

func TestStoreMissingSnapshotIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.json"))

	all, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("len(All()) = %d, want 0", len(all))
	}
	genres, _ := s.Genres(context.Background())
	if len(genres) != 0 {
		t.Errorf("Genres() = %v", genres)
	}
}

func TestStoreSingleFlightLoad(t *testing.T) {
	var calls atomic.Int32
	s := NewStore("unused")
	s.loader = func(string) ([]models.Movie, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return fixtureMovies(), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.All(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
}

func TestStoreInvalidateReloads(t *testing.T) {
	path := writeFixture(t)
	s := NewStore(path)
	ctx := context.Background()

	if n, _ := s.Len(ctx); n != 3 {
		t.Fatalf("Len() = %d", n)
	}

	if err := WriteSnapshot(path, fixtureMovies()[:1]); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Len(ctx); n != 3 {
		t.Errorf("view changed without Invalidate: Len() = %d", n)
	}

	s.Invalidate()
	if n, _ := s.Len(ctx); n != 1 {
		t.Errorf("after Invalidate Len() = %d, want 1", n)
	}
	if s.Loads() != 2 {
		t.Errorf("Loads() = %d, want 2", s.Loads())
	}
}

func TestStoreInvalidateDuringLoad(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s := NewStore("unused")
	s.loader = func(string) ([]models.Movie, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return fixtureMovies(), nil
		}
		return fixtureMovies()[:1], nil
	}
	ctx := context.Background()

	done := make(chan int)
	go func() {
		n, _ := s.Len(ctx)
		done <- n
	}()
	<-started

	s.Invalidate()
	if n, err := s.Len(ctx); err != nil || n != 1 {
		t.Fatalf("Len() after Invalidate = %d, %v; want fresh read of 1", n, err)
	}

	close(release)
	if n := <-done; n != 3 {
		t.Errorf("in-flight caller got %d entries, want the 3 it started reading", n)
	}

	if n, _ := s.Len(ctx); n != 1 {
		t.Errorf("Len() = %d after stale load finished, want 1", n)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("loader called %d times, want 2", got)
	}
}

func TestStoreLoadErrorIsNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	if err := os.WriteFile(path, []byte(`{"tt1": {"title": "x"`), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)

	if _, err := s.All(context.Background()); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("All() err = %v, want ErrMalformedSnapshot", err)
	}

	if err := WriteSnapshot(path, fixtureMovies()); err != nil {
		t.Fatal(err)
	}
	if n, err := s.Len(context.Background()); err != nil || n != 3 {
		t.Errorf("Len() after fix = %d, %v", n, err)
	}
}

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantIDs []string
		wantErr error
	}{
		{
			name:    "empty input",
			input:   "",
			wantIDs: nil,
		},
		{
			name:    "empty object",
			input:   "{}",
			wantIDs: nil,
		},
		{
			name: "id taken from key",
			input: `{"tt2": {"title": "B", "year": 2001, "genres": [], "runtime": null, "rating": 7.1, "votes": 1000,
				"cast": {"actor": [], "actress": [], "director": []}},
				"tt1": {"title": "A", "year": 2000, "genres": ["Drama"], "runtime": 90, "rating": 8, "votes": 5000,
				"cast": {"actor": ["X"], "actress": [], "director": []}}}`,
			wantIDs: []string{"tt2", "tt1"},
		},
		{
			name:    "missing votes",
			input:   `{"tt1": {"title": "A", "year": 2000, "rating": 8}}`,
			wantErr: models.ErrInvalidMovie,
		},
		{
			name:    "missing rating",
			input:   `{"tt1": {"title": "A", "year": 2000, "votes": 1000}}`,
			wantErr: models.ErrInvalidMovie,
		},
		{
			name:    "null rating",
			input:   `{"tt1": {"title": "A", "year": 2000, "rating": null, "votes": 1000}}`,
			wantErr: ErrMalformedSnapshot,
		},
		{
			name:    "null votes",
			input:   `{"tt1": {"title": "A", "year": 2000, "rating": 8, "votes": null}}`,
			wantErr: ErrMalformedSnapshot,
		},
		{
			name:    "zero rating is present",
			input:   `{"tt1": {"title": "A", "year": 2000, "rating": 0, "votes": 1000}}`,
			wantIDs: []string{"tt1"},
		},
		{
			name:    "rating out of range",
			input:   `{"tt1": {"title": "A", "year": 2000, "rating": 11, "votes": 1000}}`,
			wantErr: models.ErrInvalidMovie,
		},
		{
			name:    "null record",
			input:   `{"tt1": null}`,
			wantErr: models.ErrInvalidMovie,
		},
		{
			name:    "key and id disagree",
			input:   `{"tt1": {"id": "tt2", "title": "A", "year": 2000, "rating": 8, "votes": 1000}}`,
			wantErr: ErrMalformedSnapshot,
		},
		{
			name:    "wrong field type",
			input:   `{"tt1": {"title": "A", "year": "2000", "rating": 8, "votes": 1000}}`,
			wantErr: ErrMalformedSnapshot,
		},
		{
			name:    "array root",
			input:   `[]`,
			wantErr: ErrMalformedSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSnapshot(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g := ids(got); len(g) != 0 || len(tt.wantIDs) != 0 {
				if !reflect.DeepEqual(g, tt.wantIDs) {
					t.Errorf("ids = %v, want %v", g, tt.wantIDs)
				}
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, fixtureMovies()); err != nil {
		t.Fatal(err)
	}

	got, err := DecodeSnapshot(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, fixtureMovies()) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, fixtureMovies())
	}
}
