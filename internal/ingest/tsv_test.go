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
	"reflect"
	"strings"
	"testing"
)

func shrinkLineLimit(t *testing.T, n int) {
	t.Helper()
	prev := maxLineBytes
	maxLineBytes = n
	t.Cleanup(func() { maxLineBytes = prev })
}

func TestTSVNext(t *testing.T) {
	shrinkLineLimit(t, 64)

	dir := t.TempDir()
	writeGz(t, dir, "x.tsv.gz",
		"a\tb\tc",
		"1\t2\t3\r",
		"short",
		"4\t5\t"+strings.Repeat("z", 200),
		"7\t8\t9",
	)

	f, err := openTSV(filepath.Join(dir, "x.tsv.gz"), "c", "a")
	if err != nil {
		t.Fatalf("openTSV: %v", err)
	}
	defer f.Close() //nolint:errcheck // test

	steps := []struct {
		want    []string
		wantErr error
	}{
		{want: []string{"3", "1"}},
		{wantErr: errShortRow},
		{wantErr: errLongRow},
		{want: []string{"9", "7"}},
		{wantErr: io.EOF},
	}
	for i, step := range steps {
		got, err := f.Next()
		if step.wantErr != nil {
			if !errors.Is(err, step.wantErr) {
				t.Fatalf("row %d: err = %v, want %v", i, err, step.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, step.want) {
			t.Errorf("row %d = %v, want %v", i, got, step.want)
		}
	}
	if f.Line() != 5 {
		t.Errorf("Line() = %d, want 5", f.Line())
	}
}

func TestRunSkipsOversizedRow(t *testing.T) {
	shrinkLineLimit(t, 256)

	dir := t.TempDir()
	writeGz(t, dir, RatingsFile, ratingsHeader,
		"tt0000001\t7.5\t1000",
		"tt0000002\t8.0\t5000\t"+strings.Repeat("9", 4096),
		"tt0000003\t6.0\t2000",
	)
	writeGz(t, dir, BasicsFile, basicsHeader,
		"tt0000001\tmovie\tFirst\tFirst\t0\t1999\t\\N\t90\tDrama",
		"tt0000002\tmovie\tHuge\tHuge\t0\t2000\t\\N\t90\tDrama",
		"tt0000003\tmovie\tThird\tThird\t0\t2001\t\\N\t90\tDrama",
	)
	writeGz(t, dir, NamesFile, namesHeader)
	writeGz(t, dir, PrincipalsFile, principalsHeader)

	p, _ := newTestPipeline(t, dir)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := res.Stats.Ratings; got != (StageStats{Seen: 3, Kept: 2, Malformed: 1}) {
		t.Errorf("ratings stats = %+v", got)
	}
	gotIDs := make([]string, len(res.Movies))
	for i, m := range res.Movies {
		gotIDs[i] = m.ID
	}
	if want := []string{"tt0000001", "tt0000003"}; !reflect.DeepEqual(gotIDs, want) {
		t.Errorf("ids = %v, want %v", gotIDs, want)
	}
}
