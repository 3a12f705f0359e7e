// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ingest

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// nullValue is the dataset's marker for an absent field.
const nullValue = `\N`

// maxLineBytes bounds a single TSV line. Longer rows are skipped as
// malformed. A var so tests can shrink it.
var maxLineBytes = 4 * 1024 * 1024

// tsvFile streams rows of a gzipped, tab-separated dataset file. Dataset
// files are not quoted: a tab always separates fields and a newline always
// ends a row.
type tsvFile struct {
	path    string
	file    *os.File
	gz      *gzip.Reader
	reader  *bufio.Reader
	cols    []int
	width   int
	fields  []string
	line    int64
}

// openTSV opens path and resolves the required columns from its header.
// Row values are returned in the order of columns.
//
//nolint:gosec // G304: path comes from configuration
func openTSV(path string, columns ...string) (*tsvFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close() //nolint:errcheck // Best effort cleanup on error
		return nil, fmt.Errorf("gzip header: %w", err)
	}

	t := &tsvFile{path: path, file: f, gz: gz, reader: bufio.NewReaderSize(gz, maxLineBytes)}
	if err := t.readHeader(columns); err != nil {
		t.Close() //nolint:errcheck // Best effort cleanup on error
		return nil, err
	}
	return t, nil
}

func (t *tsvFile) readHeader(columns []string) error {
	line, err := t.readLine()
	switch {
	case errors.Is(err, io.EOF):
		return errors.New("empty file")
	case errors.Is(err, errLongRow):
		return fmt.Errorf("read header: longer than %d bytes", maxLineBytes)
	case err != nil:
		return fmt.Errorf("read header: %w", err)
	}

	header := strings.Split(string(line), "\t")
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	t.cols = make([]int, len(columns))
	var missing []string
	for i, name := range columns {
		idx, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		t.cols[i] = idx
		if idx+1 > t.width {
			t.width = idx + 1
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	t.fields = make([]string, len(columns))
	return nil
}

var (
	// errShortRow reports a row with fewer fields than the header requires.
	errShortRow = errors.New("short row")

	// errLongRow reports a row longer than maxLineBytes. The row has been
	// consumed.
	errLongRow = errors.New("row too long")
)

// isMalformedRow reports whether err concerns one row only, so reading can
// continue.
func isMalformedRow(err error) bool {
	return errors.Is(err, errShortRow) || errors.Is(err, errLongRow)
}

// readLine returns the next line without its line ending. The slice is only
// valid until the next read.
func (t *tsvFile) readLine() ([]byte, error) {
	line, err := t.reader.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = t.reader.ReadSlice('\n')
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		t.line++
		return nil, errLongRow
	case errors.Is(err, io.EOF):
		if len(line) == 0 {
			return nil, io.EOF
		}
	case err != nil:
		return nil, err
	}
	t.line++
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), nil
}

// Next advances to the next row. It returns io.EOF at the end of the file,
// and errShortRow or errLongRow for a row it cannot use; isMalformedRow
// errors leave the file readable. The returned slice is reused.
func (t *tsvFile) Next() ([]string, error) {
	line, err := t.readLine()
	switch {
	case errors.Is(err, io.EOF), isMalformedRow(err):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("line %d: %w", t.line+1, err)
	}

	raw := strings.Split(string(line), "\t")
	if len(raw) < t.width {
		return nil, errShortRow
	}
	for i, idx := range t.cols {
		t.fields[i] = raw[idx]
	}
	return t.fields, nil
}

// Line returns the number of lines read, header included.
func (t *tsvFile) Line() int64 {
	return t.line
}

// Close releases the file.
func (t *tsvFile) Close() error {
	gzErr := t.gz.Close()
	if err := t.file.Close(); err != nil {
		return err
	}
	return gzErr
}
