// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package fsutil holds the file helpers shared by the whole-file stores.
package fsutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic streams write's output to a temp file next to path, syncs
// it and renames it over path. Readers see either the old file or the new
// one, never a partial write.
//
//nolint:gosec // G304: path comes from configuration
func WriteFileAtomic(path string, perm os.FileMode, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeAndClose(tmp, write); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return err
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

// writeAndClose runs write through a buffer, then flushes, syncs and closes f.
func writeAndClose(f *os.File, write func(w io.Writer) error) error {
	bw := bufio.NewWriterSize(f, 64*1024)

	if err := write(bw); err != nil {
		f.Close() //nolint:errcheck // Best effort cleanup on error
		return err
	}

	if err := bw.Flush(); err != nil {
		f.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to flush: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to sync: %w", err)
	}

	return f.Close()
}

// WriteBytesAtomic is WriteFileAtomic for an in-memory payload.
func WriteBytesAtomic(path string, perm os.FileMode, data []byte) error {
	return WriteFileAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
