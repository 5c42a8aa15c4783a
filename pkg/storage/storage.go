// Package storage reads deployment scripts and writes graph dumps through a
// small FileStore abstraction, so the CLI works the same against a local
// directory and an S3 bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file. A missing file gives an error wrapping
	// os.ErrNotExist. The caller must close the reader.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or truncates the named file, creating parents. Data is
	// only guaranteed to be stored once the writer is closed.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns every path matching the doublestar pattern
	// (e.g. "scripts/**/*.sodg"), sorted.
	List(ctx context.Context, pattern string) ([]string, error)
}

// ReadFile reads the whole named file.
func ReadFile(ctx context.Context, fs FileStore, path string) ([]byte, error) {
	r, err := fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteFile replaces the named file with data. When the write fails and
// the file did not exist before, whatever was created is removed.
func WriteFile(ctx context.Context, fs FileStore, path string, data []byte) error {
	existed, err := fs.Exists(ctx, path)
	if err != nil {
		return err
	}
	w, err := fs.Write(ctx, path)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil && !existed {
		if derr := fs.Delete(ctx, path); derr != nil {
			return errors.Join(err, derr)
		}
	}
	return err
}

// Glob expands each pattern against fs and returns the matches in pattern
// order, each pattern's matches sorted, duplicates dropped. A pattern
// without meta characters is passed through as is so that a missing file
// surfaces as a read error.
func Glob(ctx context.Context, fs FileStore, patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		var matches []string
		if hasMeta(p) {
			var err error
			if matches, err = fs.List(ctx, p); err != nil {
				return nil, err
			}
		} else {
			matches = []string{p}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// hasMeta reports whether p holds doublestar meta characters. doublestar
// exports no such check, and SplitPattern cuts a literal path at its last
// separator just like a pattern, so it cannot tell the two apart.
func hasMeta(p string) bool {
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// match filters paths by pattern and sorts the result.
func match(pattern string, paths []string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	var out []string
	for _, p := range paths {
		ok, err := doublestar.Match(pattern, p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// staticPrefix returns the leading directories of pattern that hold no
// meta characters, e.g. "scripts/base/" for "scripts/base/**/*.sodg".
func staticPrefix(pattern string) string {
	base, _ := doublestar.SplitPattern(pattern)
	if base == "." {
		return ""
	}
	return base + "/"
}
