// Package walker enumerates candidate files for indexing.
//
// Traversal is depth-first and streams entries over a channel. Directories
// whose name is on the skip list are pruned entirely. Two filtering modes are
// supported: an allow-list of suffixes (normal indexing) or a single explicit
// suffix (ad-hoc suffix-filtered runs). Each Walk call is independent; there
// is no state between invocations. Symlink cycles are not handled.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry describes one candidate file.
type Entry struct {
	// Path is the absolute file path.
	Path string
	// Suffix is the lowercase file suffix without the dot ("" if none).
	Suffix string
	// ModTime is the filesystem modification time.
	ModTime time.Time
}

// Result is streamed from Walk. Exactly one of Entry or Err is set.
type Result struct {
	Entry Entry
	Err   error
}

// Options configures a traversal.
type Options struct {
	// Root is the directory traversal starts from.
	Root string

	// SkipDirs are directory names (not paths) pruned entirely.
	SkipDirs []string

	// IncludeSuffixes is the case-insensitive suffix allow-list.
	// Ignored when Suffix is set.
	IncludeSuffixes []string

	// Suffix, when non-empty, restricts the walk to exactly that suffix.
	Suffix string
}

// Walk enumerates candidate files under opts.Root. The returned channel is
// closed when traversal completes or ctx is cancelled. Unreadable entries are
// skipped silently; a traversal-level failure is delivered as a final Result
// with Err set.
func Walk(ctx context.Context, opts Options) (<-chan Result, error) {
	root, err := filepath.Abs(expandHome(opts.Root))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	skip := make(map[string]struct{}, len(opts.SkipDirs))
	for _, name := range opts.SkipDirs {
		skip[name] = struct{}{}
	}
	allow := make(map[string]struct{}, len(opts.IncludeSuffixes))
	for _, s := range opts.IncludeSuffixes {
		allow[strings.ToLower(strings.TrimPrefix(s, "."))] = struct{}{}
	}
	only := strings.ToLower(strings.TrimPrefix(opts.Suffix, "."))

	results := make(chan Result, 64)
	go func() {
		defer close(results)
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err != nil {
				return nil // Skip entries we cannot access.
			}

			if d.IsDir() {
				if path != root {
					if _, ok := skip[d.Name()]; ok {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			suffix := Suffix(path)
			switch {
			case only != "":
				if suffix != only {
					return nil
				}
			case len(allow) > 0:
				if _, ok := allow[suffix]; !ok {
					return nil
				}
			}

			fi, err := d.Info()
			if err != nil {
				return nil
			}

			select {
			case results <- Result{Entry: Entry{Path: path, Suffix: suffix, ModTime: fi.ModTime()}}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if walkErr != nil && walkErr != context.Canceled {
			select {
			case results <- Result{Err: walkErr}:
			case <-ctx.Done():
			}
		}
	}()

	return results, nil
}

// Collect drains a Walk channel into a slice of entries, returning the first
// traversal error encountered, if any.
func Collect(results <-chan Result) ([]Entry, error) {
	var entries []Entry
	var firstErr error
	for r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		entries = append(entries, r.Entry)
	}
	return entries, firstErr
}

// Suffix returns the lowercase suffix of path without the leading dot.
func Suffix(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// expandHome expands a leading ~ to the user home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
