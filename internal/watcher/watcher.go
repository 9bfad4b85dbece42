// Package watcher turns filesystem events under the indexed root into
// debounced change batches that drive incremental reindex runs.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/repoman-dev/repoman/internal/walker"
)

const defaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Root is the directory tree to watch recursively.
	Root string

	// SkipDirs are directory names never descended into.
	SkipDirs []string

	// Suffixes limits events to files with these extensions. Empty means
	// every file counts.
	Suffixes []string

	// Debounce is the quiet window before a batch is emitted (0 = default).
	Debounce time.Duration
}

// Watcher wraps fsnotify with recursive directory tracking and debouncing.
type Watcher struct {
	fs    *fsnotify.Watcher
	opts  Options
	batch *batcher
	skip  map[string]bool
	want  map[string]bool
}

// New creates a Watcher and registers the directory tree under Root.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		fs:    fsw,
		opts:  opts,
		batch: newBatcher(debounce),
		skip:  make(map[string]bool, len(opts.SkipDirs)),
		want:  make(map[string]bool, len(opts.Suffixes)),
	}
	for _, d := range opts.SkipDirs {
		w.skip[d] = true
	}
	for _, s := range opts.Suffixes {
		w.want[s] = true
	}

	if err := w.addTree(opts.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Batches returns the channel of debounced change batches. It is closed when
// Run returns.
func (w *Watcher) Batches() <-chan []string {
	return w.batch.out
}

// Run pumps events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.batch.stop()
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)

	// New directories must be registered before their contents change.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skip[name] {
				if err := w.addTree(event.Name); err != nil {
					slog.Warn("watch_add_failed",
						slog.String("path", event.Name),
						slog.String("error", err.Error()))
				}
			}
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}
	if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.batch.add(event.Name)
	}
}

// relevant reports whether a file path passes the suffix filter and is not
// inside a skipped directory.
func (w *Watcher) relevant(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if w.skip[part] {
			return false
		}
	}
	if len(w.want) == 0 {
		return true
	}
	return w.want[walker.Suffix(path)]
}

// addTree registers path and every directory below it, honoring SkipDirs.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skip[d.Name()] {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}
