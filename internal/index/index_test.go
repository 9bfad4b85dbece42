package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerr "github.com/repoman-dev/repoman/internal/errors"
	"github.com/repoman-dev/repoman/internal/store"
	"github.com/repoman-dev/repoman/internal/walker"
)

func initStore(t *testing.T) store.Options {
	t.Helper()
	opts := store.Options{DatabasePath: filepath.Join(t.TempDir(), "repoman.db")}
	s, err := store.Open(opts)
	require.NoError(t, err)
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.Close())
	return opts
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestSelectForIndexing(t *testing.T) {
	mtime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []walker.Entry{
		{Path: "/r/current.txt", Suffix: "txt", ModTime: mtime},
		{Path: "/r/changed.txt", Suffix: "txt", ModTime: mtime},
		{Path: "/r/new.txt", Suffix: "txt", ModTime: mtime},
	}
	indexed := map[string]string{
		"/r/current.txt": "2024-06-01 12:00",
		"/r/changed.txt": "2020-01-01 00:00",
	}

	stale, fresh := SelectForIndexing(indexed, entries, false)
	assert.Equal(t, 1, fresh)
	require.Len(t, stale, 2)
	assert.Equal(t, "/r/changed.txt", stale[0].Path)
	assert.Equal(t, "/r/new.txt", stale[1].Path)
	assert.Equal(t, "2024-06-01 12:00", stale[1].LastMod)

	all, fresh := SelectForIndexing(indexed, entries, true)
	assert.Equal(t, 0, fresh)
	assert.Len(t, all, 3)
}

func TestSelectForIndexingFilenameDateWins(t *testing.T) {
	mtime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []walker.Entry{
		{Path: "/r/2021-03-04 dated.txt", Suffix: "txt", ModTime: mtime},
	}

	stale, fresh := SelectForIndexing(
		map[string]string{"/r/2021-03-04 dated.txt": "2021-03-04 00:00"}, entries, false)
	assert.Empty(t, stale)
	assert.Equal(t, 1, fresh)
}

func TestRunIndexesAndSkips(t *testing.T) {
	ctx := context.Background()
	root := writeTree(t, map[string]string{
		"a.txt":          "alpha content",
		"sub/b.md":       "bravo content",
		"ignored.jpg":    "not a candidate",
		".git/c.txt":     "pruned",
		"notes -- x.txt": "tagged content",
	})
	opts := Options{
		Root:     root,
		Suffixes: []string{"txt", "md"},
		SkipDirs: []string{".git"},
		Store:    initStore(t),
	}

	summary, err := Run(ctx, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 3, summary.Indexed)
	assert.Empty(t, summary.Failures)

	// Second run finds everything current.
	summary, err = Run(ctx, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Fresh)
	assert.Equal(t, 0, summary.Indexed)

	// Force reindexes all.
	opts.Force = true
	summary, err = Run(ctx, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Indexed)

	s, err := store.Open(opts.Store)
	require.NoError(t, err)
	defer s.Close()

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Documents)

	ids, err := s.TagExact(ctx, "x")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestRunPersistsOrgLinks(t *testing.T) {
	ctx := context.Background()
	root := writeTree(t, map[string]string{
		"notes.org": "see [[https://example.org][Example]] for details\n",
	})
	opts := Options{Root: root, Suffixes: []string{"org"}, Store: initStore(t)}

	summary, err := Run(ctx, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	assert.Empty(t, summary.Warnings)

	s, err := store.Open(opts.Store)
	require.NoError(t, err)
	defer s.Close()

	links, err := s.AllLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Link{{URL: "https://example.org", Description: "Example"}}, links)
}

func TestRunCleanupRemovesMissingFiles(t *testing.T) {
	ctx := context.Background()
	root := writeTree(t, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})
	opts := Options{Root: root, Suffixes: []string{"txt"}, Store: initStore(t)}

	_, err := Run(ctx, opts, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.txt")))

	opts.Cleanup = true
	summary, err := Run(ctx, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Removed)

	s, err := store.Open(opts.Store)
	require.NoError(t, err)
	defer s.Close()
	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Documents)
}

func TestRunSchemaMissingIsFatal(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "alpha"})
	opts := Options{
		Root:     root,
		Suffixes: []string{"txt"},
		Store:    store.Options{DatabasePath: filepath.Join(t.TempDir(), "uninitialized.db")},
	}

	_, err := Run(context.Background(), opts, nil)
	require.Error(t, err)
	assert.Equal(t, rerr.ErrCodeSchemaMissing, rerr.CodeOf(err))
}

func TestRunLockHeld(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "alpha"})
	lockPath := filepath.Join(t.TempDir(), "repoman.lock")

	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer fl.Unlock()

	opts := Options{Root: root, Suffixes: []string{"txt"}, Store: initStore(t), LockPath: lockPath}
	_, err = Run(context.Background(), opts, nil)
	require.Error(t, err)
	assert.Equal(t, rerr.ErrCodeStoreLocked, rerr.CodeOf(err))
	assert.True(t, rerr.IsFatal(err))
}

func TestRunReportsProgress(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})
	opts := Options{Root: root, Suffixes: []string{"txt"}, Store: initStore(t)}

	progress := make(chan Progress, 16)
	summary, err := Run(context.Background(), opts, progress)
	require.NoError(t, err)
	close(progress)

	var got []Progress
	for p := range progress {
		got = append(got, p)
	}
	require.Len(t, got, summary.Indexed)
	last := got[len(got)-1]
	assert.Equal(t, 2, last.Total)
	assert.Equal(t, 2, last.Done)
	assert.NotEmpty(t, last.Path)
}

func TestRunParallelPool(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 12; i++ {
		files[filepath.Join("d", string(rune('a'+i))+".txt")] = "body text"
	}
	root := writeTree(t, files)
	opts := Options{
		Root:              root,
		Suffixes:          []string{"txt"},
		Store:             initStore(t),
		Workers:           4,
		ParallelThreshold: 4,
	}

	summary, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Indexed)
	assert.Empty(t, summary.Failures)
}

func TestRunUnreadableFileIsRecordedNotFatal(t *testing.T) {
	root := writeTree(t, map[string]string{"ok.txt": "fine"})
	unreadable := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(unreadable, []byte("hidden"), 0o000))
	if os.Getuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	opts := Options{Root: root, Suffixes: []string{"txt"}, Store: initStore(t)}
	summary, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, unreadable, summary.Failures[0].Path)
}
