package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under dir, making parent directories as needed.
func writeTree(t *testing.T, dir string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("content"), 0o644))
	}
}

func names(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, filepath.Base(e.Path))
	}
	sort.Strings(out)
	return out
}

func walkAll(t *testing.T, opts Options) []Entry {
	t.Helper()
	ch, err := Walk(context.Background(), opts)
	require.NoError(t, err)
	entries, err := Collect(ch)
	require.NoError(t, err)
	return entries
}

func TestWalkAllowList(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir,
		"notes.txt",
		"deep/nested/journal.org",
		"deep/photo.jpg",
		"script.py",
	)

	entries := walkAll(t, Options{
		Root:            dir,
		IncludeSuffixes: []string{"txt", "org"},
	})
	assert.Equal(t, []string{"journal.org", "notes.txt"}, names(entries))
}

func TestWalkAllowListIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "REPORT.TXT", "readme.Md")

	entries := walkAll(t, Options{
		Root:            dir,
		IncludeSuffixes: []string{"TXT", "md"},
	})
	assert.Equal(t, []string{"REPORT.TXT", "readme.Md"}, names(entries))
	for _, e := range entries {
		assert.Contains(t, []string{"txt", "md"}, e.Suffix)
	}
}

func TestWalkExplicitSuffixMode(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.pdf", "b.txt", "sub/c.PDF")

	entries := walkAll(t, Options{Root: dir, Suffix: "pdf"})
	assert.Equal(t, []string{"a.pdf", "c.PDF"}, names(entries))
}

func TestWalkNoFilterYieldsEverything(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.txt", "Makefile", "b.bin")

	entries := walkAll(t, Options{Root: dir})
	assert.Equal(t, []string{"Makefile", "a.txt", "b.bin"}, names(entries))
}

func TestWalkPrunesSkipDirs(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir,
		"keep/a.txt",
		".git/objects/b.txt",
		"node_modules/pkg/c.txt",
		"nested/.venv/d.txt",
	)

	entries := walkAll(t, Options{
		Root:            dir,
		SkipDirs:        []string{".git", "node_modules", ".venv"},
		IncludeSuffixes: []string{"txt"},
	})
	assert.Equal(t, []string{"a.txt"}, names(entries))
}

func TestWalkIsRestartable(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.txt", "b.txt")

	opts := Options{Root: dir, IncludeSuffixes: []string{"txt"}}
	first := walkAll(t, opts)
	second := walkAll(t, opts)
	assert.Equal(t, names(first), names(second))
	assert.Len(t, second, 2)
}

func TestWalkRejectsMissingRoot(t *testing.T) {
	_, err := Walk(context.Background(), Options{Root: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}

func TestWalkRejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "plain.txt")
	_, err := Walk(context.Background(), Options{Root: filepath.Join(dir, "plain.txt")})
	require.Error(t, err)
}

func TestWalkCancellation(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.txt", "b.txt", "c.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch, err := Walk(ctx, Options{Root: dir})
	require.NoError(t, err)

	// Channel must close; whatever was buffered before cancellation is fine.
	for range ch {
	}
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "txt", Suffix("/a/b/C.TXT"))
	assert.Equal(t, "", Suffix("/a/b/Makefile"))
	assert.Equal(t, "gz", Suffix("archive.tar.gz"))
}
