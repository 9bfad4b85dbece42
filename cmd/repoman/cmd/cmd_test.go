package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoman-dev/repoman/internal/config"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/state"
)

func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REPOMAN_CONFIG_DIR", t.TempDir())
	t.Setenv("REPOMAN_DATA_DIR", t.TempDir())
	t.Setenv("REPOMAN_TEXT_BACKEND", "sqlite")
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	return cmd.Execute()
}

func TestIndexOptionsResolution(t *testing.T) {
	testEnv(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Index.Root = "/data"
	cfg.Index.Workers = 3

	opts := indexOptions(cfg, "", "", false, false, 0)
	assert.Equal(t, "/data", opts.Root)
	assert.Equal(t, config.DefaultSuffixes, opts.Suffixes)
	assert.Equal(t, 3, opts.Workers)

	opts = indexOptions(cfg, "/other", "org", true, true, 8)
	assert.Equal(t, "/other", opts.Root)
	assert.Equal(t, []string{"org"}, opts.Suffixes)
	assert.True(t, opts.Force)
	assert.True(t, opts.Cleanup)
	assert.Equal(t, 8, opts.Workers)
}

func TestQueryOptionsPrecedence(t *testing.T) {
	testEnv(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	st := &state.State{Query: state.QueryDefaults{Sort: "-lastmod", Suffix: "org", TopN: 5}}

	// Saved defaults win over config when no flag is set.
	opts := queryOptions(cfg, st, []string{"a"}, false, "", false, "", false, 0)
	assert.Equal(t, "-lastmod", opts.Sort)
	assert.Equal(t, "org", opts.Suffix)
	assert.Equal(t, 5, opts.TopN)

	// Explicit flags win over saved defaults.
	opts = queryOptions(cfg, st, []string{"a"}, true, "txt", true, "name", true, 2)
	assert.Equal(t, "name", opts.Sort)
	assert.Equal(t, "txt", opts.Suffix)
	assert.Equal(t, 2, opts.TopN)

	// With neither flag nor saved default the config order applies.
	opts = queryOptions(cfg, &state.State{}, []string{"a"}, false, "", false, "", false, 0)
	assert.Equal(t, cfg.Search.SortOrder, opts.Sort)
	assert.Empty(t, opts.Suffix)
}

func TestDBInitThenIndexThenStatus(t *testing.T) {
	testEnv(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "note -- work.txt"), []byte("hello world"), 0o644))

	require.NoError(t, execute(t, "db", "init"))
	require.NoError(t, execute(t, "index", "--root", root))
	require.NoError(t, execute(t, "status"))
	require.NoError(t, execute(t, "tags"))
	require.NoError(t, execute(t, "links"))
	require.NoError(t, execute(t, "query", "hello"))
	require.NoError(t, execute(t, "db", "clear", "--yes"))
	require.NoError(t, execute(t, "db", "drop", "--yes"))
}

func TestLinksSummaryByDomain(t *testing.T) {
	testEnv(t)
	root := t.TempDir()
	body := "one [[https://example.org/a][A]] and [[https://example.org/b]]\nalso [[https://other.net/c]]\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.org"), []byte(body), 0o644))

	require.NoError(t, execute(t, "db", "init"))
	require.NoError(t, execute(t, "index", "--root", root))

	cfg, err := loadConfig()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, runLinks(context.Background(), cfg, output.NewPlain(&buf)))

	got := buf.String()
	assert.Contains(t, got, "3 links across 2 domains")

	// Busiest domain first.
	first := strings.Index(got, "example.org")
	second := strings.Index(got, "other.net")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestIndexWithoutSchemaFails(t *testing.T) {
	testEnv(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	err := execute(t, "index", "--root", root)
	require.Error(t, err)
}

func TestShellDispatchTableIsClosed(t *testing.T) {
	names := map[string]bool{}
	for _, c := range shellCommands {
		assert.False(t, names[c.name], "duplicate command %s", c.name)
		names[c.name] = true
		assert.NotEmpty(t, c.help)
		assert.NotNil(t, c.run)
	}
	for _, want := range []string{"help", "index", "query", "status", "tags", "links", "quit"} {
		assert.True(t, names[want], want)
	}
}

func TestShellHelpAndQuit(t *testing.T) {
	var buf bytes.Buffer
	sh := &shell{out: output.NewPlain(&buf)}

	require.NoError(t, runShellHelp(context.Background(), sh, nil))
	assert.Contains(t, buf.String(), "query")

	require.NoError(t, runShellQuit(context.Background(), sh, nil))
	assert.True(t, sh.quit)
}
