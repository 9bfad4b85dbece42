package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoman-dev/repoman/internal/store"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	docs := []store.Document{
		{
			Path:    "/repo/alpha.txt",
			Suffix:  "txt",
			LastMod: "2024-01-01 00:00",
			Body:    "kubernetes kubernetes kubernetes deployment notes",
		},
		{
			Path:    "/repo/bravo.md",
			Suffix:  "md",
			LastMod: "2024-02-01 00:00",
			Body:    "a passing mention of kubernetes in a longer text about other tools",
		},
		{
			Path:    "/repo/charlie -- k8s.org",
			Suffix:  "org",
			LastMod: "2024-03-01 00:00",
			Body:    "unrelated prose about gardening",
			Tags:    []string{"kubernetes"},
		},
		{
			Path:    "/repo/delta -- kubernetes.txt",
			Suffix:  "txt",
			LastMod: "2024-04-01 00:00",
			Body:    "kubernetes appears here too",
			Tags:    []string{"kubernetes"},
		},
	}
	for _, d := range docs {
		_, err := s.Upsert(ctx, d)
		require.NoError(t, err)
	}
	return s
}

func paths(rs *ResultSet) []string {
	out := make([]string, len(rs.Results))
	for i, r := range rs.Results {
		out[i] = r.Path
	}
	return out
}

func TestRunFusesTextAndTags(t *testing.T) {
	s := seedStore(t)

	rs, err := Run(context.Background(), s, Options{Terms: []string{"kubernetes"}})
	require.NoError(t, err)
	require.Len(t, rs.Results, 4)

	// Full-text hits first, best score on top; the doc matched by both text
	// and tag appears once with its full-text score.
	assert.Equal(t, "/repo/alpha.txt", rs.Results[0].Path)
	assert.False(t, rs.Results[0].ByTag)
	assert.Greater(t, rs.Results[0].Score, 0.0)

	// Tag-only match comes last with the sentinel rank.
	last := rs.Results[3]
	assert.Equal(t, "/repo/charlie -- k8s.org", last.Path)
	assert.True(t, last.ByTag)
	assert.Equal(t, " 0.00", last.Rank)
	assert.Zero(t, last.Score)
	assert.Equal(t, "Tag: >>>kubernetes<<<", last.Snippet)

	// No duplicates.
	seen := map[int64]bool{}
	for _, r := range rs.Results {
		assert.False(t, seen[r.DocID], r.Path)
		seen[r.DocID] = true
	}
}

func TestRunTagsMatchWholeQueryString(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, store.Document{
		Path:    "/repo/echo.txt",
		Suffix:  "txt",
		LastMod: "2024-05-01 00:00",
		Body:    "nothing relevant here",
		Tags:    []string{"gardening kubernetes"},
	})
	require.NoError(t, err)

	// The joined query string must equal a tag exactly. Documents tagged with
	// only a fragment of it (charlie, delta) stay out.
	rs, err := Run(ctx, s, Options{Terms: []string{"gardening", "kubernetes"}})
	require.NoError(t, err)
	require.Len(t, rs.Results, 1)
	assert.Equal(t, "/repo/echo.txt", rs.Results[0].Path)
	assert.True(t, rs.Results[0].ByTag)
	assert.Equal(t, "Tag: >>>gardening kubernetes<<<", rs.Results[0].Snippet)
}

func TestRunSuffixFilter(t *testing.T) {
	s := seedStore(t)

	rs, err := Run(context.Background(), s,
		Options{Terms: []string{"kubernetes"}, Suffix: "txt"})
	require.NoError(t, err)
	for _, r := range rs.Results {
		assert.Equal(t, "txt", r.Suffix)
	}
	assert.Len(t, rs.Results, 2)
}

func TestRunSortOrders(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	rs, err := Run(ctx, s, Options{Terms: []string{"kubernetes"}, Sort: "lastmod"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/repo/alpha.txt",
		"/repo/bravo.md",
		"/repo/charlie -- k8s.org",
		"/repo/delta -- kubernetes.txt",
	}, paths(rs))

	rs, err = Run(ctx, s, Options{Terms: []string{"kubernetes"}, Sort: "-lastmod"})
	require.NoError(t, err)
	assert.Equal(t, "/repo/delta -- kubernetes.txt", rs.Results[0].Path)

	rs, err = Run(ctx, s, Options{Terms: []string{"kubernetes"}, Sort: "name"})
	require.NoError(t, err)
	assert.Equal(t, "alpha.txt", rs.Results[0].Name)

	_, err = Run(ctx, s, Options{Terms: []string{"kubernetes"}, Sort: "bogus"})
	require.Error(t, err)
}

func TestRunTopNRemainder(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	rs, err := Run(ctx, s, Options{Terms: []string{"kubernetes"}, TopN: 3})
	require.NoError(t, err)
	assert.Len(t, rs.Results, 3)
	assert.Equal(t, 4, rs.Total)
	assert.Equal(t, 1, rs.Remainder)

	rs, err = Run(ctx, s, Options{Terms: []string{"kubernetes"}, TopN: 10})
	require.NoError(t, err)
	assert.Len(t, rs.Results, 4)
	assert.Zero(t, rs.Remainder)
}

func TestRunEmptyTerms(t *testing.T) {
	s := seedStore(t)
	rs, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)
	assert.Empty(t, rs.Results)
}

func TestRunNoMatches(t *testing.T) {
	s := seedStore(t)
	rs, err := Run(context.Background(), s, Options{Terms: []string{"zebra"}})
	require.NoError(t, err)
	assert.Empty(t, rs.Results)
	assert.Zero(t, rs.Total)
}

func TestValidSort(t *testing.T) {
	for _, ok := range []string{"rank", "-rank", "lastmod", "-lastmod", "name", "path", "suffix"} {
		assert.True(t, ValidSort(ok), ok)
	}
	for _, bad := range []string{"", "-", "score", "--name"} {
		assert.False(t, ValidSort(bad), bad)
	}
}
