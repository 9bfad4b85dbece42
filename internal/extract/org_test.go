package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerr "github.com/repoman-dev/repoman/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseLinks(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Link
	}{
		{
			"bare url",
			"[[https://foo.bar.com]]",
			[]Link{{URL: "https://foo.bar.com"}},
		},
		{
			"url with description",
			"[[https://foo.bar.com][A Description]]",
			[]Link{{URL: "https://foo.bar.com", Description: "A Description"}},
		},
		{
			"embedded in prose",
			"asdf asdf a [[https://foo.bar.com][A Description]] asdf asdf adsf",
			[]Link{{URL: "https://foo.bar.com", Description: "A Description"}},
		},
		{
			"two links in order",
			"asdf [[https://foo.bar.com]] wqer   [[https://bar.foo.org][A Desc]] asdf ",
			[]Link{{URL: "https://foo.bar.com"}, {URL: "https://bar.foo.org", Description: "A Desc"}},
		},
		{
			"no links",
			"just some plain text",
			nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseLinks(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseLinksMalformed(t *testing.T) {
	for _, line := range []string{
		"[[https://foo.bar.com",
		"[[https://foo.bar.com][no closing",
		"[[https://foo.bar.com]trailing",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := parseLinks(line)
			require.Error(t, err)
		})
	}
}

func TestExtractOrgBodyAndLinks(t *testing.T) {
	path := writeFile(t, "journal.org", `* A Heading

Some prose with a link [[https://x.com][Desc]] inline.

#+begin_src python
secret = "do not index this"
#+end_src

Closing thoughts with [[https://y.org]] attached.
`)

	e := New(nil)
	c, ok, err := e.Extract(context.Background(), path, "org")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Contains(t, c.Body, "* A Heading")
	assert.Contains(t, c.Body, "Some prose with a link")
	assert.Contains(t, c.Body, "Closing thoughts")
	assert.NotContains(t, c.Body, "do not index this")
	// Non-blank lines are space-joined into one body string.
	assert.NotContains(t, c.Body, "\n")

	assert.Equal(t, []Link{
		{URL: "https://x.com", Description: "Desc"},
		{URL: "https://y.org"},
	}, c.Links)
}

func TestExtractOrgSrcMarkersCaseInsensitive(t *testing.T) {
	path := writeFile(t, "caps.org", "before\n#+BEGIN_SRC go\nhidden\n#+END_SRC\nafter\n")

	e := New(nil)
	c, _, err := e.Extract(context.Background(), path, "org")
	require.NoError(t, err)
	assert.Equal(t, "before after", c.Body)
}

func TestExtractOrgMalformedLinkKeepsBody(t *testing.T) {
	path := writeFile(t, "broken.org", "good line\nbad [[https://unterminated\nmore text\n")

	e := New(nil)
	c, ok, err := e.Extract(context.Background(), path, "org")
	require.True(t, ok)
	require.Error(t, err)

	var re *rerr.RepoError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, rerr.ErrCodeLinkMarkup, re.Code)

	// Body survives, links are dropped rather than partially reported.
	assert.Contains(t, c.Body, "good line")
	assert.Contains(t, c.Body, "more text")
	assert.Nil(t, c.Links)
}
