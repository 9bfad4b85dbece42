package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repoman-dev/repoman/internal/query"
)

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Progress(0, 10, "starting")
	assert.Contains(t, buf.String(), "░░░░")
	assert.Contains(t, buf.String(), "0%")

	buf.Reset()
	w.Progress(10, 10, "done")
	out := buf.String()
	assert.Contains(t, out, "100%")
	assert.True(t, strings.HasSuffix(out, "\n"), "complete bar must end the line")
	assert.NotContains(t, out, "░")
}

func TestProgressZeroTotalIsSilent(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).Progress(1, 0, "x")
	assert.Empty(t, buf.String())
}

func TestResultRendering(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Result(1, query.Result{
		Path:    "/notes/a.org",
		LastMod: "2024-03-01 10:00",
		Rank:    " 4.20",
		Snippet: "prose with a >>>match<<< inside",
	})
	out := buf.String()
	assert.Contains(t, out, "  1   4.20  2024-03-01 10:00  /notes/a.org")
	assert.Contains(t, out, ">>>match<<<")

	buf.Reset()
	w.Result(2, query.Result{Path: "/b.txt", LastMod: "2024-01-01 00:00", Rank: " 0.00", ByTag: true})
	assert.Contains(t, buf.String(), "  2   0.00")
	// Tag-only matches carry no snippet line.
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestRemainder(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Remainder(0)
	assert.Empty(t, buf.String())

	w.Remainder(7)
	assert.Contains(t, buf.String(), "and 7 more")
}
