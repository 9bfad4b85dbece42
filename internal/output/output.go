// Package output renders CLI output: status lines, progress, and query
// results.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/repoman-dev/repoman/internal/query"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer, colored when out is a terminal and NO_COLOR is
// unset.
func New(out io.Writer) *Writer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) && os.Getenv("NO_COLOR") == ""
	}
	if color {
		return &Writer{out: out, styles: DefaultStyles()}
	}
	return NewPlain(out)
}

// NewPlain creates a Writer without any styling.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out, styles: NoColorStyles()}
}

// Printf writes directly, no decoration.
// Write errors on console output are intentionally ignored throughout.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

// Println writes a plain line.
func (w *Writer) Println(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Successf prints a success line.
func (w *Writer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Warningf prints a warning line.
func (w *Writer) Warningf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints an error line.
func (w *Writer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Header prints a section header.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Progress renders an in-place progress bar. Call with current == total to
// finish the line.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}
	pct := float64(current) / float64(total) * 100
	bar := renderProgressBar(current, total, 30)
	_, _ = fmt.Fprintf(w.out, "\r[%s] %3.0f%% %s", bar, pct, msg)
	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

func renderProgressBar(current, total, width int) string {
	filled := 0
	if total > 0 {
		filled = current * width / total
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Result renders one numbered query result: a summary line and, when a
// snippet exists, an indented excerpt with the match markers styled.
func (w *Writer) Result(num int, r query.Result) {
	rank := r.Rank
	if r.ByTag {
		rank = w.styles.Dim.Render(rank)
	} else {
		rank = w.styles.Rank.Render(rank)
	}
	_, _ = fmt.Fprintf(w.out, "%3d  %s  %s  %s\n",
		num, rank, w.styles.Meta.Render(r.LastMod), w.styles.Path.Render(r.Path))
	if r.Snippet != "" {
		_, _ = fmt.Fprintf(w.out, "     %s\n", w.styleSnippet(r.Snippet))
	}
}

// Remainder reports how many matches a truncated listing cut off.
func (w *Writer) Remainder(n int) {
	if n > 0 {
		_, _ = fmt.Fprintln(w.out, w.styles.Meta.Render(fmt.Sprintf("... and %d more", n)))
	}
}

// styleSnippet colors the text between the match markers. Plain writers get
// the markers verbatim.
func (w *Writer) styleSnippet(snippet string) string {
	var b strings.Builder
	rest := snippet
	for {
		start := strings.Index(rest, ">>>")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+3:], "<<<")
		if end < 0 {
			break
		}
		b.WriteString(rest[:start])
		b.WriteString(w.styles.Match.Render(">>>" + rest[start+3:start+3+end] + "<<<"))
		rest = rest[start+3+end+3:]
	}
	b.WriteString(rest)
	return b.String()
}
