// Package browse pages query results on a terminal and opens picked
// documents with the platform handler.
package browse

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/query"
)

const fallbackPageSize = 10

// Options configures a Browser.
type Options struct {
	// In is the prompt input (defaults to os.Stdin).
	In io.Reader

	// Out renders the results.
	Out *output.Writer

	// PageSize is results per page (0 = derive from terminal height).
	PageSize int

	// Interactive enables the prompt loop. When false every result is
	// printed at once, which is the right thing for pipes.
	Interactive bool

	// Open opens a picked document (defaults to the platform handler).
	Open func(ctx context.Context, path string) error
}

// Browser walks a result set page by page.
type Browser struct {
	in       *bufio.Scanner
	out      *output.Writer
	pageSize int
	interact bool
	open     func(ctx context.Context, path string) error
}

// New creates a Browser.
func New(opts Options) *Browser {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = terminalPageSize()
	}
	open := opts.Open
	if open == nil {
		open = platformOpen
	}
	return &Browser{
		in:       bufio.NewScanner(in),
		out:      opts.Out,
		pageSize: pageSize,
		interact: opts.Interactive,
		open:     open,
	}
}

// Show renders the result set. In interactive mode an empty line advances a
// page, "q" quits, and a result number opens that document and ends the
// loop.
func (b *Browser) Show(ctx context.Context, rs *query.ResultSet) error {
	if !b.interact {
		for i, r := range rs.Results {
			b.out.Result(i+1, r)
		}
		b.out.Remainder(rs.Remainder)
		return nil
	}

	shown := 0
	for shown < len(rs.Results) {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := shown + b.pageSize
		if end > len(rs.Results) {
			end = len(rs.Results)
		}
		for i := shown; i < end; i++ {
			b.out.Result(i+1, rs.Results[i])
		}
		shown = end

		if shown >= len(rs.Results) {
			b.out.Remainder(rs.Remainder)
			return nil
		}

		b.out.Printf("-- %d/%d -- Enter=more, q=quit, number=open: ", shown, len(rs.Results))
		if !b.in.Scan() {
			return b.in.Err()
		}
		line := strings.TrimSpace(b.in.Text())
		switch {
		case line == "":
			continue
		case line == "q" || line == "quit":
			return nil
		default:
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(rs.Results) {
				b.out.Warningf("no result %q", line)
				continue
			}
			return b.open(ctx, rs.Results[n-1].Path)
		}
	}
	b.out.Remainder(rs.Remainder)
	return nil
}

// terminalPageSize derives results per page from the terminal height. Each
// result takes up to two lines plus the prompt.
func terminalPageSize() int {
	_, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || rows <= 0 {
		return fallbackPageSize
	}
	size := (rows - 2) / 2
	if size < 3 {
		return 3
	}
	return size
}

// platformOpen hands the path to the desktop's default handler.
func platformOpen(ctx context.Context, path string) error {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	return exec.CommandContext(ctx, name, path).Start()
}
