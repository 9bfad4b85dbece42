package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/internal/config"
	rerr "github.com/repoman-dev/repoman/internal/errors"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/query"
	"github.com/repoman-dev/repoman/internal/state"
)

// shell is the interactive session: one loaded config, one output writer,
// and the line loop.
type shell struct {
	cfg  *config.Config
	out  *output.Writer
	quit bool
}

// shellCommand is one entry in the closed dispatch table.
type shellCommand struct {
	name string
	help string
	run  func(ctx context.Context, sh *shell, args []string) error
}

// shellCommands is the full command set. Input whose first word is not
// listed here is treated as query terms.
var shellCommands []shellCommand

func init() {
	shellCommands = []shellCommand{
		{"help", "show this help", runShellHelp},
		{"index", "index new and changed files", runShellIndex},
		{"query", "search: query <term>... [-suffix] [sort]", runShellQuery},
		{"status", "show index statistics", runShellStatus},
		{"tags", "list tags with counts", runShellTags},
		{"links", "list collected hyperlinks", runShellLinks},
		{"quit", "leave the shell", runShellQuit},
	}
}

func runShell(ctx context.Context, _ *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sh := &shell{cfg: cfg, out: stdoutWriter()}

	sh.out.Println("repoman interactive shell, 'help' lists commands")
	scanner := bufio.NewScanner(os.Stdin)
	for !sh.quit {
		sh.out.Printf("repoman> ")
		if !scanner.Scan() {
			sh.out.Newline()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := sh.dispatch(ctx, line); err != nil {
			if rerr.IsFatal(err) {
				return err
			}
			sh.out.Errorf("%v", err)
		}
	}
	return scanner.Err()
}

// dispatch routes one input line. Known first words hit the table, with or
// without a leading dot; anything else is a query.
func (sh *shell) dispatch(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	if strings.HasPrefix(name, ".") {
		name = strings.TrimPrefix(name, ".")
		if name == "q" {
			name = "quit"
		}
	}
	if name == "exit" {
		name = "quit"
	}
	for _, c := range shellCommands {
		if c.name == name {
			return c.run(ctx, sh, args)
		}
	}
	return runShellQuery(ctx, sh, fields)
}

func runShellHelp(_ context.Context, sh *shell, _ []string) error {
	for _, c := range shellCommands {
		sh.out.Printf("  %-8s %s\n", c.name, c.help)
	}
	sh.out.Println("  anything else is searched as query terms")
	return nil
}

func runShellIndex(ctx context.Context, sh *shell, args []string) error {
	suffix := ""
	force := false
	for _, a := range args {
		switch a {
		case "-f", "--force":
			force = true
		default:
			suffix = strings.TrimPrefix(a, "-")
		}
	}
	return runIndex(ctx, sh.out, indexOptions(sh.cfg, "", suffix, force, true, 0))
}

// runShellQuery parses the compact interactive form: plain words are terms,
// "-word" is either a suffix filter or a reversed sort order, a bare sort
// key switches ordering.
func runShellQuery(ctx context.Context, sh *shell, args []string) error {
	st, err := state.Load(config.Dir())
	if err != nil {
		return err
	}
	opts := query.Options{
		Suffix: st.Query.Suffix,
		TopN:   st.Query.TopN,
		Sort:   st.Query.Sort,
	}
	if opts.Sort == "" {
		opts.Sort = sh.cfg.Search.SortOrder
	}

	for _, a := range args {
		switch {
		case query.ValidSort(a):
			opts.Sort = a
		case strings.HasPrefix(a, "-"):
			opts.Suffix = strings.TrimPrefix(a, "-")
		default:
			opts.Terms = append(opts.Terms, a)
		}
	}
	if len(opts.Terms) == 0 {
		sh.out.Println("nothing to search for")
		return nil
	}
	return runQuery(ctx, sh.cfg, sh.out, opts)
}

func runShellStatus(ctx context.Context, sh *shell, _ []string) error {
	return runStatus(ctx, sh.cfg, sh.out)
}

func runShellTags(ctx context.Context, sh *shell, _ []string) error {
	return runTags(ctx, sh.cfg, sh.out)
}

func runShellLinks(ctx context.Context, sh *shell, _ []string) error {
	return runLinks(ctx, sh.cfg, sh.out)
}

func runShellQuit(_ context.Context, sh *shell, _ []string) error {
	sh.quit = true
	return nil
}
