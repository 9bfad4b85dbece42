package cmd

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/internal/browse"
	"github.com/repoman-dev/repoman/internal/config"
	rerr "github.com/repoman-dev/repoman/internal/errors"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/query"
	"github.com/repoman-dev/repoman/internal/state"
	"github.com/repoman-dev/repoman/internal/store"
)

func newQueryCmd() *cobra.Command {
	var (
		suffix string
		sort   string
		topN   int
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "query <term>...",
		Short: "Search the index by full text and tags",
		Long: `Query fuses full-text matches with exact tag matches. Full-text hits come
first, ranked by relevance; tag-only matches follow. On a terminal the
results are paged and a result number opens the document.

Flag values persist as the new defaults when --save is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := state.Load(config.Dir())
			if err != nil {
				return err
			}
			opts := queryOptions(cfg, st, args, cmd.Flags().Changed("suffix"), suffix,
				cmd.Flags().Changed("sort"), sort, cmd.Flags().Changed("top"), topN)

			if save {
				st.Query = state.QueryDefaults{Sort: opts.Sort, Suffix: opts.Suffix, TopN: opts.TopN}
				if err := st.Save(config.Dir()); err != nil {
					return err
				}
			}
			return runQuery(cmd.Context(), cfg, stdoutWriter(), opts)
		},
	}

	cmd.Flags().StringVarP(&suffix, "suffix", "s", "", "Only documents with this suffix")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort order: rank, lastmod, name, path, suffix ('-' reverses)")
	cmd.Flags().IntVarP(&topN, "top", "n", 0, "Show only the first N results (0 = all)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist these flags as future defaults")

	return cmd
}

// queryOptions resolves each knob: explicit flag, then saved default, then
// config.
func queryOptions(cfg *config.Config, st *state.State, terms []string,
	suffixSet bool, suffix string, sortSet bool, sortOrder string, topSet bool, topN int) query.Options {

	opts := query.Options{Terms: terms, Suffix: suffix, Sort: sortOrder, TopN: topN}
	if !suffixSet && st.Query.Suffix != "" {
		opts.Suffix = st.Query.Suffix
	}
	if !sortSet {
		if st.Query.Sort != "" {
			opts.Sort = st.Query.Sort
		} else {
			opts.Sort = cfg.Search.SortOrder
		}
	}
	if !topSet && st.Query.TopN > 0 {
		opts.TopN = st.Query.TopN
	}
	return opts
}

func runQuery(ctx context.Context, cfg *config.Config, out *output.Writer, opts query.Options) error {
	s, err := store.Open(storeOptions(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.CheckSchema(ctx); err != nil {
		return err
	}

	rs, err := rerr.RetryWithResult(ctx, rerr.StorePolicy(), func() (*query.ResultSet, error) {
		return query.Run(ctx, s, opts)
	})
	if err != nil {
		return err
	}
	if len(rs.Results) == 0 {
		out.Println("no matches")
		return nil
	}

	b := browse.New(browse.Options{
		Out:         out,
		PageSize:    cfg.Search.PageSize,
		Interactive: isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd()),
	})
	return b.Show(ctx, rs)
}
