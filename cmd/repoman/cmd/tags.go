package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/internal/config"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/store"
)

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all tags with document counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runTags(cmd.Context(), cfg, stdoutWriter())
		},
	}
}

func runTags(ctx context.Context, cfg *config.Config, out *output.Writer) error {
	s, err := store.Open(storeOptions(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.CheckSchema(ctx); err != nil {
		return err
	}

	counts, err := s.CountsByTag(ctx)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		out.Println("no tags")
		return nil
	}
	for _, tc := range counts {
		out.Printf("%5d  %s\n", tc.Count, tc.Tag)
	}
	return nil
}
