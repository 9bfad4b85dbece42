package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/internal/config"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/store"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index statistics and configured paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runStatus(cmd.Context(), cfg, stdoutWriter())
		},
	}
}

func runStatus(ctx context.Context, cfg *config.Config, out *output.Writer) error {
	s, err := store.Open(storeOptions(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.CheckSchema(ctx); err != nil {
		return err
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}

	out.Header("repoman status")
	out.Printf("config:    %s\n", config.Path())
	out.Printf("database:  %s\n", cfg.DatabasePath())
	out.Printf("backend:   %s\n", cfg.Search.TextBackend)
	out.Printf("root:      %s\n", cfg.Index.Root)
	out.Newline()
	out.Printf("documents: %d\n", stats.Documents)
	out.Printf("tags:      %d\n", stats.Tags)
	out.Printf("links:     %d\n", stats.Links)
	if len(stats.BySuffix) > 0 {
		out.Newline()
		for _, sc := range stats.BySuffix {
			out.Printf("  %-8s %d\n", sc.Suffix, sc.Count)
		}
	}
	return nil
}
