package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/internal/config"
	"github.com/repoman-dev/repoman/internal/index"
	"github.com/repoman-dev/repoman/internal/output"
)

const timeRounding = 10 * time.Millisecond

func newIndexCmd() *cobra.Command {
	var (
		root    string
		suffix  string
		force   bool
		cleanup bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "index [flags]",
		Short: "Index new and changed files under the root directory",
		Long: `Index walks the configured root, extracts text and metadata from new or
changed files, and updates the document index. Files whose recorded
modification time is current are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := indexOptions(cfg, root, suffix, force, cleanup, workers)
			return runIndex(cmd.Context(), stdoutWriter(), opts)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "Directory to index (default from config)")
	cmd.Flags().StringVarP(&suffix, "suffix", "s", "", "Index only files with this suffix")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reindex files even if unchanged")
	cmd.Flags().BoolVarP(&cleanup, "cleanup", "c", false, "Remove index entries for deleted files")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (0 = auto)")

	return cmd
}

func indexOptions(cfg *config.Config, root, suffix string, force, cleanup bool, workers int) index.Options {
	if root == "" {
		root = cfg.Index.Root
	}
	suffixes := cfg.Index.Suffixes
	if suffix != "" {
		suffixes = []string{suffix}
	}
	if workers == 0 {
		workers = cfg.Index.Workers
	}
	return index.Options{
		Root:              root,
		Suffixes:          suffixes,
		SkipDirs:          cfg.Index.SkipDirs,
		Force:             force,
		Cleanup:           cleanup,
		Workers:           workers,
		ParallelThreshold: cfg.Index.ParallelThreshold,
		Store:             storeOptions(cfg),
		LockPath:          lockPath(cfg),
	}
}

func runIndex(ctx context.Context, out *output.Writer, opts index.Options) error {
	progress := make(chan index.Progress, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			out.Progress(p.Done, p.Total, filepath.Base(p.Path))
		}
	}()

	summary, err := index.Run(ctx, opts, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	rate := ""
	if summary.Indexed > 0 && summary.Elapsed > 0 {
		rate = " at " + formatRate(summary.Indexed, summary.Elapsed)
	}
	out.Successf("indexed %d of %d files in %s%s (%d current, %d removed)",
		summary.Indexed, summary.Scanned, summary.Elapsed.Round(timeRounding),
		rate, summary.Fresh, summary.Removed)
	for _, w := range summary.Warnings {
		out.Warningf("%s: %v", w.Path, w.Err)
	}
	for _, f := range summary.Failures {
		out.Errorf("%s: %v", f.Path, f.Err)
	}
	return nil
}

// formatRate renders docs/sec, or sec/doc when slower than one per second.
func formatRate(docs int, elapsed time.Duration) string {
	perSec := float64(docs) / elapsed.Seconds()
	if perSec >= 1 {
		return fmt.Sprintf("%.0f docs/s", perSec)
	}
	return fmt.Sprintf("%.1f s/doc", 1/perSec)
}
