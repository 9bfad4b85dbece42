package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/repoman-dev/repoman/internal/index"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the root directory and reindex on changes",
		Long: `Watch runs an initial incremental index, then keeps watching the tree.
File changes are debounced and each quiet period triggers another
incremental run. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := indexOptions(cfg, root, "", false, true, 0)
			return runWatch(cmd.Context(), stdoutWriter(), opts)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "Directory to watch (default from config)")
	return cmd
}

func runWatch(ctx context.Context, out *output.Writer, opts index.Options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runIndex(ctx, out, opts); err != nil {
		return err
	}

	w, err := watcher.New(watcher.Options{
		Root:     opts.Root,
		SkipDirs: opts.SkipDirs,
		Suffixes: opts.Suffixes,
	})
	if err != nil {
		return err
	}
	out.Println("watching " + opts.Root)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case batch, ok := <-w.Batches():
				if !ok {
					return nil
				}
				out.Printf("%d change(s) detected\n", len(batch))
				if err := runIndex(gctx, out, opts); err != nil {
					return err
				}
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
