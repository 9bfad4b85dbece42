package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/internal/config"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/store"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Administer the index database",
	}
	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBClearCmd())
	cmd.AddCommand(newDBDropCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema (safe on an existing database)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDBInit(cmd.Context(), cfg, stdoutWriter())
		},
	}
}

func newDBClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every document from the index, keeping the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := stdoutWriter()
			if !yes && !confirm(out, "delete all indexed documents?") {
				out.Println("aborted")
				return nil
			}
			return runDBClear(cmd.Context(), cfg, out)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newDBDropCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Remove the database and text index files from disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := stdoutWriter()
			if !yes && !confirm(out, "remove the index files from disk?") {
				out.Println("aborted")
				return nil
			}
			return runDBDrop(cfg, out)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runDBInit(ctx context.Context, cfg *config.Config, out *output.Writer) error {
	s, err := store.Open(storeOptions(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Init(ctx); err != nil {
		return err
	}
	out.Successf("database ready at %s", cfg.DatabasePath())
	return nil
}

func runDBClear(ctx context.Context, cfg *config.Config, out *output.Writer) error {
	s, err := store.Open(storeOptions(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.CheckSchema(ctx); err != nil {
		return err
	}
	if err := s.Clear(ctx); err != nil {
		return err
	}
	out.Successf("index cleared")
	return nil
}

func runDBDrop(cfg *config.Config, out *output.Writer) error {
	if err := store.Drop(cfg.DatabasePath(), cfg.TextIndexBasePath()); err != nil {
		return err
	}
	out.Successf("index files removed")
	return nil
}

// confirm asks on stdin; anything but y/yes declines.
func confirm(out *output.Writer, prompt string) bool {
	out.Printf("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
