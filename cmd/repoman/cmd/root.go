// Package cmd provides the CLI commands for repoman.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/internal/config"
	"github.com/repoman-dev/repoman/internal/logging"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/store"
	"github.com/repoman-dev/repoman/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the repoman CLI. Without a
// subcommand it drops into the interactive shell.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repoman",
		Short: "Index and search a directory of documents",
		Long: `Repoman keeps an incremental full-text index over a directory tree
(text, markdown, org, python, pdf) and fuses full-text search with
filename tags into ranked results.

Run 'repoman' without arguments for the interactive shell.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runShell(cmd.Context(), cmd)
		},
	}

	cmd.SetVersionTemplate("repoman version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"Enable debug logging and mirror logs to stderr")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
	}

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newLinksCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig(config.Dir())
	logCfg.Level = cfg.Logging.Level
	if debugMode {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
	}

	_, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig is the per-command config entry point.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// storeOptions maps configuration to store handle options.
func storeOptions(cfg *config.Config) store.Options {
	return store.Options{
		DatabasePath:      cfg.DatabasePath(),
		TextBackend:       cfg.Search.TextBackend,
		TextIndexBasePath: cfg.TextIndexBasePath(),
		SnippetTokens:     cfg.Search.SnippetTokens,
	}
}

// lockPath returns the file guarding the data directory against concurrent
// indexing runs.
func lockPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "repoman.lock")
}

// stdoutWriter builds the standard output writer for command results.
func stdoutWriter() *output.Writer {
	return output.New(os.Stdout)
}
