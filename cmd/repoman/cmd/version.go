package cmd

import (
	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			stdoutWriter().Println(version.String())
		},
	}
}
