// Package main provides the entry point for the repoman CLI.
package main

import (
	"os"

	"github.com/repoman-dev/repoman/cmd/repoman/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
