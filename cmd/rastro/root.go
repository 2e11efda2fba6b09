// Package main provides the entry point for the rastro CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for rastro.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rastro",
		Short: "Identifier-pivoting OSINT reconnaissance engine",
		Long: `rastro takes a single identifier (IP, domain, email, username, phone,
wallet or Discord handle), detects its type, analyzes it against open
sources and pivots into the identifiers those results reveal. The run
ends with a correlation pass across everything discovered.

Configuration is read from $XDG_CONFIG_HOME/rastro/config.yaml and can
be overridden with RASTRO_* environment variables and flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewAnalyzersCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
