package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	_ "rastro/internal/analyzers/all"
	"rastro/internal/platform/registry"
)

// NewAnalyzersCmd creates the analyzers command, which lists the
// registered analyzer catalog with its metadata.
func NewAnalyzersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyzers",
		Short: "List available analyzers and the entity types they cover",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, name := range registry.Global().List() {
				meta, _ := registry.Global().GetMetadata(name)

				types := make([]string, 0, len(meta.Types))
				for _, t := range meta.Types {
					types = append(types, string(t))
				}

				auth := ""
				if meta.RequiresAuth {
					auth = " (API key required)"
				}
				fmt.Fprintf(out, "%-12s %s%s\n", name, meta.Description, auth)
				fmt.Fprintf(out, "%-12s types: %s\n", "", strings.Join(types, ", "))
			}
		},
	}
}
