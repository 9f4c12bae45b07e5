package main

import (
	"fmt"

	"github.com/open-geo-platform/env-composer/internal/envspec"
	"github.com/spf13/cobra"
)

// createShowCommand creates the show subcommand
func createShowCommand() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show [flags] MANIFEST_FILE",
		Short: "Show a manifest in canonical form",
		Long: `Parse an environment manifest and print it back in canonical form.
Entry spelling is normalized (whitespace trimmed, one entry per line) while
channel order and dependency order are preserved exactly.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeShow,
		ValidArgsFunction: manifestFileCompletion,
	}

	return showCmd
}

// executeShow handles the show command logic
func executeShow(cmd *cobra.Command, args []string) error {
	desc, err := envspec.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("loading manifest: %v", err)
	}

	out, err := desc.Render()
	if err != nil {
		return fmt.Errorf("rendering manifest: %v", err)
	}

	cmd.Print(string(out))
	return nil
}
