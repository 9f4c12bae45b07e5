package main

import (
	"fmt"

	"github.com/open-geo-platform/env-composer/internal/envspec"
	"github.com/open-geo-platform/env-composer/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Validate command flags
var verbose bool

// createValidateCommand creates the validate subcommand
func createValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [flags] MANIFEST_FILE",
		Short: "Validate an environment manifest file",
		Long: `Validate an environment manifest file against the schema and entry syntax
without resolving it. The manifest file must be in YAML format.
This allows checking for errors in your manifest before locking it against a
channel index snapshot.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeValidate,
		ValidArgsFunction: manifestFileCompletion,
	}

	validateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"List every dependency entry")

	return validateCmd
}

// executeValidate handles the validate command logic
func executeValidate(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	manifestFile := args[0]

	log.Infof("validating manifest file: %s", manifestFile)

	desc, err := envspec.LoadFile(manifestFile)
	if err != nil {
		return fmt.Errorf("manifest validation failed: %v", err)
	}

	log.Infof("✓ Manifest validation successful")
	log.Infof("  Environment: %s", desc.Name)
	log.Infof("  Channels: %d", len(desc.Channels))
	log.Infof("  Dependencies: %d", desc.DependencyCount())

	if verbose {
		for _, ch := range desc.Channels {
			log.Infof("  channel: %s", ch)
		}
		for _, cp := range desc.ChannelPackages() {
			log.Infof("  package: %s (%s)", cp.Name, describeConstraint(cp.Constraint))
		}
		for _, entry := range desc.SecondaryPackages() {
			switch e := entry.(type) {
			case envspec.VersionedPackage:
				log.Infof("  %s package: %s (%s)", envspec.GroupMarker, e.Name, describeConstraint(e.Constraint))
			case envspec.SourceReference:
				log.Infof("  %s source: %s", envspec.GroupMarker, e.Locator())
			}
		}
	}

	return nil
}

func describeConstraint(c *envspec.Constraint) string {
	if c == nil {
		return "any version"
	}
	return c.String()
}
