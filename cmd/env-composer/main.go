package main

import (
	"fmt"
	"os"

	"github.com/open-geo-platform/env-composer/internal/config"
	"github.com/open-geo-platform/env-composer/internal/utils/logger"
	"github.com/open-geo-platform/env-composer/internal/utils/security"
	"github.com/spf13/cobra"
)

// Command-line flags that can override config file settings
var (
	configFile string = "" // Path to config file
	logLevel   string = "" // Empty means use config file value
)

func main() {
	// Initialize global configuration first
	configFilePath := configFile
	if configFilePath == "" {
		configFilePath = config.FindConfigFile()
	}

	globalConfig, err := config.LoadGlobalConfig(configFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Set global config singleton
	config.SetGlobal(globalConfig)

	// Setup logger with configured level
	_, cleanup := logger.InitWithLevel(globalConfig.Logging.Level)
	defer cleanup()

	// Create and execute root command
	rootCmd := createRootCommand()
	security.AttachRecursive(rootCmd, security.DefaultLimits())

	// Handle log level override after flag parsing
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			globalConfig.Logging.Level = logLevel
			config.SetGlobal(globalConfig) // Update singleton with new log level
			logger.SetLogLevel(logLevel)
		}
	}

	log := logger.Logger()
	if configFilePath != "" {
		log.Infof("Using configuration from: %s", configFilePath)
	}
	if config.IsDebugMode() {
		snapshotDir, _ := config.SnapshotDir()
		workDir, _ := config.WorkDir()
		log.Debugf("Config: log_level=%s, snapshot_dir=%s, work_dir=%s, temp_dir=%s",
			config.LogLevel(), snapshotDir, workDir, config.TempDir())
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// createRootCommand creates and configures the root cobra command with all subcommands
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "env-composer",
		Short: "Environment Composer for declarative package environments",
		Long: `Environment Composer is a toolchain for working with declarative
environment manifests: YAML documents naming an environment, its prioritized
package channels, and its dependency constraints, including secondary-index
(pip) blocks and source-control pins.

The tool can:
- validate a manifest against its schema and entry syntax
- show the parsed declaration in canonical form
- lock a manifest against a channel index snapshot into a reproducible
  lock manifest

Use 'env-composer --help' to see available commands.
Use 'env-composer <command> --help' for more information about a command.`,
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")

	// Add all subcommands
	rootCmd.AddCommand(createValidateCommand())
	rootCmd.AddCommand(createShowCommand())
	rootCmd.AddCommand(createLockCommand())
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())
	rootCmd.AddCommand(createInstallCompletionCommand())

	return rootCmd
}

// manifestFileCompletion helps with suggesting YAML files for manifest file arguments
func manifestFileCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"*.yml", "*.yaml"}, cobra.ShellCompDirectiveFilterFileExt
}
