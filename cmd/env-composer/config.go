package main

import (
	"fmt"

	"github.com/open-geo-platform/env-composer/internal/config"
	"github.com/spf13/cobra"
)

// createConfigCommand creates the config subcommand
func createConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage global configuration for the Environment Composer.

Available commands:
  init    Initialize a new configuration file with default values`,
	}

	// Add only the init subcommand
	configCmd.AddCommand(createConfigInitCommand())

	return configCmd
}

// createConfigInitCommand creates the config init subcommand
func createConfigInitCommand() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init [config-file]",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new configuration file with default values.

If no path is specified, the config will be created in the current directory as env-composer.yml

Examples:
  # Create config in current directory
  env-composer config init

  # Create config at specific location
  env-composer config init /etc/env-composer/config.yml

  # Create config in user's home directory
  env-composer config init ~/.env-composer/config.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: executeConfigInit,
	}

	return initCmd
}

// executeConfigInit handles the config init command logic
func executeConfigInit(cmd *cobra.Command, args []string) error {
	configPath := "env-composer.yml"
	if len(args) > 0 {
		configPath = args[0]
	}

	// Create default config
	defaultConfig := config.DefaultGlobalConfig()

	// Save to file with descriptive comments
	if err := defaultConfig.SaveGlobalConfigWithComments(configPath); err != nil {
		return fmt.Errorf("failed to save config file: %v", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Printf("\nDefault configuration settings:\n")
	fmt.Printf("  Snapshot Directory: %s\n", defaultConfig.SnapshotDir)
	fmt.Printf("  Work Directory: %s\n", defaultConfig.WorkDir)
	fmt.Printf("  Temp Directory: %s\n", defaultConfig.TempDir)
	fmt.Printf("  Log Level: %s\n", defaultConfig.Logging.Level)
	fmt.Printf("  Log File: %s\n", defaultConfig.Logging.File)
	fmt.Printf("\nEdit the configuration file to customize these settings.\n")

	return nil
}
