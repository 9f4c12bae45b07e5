// internal/config/global.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/open-geo-platform/env-composer/internal/config/validate"
	"github.com/open-geo-platform/env-composer/internal/utils/logger"
	"github.com/open-geo-platform/env-composer/internal/utils/security"
	"github.com/open-geo-platform/env-composer/internal/utils/slice"
	"gopkg.in/yaml.v3"
)

// GlobalConfig holds essential tool-level configuration parameters
type GlobalConfig struct {
	ConfigDir   string `yaml:"config_dir" json:"config_dir"`     // Directory for configuration files (default: ./config)
	SnapshotDir string `yaml:"snapshot_dir" json:"snapshot_dir"` // Directory holding channel index snapshots (default: ./snapshots)
	WorkDir     string `yaml:"work_dir" json:"work_dir"`         // Working directory where lock manifests are written (default: ./workspace)
	TempDir     string `yaml:"temp_dir" json:"temp_dir"`         // Temporary directory for short-lived files (empty = system default)

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"` // Logging behavior settings
}

// LoggingConfig controls basic logging behavior
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`                   // Log verbosity level: debug, info (default), warn, error
	File  string `yaml:"file,omitempty" json:"file,omitempty"` // Optional log file path for teeing output to disk
}

var log = logger.Logger()

// Global singleton variables
var (
	globalInstance *GlobalConfig
	globalMutex    sync.RWMutex
	once           sync.Once
)

// SetGlobal sets the global config instance (call once at startup in main.go)
func SetGlobal(config *GlobalConfig) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalInstance = config
}

// Global returns the global config instance
func Global() *GlobalConfig {
	once.Do(func() {
		globalMutex.Lock()
		defer globalMutex.Unlock()
		if globalInstance == nil {
			globalInstance = DefaultGlobalConfig()
		}
	})

	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalInstance
}

// DefaultGlobalConfig returns a GlobalConfig with sensible defaults
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		ConfigDir:   "./config",
		SnapshotDir: "./snapshots",
		WorkDir:     "./workspace",
		TempDir:     "./tmp",

		Logging: LoggingConfig{
			Level: "info",
			File:  "env-composer.log",
		},
	}
}

// LoadGlobalConfig loads configuration from the specified path
func LoadGlobalConfig(configPath string) (*GlobalConfig, error) {
	// Start with defaults
	config := DefaultGlobalConfig()

	// If no config file specified or doesn't exist, return defaults
	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return config, nil // Return defaults if file doesn't exist
		}
		if errors.Is(err, os.ErrPermission) {
			log.Warnf("Config file %s is not accessible (%v); using defaults", configPath, err)
			return config, nil
		}
		log.Errorf("Error accessing config file %s: %v", configPath, err)
		return nil, fmt.Errorf("accessing config file %s: %w", configPath, err)
	}

	data, err := security.SafeReadFile(configPath, security.RejectSymlinks)
	if err != nil {
		log.Errorf("Error reading config file %s: %v", configPath, err)
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	// Determine format by extension
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			log.Errorf("Error parsing YAML config: %v", err)
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}

		// Convert to JSON for schema validation
		jsonData, err := json.Marshal(config)
		if err != nil {
			log.Errorf("Error converting config to JSON for validation: %v", err)
			return nil, fmt.Errorf("converting config to JSON for validation: %w", err)
		}

		if err := validate.ValidateConfigJSON(jsonData); err != nil {
			log.Errorf("Schema validation failed: %v", err)
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}

	default:
		log.Errorf("Unsupported config file format: %s", ext)
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml)", ext)
	}

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		log.Errorf("Config validation failed: %v", err)
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// SaveGlobalConfigWithComments saves the configuration with descriptive
// comments. Primarily used by the CLI config init command to create a
// user-friendly starting file.
func (gc *GlobalConfig) SaveGlobalConfigWithComments(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is empty")
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			log.Errorf("Failed to create config directory: %v", err)
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	jsonData, err := json.Marshal(gc)
	if err != nil {
		log.Errorf("Error converting config to JSON for validation: %v", err)
		return fmt.Errorf("converting config to JSON for validation: %w", err)
	}

	if err := validate.ValidateConfigJSON(jsonData); err != nil {
		log.Errorf("Config validation failed before save: %v", err)
		return fmt.Errorf("config validation failed before save: %w", err)
	}

	commented := gc.renderCommentedYAML()

	if err := security.SafeWriteFile(configPath, []byte(commented), 0600, security.RejectSymlinks); err != nil {
		log.Errorf("Error writing config file: %v", err)
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// renderCommentedYAML builds a YAML representation of the config with rich comments.
func (gc *GlobalConfig) renderCommentedYAML() string {
	var b strings.Builder

	b.WriteString("# Environment Composer - Global Configuration\n")
	b.WriteString("# This file contains tool-level settings that apply to all environment manifests.\n")
	b.WriteString("# Environment-specific parameters belong in the environment manifest itself.\n\n")

	fmt.Fprintf(&b, "config_dir: %q\n", gc.ConfigDir)
	b.WriteString("# Directory containing configuration files (default: ./config)\n\n")

	fmt.Fprintf(&b, "snapshot_dir: %q\n", gc.SnapshotDir)
	b.WriteString("# Directory holding channel index snapshots (default: ./snapshots)\n")
	b.WriteString("# Snapshots may be plain .yaml/.json or compressed (.gz, .xz, .zst)\n\n")

	fmt.Fprintf(&b, "work_dir: %q\n", gc.WorkDir)
	b.WriteString("# Working directory where lock manifests are written (default: ./workspace)\n\n")

	fmt.Fprintf(&b, "temp_dir: %q\n", gc.TempDir)
	b.WriteString("# Temporary directory for short-lived files\n")
	b.WriteString("# Empty value uses system default (/tmp on Linux, %TEMP% on Windows)\n\n")

	b.WriteString("# Logging configuration\n")
	b.WriteString("logging:\n")
	fmt.Fprintf(&b, "  level: %q\n", gc.Logging.Level)
	b.WriteString("  # Log verbosity level (default: info)\n")
	b.WriteString("  # - debug: Most verbose, shows all operations and data structures\n")
	b.WriteString("  # - info:  Normal output, shows progress and important events\n")
	b.WriteString("  # - warn:  Only warnings and errors, minimal output\n")
	b.WriteString("  # - error: Only errors, very quiet operation\n")
	if gc.Logging.File != "" {
		fmt.Fprintf(&b, "  file: %q\n", gc.Logging.File)
		b.WriteString("  # Tee logs to this file in addition to stderr (overwritten on each run)\n")
	}

	return b.String()
}

// Validate checks the configuration for consistency and applies constraints
// Note: This should NOT set defaults - that's done in DefaultGlobalConfig()
func (gc *GlobalConfig) Validate() error {
	if gc.SnapshotDir == "" {
		log.Errorf("SnapshotDir cannot be empty")
		return fmt.Errorf("SnapshotDir cannot be empty")
	}
	if gc.WorkDir == "" {
		log.Errorf("WorkDir cannot be empty")
		return fmt.Errorf("WorkDir cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slice.Contains(validLevels, gc.Logging.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s",
			gc.Logging.Level, strings.Join(validLevels, ", "))
	}

	gc.Logging.File = strings.TrimSpace(gc.Logging.File)

	// Ensure temp directory is set (can be empty to use system default)
	if gc.TempDir == "" {
		gc.TempDir = os.TempDir()
	}

	return nil
}

// GetConfigPaths returns the standard configuration file paths to check
func GetConfigPaths() []string {
	homeDir, _ := os.UserHomeDir()

	paths := []string{
		"env-composer.yml",   // Primary config location (root directory)
		".env-composer.yml",  // Hidden file in current directory
		"env-composer.yaml",  // Alternative extension
		".env-composer.yaml", // Hidden file alternative
	}

	if homeDir != "" {
		paths = append(paths,
			filepath.Join(homeDir, ".env-composer", "config.yml"),
			filepath.Join(homeDir, ".env-composer", "config.yaml"),
			filepath.Join(homeDir, ".config", "env-composer", "config.yml"),
			filepath.Join(homeDir, ".config", "env-composer", "config.yaml"),
		)
	}

	// System-wide config paths
	paths = append(paths,
		"/etc/env-composer/config.yml",
		"/etc/env-composer/config.yaml",
	)

	return paths
}

// FindConfigFile searches for a configuration file in standard locations
func FindConfigFile() string {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Convenience functions that can be used anywhere in the codebase

func SnapshotDir() (string, error) {
	snapshotDir, err := filepath.Abs(Global().SnapshotDir)
	if err != nil {
		log.Errorf("Failed to resolve snapshot directory: %v", err)
		return "", fmt.Errorf("failed to resolve snapshot directory: %w", err)
	}
	return snapshotDir, nil
}

func WorkDir() (string, error) {
	workDir, err := filepath.Abs(Global().WorkDir)
	if err != nil {
		log.Errorf("Failed to resolve work directory: %v", err)
		return "", fmt.Errorf("failed to resolve work directory: %w", err)
	}
	return workDir, nil
}

func TempDir() string {
	tempDir := Global().TempDir
	if tempDir == "" {
		return os.TempDir()
	}
	return tempDir
}

func LogLevel() string {
	return Global().Logging.Level
}

func IsDebugMode() bool {
	return Global().Logging.Level == "debug"
}

// Directory creation helpers

func EnsureWorkDir() error {
	workDir, err := WorkDir()
	if err != nil {
		return fmt.Errorf("resolving work directory: %w", err)
	}
	return ensureDirExists(workDir)
}

func ensureDirExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0700)
	}
	return nil
}
