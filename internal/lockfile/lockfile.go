package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/open-geo-platform/env-composer/internal/config/version"
	"github.com/open-geo-platform/env-composer/internal/resolver"
	"github.com/open-geo-platform/env-composer/internal/utils/logger"
	"github.com/open-geo-platform/env-composer/internal/utils/security"
)

// Constants used for lock manifest generation
const (
	SchemaVersion = "1.0"
)

var DefaultLockFile = "environment.lock.json"

// LockManifest records the exact package versions an environment descriptor
// resolved to, so the environment can be rebuilt reproducibly.
type LockManifest struct {
	SchemaVersion string          `json:"schema_version"`
	ID            string          `json:"id"`
	Environment   string          `json:"environment"`
	CreatedAt     string          `json:"created_at"`
	Creators      []string        `json:"creators"`
	Packages      []LockedPackage `json:"packages"`
}

// LockedPackage is one resolved package pin inside the lock manifest.
type LockedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"` // absent for a source ref on its default branch
	Channel string `json:"channel"`
	Kind    string `json:"kind"` // "channel", "secondary" or "source"
}

var log = logger.Logger()

// New builds a lock manifest for an environment from its resolution result,
// preserving package order.
func New(environment string, pkgs []resolver.ResolvedPackage) LockManifest {
	lock := LockManifest{
		SchemaVersion: SchemaVersion,
		ID:            uuid.New().String(),
		Environment:   environment,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Creators: []string{
			fmt.Sprintf("Tool: %s %s", version.Toolname, version.Version),
			fmt.Sprintf("Organization: %s", version.Organization),
		},
		Packages: make([]LockedPackage, 0, len(pkgs)),
	}

	for _, pkg := range pkgs {
		lock.Packages = append(lock.Packages, LockedPackage{
			Name:    pkg.Name,
			Version: pkg.Version,
			Channel: pkg.Channel,
			Kind:    string(pkg.Kind),
		})
	}

	return lock
}

// WriteToFile writes the lock manifest to the specified output file.
func WriteToFile(lock LockManifest, outputFile string) error {
	log.Infof("Writing the environment lock manifest to the file: %s", outputFile)

	lockJSON, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		log.Errorf("Error marshaling lock manifest to JSON: %v", err)
		return fmt.Errorf("error marshaling lock manifest to JSON: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0700); err != nil {
		log.Errorf("Failed to create lock output directory: %v", err)
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file with symlink protection
	if err := security.SafeWriteFile(outputFile, lockJSON, 0600, security.RejectSymlinks); err != nil {
		log.Errorf("Failed to write lock manifest: %v", err)
		return fmt.Errorf("error writing lock manifest: %w", err)
	}

	return nil
}

// ReadFromFile loads a previously written lock manifest.
func ReadFromFile(path string) (*LockManifest, error) {
	data, err := security.SafeReadFile(path, security.RejectSymlinks)
	if err != nil {
		log.Errorf("Failed to read lock manifest: %v", err)
		return nil, fmt.Errorf("error reading lock manifest: %w", err)
	}

	var lock LockManifest
	if err := json.Unmarshal(data, &lock); err != nil {
		log.Errorf("Failed to parse lock manifest: %v", err)
		return nil, fmt.Errorf("error parsing lock manifest: %w", err)
	}

	if lock.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported lock schema version %q (expected %q)",
			lock.SchemaVersion, SchemaVersion)
	}

	return &lock, nil
}
