package main

import (
	"fmt"
	"path/filepath"

	"github.com/open-geo-platform/env-composer/internal/config"
	"github.com/open-geo-platform/env-composer/internal/envspec"
	"github.com/open-geo-platform/env-composer/internal/index"
	"github.com/open-geo-platform/env-composer/internal/lockfile"
	"github.com/open-geo-platform/env-composer/internal/resolver"
	"github.com/open-geo-platform/env-composer/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Lock command flags
var (
	snapshotFile string = "" // Path to the channel index snapshot
	outputFile   string = "" // Empty means work dir + default lock file name
	noProgress   bool
)

// createLockCommand creates the lock subcommand
func createLockCommand() *cobra.Command {
	lockCmd := &cobra.Command{
		Use:   "lock [flags] MANIFEST_FILE",
		Short: "Lock a manifest against a channel index snapshot",
		Long: `Resolve every dependency of an environment manifest against a local
channel index snapshot and write the result as a reproducible lock manifest.

Resolution is offline: channels are consulted in the order the manifest
declares them, the highest published version satisfying each constraint is
chosen, and secondary-index (pip) entries override channel entries of the
same name. No packages are downloaded or installed.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeLock,
		ValidArgsFunction: manifestFileCompletion,
	}

	lockCmd.Flags().StringVarP(&snapshotFile, "snapshot", "s", "",
		"Channel index snapshot file (.yaml/.json, optionally .gz/.xz/.zst)")
	lockCmd.Flags().StringVarP(&outputFile, "output", "o", "",
		"Output lock manifest path")
	lockCmd.Flags().BoolVar(&noProgress, "no-progress", false,
		"Disable the resolution progress bar")

	return lockCmd
}

// executeLock handles the lock command execution logic
func executeLock(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	manifestFile := args[0]

	desc, err := envspec.LoadFile(manifestFile)
	if err != nil {
		return fmt.Errorf("loading manifest: %v", err)
	}

	snapshotPath := snapshotFile
	if snapshotPath == "" {
		snapshotDir, err := config.SnapshotDir()
		if err != nil {
			return fmt.Errorf("resolving snapshot directory: %v", err)
		}
		snapshotPath = filepath.Join(snapshotDir, "snapshot.yaml")
	}

	snap, err := index.LoadSnapshot(snapshotPath)
	if err != nil {
		return fmt.Errorf("loading snapshot: %v", err)
	}

	resolved, err := resolver.Resolve(desc, snap, resolver.Options{
		ShowProgress: !noProgress,
	})
	if err != nil {
		return fmt.Errorf("resolving environment %q: %v", desc.Name, err)
	}

	outPath := outputFile
	if outPath == "" {
		if err := config.EnsureWorkDir(); err != nil {
			return fmt.Errorf("preparing work directory: %v", err)
		}
		workDir, err := config.WorkDir()
		if err != nil {
			return fmt.Errorf("resolving work directory: %v", err)
		}
		outPath = filepath.Join(workDir, lockfile.DefaultLockFile)
	}

	lock := lockfile.New(desc.Name, resolved)
	if err := lockfile.WriteToFile(lock, outPath); err != nil {
		return fmt.Errorf("writing lock manifest: %v", err)
	}

	log.Infof("environment %q locked: %d packages -> %s", desc.Name, len(lock.Packages), outPath)
	return nil
}
