// Package index reads channel index snapshots: local documents listing, per
// channel and per secondary index, the published versions of each package.
// Snapshots are produced out-of-band (e.g. mirrored repodata); this package
// never touches the network.
package index

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/open-geo-platform/env-composer/internal/utils/logger"
	"github.com/open-geo-platform/env-composer/internal/utils/security"
	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"
)

var log = logger.Logger()

// Snapshot is the parsed form of a channel index snapshot file.
type Snapshot struct {
	Channels []ChannelIndex `yaml:"channels" json:"channels"` // primary channels, in mirror order
	Indexes  []ChannelIndex `yaml:"indexes" json:"indexes"`   // secondary package indexes (e.g. pypi)
}

// ChannelIndex lists the published versions of every package in one channel
// or secondary index.
type ChannelIndex struct {
	Name     string              `yaml:"name" json:"name"`
	Packages map[string][]string `yaml:"packages" json:"packages"` // package name -> published versions
}

// LoadSnapshot reads a snapshot file. The file may be stored plain
// (.yaml/.yml/.json) or compressed (.gz, .xz, .zst appended to the plain
// extension).
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := security.SafeReadFile(path, security.RejectSymlinks)
	if err != nil {
		log.Errorf("Failed to read snapshot file: %v", err)
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	effective := path
	data := raw
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		data, err = decompressZstd(raw)
		effective = strings.TrimSuffix(path, filepath.Ext(path))
	case ".xz":
		data, err = decompressXZ(raw)
		effective = strings.TrimSuffix(path, filepath.Ext(path))
	case ".gz":
		data, err = decompressGzip(raw)
		effective = strings.TrimSuffix(path, filepath.Ext(path))
	}
	if err != nil {
		log.Errorf("Failed to decompress snapshot %s: %v", path, err)
		return nil, fmt.Errorf("failed to decompress snapshot %s: %w", path, err)
	}

	var snap Snapshot
	switch ext := strings.ToLower(filepath.Ext(effective)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parsing snapshot YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parsing snapshot JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot format: %s (supported: .yaml, .yml, .json, optionally .gz/.xz/.zst)", ext)
	}

	if err := snap.validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}

	log.Debugf("loaded snapshot %s: %d channels, %d secondary indexes",
		path, len(snap.Channels), len(snap.Indexes))
	return &snap, nil
}

func (s *Snapshot) validate() error {
	seen := map[string]bool{}
	for _, group := range [][]ChannelIndex{s.Channels, s.Indexes} {
		for _, ci := range group {
			if ci.Name == "" {
				return fmt.Errorf("channel index with empty name")
			}
			if seen[ci.Name] {
				return fmt.Errorf("duplicate channel index %q", ci.Name)
			}
			seen[ci.Name] = true
		}
	}
	return nil
}

// Channel returns the named primary channel index, or nil.
func (s *Snapshot) Channel(name string) *ChannelIndex {
	for i := range s.Channels {
		if s.Channels[i].Name == name {
			return &s.Channels[i]
		}
	}
	return nil
}

// Index returns the named secondary index, or nil.
func (s *Snapshot) Index(name string) *ChannelIndex {
	for i := range s.Indexes {
		if s.Indexes[i].Name == name {
			return &s.Indexes[i]
		}
	}
	return nil
}

// Versions returns the published versions of a package, or nil when the
// package is absent from this channel.
func (c *ChannelIndex) Versions(pkg string) []string {
	return c.Packages[pkg]
}

// Has reports whether the channel carries the package at all.
func (c *ChannelIndex) Has(pkg string) bool {
	_, ok := c.Packages[pkg]
	return ok
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompressing zstd stream: %w", err)
	}
	return out, nil
}

func decompressXZ(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating xz reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing xz stream: %w", err)
	}
	return out, nil
}

func decompressGzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing gzip stream: %w", err)
	}
	return out, nil
}
