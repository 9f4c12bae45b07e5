package index

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const sampleSnapshotYAML = `channels:
  - name: pytorch
    packages:
      pytorch: ["1.9.0", "1.10.0", "1.12.1"]
  - name: conda-forge
    packages:
      gdal: ["3.3.2", "3.4.0"]
      numpy: ["1.21.5", "1.23.0"]
indexes:
  - name: pypi
    packages:
      rasterio: ["1.2.9", "1.2.10"]
      segmentation-models-pytorch: ["0.2.0", "0.2.1"]
`

const sampleSnapshotJSON = `{
  "channels": [
    {"name": "pytorch", "packages": {"pytorch": ["1.10.0"]}}
  ],
  "indexes": [
    {"name": "pypi", "packages": {"rasterio": ["1.2.10"]}}
  ]
}`

func checkSampleSnapshot(t *testing.T, snap *Snapshot) {
	t.Helper()

	if len(snap.Channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(snap.Channels))
	}
	if len(snap.Indexes) != 1 {
		t.Fatalf("got %d indexes, want 1", len(snap.Indexes))
	}

	ch := snap.Channel("conda-forge")
	if ch == nil {
		t.Fatal("Channel(conda-forge) = nil")
	}
	if !ch.Has("gdal") {
		t.Error("conda-forge does not carry gdal")
	}
	if got := ch.Versions("gdal"); len(got) != 2 || got[1] != "3.4.0" {
		t.Errorf("gdal versions = %v", got)
	}
	if ch.Has("pytorch") {
		t.Error("conda-forge unexpectedly carries pytorch")
	}

	idx := snap.Index("pypi")
	if idx == nil {
		t.Fatal("Index(pypi) = nil")
	}
	if !idx.Has("segmentation-models-pytorch") {
		t.Error("pypi does not carry segmentation-models-pytorch")
	}
	if snap.Channel("pypi") != nil {
		t.Error("secondary index visible as primary channel")
	}
}

func TestLoadSnapshotPlainYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := os.WriteFile(path, []byte(sampleSnapshotYAML), 0600); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	checkSampleSnapshot(t, snap)
}

func TestLoadSnapshotJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(sampleSnapshotJSON), 0600); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap.Channel("pytorch") == nil {
		t.Error("Channel(pytorch) = nil")
	}
	if snap.Index("pypi") == nil {
		t.Error("Index(pypi) = nil")
	}
}

func TestLoadSnapshotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	w := gzip.NewWriter(f)
	if _, err := w.Write([]byte(sampleSnapshotYAML)); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	checkSampleSnapshot(t, snap)
}

func TestLoadSnapshotZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml.zst")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatalf("failed to create zstd writer: %v", err)
	}
	if _, err := enc.Write([]byte(sampleSnapshotYAML)); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close zstd writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	checkSampleSnapshot(t, snap)
}

func TestLoadSnapshotXZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml.xz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	w, err := xz.NewWriter(f)
	if err != nil {
		t.Fatalf("failed to create xz writer: %v", err)
	}
	if _, err := w.Write([]byte(sampleSnapshotYAML)); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close xz writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	checkSampleSnapshot(t, snap)
}

func TestLoadSnapshotRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{
			name:     "unsupported format",
			filename: "snapshot.toml",
			content:  "channels = []",
		},
		{
			name:     "duplicate channel name",
			filename: "snapshot.yaml",
			content:  "channels:\n  - name: defaults\n    packages: {}\n  - name: defaults\n    packages: {}\n",
		},
		{
			name:     "channel shadowed by index",
			filename: "snapshot.yaml",
			content:  "channels:\n  - name: defaults\n    packages: {}\nindexes:\n  - name: defaults\n    packages: {}\n",
		},
		{
			name:     "empty channel name",
			filename: "snapshot.yaml",
			content:  "channels:\n  - name: \"\"\n    packages: {}\n",
		},
		{
			name:     "broken YAML",
			filename: "snapshot.yaml",
			content:  "channels: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.filename)
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("failed to write snapshot: %v", err)
			}
			if _, err := LoadSnapshot(path); err == nil {
				t.Error("LoadSnapshot succeeded, want error")
			}
		})
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadSnapshot succeeded on a missing file, want error")
	}
}
