package envspec

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// sampleManifest exercises every dependency variant the loader recognizes.
const sampleManifest = `name: geo-training
channels:
  - pytorch
  - conda-forge
  - defaults
dependencies:
  - python=3.9
  - pytorch>=1.10.0
  - gdal<=3.4.0
  - numpy
  - pip:
      - segmentation-models-pytorch>=0.2.0
      - rasterio==1.2.10
      - git+https://github.com/CosmiQ/solaris.git@0.5.0
`

func TestLoadFullManifest(t *testing.T) {
	desc, err := Load([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if desc.Name != "geo-training" {
		t.Errorf("name = %q, want %q", desc.Name, "geo-training")
	}

	wantChannels := []string{"pytorch", "conda-forge", "defaults"}
	if !reflect.DeepEqual(desc.Channels, wantChannels) {
		t.Errorf("channels = %v, want %v (order must be preserved)", desc.Channels, wantChannels)
	}

	if len(desc.Dependencies) != 5 {
		t.Fatalf("got %d dependency entries, want 5", len(desc.Dependencies))
	}
	if desc.DependencyCount() != 7 {
		t.Errorf("DependencyCount() = %d, want 7", desc.DependencyCount())
	}

	// Channel entries keep their declaration order and constraints.
	wantChannelPkgs := []ChannelPackage{
		{Name: "python", Constraint: &Constraint{Op: "=", Version: "3.9"}},
		{Name: "pytorch", Constraint: &Constraint{Op: ">=", Version: "1.10.0"}},
		{Name: "gdal", Constraint: &Constraint{Op: "<=", Version: "3.4.0"}},
		{Name: "numpy"},
	}
	if got := desc.ChannelPackages(); !reflect.DeepEqual(got, wantChannelPkgs) {
		t.Errorf("channel packages = %+v, want %+v", got, wantChannelPkgs)
	}

	// The pip group keeps its own order and variant classification.
	wantSecondary := []SecondaryPackage{
		VersionedPackage{Name: "segmentation-models-pytorch", Constraint: &Constraint{Op: ">=", Version: "0.2.0"}},
		VersionedPackage{Name: "rasterio", Constraint: &Constraint{Op: "==", Version: "1.2.10"}},
		SourceReference{RepositoryURL: "https://github.com/CosmiQ/solaris.git", Revision: "0.5.0"},
	}
	if got := desc.SecondaryPackages(); !reflect.DeepEqual(got, wantSecondary) {
		t.Errorf("secondary packages = %+v, want %+v", got, wantSecondary)
	}

	if !desc.HasChannel("conda-forge") {
		t.Error("HasChannel(conda-forge) = false, want true")
	}
	if desc.HasChannel("bioconda") {
		t.Error("HasChannel(bioconda) = true, want false")
	}
}

func TestLoadHyphenatedChannelEntry(t *testing.T) {
	desc, err := Load([]byte("name: e\ndependencies:\n  - segmentation-models-pytorch>=0.2.0\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []ChannelPackage{
		{Name: "segmentation-models-pytorch", Constraint: &Constraint{Op: ">=", Version: "0.2.0"}},
	}
	if got := desc.ChannelPackages(); !reflect.DeepEqual(got, want) {
		t.Errorf("channel packages = %+v, want %+v", got, want)
	}
}

func TestLoadMinimalManifest(t *testing.T) {
	// channels are optional and the dependency list may be empty
	desc, err := Load([]byte("name: empty-env\ndependencies: []\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if desc.Name != "empty-env" {
		t.Errorf("name = %q, want %q", desc.Name, "empty-env")
	}
	if len(desc.Channels) != 0 {
		t.Errorf("channels = %v, want none", desc.Channels)
	}
	if desc.DependencyCount() != 0 {
		t.Errorf("DependencyCount() = %d, want 0", desc.DependencyCount())
	}
}

func TestLoadRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{
			name:     "missing name",
			manifest: "dependencies:\n  - numpy\n",
		},
		{
			name:     "empty name",
			manifest: "name: \"\"\ndependencies: []\n",
		},
		{
			name:     "missing dependencies",
			manifest: "name: geo-training\nchannels:\n  - defaults\n",
		},
		{
			name:     "unknown top-level key",
			manifest: "name: geo-training\ndependencies: []\nvariables:\n  FOO: bar\n",
		},
		{
			name:     "channels not a list",
			manifest: "name: geo-training\nchannels: defaults\ndependencies: []\n",
		},
		{
			name:     "non-string dependency entry",
			manifest: "name: geo-training\ndependencies:\n  - 42\n",
		},
		{
			name:     "not YAML at all",
			manifest: "{name: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := Load([]byte(tt.manifest))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			var mde *MalformedDescriptorError
			if !errors.As(err, &mde) {
				t.Errorf("error = %T (%v), want *MalformedDescriptorError", err, err)
			}
			if desc != nil {
				t.Error("descriptor returned alongside error, want nil")
			}
		})
	}
}

func TestLoadRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{
			name:     "missing version after comparator",
			manifest: "name: e\ndependencies:\n  - numpy>=\n",
		},
		{
			name:     "two comparators in one entry",
			manifest: "name: e\ndependencies:\n  - \"numpy>=1.21,<2.0\"\n",
		},
		{
			name:     "unrecognized group marker",
			manifest: "name: e\ndependencies:\n  - conda:\n      - numpy\n",
		},
		{
			name:     "source locator without url",
			manifest: "name: e\ndependencies:\n  - pip:\n      - git+solaris\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := Load([]byte(tt.manifest))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			var ice *InvalidConstraintError
			if !errors.As(err, &ice) {
				t.Errorf("error = %T (%v), want *InvalidConstraintError", err, err)
			}
			if desc != nil {
				t.Error("descriptor returned alongside error, want nil")
			}
		})
	}
}

func TestLoadRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantPkg  string
	}{
		{
			name:     "duplicate channel package",
			manifest: "name: e\ndependencies:\n  - numpy\n  - numpy>=1.21\n",
			wantPkg:  "numpy",
		},
		{
			name:     "duplicate in pip group",
			manifest: "name: e\ndependencies:\n  - pip:\n      - rasterio\n      - rasterio==1.2.10\n",
			wantPkg:  "rasterio",
		},
		{
			name:     "source reference shadows versioned entry",
			manifest: "name: e\ndependencies:\n  - pip:\n      - solaris\n      - git+https://github.com/CosmiQ/solaris.git@0.5.0\n",
			wantPkg:  "solaris",
		},
		{
			name:     "duplicate across two pip groups",
			manifest: "name: e\ndependencies:\n  - pip:\n      - rasterio\n  - pip:\n      - rasterio==1.2.10\n",
			wantPkg:  "rasterio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.manifest))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			var dpe *DuplicatePackageError
			if !errors.As(err, &dpe) {
				t.Fatalf("error = %T (%v), want *DuplicatePackageError", err, err)
			}
			if dpe.Name != tt.wantPkg {
				t.Errorf("duplicate name = %q, want %q", dpe.Name, tt.wantPkg)
			}
		})
	}
}

func TestLoadAllowsChannelAndSecondarySameName(t *testing.T) {
	// A channel entry and a pip entry may share a name; precedence is
	// decided at resolution time, not load time.
	manifest := "name: e\ndependencies:\n  - rasterio\n  - pip:\n      - rasterio==1.2.10\n"
	desc, err := Load([]byte(manifest))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := len(desc.ChannelPackages()); got != 1 {
		t.Errorf("channel packages = %d, want 1", got)
	}
	if got := len(desc.SecondaryPackages()); got != 1 {
		t.Errorf("secondary packages = %d, want 1", got)
	}
}

func TestLoadAtomicity(t *testing.T) {
	// The last entry is malformed, so nothing of the otherwise valid
	// manifest may come back.
	manifest := "name: e\nchannels:\n  - defaults\ndependencies:\n  - numpy\n  - pytorch>=1.10.0\n  - scipy>=\n"
	desc, err := Load([]byte(manifest))
	if err == nil {
		t.Fatal("Load succeeded, want error")
	}
	if desc != nil {
		t.Errorf("descriptor = %+v, want nil on any entry failure", desc)
	}
}

func TestRoundTrip(t *testing.T) {
	first, err := Load([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rendered, err := first.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	second, err := Load(rendered)
	if err != nil {
		t.Fatalf("Load of rendered manifest failed: %v\n%s", err, rendered)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip changed the descriptor:\nfirst:  %+v\nsecond: %+v\nrendered:\n%s", first, second, rendered)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "environment.yml")
	if err := os.WriteFile(path, []byte(sampleManifest), 0600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	desc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if desc.Name != "geo-training" {
		t.Errorf("name = %q, want %q", desc.Name, "geo-training")
	}
}

func TestLoadFileRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "environment.txt")
	if err := os.WriteFile(path, []byte(sampleManifest), 0600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile accepted a .txt manifest, want error")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("LoadFile succeeded on a missing file, want error")
	}
}

func TestLoadFileErrorsUnwrap(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "broken.yml")
	if err := os.WriteFile(path, []byte("dependencies: []\n"), 0600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("LoadFile succeeded, want error")
	}
	var mde *MalformedDescriptorError
	if !errors.As(err, &mde) {
		t.Errorf("error chain %v does not contain *MalformedDescriptorError", err)
	}
}
