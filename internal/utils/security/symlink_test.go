package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckSymlinkRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("data"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	info, err := CheckSymlink(path, RejectSymlinks)
	if err != nil {
		t.Fatalf("CheckSymlink failed on regular file: %v", err)
	}
	if info.IsSymlink {
		t.Error("regular file reported as symlink")
	}
	if info.ResolvedPath != path {
		t.Errorf("resolved path = %q, want %q", info.ResolvedPath, path)
	}
}

func TestCheckSymlinkPolicies(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("data"), 0600); err != nil {
		t.Fatalf("failed to write target: %v", err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	if _, err := CheckSymlink(link, RejectSymlinks); err == nil {
		t.Error("RejectSymlinks accepted a symlink")
	}

	info, err := CheckSymlink(link, ResolveSymlinks)
	if err != nil {
		t.Fatalf("ResolveSymlinks failed: %v", err)
	}
	if !info.IsSymlink {
		t.Error("symlink not flagged as symlink")
	}
	resolvedTarget, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}
	if info.ResolvedPath != resolvedTarget {
		t.Errorf("resolved path = %q, want %q", info.ResolvedPath, resolvedTarget)
	}

	info, err = CheckSymlink(link, AllowSymlinks)
	if err != nil {
		t.Fatalf("AllowSymlinks failed: %v", err)
	}
	if info.ResolvedPath != link {
		t.Errorf("AllowSymlinks changed the path to %q", info.ResolvedPath)
	}
}

func TestCheckSymlinkInvalidPolicy(t *testing.T) {
	if _, err := CheckSymlink("anything", SymlinkPolicy(99)); err == nil {
		t.Error("invalid policy accepted")
	}
}

func TestSafeReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yml")
	if err := os.WriteFile(path, []byte("name: e\n"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	data, err := SafeReadFile(path, RejectSymlinks)
	if err != nil {
		t.Fatalf("SafeReadFile failed: %v", err)
	}
	if string(data) != "name: e\n" {
		t.Errorf("content = %q", data)
	}

	link := filepath.Join(dir, "link.yml")
	if err := os.Symlink(path, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}
	if _, err := SafeReadFile(link, RejectSymlinks); err == nil {
		t.Error("SafeReadFile read through a symlink under RejectSymlinks")
	}
}

func TestSafeWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := SafeWriteFile(path, []byte("{}"), 0600, RejectSymlinks); err != nil {
		t.Fatalf("SafeWriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("written file not readable: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("content = %q", data)
	}

	// Overwriting through a symlink must be refused
	target := filepath.Join(dir, "target.json")
	if err := os.WriteFile(target, []byte("x"), 0600); err != nil {
		t.Fatalf("failed to write target: %v", err)
	}
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}
	if err := SafeWriteFile(link, []byte("y"), 0600, RejectSymlinks); err == nil {
		t.Error("SafeWriteFile wrote through a symlink under RejectSymlinks")
	}
}
