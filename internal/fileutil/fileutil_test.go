package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureWritableDirCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureWritableDir(dir); err != nil {
		t.Fatalf("EnsureWritableDir returned error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory created: %v", err)
	}
}

func TestEnsureWritableDirRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureWritableDir(path); err == nil {
		t.Fatal("expected error for regular file")
	}
	if err := EnsureWritableDir(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestEnsureWritableDirReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission checks")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
	if err := EnsureWritableDir(dir); err == nil {
		t.Fatal("expected read-only directory rejected")
	}
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full")
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(full, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if size, err := NonEmptyFile(full); err != nil || size != 4 {
		t.Fatalf("unexpected result %d %v", size, err)
	}
	if _, err := NonEmptyFile(empty); err == nil {
		t.Fatal("expected error for empty file")
	}
	if _, err := NonEmptyFile(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := NonEmptyFile(dir); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestRemoveIfExistsAndExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone")
	if Exists(path) {
		t.Fatal("expected missing path")
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Fatal("expected existing path")
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("RemoveIfExists returned error: %v", err)
	}
	if Exists(path) {
		t.Fatal("expected file removed")
	}
}

func TestSizeMB(t *testing.T) {
	if got := SizeMB(3 * 1024 * 1024 / 2); got != 1.5 {
		t.Fatalf("SizeMB = %v, want 1.5", got)
	}
}
