package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNonEmptySize(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.mp3")
	if err := os.WriteFile(full, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := NonEmptySize(full)
	if err != nil || size != 5 {
		t.Fatalf("NonEmptySize() = %d, %v", size, err)
	}

	empty := filepath.Join(dir, "empty.mp3")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NonEmptySize(empty); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}

	if _, err := NonEmptySize(filepath.Join(dir, "missing.mp3")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := NonEmptySize(dir); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("second RemoveIfExists: %v", err)
	}
}
