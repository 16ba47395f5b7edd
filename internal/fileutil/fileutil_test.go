package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMoveRenamesWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, ".partial", "clip.flac")
	dst := filepath.Join(dir, "clip.flac")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(src, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Move(src, dst); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, got %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "audio" {
		t.Fatalf("unexpected destination contents %q (%v)", data, err)
	}
}

func TestMoveMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := Move(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyFilePreservesMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	dst := filepath.Join(dir, "dst.wav")
	if err := os.WriteFile(src, []byte("riff"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
}
