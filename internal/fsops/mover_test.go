package fsops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RCushmaniii/filesense/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("failed to create parent: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	return string(data)
}

func TestMoveCreatesParentAndRemovesSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "inbox", "report.pdf")
	destination := filepath.Join(dir, "sorted", "documents", "report.pdf")
	writeFile(t, source, "quarterly numbers")

	mover := NewMover()
	if err := mover.Move(context.Background(), source, destination); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if got := readFile(t, destination); got != "quarterly numbers" {
		t.Errorf("destination content = %q, want %q", got, "quarterly numbers")
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("source still exists after move")
	}
}

func TestMoveRefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.txt")
	destination := filepath.Join(dir, "b.txt")
	writeFile(t, source, "new")
	writeFile(t, destination, "old")

	mover := NewMover()
	err := mover.Move(context.Background(), source, destination)
	if !errors.Is(err, common.ErrFilesystem) {
		t.Fatalf("expected ErrFilesystem, got %v", err)
	}

	if got := readFile(t, destination); got != "old" {
		t.Errorf("destination was overwritten: %q", got)
	}
	if got := readFile(t, source); got != "new" {
		t.Errorf("source was modified: %q", got)
	}
}

func TestCopyKeepsSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "photo.jpg")
	destination := filepath.Join(dir, "backup", "photo.jpg")
	writeFile(t, source, "pixels")

	mover := NewMover()
	if err := mover.Copy(context.Background(), source, destination); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	if got := readFile(t, source); got != "pixels" {
		t.Errorf("source content = %q, want %q", got, "pixels")
	}
	if got := readFile(t, destination); got != "pixels" {
		t.Errorf("destination content = %q, want %q", got, "pixels")
	}
}

func TestCopyRefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.txt")
	destination := filepath.Join(dir, "b.txt")
	writeFile(t, source, "new")
	writeFile(t, destination, "old")

	mover := NewMover()
	if err := mover.Copy(context.Background(), source, destination); !errors.Is(err, common.ErrFilesystem) {
		t.Fatalf("expected ErrFilesystem, got %v", err)
	}
}

func TestRenameRefusesTakenName(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "draft.md")
	target := filepath.Join(dir, "final.md")
	writeFile(t, source, "words")
	writeFile(t, target, "other")

	mover := NewMover()
	if err := mover.Rename(context.Background(), source, target); !errors.Is(err, common.ErrFilesystem) {
		t.Fatalf("expected ErrFilesystem, got %v", err)
	}
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "draft.md")
	target := filepath.Join(dir, "final.md")
	writeFile(t, source, "words")

	mover := NewMover()
	if err := mover.Rename(context.Background(), source, target); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if got := readFile(t, target); got != "words" {
		t.Errorf("target content = %q, want %q", got, "words")
	}
}

func TestCreateFolderAndRemoveEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sorted", "invoices")

	mover := NewMover()
	if err := mover.CreateFolder(context.Background(), path); err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s, err=%v", path, err)
	}

	if err := mover.RemoveEmptyFolder(context.Background(), path); err != nil {
		t.Fatalf("RemoveEmptyFolder failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("directory still exists after removal")
	}
}

func TestRemoveEmptyFolderRefusesNonEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sorted")
	writeFile(t, filepath.Join(path, "keep.txt"), "do not lose me")

	mover := NewMover()
	err := mover.RemoveEmptyFolder(context.Background(), path)
	if !errors.Is(err, ErrDirectoryNotEmpty) {
		t.Fatalf("expected ErrDirectoryNotEmpty, got %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(path, "keep.txt")); statErr != nil {
		t.Errorf("file inside directory was lost: %v", statErr)
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.tmp")
	writeFile(t, path, "x")

	mover := NewMover()
	if err := mover.Delete(context.Background(), path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after delete")
	}
}

func TestOperationsHonorContextCancellation(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.txt")
	writeFile(t, source, "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mover := NewMover()
	if err := mover.Move(ctx, source, filepath.Join(dir, "b.txt")); !errors.Is(err, context.Canceled) {
		t.Errorf("Move: expected context.Canceled, got %v", err)
	}
	if err := mover.Delete(ctx, source); !errors.Is(err, context.Canceled) {
		t.Errorf("Delete: expected context.Canceled, got %v", err)
	}

	if got := readFile(t, source); got != "content" {
		t.Errorf("cancelled operation modified the source")
	}
}
