// Package fsops implements the filesystem mover used by the executor and
// by undo inverse actions.
package fsops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RCushmaniii/filesense/internal/common"
)

// ErrDirectoryNotEmpty is returned when an empty-only removal hits a
// directory that still has entries.
var ErrDirectoryNotEmpty = errors.New("directory not empty")

// Mover performs filesystem mutations on the local filesystem. It
// implements service.Mover.
type Mover struct{}

// NewMover creates a filesystem mover.
func NewMover() *Mover {
	return &Mover{}
}

// Move relocates a file. It refuses to overwrite an existing destination,
// creates the destination's parent directory if needed, and falls back to
// copy-then-delete when rename fails across devices.
func (m *Mover) Move(ctx context.Context, source, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(destination); err == nil {
		return fmt.Errorf("%w: destination already exists: %s", common.ErrFilesystem, destination)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0750); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}

	if err := os.Rename(source, destination); err == nil {
		return nil
	}

	// Cross-device move: copy then delete the source.
	if err := copyFile(source, destination); err != nil {
		return err
	}
	if err := os.Remove(source); err != nil {
		return fmt.Errorf("%w: failed to remove source after copy: %v", common.ErrFilesystem, err)
	}
	return nil
}

// Copy duplicates a file, refusing to overwrite an existing destination.
func (m *Mover) Copy(ctx context.Context, source, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(destination); err == nil {
		return fmt.Errorf("%w: destination already exists: %s", common.ErrFilesystem, destination)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0750); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}

	return copyFile(source, destination)
}

// CreateFolder creates a directory, including missing parents.
func (m *Mover) CreateFolder(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(path, 0750); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}
	return nil
}

// Rename renames a file in place, refusing to clobber an existing target.
func (m *Mover) Rename(ctx context.Context, source, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(destination); err == nil {
		return fmt.Errorf("%w: target name already taken: %s", common.ErrFilesystem, destination)
	}

	if err := os.Rename(source, destination); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}
	return nil
}

// Delete removes a file permanently.
func (m *Mover) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}
	return nil
}

// RemoveEmptyFolder removes a directory only when it has no entries.
// A non-empty directory is an error, never a recursive delete.
func (m *Mover) RemoveEmptyFolder(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s", ErrDirectoryNotEmpty, path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}
	return nil
}

func copyFile(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a regular file: %s", common.ErrFilesystem, source)
	}

	src, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(destination)
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(destination)
		return fmt.Errorf("%w: %v", common.ErrFilesystem, err)
	}
	return nil
}
