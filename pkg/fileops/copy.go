package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AtomicCopy performs an atomic file copy operation from source to destination.
// The destination file either appears fully copied or not at all.
//
// The function uses a temporary file approach:
//  1. Creates a temporary file in the destination directory
//  2. Copies all data to the temporary file
//  3. Syncs data to disk to ensure durability
//  4. Atomically renames the temporary file to the final destination
//
// The copy keeps the permission bits of the source file, so backups of a
// 0600 settings file stay 0600.
func AtomicCopy(srcPath, destPath string) error {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	tempPath := destPath + ".tmp"
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	var copySuccess bool
	defer func() {
		tempFile.Close()
		if !copySuccess {
			os.Remove(tempPath)
		}
	}()

	if _, err := io.Copy(tempFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	copySuccess = true
	return nil
}

// WriteFileAtomic writes data to path through a temporary file in the same
// directory followed by a rename. The parent directory is created when
// missing. If the target already exists its permission bits are kept,
// otherwise perm is used. A symlinked path is written through: the link
// stays and its target receives the data.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	path, err := resolveWriteTarget(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := EnsureDirectoryExists(dir); err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("path is a directory, not a file: %s", path)
		}
		perm = info.Mode().Perm()
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()

	var writeSuccess bool
	defer func() {
		tempFile.Close()
		if !writeSuccess {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}

	writeSuccess = true
	return nil
}

// resolveWriteTarget returns the file a write to path should replace. Links
// are followed to their final target; a dangling link resolves to the path
// it points at so the write creates it.
func resolveWriteTarget(path string) (string, error) {
	isLink, err := IsSymlink(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		return "", err
	}
	if !isLink {
		return path, nil
	}

	resolved, err := ResolveSymlink(path)
	if err == nil {
		return resolved, nil
	}
	target, readErr := os.Readlink(path)
	if readErr != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target, nil
}

// EnsureDirectoryExists creates a directory and all necessary parent directories.
// This is equivalent to `mkdir -p` and is safe to call multiple times.
func EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
