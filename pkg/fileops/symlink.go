package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsSymlink checks if a given path is a symbolic link without following it.
func IsSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat path: %w", err)
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// ResolveSymlink resolves a symbolic link to its final target path.
func ResolveSymlink(linkPath string) (string, error) {
	resolved, err := filepath.EvalSymlinks(linkPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlink: %w", err)
	}
	return resolved, nil
}

// ValidateSymlinkSecurity validates that a symlink resolves to a target
// inside one of allowedBasePaths. Broken links are rejected.
func ValidateSymlinkSecurity(linkPath string, allowedBasePaths []string) error {
	isLink, err := IsSymlink(linkPath)
	if err != nil {
		return fmt.Errorf("cannot check if path is symlink: %w", err)
	}
	if !isLink {
		return fmt.Errorf("path is not a symbolic link: %s", linkPath)
	}

	resolved, err := ResolveSymlink(linkPath)
	if err != nil {
		return fmt.Errorf("symlink resolution failed: %w", err)
	}

	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return fmt.Errorf("cannot get absolute path of resolved target: %w", err)
	}

	// macOS temp dirs live behind /private symlinks
	resolvedCanonical, err := filepath.EvalSymlinks(resolvedAbs)
	if err != nil {
		resolvedCanonical = resolvedAbs
	}

	for _, basePath := range allowedBasePaths {
		baseAbs, err := filepath.Abs(basePath)
		if err != nil {
			continue
		}
		baseCanonical, err := filepath.EvalSymlinks(baseAbs)
		if err != nil {
			baseCanonical = baseAbs
		}

		relPath, err := filepath.Rel(baseCanonical, resolvedCanonical)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(relPath, "..") {
			return nil
		}
	}

	return fmt.Errorf("symlink target is not within any allowed base path: %s", resolved)
}
