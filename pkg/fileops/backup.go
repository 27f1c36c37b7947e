package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultBackupKeep is the number of backups kept per file name.
const DefaultBackupKeep = 10

// backupLayout is an ISO-8601 UTC timestamp with millisecond precision.
// Colons and the fractional-second period are replaced before use so the
// suffix is safe on every filesystem.
const backupLayout = "2006-01-02T15:04:05.000Z"

var backupSuffixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z$`)

// BackupSuffix returns the filesystem-safe timestamp suffix for t,
// e.g. "2026-10-19T08-30-00-125Z". Suffixes sort lexically in time order.
func BackupSuffix(t time.Time) string {
	stamp := t.UTC().Format(backupLayout)
	return strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
}

// BackupName returns the backup file name for base taken at t.
func BackupName(base string, t time.Time) string {
	return base + "." + BackupSuffix(t)
}

// BackupFile copies path into backupDir as "<name>.<suffix>".
//
// A missing source is not an error: there is nothing to back up and the
// returned path is empty. A symlinked path backs up its target's content
// under the link's name, so backups keep pruning by the name callers use.
func BackupFile(path, backupDir string, now time.Time) (string, error) {
	src, err := resolveWriteTarget(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if err := EnsureDirectoryExists(backupDir); err != nil {
		return "", err
	}

	dest := filepath.Join(backupDir, BackupName(filepath.Base(path), now))
	if err := AtomicCopy(src, dest); err != nil {
		return "", fmt.Errorf("backup of %s failed: %w", filepath.Base(path), err)
	}
	return dest, nil
}

// ListBackups returns the backup file names for base in backupDir, newest
// first. A missing backup directory yields an empty list.
func ListBackups(backupDir, base string) ([]string, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read backup directory: %w", err)
	}

	prefix := base + "."
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if !backupSuffixPattern.MatchString(strings.TrimPrefix(name, prefix)) {
			continue
		}
		names = append(names, name)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// PruneBackups removes all but the newest keep backups of base and returns
// the names it removed. Every removal is attempted; the first failure is
// returned after the loop.
func PruneBackups(backupDir, base string, keep int) ([]string, error) {
	if keep < 0 {
		keep = 0
	}

	names, err := ListBackups(backupDir, base)
	if err != nil {
		return nil, err
	}
	if len(names) <= keep {
		return nil, nil
	}

	var removed []string
	var firstErr error
	for _, name := range names[keep:] {
		if err := os.Remove(filepath.Join(backupDir, name)); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove backup %s: %w", name, err)
			}
			continue
		}
		removed = append(removed, name)
	}
	return removed, firstErr
}

// BackupResult describes the non-fatal parts of WriteWithBackup.
type BackupResult struct {
	// Backup is the path of the copy taken before the write, empty when the
	// target did not exist yet.
	Backup    string
	Pruned    []string
	BackupErr error
	PruneErr  error
}

// WriteWithBackup backs up path into backupDir, atomically replaces path
// with data and prunes the backups of path down to keep.
//
// Only a failure of the write itself is returned as an error. Backup and
// prune failures are reported in the result so the caller can log them; a
// failed backup never blocks the write.
func WriteWithBackup(path string, data []byte, perm os.FileMode, backupDir string, keep int, now time.Time) (BackupResult, error) {
	var res BackupResult
	res.Backup, res.BackupErr = BackupFile(path, backupDir, now)

	if err := WriteFileAtomic(path, data, perm); err != nil {
		return res, err
	}

	if res.BackupErr == nil {
		res.Pruned, res.PruneErr = PruneBackups(backupDir, filepath.Base(path), keep)
	}
	return res, nil
}
