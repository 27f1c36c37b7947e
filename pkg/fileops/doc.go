// Package fileops provides the file primitives mcpconf builds its stores on.
//
// Every document mcpconf owns (the settings file, the project variable file,
// the status document, user cards) is written with the same sequence:
//
//  1. BackupFile copies the current file into a backup directory under a
//     timestamp suffix that sorts lexically in time order.
//  2. WriteFileAtomic writes the new content to a temporary file next to the
//     target and renames it into place, so the previous file is never left
//     partially overwritten.
//  3. PruneBackups keeps only the newest N backups for that file name.
//
// Backup and prune failures are meant to be logged by the caller, not
// escalated; a failed write is always returned.
//
// # Example
//
//	if _, err := fileops.BackupFile(path, backupDir, time.Now()); err != nil {
//	    logger.Warn("Backup failed", "path", path, "error", err)
//	}
//	if err := fileops.WriteFileAtomic(path, data, 0o644); err != nil {
//	    return fmt.Errorf("write settings: %w", err)
//	}
//	if _, err := fileops.PruneBackups(backupDir, filepath.Base(path), fileops.DefaultBackupKeep); err != nil {
//	    logger.Warn("Backup prune failed", "error", err)
//	}
//
// # Directory Scanning
//
// SecureDirectoryScanner walks a directory inside an os.Root boundary with a
// depth limit, skip patterns and symlink containment checks. Card loading
// uses it with a depth of two (the directory plus one level of
// subdirectories).
package fileops
