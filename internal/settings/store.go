package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mcpconf/internal/logging"
	"mcpconf/pkg/fileops"
)

var (
	// ErrNotExist means the file is absent.
	ErrNotExist = errors.New("file does not exist")
	// ErrCorrupt means the file exists but cannot be parsed.
	ErrCorrupt = errors.New("file is corrupt")
)

// Options configures backups for a file-backed store.
type Options struct {
	// BackupDir receives timestamped copies. Empty means a "backups"
	// directory next to the file.
	BackupDir  string
	BackupKeep int
	Now        func() time.Time
}

// WithDefaults fills unset fields for the file at path.
func (o Options) WithDefaults(path string) Options {
	if o.BackupDir == "" {
		o.BackupDir = filepath.Join(filepath.Dir(path), "backups")
	}
	if o.BackupKeep <= 0 {
		o.BackupKeep = fileops.DefaultBackupKeep
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store reads and writes one settings document.
type Store struct {
	path   string
	opts   Options
	logger *logging.AppLogger
}

// NewStore creates a store for the settings file at path.
func NewStore(path string, opts Options, logger *logging.AppLogger) *Store {
	path = fileops.ExpandPath(path)
	return &Store{
		path:   path,
		opts:   opts.WithDefaults(path),
		logger: logger,
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Read loads the document. A missing file yields an error wrapping
// ErrNotExist; an unparsable file yields one wrapping ErrCorrupt. Use
// ReadOrDefault when both should mean "empty".
func (s *Store) Read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", s.path, ErrCorrupt, err)
	}
	return doc, nil
}

// ReadOrDefault loads the document, falling back to the empty default when
// the file is missing or unreadable. It never fails.
func (s *Store) ReadOrDefault() *Document {
	doc, err := s.Read()
	switch {
	case err == nil:
		return doc
	case errors.Is(err, ErrNotExist):
		s.logger.Debug("Settings file not found, using empty document", "path", s.path)
	default:
		s.logger.Warn("Settings file unreadable, using empty document", "path", s.path, "error", err)
	}
	return NewDocument()
}

// Write backs up the current file, replaces it with doc and prunes old
// backups. Only the write itself can fail the call.
func (s *Store) Write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')

	res, err := fileops.WriteWithBackup(s.path, data, 0644, s.opts.BackupDir, s.opts.BackupKeep, s.opts.Now())
	LogBackup(s.logger, s.path, res)
	if err != nil {
		return fmt.Errorf("failed to write settings %s: %w", s.path, err)
	}

	s.logger.Debug("Wrote settings", "path", s.path, "instances", len(doc.Instances))
	return nil
}

// LogBackup reports the non-fatal outcome of a backup-then-write.
func LogBackup(logger *logging.AppLogger, path string, res fileops.BackupResult) {
	if res.BackupErr != nil {
		logger.Warn("Backup failed, writing anyway", "path", path, "error", res.BackupErr)
	}
	if res.PruneErr != nil {
		logger.Warn("Backup pruning failed", "path", path, "error", res.PruneErr)
	}
	if res.Backup != "" {
		logger.Debug("Backed up file", "path", path, "backup", res.Backup, "pruned", len(res.Pruned))
	}
}
