package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"mcpconf/internal/logging"
	"mcpconf/internal/settings"
	"mcpconf/pkg/fileops"
)

// Store persists a status document and its Markdown rendering.
type Store struct {
	path         string
	markdownPath string
	weights      map[string]float64
	opts         settings.Options
	logger       *logging.AppLogger
}

// NewStore creates a store for the status file at path. An empty
// markdownPath disables the Markdown rendering.
func NewStore(path, markdownPath string, weights map[string]float64, opts settings.Options, logger *logging.AppLogger) *Store {
	path = fileops.ExpandPath(path)
	if markdownPath != "" {
		markdownPath = fileops.ExpandPath(markdownPath)
	}
	return &Store{
		path:         path,
		markdownPath: markdownPath,
		weights:      weights,
		opts:         opts.WithDefaults(path),
		logger:       logger,
	}
}

// Path returns the status file location.
func (s *Store) Path() string { return s.path }

// MarkdownPath returns the rendered status location, or "".
func (s *Store) MarkdownPath() string { return s.markdownPath }

// Load reads the document. Errors wrap settings.ErrNotExist or
// settings.ErrCorrupt.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, settings.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", s.path, settings.ErrCorrupt, err)
	}
	return &doc, nil
}

// LoadOrDefault reads the document, falling back to an empty one for
// project when the file is missing or corrupt.
func (s *Store) LoadOrDefault(project string) *Document {
	doc, err := s.Load()
	switch {
	case err == nil:
		if doc.Project == "" {
			doc.Project = project
		}
		return doc
	case errors.Is(err, settings.ErrNotExist):
		s.logger.Debug("Status file not found, starting empty", "path", s.path)
	default:
		s.logger.Warn("Status file unreadable, starting empty", "path", s.path, "error", err)
	}
	return NewDocument(project)
}

// Save recomputes the overall completion, writes the document with a
// backup and regenerates the Markdown file.
func (s *Store) Save(doc *Document) error {
	doc.OverallCompletion = RecomputeOverall(doc.Features, s.weights)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	data = append(data, '\n')

	res, err := fileops.WriteWithBackup(s.path, data, 0644, s.opts.BackupDir, s.opts.BackupKeep, s.opts.Now())
	settings.LogBackup(s.logger, s.path, res)
	if err != nil {
		return fmt.Errorf("failed to write status %s: %w", s.path, err)
	}

	if s.markdownPath == "" {
		return nil
	}
	res, err = fileops.WriteWithBackup(s.markdownPath, []byte(RenderMarkdown(doc)), 0644, s.opts.BackupDir, s.opts.BackupKeep, s.opts.Now())
	settings.LogBackup(s.logger, s.markdownPath, res)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", s.markdownPath, err)
	}
	return nil
}

// Apply loads the document, applies patch and saves it.
func (s *Store) Apply(project string, patch Patch) (*Document, error) {
	doc := s.LoadOrDefault(project)
	before := make(map[string]TodoState, len(doc.Todos))
	for _, t := range doc.Todos {
		before[t.ID] = t.State
	}

	if err := ApplyUpdate(doc, patch, s.weights, s.opts.Now()); err != nil {
		return nil, err
	}
	if err := s.Save(doc); err != nil {
		return nil, err
	}

	for _, t := range doc.Todos {
		from, ok := before[t.ID]
		switch {
		case !ok:
			s.logger.LogStateTransition("todo "+t.ID, "new", string(t.State))
		case from != t.State:
			s.logger.LogStateTransition("todo "+t.ID, string(from), string(t.State))
		}
	}
	s.logger.Debug("Status updated", "overall", doc.OverallCompletion, "features", len(doc.Features), "todos", len(doc.Todos))
	return doc, nil
}
