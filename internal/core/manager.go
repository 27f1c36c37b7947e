// Package core wires the card catalog, settings documents, variable
// sources and status document of one invocation together.
package core

import (
	"errors"
	"fmt"
	"os"
	"time"

	"mcpconf/internal/cards"
	"mcpconf/internal/config"
	"mcpconf/internal/logging"
	"mcpconf/internal/merge"
	"mcpconf/internal/recommend"
	"mcpconf/internal/secrets"
	"mcpconf/internal/settings"
	"mcpconf/internal/status"
)

var (
	// ErrCardNotFound is returned for an id that is not in the catalog.
	ErrCardNotFound = errors.New("card not found")
	// ErrInstanceNotFound is returned for an instance id missing from the
	// selected settings document.
	ErrInstanceNotFound = errors.New("instance not found")
)

// Options carries the per-invocation inputs that are not configuration.
type Options struct {
	// ProjectDir is the project root. Empty means the working directory.
	ProjectDir string
	Now        func() time.Time
	// LookupEnv reads the process environment. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Manager runs the operations of one invocation. It is built once and
// passed to whatever front end drives it.
type Manager struct {
	cfg        *config.Config
	logger     *logging.AppLogger
	projectDir string
	now        func() time.Time
	lookupEnv  func(string) (string, bool)

	cards   *cards.Store
	global  *settings.Store
	project *settings.Store
	env     *settings.EnvFile
	secrets *secrets.Store
	status  *status.Store
}

// NewManager loads the card catalog and prepares the stores for projectDir.
func NewManager(cfg *config.Config, logger *logging.AppLogger, opts Options) (*Manager, error) {
	if opts.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine project directory: %w", err)
		}
		opts.ProjectDir = wd
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	start := time.Now()
	store, err := cards.Load(cfg.CardsDir, cfg.UserCardsDir, logger, cards.StoreOptions{
		UserDir:    cfg.UserCardsDir,
		BackupKeep: cfg.BackupKeep,
		Now:        opts.Now,
	})
	if err != nil {
		return nil, err
	}
	logger.LogPerformance("load cards", start)

	projectBackups := settings.Options{
		BackupDir:  config.ProjectPath(opts.ProjectDir, cfg.ProjectBackupDir),
		BackupKeep: cfg.BackupKeep,
		Now:        opts.Now,
	}

	m := &Manager{
		cfg:        cfg,
		logger:     logger,
		projectDir: opts.ProjectDir,
		now:        opts.Now,
		lookupEnv:  opts.LookupEnv,
		cards:      store,
		global: settings.NewStore(cfg.SettingsPath, settings.Options{
			BackupDir:  cfg.BackupDir,
			BackupKeep: cfg.BackupKeep,
			Now:        opts.Now,
		}, logger),
		project: settings.NewStore(config.ProjectPath(opts.ProjectDir, cfg.ProjectSettingsFile), projectBackups, logger),
		env:     settings.NewEnvFile(config.ProjectPath(opts.ProjectDir, cfg.ProjectEnvFile), projectBackups, logger),
		status: status.NewStore(
			config.ProjectPath(opts.ProjectDir, cfg.StatusFile),
			config.ProjectPath(opts.ProjectDir, cfg.StatusMarkdownFile),
			cfg.StatusWeights, projectBackups, logger,
		),
	}
	if cfg.KeyringEnabled() {
		m.secrets = secrets.NewStore(cfg.KeyringService)
	}
	return m, nil
}

// Cards returns the loaded catalog.
func (m *Manager) Cards() *cards.Store { return m.cards }

// ProjectDir returns the project root.
func (m *Manager) ProjectDir() string { return m.projectDir }

// ProjectName returns the display name of the project.
func (m *Manager) ProjectName() string { return recommend.ProjectName(m.projectDir) }

// EnvFile returns the project variable file.
func (m *Manager) EnvFile() *settings.EnvFile { return m.env }

// Secrets returns the keyring store, or nil when the keyring is disabled.
func (m *Manager) Secrets() *secrets.Store { return m.secrets }

// Status returns the project status store.
func (m *Manager) Status() *status.Store { return m.status }

// Settings returns the settings store for scope.
func (m *Manager) Settings(scope merge.Scope) *settings.Store {
	if scope == merge.ScopeGlobal {
		return m.global
	}
	return m.project
}

// Card looks up id, returning an error wrapping ErrCardNotFound.
func (m *Manager) Card(id string) (cards.Card, error) {
	card, ok := m.cards.Get(id)
	if !ok {
		return cards.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return card, nil
}

// Instances returns the configured instances of scope in id order.
func (m *Manager) Instances(scope merge.Scope) []merge.Instance {
	doc := m.Settings(scope).ReadOrDefault()
	out := make([]merge.Instance, 0, len(doc.Instances))
	for _, id := range doc.IDs() {
		out = append(out, merge.FromEntry(id, scope, doc.Instances[id]))
	}
	return out
}

// ConfiguredIDs returns the instance and card ids configured in either
// scope.
func (m *Manager) ConfiguredIDs() []string {
	var ids []string
	for _, scope := range []merge.Scope{merge.ScopeGlobal, merge.ScopeProject} {
		for _, in := range m.Instances(scope) {
			ids = append(ids, in.ID)
			if in.CardID != "" && in.CardID != in.ID {
				ids = append(ids, in.CardID)
			}
		}
	}
	return ids
}
