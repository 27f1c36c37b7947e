// Package config loads mcpconf's user configuration.
//
// Configuration is read from a YAML file under the XDG config home, then
// overridden by MCPCONF_* environment variables. An optional .env file in
// the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mcpconf/internal/logging"
	"mcpconf/pkg/fileops"

	"github.com/adrg/xdg"
	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	APP_NAME = "mcpconf" // application name used for config and data directories

	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "MCPCONF_"

	// ConfigPathEnv overrides the location of the config file.
	ConfigPathEnv = "MCPCONF_CONFIG_PATH"
)

// Config holds user configuration for mcpconf.
//
// Relative project file names are resolved against the project directory
// at run time; every other path is absolute after defaults are applied.
type Config struct {
	Version  string `yaml:"version"`
	InitTime int64  `yaml:"init_time"`

	// SettingsPath is the assistant's global settings document.
	SettingsPath string `yaml:"settings_path" env:"SETTINGS_PATH"`
	// CardsDir holds the built-in card catalog.
	CardsDir string `yaml:"cards_dir" env:"CARDS_DIR"`
	// UserCardsDir holds user cards, which shadow built-in cards by id.
	UserCardsDir string `yaml:"user_cards_dir" env:"USER_CARDS_DIR"`
	// BackupDir receives backups of the global settings document.
	BackupDir string `yaml:"backup_dir" env:"BACKUP_DIR"`
	// BackupKeep is how many backups are kept per file name.
	BackupKeep int `yaml:"backup_keep" env:"BACKUP_KEEP"`

	ProjectSettingsFile string `yaml:"project_settings_file" env:"PROJECT_SETTINGS_FILE"`
	ProjectEnvFile      string `yaml:"project_env_file" env:"PROJECT_ENV_FILE"`
	ProjectBackupDir    string `yaml:"project_backup_dir" env:"PROJECT_BACKUP_DIR"`
	StatusFile          string `yaml:"status_file" env:"STATUS_FILE"`
	StatusMarkdownFile  string `yaml:"status_markdown_file" env:"STATUS_MARKDOWN_FILE"`

	// StatusWeights maps feature keys to weights in [0,1]. Empty means a
	// plain mean over all features.
	StatusWeights map[string]float64 `yaml:"status_weights,omitempty" env:"STATUS_WEIGHTS" envKeyValSeparator:"="`

	// BaselineCards are always recommended regardless of project tags.
	BaselineCards []string `yaml:"baseline_cards" env:"BASELINE_CARDS" envSeparator:","`

	// KeyringService is the service name secrets are stored under.
	KeyringService string `yaml:"keyring_service" env:"KEYRING_SERVICE"`
	UseKeyring     *bool  `yaml:"use_keyring,omitempty" env:"USE_KEYRING"`
}

// ConfigPath returns the config file location. MCPCONF_CONFIG_PATH wins over
// the XDG default.
func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	useKeyring := true
	return Config{
		Version:             "1.0",
		SettingsPath:        filepath.Join(xdg.Home, ".claude.json"),
		CardsDir:            filepath.Join(xdg.DataHome, APP_NAME, "cards"),
		UserCardsDir:        filepath.Join(xdg.ConfigHome, APP_NAME, "cards"),
		BackupDir:           filepath.Join(xdg.DataHome, APP_NAME, "backups"),
		BackupKeep:          10,
		ProjectSettingsFile: ".mcp.json",
		ProjectEnvFile:      ".mcp.env",
		ProjectBackupDir:    filepath.Join(".mcpconf", "backups"),
		StatusFile:          filepath.Join(".mcpconf", "status.json"),
		StatusMarkdownFile:  "STATUS.md",
		BaselineCards:       []string{"filesystem", "memory", "sequential-thinking"},
		KeyringService:      APP_NAME,
		UseKeyring:          &useKeyring,
	}
}

// Load reads the config file, fills unset fields with defaults and applies
// environment overrides. A missing config file is not an error.
func Load(logger *logging.AppLogger) (*Config, error) {
	path := ConfigPath()

	cfg, err := LoadFrom(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("No config file, using defaults", "path", path)
		def := DefaultConfig()
		cfg = &def
	case err != nil:
		return nil, err
	default:
		logger.Debug("Loaded config file", "path", path)
	}

	if err := ApplyEnv(cfg, logger); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom loads config from a specific path and fills unset fields with
// defaults. The returned error wraps os.ErrNotExist when the file is absent.
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.fillDefaults()
	return &cfg, nil
}

// ApplyEnv loads an optional .env file from the working directory and then
// overrides cfg from MCPCONF_* variables. Variables already set in the
// process environment are never replaced by the .env file.
func ApplyEnv(cfg *Config, logger *logging.AppLogger) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Could not load .env file", "error", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.SettingsPath == "" {
		c.SettingsPath = def.SettingsPath
	}
	if c.CardsDir == "" {
		c.CardsDir = def.CardsDir
	}
	if c.UserCardsDir == "" {
		c.UserCardsDir = def.UserCardsDir
	}
	if c.BackupDir == "" {
		c.BackupDir = def.BackupDir
	}
	if c.BackupKeep == 0 {
		c.BackupKeep = def.BackupKeep
	}
	if c.ProjectSettingsFile == "" {
		c.ProjectSettingsFile = def.ProjectSettingsFile
	}
	if c.ProjectEnvFile == "" {
		c.ProjectEnvFile = def.ProjectEnvFile
	}
	if c.ProjectBackupDir == "" {
		c.ProjectBackupDir = def.ProjectBackupDir
	}
	if c.StatusFile == "" {
		c.StatusFile = def.StatusFile
	}
	if c.StatusMarkdownFile == "" {
		c.StatusMarkdownFile = def.StatusMarkdownFile
	}
	if c.BaselineCards == nil {
		c.BaselineCards = def.BaselineCards
	}
	if c.KeyringService == "" {
		c.KeyringService = def.KeyringService
	}
	if c.UseKeyring == nil {
		c.UseKeyring = def.UseKeyring
	}
}

// Validate checks values that would make later operations misbehave.
func (c *Config) Validate() error {
	if c.BackupKeep < 1 {
		return fmt.Errorf("backup_keep must be at least 1, got %d", c.BackupKeep)
	}
	for key, w := range c.StatusWeights {
		if w < 0 || w > 1 {
			return fmt.Errorf("status weight for %q must be within [0,1], got %v", key, w)
		}
	}
	return nil
}

// KeyringEnabled reports whether secret values may be read from and stored
// in the OS keyring.
func (c *Config) KeyringEnabled() bool {
	return c.UseKeyring == nil || *c.UseKeyring
}

// ProjectPath resolves a project-relative file name against projectDir.
// Absolute names are returned unchanged.
func ProjectPath(projectDir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(projectDir, name)
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Save writes the config to ConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to path, stamping InitTime on first save. The
// file is readable by its owner only.
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := fileops.WriteFileAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
