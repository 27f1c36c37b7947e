package config

import (
	"os"
	"path/filepath"
	"testing"

	"mcpconf/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(ConfigPathEnv, custom)
	assert.Equal(t, custom, ConfigPath())

	t.Setenv(ConfigPathEnv, "")
	assert.Equal(t, "config.yaml", filepath.Base(ConfigPath()))
	assert.Equal(t, APP_NAME, filepath.Base(filepath.Dir(ConfigPath())))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Chdir(t.TempDir())
	logger, _ := logging.NewTestLogger()

	cfg, err := Load(logger)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.BackupKeep, cfg.BackupKeep)
	assert.Equal(t, ".mcp.env", cfg.ProjectEnvFile)
	assert.Equal(t, []string{"filesystem", "memory", "sequential-thinking"}, cfg.BaselineCards)
	assert.True(t, cfg.KeyringEnabled())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.CardsDir = "/srv/cards"
	cfg.StatusWeights = map[string]float64{"api": 0.4}
	off := false
	cfg.UseKeyring = &off

	require.NoError(t, cfg.SaveTo(path))
	assert.NotZero(t, cfg.InitTime)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/cards", loaded.CardsDir)
	assert.Equal(t, 0.4, loaded.StatusWeights["api"])
	assert.False(t, loaded.KeyringEnabled())
}

func TestLoadFrom_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cards_dir: /opt/cards\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/cards", cfg.CardsDir)
	assert.Equal(t, 10, cfg.BackupKeep)
	assert.Equal(t, ".mcp.json", cfg.ProjectSettingsFile)
}

func TestLoadFrom_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cards_dir: [unterminated\n"), 0644))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backup_keep: 5\ncards_dir: /from/yaml\n"), 0644))
	t.Setenv(ConfigPathEnv, path)
	t.Setenv("MCPCONF_CARDS_DIR", "/from/env")
	t.Setenv("MCPCONF_BASELINE_CARDS", "git,fetch")
	t.Setenv("MCPCONF_STATUS_WEIGHTS", "api=0.5,cli=0.25")
	t.Chdir(t.TempDir())
	logger, _ := logging.NewTestLogger()

	cfg, err := Load(logger)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.CardsDir)
	assert.Equal(t, 5, cfg.BackupKeep, "yaml values survive when no override is set")
	assert.Equal(t, []string{"git", "fetch"}, cfg.BaselineCards)
	assert.Equal(t, map[string]float64{"api": 0.5, "cli": 0.25}, cfg.StatusWeights)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnv, filepath.Join(dir, "absent.yaml"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MCPCONF_KEYRING_SERVICE=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("MCPCONF_KEYRING_SERVICE") })
	logger, _ := logging.NewTestLogger()

	cfg, err := Load(logger)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.KeyringService)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero keep", func(c *Config) { c.BackupKeep = 0 }, true},
		{"weight above one", func(c *Config) { c.StatusWeights = map[string]float64{"a": 1.5} }, true},
		{"negative weight", func(c *Config) { c.StatusWeights = map[string]float64{"a": -0.1} }, true},
		{"valid weights", func(c *Config) { c.StatusWeights = map[string]float64{"a": 0.4} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProjectPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/p", ".mcp.env"), ProjectPath("/p", ".mcp.env"))
	assert.Equal(t, "/abs/file", ProjectPath("/p", "/abs/file"))
}
