package core

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSetEnvPlain(t *testing.T) {
	m := newTestEnv(t).manager(t)

	src, err := m.SetEnv("REGION", "eu-west", false)
	require.NoError(t, err)
	assert.Equal(t, SourceEnvFile, src)

	_, err = m.SetEnv("API_KEY", "k", true)
	require.NoError(t, err, "secret falls back to the env file without a keyring")

	vars := m.ListEnv()
	require.Len(t, vars, 2)
	assert.Equal(t, "API_KEY", vars[0].Name)
	assert.Equal(t, EnvVar{Name: "REGION", Value: "eu-west", Source: SourceEnvFile}, vars[1])

	info, err := os.Stat(m.EnvFile().Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	changed, err := m.UnsetEnv("REGION")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = m.UnsetEnv("REGION")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSetEnvSecretUsesKeyring(t *testing.T) {
	keyring.MockInit()
	env := newTestEnv(t)
	on := true
	env.cfg.UseKeyring = &on
	m := env.manager(t)

	_, err := m.SetEnv("API_KEY", "plain", false)
	require.NoError(t, err)
	src, err := m.SetEnv("API_KEY", "s3cret", true)
	require.NoError(t, err)
	assert.Equal(t, SourceKeyring, src)

	data, err := os.ReadFile(m.EnvFile().Path())
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "API_KEY"), "plain copy removed")

	card, err := m.Card("weather")
	require.NoError(t, err)
	got := m.Resolve(card, nil)
	assert.Equal(t, Resolved{"s3cret", SourceKeyring}, got["API_KEY"])

	_, err = m.UnsetEnv("API_KEY")
	require.NoError(t, err)
	assert.False(t, m.Secrets().Has("API_KEY"))
}

func TestSetEnvRejectsBadName(t *testing.T) {
	m := newTestEnv(t).manager(t)
	_, err := m.SetEnv("1BAD", "v", false)
	assert.Error(t, err)
	_, err = m.UnsetEnv("no-dashes")
	assert.Error(t, err)
}
