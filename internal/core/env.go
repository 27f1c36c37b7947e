package core

import (
	"fmt"
	"sort"

	"mcpconf/internal/secrets"
)

// EnvVar is one stored project variable.
type EnvVar struct {
	Name   string
	Value  string
	Source Source
}

// ListEnv returns the variables of the project env file, sorted by name.
// Keyring values are not enumerable and are not listed.
func (m *Manager) ListEnv() []EnvVar {
	vars := m.env.ReadOrEmpty()
	out := make([]EnvVar, 0, len(vars))
	for k, v := range vars {
		out = append(out, EnvVar{Name: k, Value: v, Source: SourceEnvFile})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetEnv stores a project variable. Secret values go to the keyring when it
// is enabled, and any plain copy in the env file is removed; otherwise the
// value is merged into the env file.
func (m *Manager) SetEnv(name, value string, secret bool) (Source, error) {
	if err := secrets.ValidateName(name); err != nil {
		return "", err
	}

	if secret && m.secrets != nil {
		if err := m.secrets.Set(name, value); err != nil {
			return "", err
		}
		if _, err := m.env.Unset(name); err != nil {
			return "", err
		}
		return SourceKeyring, nil
	}

	if secret {
		m.logger.Warn("Keyring disabled, storing secret in env file", "name", name, "path", m.env.Path())
	}
	if _, err := m.env.Merge(map[string]string{name: value}); err != nil {
		return "", err
	}
	return SourceEnvFile, nil
}

// UnsetEnv removes a variable from the env file and the keyring. It reports
// whether anything was removed from the env file.
func (m *Manager) UnsetEnv(name string) (bool, error) {
	if err := secrets.ValidateName(name); err != nil {
		return false, err
	}
	changed, err := m.env.Unset(name)
	if err != nil {
		return false, fmt.Errorf("failed to update env file: %w", err)
	}
	if m.secrets != nil {
		if err := m.secrets.Delete(name); err != nil {
			return changed, err
		}
	}
	return changed, nil
}
