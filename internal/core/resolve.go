package core

import "mcpconf/internal/cards"

// Source names where a variable value came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceEnvFile  Source = "env-file"
	SourceProcess  Source = "environment"
	SourceKeyring  Source = "keyring"
)

// Resolved is the value of one declared variable and its origin.
type Resolved struct {
	Value  string
	Source Source
}

// Resolve finds a value for every variable card declares. Sources are tried
// in order: overrides, the project env file, the process environment and
// the keyring. Variables with no value anywhere are absent from the result.
func (m *Manager) Resolve(card cards.Card, overrides map[string]string) map[string]Resolved {
	envFile := m.env.ReadOrEmpty()
	out := make(map[string]Resolved, len(card.Variables))

	for _, v := range card.Variables {
		if val := overrides[v.Name]; val != "" {
			out[v.Name] = Resolved{val, SourceOverride}
			continue
		}
		if val := envFile[v.Name]; val != "" {
			out[v.Name] = Resolved{val, SourceEnvFile}
			continue
		}
		if val, ok := m.lookupEnv(v.Name); ok && val != "" {
			out[v.Name] = Resolved{val, SourceProcess}
			continue
		}
		if m.secrets != nil {
			if val, ok := m.secrets.Lookup(v.Name); ok {
				out[v.Name] = Resolved{val, SourceKeyring}
			}
		}
	}

	for name := range overrides {
		if _, declared := card.Variable(name); !declared {
			m.logger.Debug("Ignoring value for undeclared variable", "card", card.ID, "variable", name)
		}
	}
	return out
}

// Values flattens resolved values to name -> value.
func Values(r map[string]Resolved) map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		out[k] = v.Value
	}
	return out
}
