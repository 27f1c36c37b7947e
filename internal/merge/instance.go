// Package merge turns a card plus provided variable values into a runnable
// server configuration, and reconciles existing configurations with updated
// cards.
//
// Placeholders use the ${NAME} form. A placeholder with no provided value is
// left in place: a partially configured instance is valid and can be
// completed later.
package merge

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"mcpconf/internal/settings"
)

// Scope selects which settings document an instance lives in.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// ParseScope validates a scope name. Empty means project.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeProject:
		return ScopeProject, nil
	case ScopeGlobal:
		return ScopeGlobal, nil
	}
	return "", fmt.Errorf("unknown scope %q (want global or project)", s)
}

const (
	TypeStdio = "stdio"
	TypeHTTP  = "http"
)

// MetadataSource marks settings entries written by this tool.
const MetadataSource = "mcpconf"

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Instance is a materialized server configuration.
type Instance struct {
	ID      string
	CardID  string
	Scope   Scope
	Type    string
	Command string
	Args    []string
	Env     map[string]string
	URL     string
	Headers map[string]string

	// Provided holds the values used to materialize the instance. It is not
	// written to the settings document.
	Provided map[string]string
}

// Entry converts the instance to its settings form, stamped with now.
func (in Instance) Entry(now time.Time) settings.ServerEntry {
	return settings.ServerEntry{
		Type:    in.Type,
		Command: in.Command,
		Args:    cloneSlice(in.Args),
		Env:     cloneMap(in.Env),
		URL:     in.URL,
		Headers: cloneMap(in.Headers),
		Metadata: &settings.Metadata{
			Source:    MetadataSource,
			CardID:    in.CardID,
			UpdatedAt: now.UTC().Format(time.RFC3339),
		},
	}
}

// FromEntry rebuilds an instance from a settings entry. Provided is empty;
// Reconcile derives it from the resolved values.
func FromEntry(id string, scope Scope, e settings.ServerEntry) Instance {
	return Instance{
		ID:      id,
		CardID:  e.CardID(),
		Scope:   scope,
		Type:    e.Type,
		Command: e.Command,
		Args:    cloneSlice(e.Args),
		Env:     cloneMap(e.Env),
		URL:     e.URL,
		Headers: cloneMap(e.Headers),
	}
}

// Unresolved lists the placeholder names still present anywhere in the
// instance, in order of first appearance.
func (in Instance) Unresolved() []string {
	seen := make(map[string]bool)
	var out []string
	collect := func(s string) {
		for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				out = append(out, m[1])
			}
		}
	}

	collect(in.Command)
	for _, a := range in.Args {
		collect(a)
	}
	collect(in.URL)
	for _, k := range sortedKeys(in.Headers) {
		collect(in.Headers[k])
	}
	for _, k := range sortedKeys(in.Env) {
		collect(in.Env[k])
	}
	return out
}

// Complete reports whether no placeholders remain.
func (in Instance) Complete() bool {
	return len(in.Unresolved()) == 0
}

// Substitute replaces ${NAME} placeholders in s with non-empty values from
// provided. Other placeholders are left as they are.
func Substitute(s string, provided map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if v := provided[name]; v != "" {
			return v
		}
		return match
	})
}

// Placeholder returns the ${NAME} form of name.
func Placeholder(name string) string {
	return "${" + name + "}"
}

// ContainsPlaceholder reports whether s still has a ${NAME} placeholder.
func ContainsPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}
