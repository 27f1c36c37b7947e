package merge

import (
	"fmt"
	"slices"
	"strings"

	"mcpconf/internal/cards"
)

// Reconcile recomputes existing from the latest version of its card.
//
// Provided values whose names the card still declares are kept. When
// existing carries no Provided values (it was rebuilt from a settings
// entry), they are recovered from resolved env values and from headers
// whose template is a single placeholder. The returned lines describe every
// difference between existing and the result; no differences means an
// empty list.
func Reconcile(existing Instance, updated cards.Card) (Instance, []string) {
	var changes []string

	source := existing.Provided
	if len(source) == 0 {
		source = RecoverProvided(existing, updated)
	}

	kept := make(map[string]string)
	for _, name := range sortedKeys(source) {
		if _, declared := updated.Variable(name); declared {
			kept[name] = source[name]
		} else if len(existing.Provided) > 0 {
			changes = append(changes, fmt.Sprintf("dropped variable %s", name))
		}
	}

	next := Materialize(updated, kept)
	next.ID = existing.ID
	if next.ID == "" {
		next.ID = updated.ID
	}
	next.Scope = existing.Scope

	changes = append(diff(existing, next), changes...)
	return next, changes
}

// RecoverProvided derives provided values from the resolved env values and
// single-placeholder headers of existing, limited to variables card declares.
func RecoverProvided(existing Instance, card cards.Card) map[string]string {
	out := make(map[string]string)
	for _, v := range card.Variables {
		if val, ok := existing.Env[v.Name]; ok && resolved(val) {
			out[v.Name] = val
		}
	}
	for header, tmpl := range card.Deployment.Headers {
		m := placeholderPattern.FindStringSubmatch(tmpl)
		if m == nil || m[0] != tmpl {
			continue
		}
		if val, ok := existing.Headers[header]; ok && resolved(val) {
			if _, set := out[m[1]]; !set {
				out[m[1]] = val
			}
		}
	}
	return out
}

func resolved(s string) bool {
	return s != "" && !ContainsPlaceholder(s)
}

func diff(old, next Instance) []string {
	var out []string
	if old.Type != next.Type {
		out = append(out, fmt.Sprintf("type: %s -> %s", orNone(old.Type), orNone(next.Type)))
	}
	if old.Command != next.Command {
		out = append(out, fmt.Sprintf("command: %s -> %s", orNone(old.Command), orNone(next.Command)))
	}
	if !slices.Equal(old.Args, next.Args) {
		out = append(out, fmt.Sprintf("args: [%s] -> [%s]", strings.Join(old.Args, " "), strings.Join(next.Args, " ")))
	}
	if old.URL != next.URL {
		out = append(out, fmt.Sprintf("url: %s -> %s", orNone(old.URL), orNone(next.URL)))
	}
	out = append(out, diffMap("env", old.Env, next.Env)...)
	out = append(out, diffMap("header", old.Headers, next.Headers)...)
	return out
}

// diffMap reports keys only; values may be secrets.
func diffMap(label string, old, next map[string]string) []string {
	var out []string
	for _, k := range sortedKeys(next) {
		prev, ok := old[k]
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("+ %s %s", label, k))
		case prev != next[k]:
			out = append(out, fmt.Sprintf("~ %s %s", label, k))
		}
	}
	for _, k := range sortedKeys(old) {
		if _, ok := next[k]; !ok {
			out = append(out, fmt.Sprintf("- %s %s", label, k))
		}
	}
	return out
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
