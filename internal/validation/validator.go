// Package validation checks provided variable values against a card and
// configured instances against the card catalog.
package validation

import (
	"fmt"
	"strings"

	"mcpconf/internal/cards"
	"mcpconf/internal/settings"
)

// Result is the outcome of validating provided values against a card.
type Result struct {
	Valid bool
	// Missing lists every required variable without a value, in
	// declaration order.
	Missing []cards.Variable
}

// MissingNames returns the names of the missing variables.
func (r Result) MissingNames() []string {
	names := make([]string, len(r.Missing))
	for i, v := range r.Missing {
		names[i] = v.Name
	}
	return names
}

// Error returns a *MissingVariablesError listing every missing variable, or
// nil when the result is valid.
func (r Result) Error() error {
	if r.Valid {
		return nil
	}
	return &MissingVariablesError{Variables: r.Missing}
}

// MissingVariablesError reports all required variables that have no value.
type MissingVariablesError struct {
	CardID    string
	Variables []cards.Variable
}

func (e *MissingVariablesError) Error() string {
	names := make([]string, len(e.Variables))
	for i, v := range e.Variables {
		names[i] = v.Name
	}
	if e.CardID != "" {
		return fmt.Sprintf("%s: missing required variables: %s", e.CardID, strings.Join(names, ", "))
	}
	return fmt.Sprintf("missing required variables: %s", strings.Join(names, ", "))
}

// Validate checks that every required variable of card has a non-empty
// value in provided. A variable is required unless its required flag is
// explicitly false.
func Validate(card cards.Card, provided map[string]string) Result {
	var missing []cards.Variable
	for _, v := range card.Variables {
		if !v.IsRequired() {
			continue
		}
		if provided[v.Name] == "" {
			missing = append(missing, v)
		}
	}
	return Result{Valid: len(missing) == 0, Missing: missing}
}

// CardLookup finds cards by id.
type CardLookup interface {
	Get(id string) (cards.Card, bool)
}

// ViolationKind classifies an instance problem.
type ViolationKind string

const (
	// MissingCard means the instance references a card id not in the catalog.
	MissingCard ViolationKind = "missing-card"
	// DeprecatedCard means the referenced card is deprecated.
	DeprecatedCard ViolationKind = "deprecated-card"
	// UnresolvedVariables means placeholders are still waiting for values.
	UnresolvedVariables ViolationKind = "unresolved-variables"
)

// Violation is one problem with a configured instance.
type Violation struct {
	InstanceID string
	CardID     string
	Kind       ViolationKind
	Message    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.InstanceID, v.Message)
}

// CheckInstances reports instances whose card reference cannot be honored.
// Instances without a recorded card id were added by hand and are not
// checked. Results follow sorted instance id order.
func CheckInstances(doc *settings.Document, store CardLookup) []Violation {
	var out []Violation
	for _, id := range doc.IDs() {
		entry := doc.Instances[id]
		cardID := entry.CardID()
		if cardID == "" {
			continue
		}

		card, ok := store.Get(cardID)
		switch {
		case !ok:
			out = append(out, Violation{
				InstanceID: id,
				CardID:     cardID,
				Kind:       MissingCard,
				Message:    fmt.Sprintf("card %q is not in the catalog", cardID),
			})
		case card.Deprecated():
			out = append(out, Violation{
				InstanceID: id,
				CardID:     cardID,
				Kind:       DeprecatedCard,
				Message:    fmt.Sprintf("card %q is deprecated", cardID),
			})
		}
	}
	return out
}
