package validation

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"mcpconf/internal/cards"
	"mcpconf/internal/settings"
)

func TestValidate(t *testing.T) {
	card := cards.Card{
		ID: "db",
		Variables: []cards.Variable{
			{Name: "DB_HOST"},
			{Name: "DB_PASSWORD", Required: cards.Boolp(true)},
			{Name: "DB_PORT", Required: cards.Boolp(false)},
		},
	}

	tests := []struct {
		name        string
		provided    map[string]string
		wantValid   bool
		wantMissing []string
	}{
		{
			name:        "nothing provided reports every required variable",
			provided:    map[string]string{},
			wantValid:   false,
			wantMissing: []string{"DB_HOST", "DB_PASSWORD"},
		},
		{
			name:        "nil map",
			provided:    nil,
			wantValid:   false,
			wantMissing: []string{"DB_HOST", "DB_PASSWORD"},
		},
		{
			name:        "empty string counts as missing",
			provided:    map[string]string{"DB_HOST": "", "DB_PASSWORD": "s3cret"},
			wantValid:   false,
			wantMissing: []string{"DB_HOST"},
		},
		{
			name:        "optional variable may be absent",
			provided:    map[string]string{"DB_HOST": "localhost", "DB_PASSWORD": "s3cret"},
			wantValid:   true,
			wantMissing: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(card, tt.provided)
			if res.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", res.Valid, tt.wantValid)
			}
			if got := res.MissingNames(); !reflect.DeepEqual(got, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", got, tt.wantMissing)
			}
		})
	}
}

func TestValidateDefaultRequired(t *testing.T) {
	card := cards.Card{ID: "x", Variables: []cards.Variable{{Name: "ONLY_NAME"}}}

	res := Validate(card, map[string]string{})
	if res.Valid {
		t.Fatal("variable without a required flag must be treated as required")
	}
	if len(res.Missing) != 1 || res.Missing[0].Name != "ONLY_NAME" {
		t.Errorf("Missing = %v", res.MissingNames())
	}
}

func TestResultError(t *testing.T) {
	card := cards.Card{Variables: []cards.Variable{{Name: "A"}, {Name: "B"}}}

	if err := Validate(card, map[string]string{"A": "1", "B": "2"}).Error(); err != nil {
		t.Errorf("valid result should have nil error, got %v", err)
	}

	err := Validate(card, nil).Error()
	var missing *MissingVariablesError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingVariablesError, got %T", err)
	}
	if len(missing.Variables) != 2 {
		t.Errorf("expected both variables, got %d", len(missing.Variables))
	}
	if !strings.Contains(err.Error(), "A, B") {
		t.Errorf("message should list all names: %v", err)
	}

	missing.CardID = "db"
	if !strings.HasPrefix(missing.Error(), "db: ") {
		t.Errorf("message should carry the card id: %v", missing)
	}
}

type mapLookup map[string]cards.Card

func (m mapLookup) Get(id string) (cards.Card, bool) {
	c, ok := m[id]
	return c, ok
}

func TestCheckInstances(t *testing.T) {
	doc := settings.NewDocument()
	doc.Set("github", settings.ServerEntry{Command: "npx", Metadata: &settings.Metadata{CardID: "github"}})
	doc.Set("orphan", settings.ServerEntry{Command: "x", Metadata: &settings.Metadata{CardID: "removed-card"}})
	doc.Set("old", settings.ServerEntry{Command: "y", Metadata: &settings.Metadata{CardID: "legacy"}})
	doc.Set("manual", settings.ServerEntry{Command: "my-server"})

	store := mapLookup{
		"github": {ID: "github"},
		"legacy": {ID: "legacy", Status: cards.StatusDeprecated},
	}

	got := CheckInstances(doc, store)
	if len(got) != 2 {
		t.Fatalf("expected 2 violations, got %v", got)
	}
	if got[0].InstanceID != "old" || got[0].Kind != DeprecatedCard {
		t.Errorf("first violation = %+v", got[0])
	}
	if got[1].InstanceID != "orphan" || got[1].Kind != MissingCard {
		t.Errorf("second violation = %+v", got[1])
	}
	if !strings.Contains(got[1].String(), "removed-card") {
		t.Errorf("String() = %q", got[1].String())
	}
}

func TestCheckInstancesEmpty(t *testing.T) {
	if got := CheckInstances(settings.NewDocument(), mapLookup{}); len(got) != 0 {
		t.Errorf("expected no violations, got %v", got)
	}
}
