package cards

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"mcpconf/pkg/fileops"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// maxCardSize bounds a single card file.
const maxCardSize = 1 << 20

var cardIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// SchemaError lists every schema problem found in one card.
type SchemaError struct {
	Path     string
	Problems []string
}

func (e *SchemaError) Error() string {
	where := e.Path
	if where == "" {
		where = "card"
	}
	return fmt.Sprintf("%s: invalid card: %s", where, strings.Join(e.Problems, "; "))
}

// IsCardFile reports whether name has a card file extension.
func IsCardFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml", ".md":
		return true
	}
	return false
}

// ParseFile reads and validates the card at path.
func ParseFile(path string) (Card, error) {
	if err := fileops.ValidateFileSizeLimit(path, maxCardSize); err != nil {
		return Card{}, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Card{}, fmt.Errorf("failed to read card: %w", err)
	}

	card, err := Parse(data, filepath.Ext(path))
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			schemaErr.Path = path
			return Card{}, schemaErr
		}
		return Card{}, fmt.Errorf("%s: %w", path, err)
	}
	card.Source = path
	return card, nil
}

// Parse decodes a card from data in the format named by ext (".json",
// ".yaml", ".yml" or ".md") and validates it.
func Parse(data []byte, ext string) (Card, error) {
	var f cardFile
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return Card{}, fmt.Errorf("malformed JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Card{}, fmt.Errorf("malformed YAML: %w", err)
		}
	case ".md":
		body, err := frontmatter.Parse(bytes.NewReader(data), &f)
		if err != nil {
			return Card{}, fmt.Errorf("malformed frontmatter: %w", err)
		}
		if strings.TrimSpace(f.Description) == "" {
			f.Description = strings.TrimSpace(string(body))
		}
	default:
		return Card{}, fmt.Errorf("unsupported card format %q", ext)
	}

	return fromFile(f)
}

func fromFile(f cardFile) (Card, error) {
	var problems []string

	id := strings.TrimSpace(f.ID)
	switch {
	case id == "":
		problems = append(problems, "id is required")
	case !cardIDPattern.MatchString(id):
		problems = append(problems, fmt.Sprintf("id %q may only contain letters, digits, '.', '_' and '-'", id))
	}
	if strings.TrimSpace(f.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(f.DeploymentKind) == "" {
		problems = append(problems, "deploymentKind is required")
	}

	ratingA, msg := checkRating("ratingA", f.RatingA)
	if msg != "" {
		problems = append(problems, msg)
	}
	ratingB, msg := checkRating("ratingB", f.RatingB)
	if msg != "" {
		problems = append(problems, msg)
	}

	status := Status(strings.ToLower(strings.TrimSpace(f.Status)))
	switch status {
	case "":
		status = StatusActive
	case StatusActive, StatusDeprecated:
	default:
		problems = append(problems, fmt.Sprintf("status %q must be active or deprecated", f.Status))
	}

	seen := make(map[string]bool, len(f.Variables))
	for i, v := range f.Variables {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("declaredVariables[%d] has no name", i))
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("variable %s declared twice", name))
		}
		seen[name] = true
	}

	if len(problems) > 0 {
		return Card{}, &SchemaError{Problems: problems}
	}

	return Card{
		ID:          id,
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Kind:        ParseDeploymentKind(f.DeploymentKind),
		KindName:    strings.TrimSpace(f.DeploymentKind),
		Deployment:  f.DeploymentSpec,
		Variables:   f.Variables,
		RatingA:     ratingA,
		RatingB:     ratingB,
		Status:      status,
		Tags:        f.Tags,
		Category:    f.Category,
	}, nil
}

func checkRating(field string, v *float64) (*int, string) {
	if v == nil {
		return nil, ""
	}
	if *v != math.Trunc(*v) {
		return nil, fmt.Sprintf("%s must be an integer, got %v", field, *v)
	}
	if *v < 1 || *v > 5 {
		return nil, fmt.Sprintf("%s must be between 1 and 5, got %v", field, *v)
	}
	r := int(*v)
	return &r, ""
}

// Validate checks c against the card schema.
func Validate(c Card) error {
	_, err := fromFile(toFile(c))
	return err
}
