// Package cards loads and indexes server cards.
//
// A card describes one configurable MCP server: how it is deployed, which
// variables it needs, and two 1-5 usefulness ratings used for ranking.
// Cards are read from a built-in catalog directory and an optional user
// directory whose cards shadow built-in ones with the same id.
//
// Supported file formats:
//   - .json: a single card object
//   - .yaml / .yml: a single card document
//   - .md: YAML frontmatter holding the card fields; the Markdown body
//     becomes the description when the frontmatter has none
package cards

import (
	"encoding/json"
	"strings"
)

// DeploymentKind selects the strategy used to materialize a card.
type DeploymentKind int

const (
	// KindUnknown is any kind this version does not recognize. Cards with an
	// unknown kind still load; they materialize to a placeholder.
	KindUnknown DeploymentKind = iota
	KindContainer
	KindPackageRunner
	KindNativeBinary
	KindHTTPEndpoint
)

var kindNames = map[DeploymentKind]string{
	KindContainer:     "container",
	KindPackageRunner: "package-runner",
	KindNativeBinary:  "native-binary",
	KindHTTPEndpoint:  "http-endpoint",
}

// ParseDeploymentKind maps a card's deploymentKind string to a kind.
// Matching ignores case and surrounding whitespace.
func ParseDeploymentKind(s string) DeploymentKind {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range kindNames {
		if name == s {
			return kind
		}
	}
	return KindUnknown
}

func (k DeploymentKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Status is a card's lifecycle state.
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// Variable is a named input a card declares.
type Variable struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Required is tri-state: nil means required.
	Required *bool  `json:"required,omitempty" yaml:"required,omitempty"`
	Example  string `json:"example,omitempty" yaml:"example,omitempty"`
	Secret   bool   `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// IsRequired reports whether the variable must be provided. A variable is
// required unless it explicitly says otherwise.
func (v Variable) IsRequired() bool {
	return v.Required == nil || *v.Required
}

// Deployment holds the kind-specific launch template. Strings may contain
// ${NAME} placeholders referring to declared variables.
type Deployment struct {
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Image   string            `json:"image,omitempty" yaml:"image,omitempty"`
	Package string            `json:"package,omitempty" yaml:"package,omitempty"`
	Runtime string            `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Card is one loaded server card. Cards are values; a store hands out
// copies and replaces whole records on update.
type Card struct {
	ID          string
	Name        string
	Description string
	Kind        DeploymentKind
	// KindName is the deploymentKind string as written in the file. It is
	// kept so unknown kinds survive a rewrite.
	KindName   string
	Deployment Deployment
	Variables  []Variable
	RatingA    *int
	RatingB    *int
	Status     Status
	Tags       []string
	Category   string

	// Source is the file the card was loaded from. Not persisted.
	Source string
}

// Deprecated reports whether the card is marked deprecated.
func (c Card) Deprecated() bool {
	return c.Status == StatusDeprecated
}

// Variable returns the declared variable called name.
func (c Card) Variable(name string) (Variable, bool) {
	for _, v := range c.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// HasTag reports whether the card carries tag, ignoring case.
func (c Card) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// cardFile is the on-disk shape shared by every format. Ratings decode as
// floats so non-integer values can be rejected instead of truncated.
type cardFile struct {
	ID             string     `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	DeploymentKind string     `json:"deploymentKind" yaml:"deploymentKind"`
	DeploymentSpec Deployment `json:"deploymentSpec" yaml:"deploymentSpec"`
	Variables      []Variable `json:"declaredVariables,omitempty" yaml:"declaredVariables,omitempty"`
	RatingA        *float64   `json:"ratingA,omitempty" yaml:"ratingA,omitempty"`
	RatingB        *float64   `json:"ratingB,omitempty" yaml:"ratingB,omitempty"`
	Status         string     `json:"status,omitempty" yaml:"status,omitempty"`
	Tags           []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Category       string     `json:"category,omitempty" yaml:"category,omitempty"`
}

func toFile(c Card) cardFile {
	kindName := c.KindName
	if c.Kind != KindUnknown || kindName == "" {
		kindName = c.Kind.String()
	}
	f := cardFile{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		DeploymentKind: kindName,
		DeploymentSpec: c.Deployment,
		Variables:      c.Variables,
		Status:         string(c.Status),
		Tags:           c.Tags,
		Category:       c.Category,
	}
	if c.RatingA != nil {
		a := float64(*c.RatingA)
		f.RatingA = &a
	}
	if c.RatingB != nil {
		b := float64(*c.RatingB)
		f.RatingB = &b
	}
	return f
}

// MarshalJSON writes the card in its file format.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(toFile(c))
}

// Intp is a convenience for building ratings in literals.
func Intp(v int) *int { return &v }

// Boolp is a convenience for building Required flags in literals.
func Boolp(v bool) *bool { return &v }
