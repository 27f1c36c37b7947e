package merge

import (
	"testing"
	"time"

	"mcpconf/internal/cards"

	"github.com/stretchr/testify/assert"
)

func githubCard() cards.Card {
	return cards.Card{
		ID:         "github",
		Kind:       cards.KindPackageRunner,
		Deployment: cards.Deployment{Package: "@modelcontextprotocol/server-github"},
		Variables:  []cards.Variable{{Name: "GITHUB_TOKEN"}, {Name: "GITHUB_HOST", Required: cards.Boolp(false)}},
	}
}

func TestReconcileNoChanges(t *testing.T) {
	card := githubCard()
	existing := Materialize(card, map[string]string{"GITHUB_TOKEN": "ghp_x"})

	next, changes := Reconcile(existing, card)
	assert.Empty(t, changes)
	assert.Equal(t, existing.Args, next.Args)
	assert.Equal(t, existing.Env, next.Env)
}

func TestReconcileKeepsDeclaredValues(t *testing.T) {
	existing := Materialize(githubCard(), map[string]string{"GITHUB_TOKEN": "ghp_x", "GITHUB_HOST": "ghe.local"})
	existing.ID = "github-work"
	existing.Scope = ScopeGlobal

	updated := githubCard()
	updated.Deployment.Package = "@github/github-mcp-server"
	updated.Variables = []cards.Variable{{Name: "GITHUB_TOKEN"}, {Name: "GITHUB_TOOLSETS"}}

	next, changes := Reconcile(existing, updated)

	assert.Equal(t, "github-work", next.ID)
	assert.Equal(t, ScopeGlobal, next.Scope)
	assert.Equal(t, map[string]string{"GITHUB_TOKEN": "ghp_x"}, next.Provided)
	assert.Equal(t, map[string]string{"GITHUB_TOKEN": "ghp_x", "GITHUB_TOOLSETS": "${GITHUB_TOOLSETS}"}, next.Env)
	assert.Equal(t, []string{
		"args: [-y @modelcontextprotocol/server-github] -> [-y @github/github-mcp-server]",
		"+ env GITHUB_TOOLSETS",
		"- env GITHUB_HOST",
		"dropped variable GITHUB_HOST",
	}, changes)
}

func TestReconcileRecoversValuesFromEntry(t *testing.T) {
	card := githubCard()
	written := Materialize(card, map[string]string{"GITHUB_TOKEN": "ghp_x"})
	rebuilt := FromEntry("github", ScopeProject, written.Entry(timeZero()))

	updated := card
	updated.Kind = cards.KindContainer
	updated.Deployment = cards.Deployment{Image: "ghcr.io/github/github-mcp-server"}

	next, changes := Reconcile(rebuilt, updated)

	assert.Equal(t, "docker", next.Command)
	assert.Equal(t, map[string]string{"GITHUB_TOKEN": "ghp_x"}, next.Provided)
	assert.Contains(t, changes, "command: npx -> docker")
	assert.NotContains(t, changes, "~ env GITHUB_TOKEN")
}

func TestReconcileHeadersRecovered(t *testing.T) {
	card := cards.Card{
		ID:   "hosted",
		Kind: cards.KindHTTPEndpoint,
		Deployment: cards.Deployment{
			URL:     "https://old.example.com/mcp",
			Headers: map[string]string{"X-Api-Key": "${API_KEY}"},
		},
		Variables: []cards.Variable{{Name: "API_KEY"}},
	}
	written := Materialize(card, map[string]string{"API_KEY": "k"})
	rebuilt := FromEntry("hosted", ScopeProject, written.Entry(timeZero()))

	updated := card
	updated.Deployment.URL = "https://new.example.com/mcp"

	next, changes := Reconcile(rebuilt, updated)
	assert.Equal(t, "k", next.Headers["X-Api-Key"])
	assert.Equal(t, []string{"url: https://old.example.com/mcp -> https://new.example.com/mcp"}, changes)
}

func TestReconcilePlaceholderNotTreatedAsValue(t *testing.T) {
	card := githubCard()
	rebuilt := FromEntry("github", ScopeProject, Materialize(card, nil).Entry(timeZero()))

	next, changes := Reconcile(rebuilt, card)
	assert.Empty(t, next.Provided)
	assert.Empty(t, changes)
}

func timeZero() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}
