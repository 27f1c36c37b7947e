package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mcpconf/internal/config"
	"mcpconf/internal/core"
	"mcpconf/internal/logging"
	"mcpconf/internal/merge"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestServer(t *testing.T) (*Server, *core.Manager) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.SettingsPath = filepath.Join(root, "settings.json")
	cfg.CardsDir = filepath.Join(root, "cards")
	cfg.UserCardsDir = filepath.Join(root, "user")
	cfg.BackupDir = filepath.Join(root, "backups")
	off := false
	cfg.UseKeyring = &off

	writeFile(t, filepath.Join(cfg.CardsDir, "github.json"), `{"id": "github", "name": "GitHub", "description": "Issues and pull requests",
	  "deploymentKind": "package-runner", "deploymentSpec": {"package": "@mcp/github"},
	  "declaredVariables": [{"name": "GITHUB_TOKEN"}], "ratingA": 5, "ratingB": 4, "tags": ["git"]}`)
	writeFile(t, filepath.Join(cfg.CardsDir, "memory.json"), `{"id": "memory", "name": "Memory", "deploymentKind": "package-runner",
	  "deploymentSpec": {"package": "@mcp/memory"}, "ratingA": 2, "ratingB": 2}`)
	writeFile(t, filepath.Join(cfg.CardsDir, "fetch.json"), `{"id": "fetch", "name": "Fetch", "deploymentKind": "native-binary",
	  "deploymentSpec": {"command": "fetch"}, "ratingA": 3, "ratingB": 1}`)

	project := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(project, 0755))

	m, err := core.NewManager(&cfg, logging.Discard(), core.Options{
		ProjectDir: project,
		Now:        func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) },
		LookupEnv:  func(string) (string, bool) { return "", false },
	})
	require.NoError(t, err)
	return NewServer(m, logging.Discard(), "test"), m
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, res.IsError
}

func TestNewServer(t *testing.T) {
	s, m := newTestServer(t)
	if s.mcpServer == nil {
		t.Fatal("MCP server should be created")
	}
	if s.manager != m {
		t.Error("Server manager not set correctly")
	}
}

func TestListCards(t *testing.T) {
	s, _ := newTestServer(t)

	out, isErr := call(t, s.handleListCards, nil)
	require.False(t, isErr)
	var cards []cardSummary
	require.NoError(t, json.Unmarshal([]byte(out), &cards))
	require.Len(t, cards, 3)
	assert.Equal(t, "github", cards[0].ID, "ranked by score")
	assert.InDelta(t, 9.2, cards[0].Score, 1e-9)
	assert.Equal(t, "fetch", cards[1].ID)

	out, _ = call(t, s.handleListCards, map[string]any{"query": "pull"})
	require.NoError(t, json.Unmarshal([]byte(out), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "github", cards[0].ID)
}

func TestShowCard(t *testing.T) {
	s, _ := newTestServer(t)

	out, isErr := call(t, s.handleShowCard, map[string]any{"id": "github"})
	require.False(t, isErr)
	var got struct {
		Card    map[string]any `json:"card"`
		Missing []string       `json:"missingVariables"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "github", got.Card["id"])
	assert.Equal(t, []string{"GITHUB_TOKEN"}, got.Missing)

	_, isErr = call(t, s.handleShowCard, map[string]any{"id": "nope"})
	assert.True(t, isErr)
	_, isErr = call(t, s.handleShowCard, nil)
	assert.True(t, isErr)
}

func TestListInstancesMasksValues(t *testing.T) {
	s, m := newTestServer(t)
	_, err := m.Add("github", merge.ScopeProject, map[string]string{"GITHUB_TOKEN": "ghp_secret"})
	require.NoError(t, err)
	_, err = m.Add("fetch", merge.ScopeGlobal, nil)
	require.NoError(t, err)

	out, isErr := call(t, s.handleListInstances, map[string]any{"scope": "project"})
	require.False(t, isErr)
	assert.NotContains(t, out, "ghp_secret")

	var views []instanceView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "********", views[0].Env["GITHUB_TOKEN"])

	out, _ = call(t, s.handleListInstances, nil)
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.Len(t, views, 2)

	_, isErr = call(t, s.handleListInstances, map[string]any{"scope": "team"})
	assert.True(t, isErr)
}

func TestMaskValuesKeepsPlaceholders(t *testing.T) {
	got := maskValues(map[string]string{"A": "${A}", "B": "value", "C": ""})
	assert.Equal(t, map[string]string{"A": "${A}", "B": "********", "C": ""}, got)
	assert.Nil(t, maskValues(nil))
}

func TestRecommendTool(t *testing.T) {
	s, _ := newTestServer(t)

	out, isErr := call(t, s.handleRecommend, map[string]any{"limit": 1})
	require.False(t, isErr)
	var got struct {
		Items []struct {
			ID     string `json:"id"`
			Reason string `json:"reason"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "memory", got.Items[0].ID)
	assert.Equal(t, "baseline", got.Items[0].Reason)
}

func TestProjectStatusAndDoctor(t *testing.T) {
	s, m := newTestServer(t)

	out, isErr := call(t, s.handleProjectStatus, nil)
	require.False(t, isErr)
	assert.Contains(t, out, `"project": "project"`)

	_, err := m.Add("github", merge.ScopeProject, nil)
	require.NoError(t, err)
	out, isErr = call(t, s.handleDoctor, nil)
	require.False(t, isErr)
	assert.Contains(t, out, "unresolved-variables")
}
