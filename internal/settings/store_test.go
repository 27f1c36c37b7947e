package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mcpconf/internal/logging"
	"mcpconf/pkg/fileops"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := logging.NewTestLogger()
	path := filepath.Join(dir, "settings.json")
	return NewStore(path, Options{Now: testClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))}, logger), path
}

func TestReadMissingFile(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Read()
	assert.True(t, errors.Is(err, ErrNotExist), "got %v", err)

	doc := s.ReadOrDefault()
	require.NotNil(t, doc)
	assert.Empty(t, doc.Instances)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mcpServers":{}}`, string(data))
}

func TestReadCorruptFile(t *testing.T) {
	tests := map[string]string{
		"truncated":   `{"mcpServers": {`,
		"not object":  `[1,2,3]`,
		"null":        `null`,
		"bad servers": `{"mcpServers": []}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			s, path := newTestStore(t)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := s.Read()
			assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
			assert.False(t, errors.Is(err, ErrNotExist))
			assert.Empty(t, s.ReadOrDefault().Instances)
		})
	}
}

func TestReadLegacyInstancesKey(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"instances":{"fetch":{"command":"npx","args":["-y","fetch"]}}}`), 0644))

	doc, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch"}, doc.IDs())

	require.NoError(t, s.Write(doc))
	var raw map[string]json.RawMessage
	data, _ := os.ReadFile(path)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "mcpServers")
	assert.NotContains(t, raw, "instances")
}

func TestWritePreservesUnknownKeys(t *testing.T) {
	s, path := newTestStore(t)
	original := `{
  "theme": "dark",
  "projects": {"/src/app": {"allowedTools": ["Bash"]}},
  "mcpServers": {"old": {"command": "old-server"}}
}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0644))

	doc := s.ReadOrDefault()
	assert.Equal(t, []string{"projects", "theme"}, doc.ExtraKeys())
	doc.Delete("old")
	doc.Set("github", ServerEntry{
		Type:     "stdio",
		Command:  "npx",
		Args:     []string{"-y", "@modelcontextprotocol/server-github"},
		Env:      map[string]string{"GITHUB_TOKEN": "${GITHUB_TOKEN}"},
		Metadata: &Metadata{Source: "mcpconf", CardID: "github", UpdatedAt: "2026-01-01T00:00:00Z"},
	})
	require.NoError(t, s.Write(doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"theme": "dark",
		"projects": {"/src/app": {"allowedTools": ["Bash"]}},
		"mcpServers": {"github": {
			"type": "stdio",
			"command": "npx",
			"args": ["-y", "@modelcontextprotocol/server-github"],
			"env": {"GITHUB_TOKEN": "${GITHUB_TOKEN}"},
			"metadata": {"source": "mcpconf", "cardId": "github", "updatedAt": "2026-01-01T00:00:00Z"}
		}}
	}`, string(data))
}

func TestWriteBackupPruning(t *testing.T) {
	s, path := newTestStore(t)
	backupDir := filepath.Join(filepath.Dir(path), "backups")

	const writes = 14
	for i := 0; i < writes; i++ {
		doc := s.ReadOrDefault()
		doc.Set("srv", ServerEntry{Command: "cmd", Args: []string{string(rune('a' + i))}})
		require.NoError(t, s.Write(doc))

		backups, err := fileops.ListBackups(backupDir, "settings.json")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(backups), 10, "after write %d", i)
	}

	backups, err := fileops.ListBackups(backupDir, "settings.json")
	require.NoError(t, err)
	require.Len(t, backups, 10)

	// the newest backup holds the content of the second to last write
	data, err := os.ReadFile(filepath.Join(backupDir, backups[0]))
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{string(rune('a' + writes - 2))}, doc.Instances["srv"].Args)
}

func TestWriteFailureIsReturned(t *testing.T) {
	dir := t.TempDir()
	logger, _ := logging.NewTestLogger()
	// the parent of the settings path is a regular file
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	s := NewStore(filepath.Join(blocker, "settings.json"), Options{BackupDir: filepath.Join(dir, "b")}, logger)

	err := s.Write(NewDocument())
	assert.Error(t, err)
}

func TestDocumentHelpers(t *testing.T) {
	doc := NewDocument()
	doc.Set("b", ServerEntry{Command: "b"})
	doc.Set("a", ServerEntry{URL: "https://a", Metadata: &Metadata{CardID: "card-a"}})

	assert.Equal(t, []string{"a", "b"}, doc.IDs())
	e, ok := doc.Get("a")
	require.True(t, ok)
	assert.Equal(t, "card-a", e.CardID())
	assert.Equal(t, "", ServerEntry{}.CardID())

	assert.True(t, doc.Delete("a"))
	assert.False(t, doc.Delete("a"))

	var zero Document
	zero.Set("x", ServerEntry{})
	assert.Len(t, zero.Instances, 1)
}
