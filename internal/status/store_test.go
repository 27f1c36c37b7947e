package status

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mcpconf/internal/logging"
	"mcpconf/internal/settings"
	"mcpconf/pkg/fileops"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, weights map[string]float64) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := settings.Options{
		BackupDir: filepath.Join(dir, "backups"),
		Now: func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		},
	}
	return NewStore(filepath.Join(dir, "status.json"), filepath.Join(dir, "STATUS.md"), weights, opts, logging.Discard()), dir
}

func TestStoreLoadMissingAndCorrupt(t *testing.T) {
	store, _ := newTestStore(t, nil)

	_, err := store.Load()
	assert.True(t, errors.Is(err, settings.ErrNotExist))
	assert.Equal(t, "demo", store.LoadOrDefault("demo").Project)

	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))
	_, err = store.Load()
	assert.True(t, errors.Is(err, settings.ErrCorrupt))

	doc := store.LoadOrDefault("demo")
	assert.Empty(t, doc.Features)
}

func TestStoreApplyWritesBothFiles(t *testing.T) {
	store, _ := newTestStore(t, map[string]float64{"a": 0.4})

	doc, err := store.Apply("demo", Patch{
		Features: map[string]Feature{"a": {Completion: 100}, "b": {Completion: 0}},
		Todos:    []TodoUpdate{{ID: "t1", Text: "write tests", State: Active}},
	})
	require.NoError(t, err)
	assert.Equal(t, 40, doc.OverallCompletion)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 40, loaded.OverallCompletion)
	assert.Equal(t, "t1", loaded.Todos[0].ID)

	md, err := os.ReadFile(store.MarkdownPath())
	require.NoError(t, err)
	assert.Contains(t, string(md), "**40%**")
	assert.Contains(t, string(md), "write tests")
}

func TestStoreSaveRecomputesOverall(t *testing.T) {
	store, _ := newTestStore(t, nil)
	doc := NewDocument("demo")
	doc.Features["a"] = Feature{Name: "a", Completion: 30}
	doc.OverallCompletion = 100

	require.NoError(t, store.Save(doc))
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.OverallCompletion)
}

func TestStoreBackupPruning(t *testing.T) {
	store, dir := newTestStore(t, nil)

	for i := 0; i < 15; i++ {
		_, err := store.Apply("demo", Patch{Features: map[string]Feature{"a": {Completion: i}}})
		require.NoError(t, err)
	}

	backups, err := fileops.ListBackups(filepath.Join(dir, "backups"), "status.json")
	require.NoError(t, err)
	assert.Len(t, backups, fileops.DefaultBackupKeep)
	for _, b := range backups {
		assert.True(t, strings.HasPrefix(b, "status.json."))
	}
}

func TestStoreWithoutMarkdown(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "status.json"), "", nil, settings.Options{}, logging.Discard())

	_, err := store.Apply("demo", Patch{})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "STATUS.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreApplyLogsTodoTransitions(t *testing.T) {
	dir := t.TempDir()
	logger, buf := logging.NewTestLogger()
	store := NewStore(filepath.Join(dir, "status.json"), "", nil, settings.Options{BackupDir: filepath.Join(dir, "backups")}, logger)

	_, err := store.Apply("demo", Patch{Todos: []TodoUpdate{{ID: "t1", Text: "write docs"}}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "from=new")

	buf.Reset()
	_, err = store.Apply("demo", Patch{Todos: []TodoUpdate{{ID: "t1", State: Done}}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "State transition")
	assert.Contains(t, out, "from=pending")
	assert.Contains(t, out, "to=done")

	buf.Reset()
	_, err = store.Apply("demo", Patch{CriticalNotes: []string{"n"}})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "State transition")
}
