package memory_test

import (
	"path/filepath"
	"testing"

	"github.com/lawyrs/counsel/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSqliteStore(t *testing.T) *memory.SqliteStore {
	t.Helper()

	store, err := memory.NewSqliteStore(filepath.Join(t.TempDir(), "mem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSqliteStoreUpsert(t *testing.T) {
	store := newSqliteStore(t)
	ctx := t.Context()

	entry := &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "researcher", Key: "note:1",
		Value: "first version", Tags: []string{"turn-summary"},
	}
	require.NoError(t, store.Put(ctx, entry))

	entry.Value = "second version"
	require.NoError(t, store.Put(ctx, entry))

	got, err := store.Get(ctx, entry.Identity())
	require.NoError(t, err)
	assert.Equal(t, "second version", got.Value)
	assert.Equal(t, []string{"turn-summary"}, got.Tags)

	entries, err := store.List(ctx, "case-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSqliteStoreKeywordSearch(t *testing.T) {
	store := newSqliteStore(t)
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "researcher", Key: "a",
		Value: "limitations deadline is approaching",
	}))
	require.NoError(t, store.Put(ctx, &memory.Entry{
		CaseID: "case-2", SessionID: "s", AgentType: "researcher", Key: "b",
		Value: "limitations research for a different case",
	}))

	results, err := store.Search(ctx, "case-1", "limitations deadline", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Entry.Key)
}

func TestSqliteStoreDelete(t *testing.T) {
	store := newSqliteStore(t)
	ctx := t.Context()

	entry := &memory.Entry{CaseID: "c", SessionID: "s", AgentType: "drafter", Key: "k", Value: "v"}
	require.NoError(t, store.Put(ctx, entry))
	require.NoError(t, store.Delete(ctx, entry.Identity()))

	_, err := store.Get(ctx, entry.Identity())
	assert.ErrorContains(t, err, "not found")
}
