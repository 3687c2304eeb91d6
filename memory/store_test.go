package memory_test

import (
	"testing"

	"github.com/lawyrs/counsel/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorePutIsUpsert(t *testing.T) {
	store := memory.NewInMemoryStore()
	ctx := t.Context()

	entry := &memory.Entry{
		CaseID:    "case-1",
		SessionID: "sess-1",
		AgentType: "researcher",
		Key:       "note:abc",
		Value:     "two-year limitations period applies",
	}
	require.NoError(t, store.Put(ctx, entry))

	// Same identity, new value: last write wins, no duplicate.
	updated := *entry
	updated.Value = "limitations period confirmed at two years"
	require.NoError(t, store.Put(ctx, &updated))

	got, err := store.Get(ctx, entry.Identity())
	require.NoError(t, err)
	assert.Equal(t, updated.Value, got.Value)

	entries, err := store.List(ctx, "case-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInMemoryStoreGetMissing(t *testing.T) {
	store := memory.NewInMemoryStore()

	_, err := store.Get(t.Context(), "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestInMemoryStoreKeywordSearch(t *testing.T) {
	store := memory.NewInMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "researcher", Key: "a",
		Value: "statute of limitations is two years under Kansas law",
	}))
	require.NoError(t, store.Put(ctx, &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "drafter", Key: "b",
		Value: "demand letter drafted and sent for review",
	}))
	require.NoError(t, store.Put(ctx, &memory.Entry{
		CaseID: "case-2", SessionID: "s", AgentType: "researcher", Key: "c",
		Value: "statute of limitations research for another case",
	}))

	results, err := store.Search(ctx, "case-1", "limitations statute", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].Entry.Key)
	for _, r := range results {
		assert.Equal(t, "case-1", r.Entry.CaseID, "search must stay scoped to the case")
	}
}

func TestInMemoryStoreEmbeddingSearch(t *testing.T) {
	store := memory.NewInMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "researcher", Key: "close",
		Value:     "limitations note",
		Embedding: []float32{1, 0, 0},
	}))
	require.NoError(t, store.Put(ctx, &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "researcher", Key: "far",
		Value:     "unrelated note",
		Embedding: []float32{-1, 0, 0},
	}))

	results, err := store.Search(ctx, "case-1", "limitations", []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "close", results[0].Entry.Key)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}
