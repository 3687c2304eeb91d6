package session_test

import (
	"path/filepath"
	"testing"

	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) session.Manager {
	t.Helper()

	m, err := session.NewManager(mylog.NewLogger("error", "json"), filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	return m
}

func TestGetOrCreate(t *testing.T) {
	m := newManager(t)
	ctx := t.Context()

	created, err := m.GetOrCreate(ctx, "sess-1", "case-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", created.SessionID)
	assert.Equal(t, "case-1", created.CaseID)

	// Second call resolves the same row.
	again, err := m.GetOrCreate(ctx, "sess-1", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "case-1", again.CaseID)

	_, err = m.GetOrCreate(ctx, "", "")
	assert.ErrorIs(t, err, errors.ErrInvalidParams)
}

func TestAppendTurnPreservesOrder(t *testing.T) {
	m := newManager(t)
	ctx := t.Context()

	queries := []string{"first question", "second question", "third question"}
	for _, q := range queries {
		_, err := m.AppendTurn(ctx, "sess-2", q,
			entity.TurnResponse{Summary: "answer to " + q, Agents: []string{"researcher"}, Confidence: 0.9},
			entity.TurnRouting{Primary: "researcher"},
		)
		require.NoError(t, err)
	}

	turns, err := m.GetTurns(ctx, "sess-2", 0)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	for i, q := range queries {
		assert.Equal(t, q, turns[i].Query)
		assert.Equal(t, "answer to "+q, turns[i].Response.Data().Summary)
		assert.Equal(t, "researcher", turns[i].Routing.Data().Primary)
	}

	limited, err := m.GetTurns(ctx, "sess-2", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, "first question", limited[0].Query)
}

func TestGetTurnsUnknownSession(t *testing.T) {
	m := newManager(t)

	_, err := m.GetTurns(t.Context(), "missing", 0)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestClear(t *testing.T) {
	m := newManager(t)
	ctx := t.Context()

	_, err := m.AppendTurn(ctx, "sess-3", "hello",
		entity.TurnResponse{Summary: "hi"}, entity.TurnRouting{Primary: "strategist"})
	require.NoError(t, err)

	require.NoError(t, m.Clear(ctx, "sess-3"))

	_, err = m.GetTurns(ctx, "sess-3", 0)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	// Clearing twice or clearing the unknown is a no-op.
	assert.NoError(t, m.Clear(ctx, "sess-3"))
	assert.NoError(t, m.Clear(ctx, "never-existed"))
}
