package memory_test

import (
	"context"
	"testing"

	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore simulates a backend outage.
type failingStore struct{}

var _ memory.Store = (*failingStore)(nil)

func (failingStore) Put(context.Context, *memory.Entry) error {
	return errors.Wrapf(errors.ErrUnavailable, "backend down")
}

func (failingStore) Get(context.Context, string) (*memory.Entry, error) {
	return nil, errors.Wrapf(errors.ErrUnavailable, "backend down")
}

func (failingStore) Search(context.Context, string, string, []float32, int) ([]memory.ScoredEntry, error) {
	return nil, errors.Wrapf(errors.ErrUnavailable, "backend down")
}

func (failingStore) List(context.Context, string) ([]*memory.Entry, error) {
	return nil, errors.Wrapf(errors.ErrUnavailable, "backend down")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.Wrapf(errors.ErrUnavailable, "backend down")
}

func (failingStore) Close() error { return nil }

func newService(primary, fallback memory.Store) *memory.Service {
	return memory.NewServiceWithStores(mylog.NewLogger("error", "json"), nil, nil, primary, fallback)
}

func TestWriteSurvivesPrimaryOutage(t *testing.T) {
	fallback := memory.NewInMemoryStore()
	svc := newService(failingStore{}, fallback)
	ctx := t.Context()

	entry := &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "researcher", Key: "note:1",
		Value: "two-year limitations period under Kansas law",
	}
	require.NoError(t, svc.Write(ctx, entry), "one acking backend is enough")

	// The write must be recallable through the fallback path.
	results, err := svc.Search(ctx, "case-1", "limitations", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "note:1", results[0].Entry.Key)
}

func TestWriteFailsWhenBothBackendsDown(t *testing.T) {
	svc := newService(failingStore{}, failingStore{})

	err := svc.Write(t.Context(), &memory.Entry{
		CaseID: "c", SessionID: "s", AgentType: "analyst", Key: "k", Value: "v",
	})
	assert.Error(t, err)
}

func TestWriteRequiresKey(t *testing.T) {
	svc := newService(memory.NewInMemoryStore(), memory.NewInMemoryStore())

	err := svc.Write(t.Context(), &memory.Entry{CaseID: "c", Value: "v"})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)
}

func TestDualWriteReachesBothBackends(t *testing.T) {
	primary := memory.NewInMemoryStore()
	fallback := memory.NewInMemoryStore()
	svc := newService(primary, fallback)
	ctx := t.Context()

	entry := &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "strategist", Key: "note:2",
		Value: "settlement posture recorded",
	}
	require.NoError(t, svc.Write(ctx, entry))

	for name, store := range map[string]memory.Store{"primary": primary, "fallback": fallback} {
		got, err := store.Get(ctx, entry.Identity())
		require.NoError(t, err, "entry missing from %s", name)
		assert.Equal(t, entry.Value, got.Value)
	}
}

func TestSearchFallsBackWhenPrimaryErrors(t *testing.T) {
	fallback := memory.NewInMemoryStore()
	svc := newService(failingStore{}, fallback)
	ctx := t.Context()

	require.NoError(t, fallback.Put(ctx, &memory.Entry{
		CaseID: "case-1", SessionID: "s", AgentType: "drafter", Key: "note:3",
		Value: "demand letter sent",
	}))

	results, err := svc.Search(ctx, "case-1", "demand letter", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "note:3", results[0].Entry.Key)
}
