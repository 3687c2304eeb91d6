package counsel_test

import (
	"path/filepath"
	"testing"

	"github.com/lawyrs/counsel"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/memory"
	"github.com/lawyrs/counsel/orchestrator"
	"github.com/lawyrs/counsel/provider"
	"github.com/lawyrs/counsel/session"
	"github.com/lawyrs/counsel/sideeffect"
	"github.com/stretchr/testify/require"
)

func TestRuntime(t *testing.T) {
	logger := mylog.NewLogger("error", "json")

	sessions, err := session.NewManager(logger, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)

	runtime, err := counsel.NewRuntime(t.Context(),
		counsel.WithLogger(logger),
		counsel.WithProviderClient(provider.Unavailable()),
		counsel.WithMemoryService(memory.NewServiceWithStores(logger, nil, nil,
			memory.NewInMemoryStore(), memory.NewInMemoryStore())),
		counsel.WithSessionManager(sessions),
		counsel.WithSideEffectDispatcher(sideeffect.NewLogDispatcher(logger)),
	)
	require.NoError(t, err)
	defer runtime.Close()

	resp, err := runtime.Submit(t.Context(), orchestrator.Request{
		SessionID:    "rt-1",
		Query:        "What is the statute of limitations for a negligence claim?",
		Jurisdiction: "kansas",
	})
	require.NoError(t, err)
	require.Equal(t, "rt-1", resp.SessionID)
	require.Contains(t, resp.Summary, "[researcher]")
	require.Equal(t, orchestrator.Disclaimer, resp.Disclaimer)

	decision := runtime.Classify(t.Context(), orchestrator.Request{Query: "draft a demand letter"})
	require.Equal(t, "drafter", string(decision.Primary))

	turns, err := runtime.History(t.Context(), "rt-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)

	require.NoError(t, runtime.ClearSession(t.Context(), "rt-1"))
	_, err = runtime.History(t.Context(), "rt-1")
	require.Error(t, err)
}
