package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/lawyrs/counsel"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/memory"
	"github.com/lawyrs/counsel/orchestrator"
	"github.com/lawyrs/counsel/provider"
	"github.com/lawyrs/counsel/server"
	"github.com/lawyrs/counsel/session"
	"github.com/lawyrs/counsel/sideeffect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

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
	t.Cleanup(runtime.Close)

	ts := httptest.NewServer(server.New(logger, runtime).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatEndpoint(t *testing.T) {
	ts := newTestServer(t)

	body, err := json.Marshal(orchestrator.Request{
		SessionID:    "sess-http",
		Query:        "What is the statute of limitations for negligence?",
		Jurisdiction: "kansas",
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out orchestrator.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "sess-http", out.SessionID)
	assert.NotEmpty(t, out.Summary)
	assert.Equal(t, orchestrator.Disclaimer, out.Disclaimer)

	// History shows the recorded turn.
	histResp, err := http.Get(ts.URL + "/api/sessions/sess-http/history")
	require.NoError(t, err)
	defer histResp.Body.Close()
	require.Equal(t, http.StatusOK, histResp.StatusCode)

	var hist struct {
		SessionID string           `json:"session_id"`
		Turns     []map[string]any `json:"turns"`
	}
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&hist))
	assert.Len(t, hist.Turns, 1)
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader([]byte(`{"query":""}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClassifyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/classify?query=draft+a+demand+letter")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decision orchestrator.RoutingDecision
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decision))
	assert.Equal(t, "drafter", string(decision.Primary))

	missing, err := http.Get(ts.URL + "/api/classify")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusBadRequest, missing.StatusCode)
}

func TestConfigAndSchemaEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var conf map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conf))
	assert.Contains(t, conf, "activationThreshold")

	schemaResp, err := http.Get(ts.URL + "/api/sideeffects/schema")
	require.NoError(t, err)
	defer schemaResp.Body.Close()
	assert.Equal(t, http.StatusOK, schemaResp.StatusCode)
}

func TestClearSessionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	body := []byte(`{"session_id":"sess-del","query":"research the statute of limitations"}`)
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/sess-del", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	histResp, err := http.Get(ts.URL + "/api/sessions/sess-del/history")
	require.NoError(t, err)
	defer histResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, histResp.StatusCode)
}
