package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgraph/internal/engine"
	"github.com/leapstack-labs/sqlgraph/internal/server/notifier"
	"github.com/leapstack-labs/sqlgraph/internal/state"
	"github.com/leapstack-labs/sqlgraph/internal/testutil"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

func newTestServer(t *testing.T, history bool) (*Server, *httptest.Server) {
	t.Helper()
	cfg := engine.Config{Logger: testutil.NewTestLogger(t)}
	if history {
		store, err := state.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		cfg.History = store
	}

	s := New(Config{Engine: engine.New(cfg), Logger: testutil.NewTestLogger(t)})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, false)

	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetrics(t *testing.T) {
	_, ts := newTestServer(t, false)
	postJSON(t, ts.URL+"/api/analyze", `{"sql": "SELECT x FROM t"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	scanner := bufio.NewScanner(resp.Body)
	found := false
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "sqlgraph_analyses_total") {
			found = true
			break
		}
	}
	assert.True(t, found, "metrics should expose sqlgraph_analyses_total")
}

func TestAnalyze(t *testing.T) {
	_, ts := newTestServer(t, true)

	resp := postJSON(t, ts.URL+"/api/analyze", `{"name": "q.sql", "sql": "SELECT a.x AS y FROM t AS a"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Name       string `json:"name"`
		Hash       string `json:"hash"`
		SnapshotID string `json:"snapshot_id"`
		Document   struct {
			Tables []lineage.DisplayTable `json:"tables"`
			Edges  []lineage.FlowEdge     `json:"edges"`
		} `json:"document"`
		Highlights map[string]json.RawMessage `json:"highlights"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "q.sql", body.Name)
	assert.NotEmpty(t, body.Hash)
	assert.NotEmpty(t, body.SnapshotID)
	assert.Len(t, body.Document.Tables, 2)
	require.Len(t, body.Document.Edges, 1)
	assert.Equal(t, "target-Result_y", body.Document.Edges[0].TargetHandle)
	assert.Contains(t, body.Highlights, "t_x")

	var snaps []state.Snapshot
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/history", &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, body.SnapshotID, snaps[0].ID)

	var snap state.Snapshot
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/history/"+body.SnapshotID, &snap))
	require.NotNil(t, snap.Graph)
	assert.Contains(t, snap.Graph.ColumnNodes, "Result_y")

	var trace lineage.Trace
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/trace/Result_y?snapshot="+body.SnapshotID, &trace))
	assert.Equal(t, []string{"t_x"}, trace.Upstream)
}

func TestAnalyze_JSONTree(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp := postJSON(t, ts.URL+"/api/analyze", `{"ast": {"type": "select",
		"columns": [{"expr": {"type": "column_ref", "table": null, "column": "x"}, "as": null}],
		"from": [{"db": null, "table": "t", "as": null}]}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyze_Errors(t *testing.T) {
	_, ts := newTestServer(t, false)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed body", `{"sql": `, http.StatusBadRequest},
		{"missing input", `{"name": "q.sql"}`, http.StatusBadRequest},
		{"name too long", `{"name": "` + strings.Repeat("n", 300) + `", "sql": "SELECT 1"}`, http.StatusBadRequest},
		{"parse error", `{"sql": "SELECT a FROM t )"}`, http.StatusUnprocessableEntity},
		{"not a statement", `{"ast": {"message": "Expected SELECT"}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/analyze", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGraphAndTrace(t *testing.T) {
	s, ts := newTestServer(t, false)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/graph", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/trace/t_x", nil))

	res, err := engine.New(engine.Config{}).Analyze(context.Background(), engine.Source{
		Name: "watched.sql",
		SQL:  "WITH c AS (SELECT x FROM t) SELECT x FROM c",
	})
	require.NoError(t, err)
	s.Notifier().Publish(res, nil)

	var graph struct {
		Name    string `json:"name"`
		Version uint64 `json:"version"`
		Error   string `json:"error"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/graph", &graph))
	assert.Equal(t, "watched.sql", graph.Name)
	assert.Equal(t, uint64(1), graph.Version)
	assert.Empty(t, graph.Error)

	var trace lineage.Trace
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/trace/c_x", &trace))
	assert.Equal(t, []string{"t_x"}, trace.Upstream)
	assert.Equal(t, []string{"Result_x"}, trace.Downstream)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/trace/nope_x", nil))

	s.Notifier().Publish(nil, errors.New("parse error at line 1, column 1: boom"))
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/graph", &graph))
	assert.Equal(t, uint64(2), graph.Version)
	assert.Contains(t, graph.Error, "boom")
}

func TestHistory_Disabled(t *testing.T) {
	_, ts := newTestServer(t, false)
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/history", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/history/abc", nil))
}

func TestHistory_Errors(t *testing.T) {
	_, ts := newTestServer(t, true)
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/history/missing", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/history?limit=x", nil))

	var snaps []state.Snapshot
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/history", &snaps))
	assert.Empty(t, snaps)
}

func TestEvents(t *testing.T) {
	s, ts := newTestServer(t, false)

	res, err := engine.New(engine.Config{}).Analyze(context.Background(), engine.Source{
		Name: "live.sql",
		SQL:  "SELECT x FROM t",
	})
	require.NoError(t, err)
	s.Notifier().Publish(res, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			event = line
		}
		if strings.HasPrefix(line, "data: signals") {
			data = line
			break
		}
	}
	assert.Contains(t, event, "datastar-patch-signals")
	assert.Contains(t, data, "live.sql")
	assert.Contains(t, data, "Result")
}

func TestServe_Shutdown(t *testing.T) {
	s := New(Config{Engine: engine.New(engine.Config{}), Port: 0, Logger: testutil.NewTestLogger(t)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestSignalsOf(t *testing.T) {
	res, err := engine.New(engine.Config{}).Analyze(context.Background(), engine.Source{
		Name: "live.sql",
		SQL:  "SELECT x FROM t",
	})
	require.NoError(t, err)

	sig := signalsOf(notifier.Update{Version: 3, Result: res})
	assert.Equal(t, uint64(3), sig.Version)
	assert.Equal(t, "live.sql", sig.Name)
	assert.Equal(t, res.Document, sig.Document)
	assert.Empty(t, sig.Error)

	sig = signalsOf(notifier.Update{Version: 4, Err: errors.New("parse failed")})
	assert.Equal(t, "parse failed", sig.Error)
	assert.Empty(t, sig.Name)
	assert.Nil(t, sig.Document)
}
