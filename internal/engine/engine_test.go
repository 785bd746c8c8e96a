package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgraph/internal/state"
	itestutil "github.com/leapstack-labs/sqlgraph/internal/testutil"
	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
	"github.com/leapstack-labs/sqlgraph/pkg/parser"
)

const selectTreeJSON = `{"type":"select",
 "columns":[{"expr":{"type":"column_ref","table":"a","column":"x"},"as":"y"}],
 "from":[{"db":null,"table":"t","as":"a"}]}`

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	cfg.Logger = itestutil.NewTestLogger(t)
	return New(cfg)
}

func TestNew_Defaults(t *testing.T) {
	e := New(Config{})
	assert.Equal(t, 4, e.cfg.Concurrency)
	assert.Positive(t, e.cfg.Debounce)
	assert.Equal(t, 400.0, e.cfg.Layout.HorizontalSpacing)
	assert.Nil(t, e.History())
}

func TestAnalyze_SQL(t *testing.T) {
	e := newTestEngine(t, Config{})
	src := Source{Name: "q.sql", SQL: "SELECT a.x AS y FROM t AS a"}

	res, err := e.Analyze(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "q.sql", res.Name)
	assert.Equal(t, Hash(src), res.Hash)
	_, ok := res.Graph.Node("table_t")
	assert.True(t, ok)
	_, ok = res.Graph.Node("table_Result")
	assert.True(t, ok)
	assert.Contains(t, res.Graph.ColumnNodes, "t_x")
	assert.Contains(t, res.Graph.ColumnNodes, "Result_y")

	require.Len(t, res.Document.Tables, 2)
	require.Len(t, res.Document.Edges, 1)
	assert.Equal(t, "source-t_x", res.Document.Edges[0].SourceHandle)

	assert.Contains(t, res.Highlights, "t_x")
}

func TestAnalyze_JSONTree(t *testing.T) {
	e := newTestEngine(t, Config{})
	src := NewSource("q.json", []byte(selectTreeJSON), "")
	require.NotEmpty(t, src.AST)

	res, err := e.Analyze(context.Background(), src)
	require.NoError(t, err)
	assert.Contains(t, res.Graph.ColumnNodes, "t_x")
	assert.Contains(t, res.Graph.ColumnNodes, "Result_y")
}

func TestAnalyze_Conditions(t *testing.T) {
	e := newTestEngine(t, Config{Conditions: true})

	res, err := e.Analyze(context.Background(), Source{
		Name: "cond.sql",
		SQL:  "SELECT a.x FROM t AS a WHERE a.z > 1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Graph.EdgesOfKind(lineage.EdgeCondition))
}

func TestAnalyze_WarnsOnCycle(t *testing.T) {
	var buf bytes.Buffer
	e := New(Config{Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	_, err := e.Analyze(context.Background(), Source{Name: "q.sql", SQL: "SELECT x FROM t"})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "cyclic")

	sql := `WITH a AS (SELECT x FROM b), b AS (SELECT x FROM a)
SELECT x FROM b`
	res, err := e.Analyze(context.Background(), Source{Name: "loop.sql", SQL: sql})
	require.NoError(t, err)
	assert.Len(t, res.Document.Tables, 3)
	assert.Contains(t, buf.String(), "table lineage is cyclic")
	assert.Contains(t, buf.String(), "file=loop.sql")
}

func TestAnalyze_ParseError(t *testing.T) {
	e := newTestEngine(t, Config{})
	before := testutil.ToFloat64(analysesTotal.WithLabelValues(statusParseError))

	_, err := e.Analyze(context.Background(), Source{Name: "bad.sql", SQL: "SELECT a FROM t )"})
	require.Error(t, err)

	var parseErr *parser.ParseError
	assert.True(t, errors.As(err, &parseErr), "expected a parse error, got %v", err)
	assert.Equal(t, before+1, testutil.ToFloat64(analysesTotal.WithLabelValues(statusParseError)))
}

func TestAnalyze_InvalidRoot(t *testing.T) {
	e := newTestEngine(t, Config{})

	tests := []struct {
		name string
		src  Source
	}{
		{"empty sql", Source{Name: "empty.sql", SQL: "  \n"}},
		{"parser error tree", Source{Name: "err.json", AST: []byte(`{"message":"Expected SELECT"}`)}},
		{"not a select", Source{Name: "upd.json", AST: []byte(`{"type":"update"}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Analyze(context.Background(), tt.src)
			assert.ErrorIs(t, err, lineage.ErrInvalidRoot)
		})
	}

	_, err := e.Analyze(context.Background(), Source{Name: "err.json", AST: []byte(`{"message":"x"}`)})
	assert.ErrorIs(t, err, ast.ErrNotStatement)
}

func TestAnalyze_Cancelled(t *testing.T) {
	e := newTestEngine(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Analyze(ctx, Source{Name: "q.sql", SQL: "SELECT x FROM t"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("without history", func(t *testing.T) {
		e := newTestEngine(t, Config{})
		src := Source{Name: "q.sql", SQL: "SELECT x FROM t"}
		res, err := e.Analyze(ctx, src)
		require.NoError(t, err)

		snap, err := e.Record(ctx, src, res)
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("with history", func(t *testing.T) {
		store, err := state.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })

		e := newTestEngine(t, Config{History: store})
		src := Source{Name: "q.sql", SQL: "SELECT x FROM t"}
		res, err := e.Analyze(ctx, src)
		require.NoError(t, err)

		snap, err := e.Record(ctx, src, res)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.NotEmpty(t, snap.ID)

		found, err := e.History().FindByHash(ctx, Hash(src))
		require.NoError(t, err)
		assert.Equal(t, snap.ID, found.ID)
		assert.Equal(t, len(res.Graph.Nodes), found.Nodes)
	})
}

func TestNewSource(t *testing.T) {
	assert.Equal(t, "SELECT 1", NewSource("a.sql", []byte("SELECT 1"), "").SQL)
	assert.NotEmpty(t, NewSource("a.JSON", []byte("{}"), "").AST)
	assert.NotEmpty(t, NewSource("a.txt", []byte("{}"), InputJSON).AST)
	assert.Empty(t, NewSource("a.json", []byte("SELECT 1"), InputSQL).AST)
}

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT x FROM t"), 0o600))

	src, err := LoadSource(path, "")
	require.NoError(t, err)
	assert.Equal(t, path, src.Name)
	assert.Equal(t, "SELECT x FROM t", src.SQL)

	_, err = LoadSource(filepath.Join(dir, "missing.sql"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHash(t *testing.T) {
	a := Hash(Source{SQL: "SELECT 1"})
	assert.Len(t, a, 64)
	assert.Equal(t, a, Hash(Source{Name: "other", SQL: "SELECT 1"}))
	assert.NotEqual(t, a, Hash(Source{SQL: "SELECT 2"}))
}
