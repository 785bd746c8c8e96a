package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgraph/internal/cli/config"
	"github.com/leapstack-labs/sqlgraph/internal/cli/testutil"
	"github.com/leapstack-labs/sqlgraph/internal/engine"
)

func newTestSession(t *testing.T) (*replSession, *testutil.TestRenderer) {
	t.Helper()
	tr := testutil.NewTestRendererMarkdown()
	return newREPLSession(engine.New(config.Default().EngineConfig()), tr.Renderer), tr
}

func TestREPLSession_MultiLineStatement(t *testing.T) {
	s, tr := newTestSession(t)
	ctx := context.Background()

	assert.False(t, s.handle(ctx, "SELECT a.x AS y"))
	assert.True(t, s.pending())
	assert.Empty(t, tr.Output())

	assert.False(t, s.handle(ctx, "FROM t AS a;"))
	assert.False(t, s.pending())
	assert.Contains(t, tr.Output(), "# Lineage: statement 1")
	assert.Contains(t, tr.Output(), "| t_x | Result_y |")
	require.NotNil(t, s.last)
}

func TestREPLSession_Commands(t *testing.T) {
	s, tr := newTestSession(t)
	ctx := context.Background()

	s.handle(ctx, ".trace Result_y")
	assert.Contains(t, tr.ErrorOutput(), "no graph yet")

	s.handle(ctx, "SELECT a.x AS y FROM t AS a;")
	tr.Reset()

	s.handle(ctx, ".trace Result_y")
	assert.Contains(t, tr.Output(), "# Lineage for: Result_y")
	assert.Contains(t, tr.Output(), "- t_x")

	tr.Reset()
	s.handle(ctx, ".columns")
	assert.Contains(t, tr.Output(), "t_x")
	assert.Contains(t, tr.Output(), "Result_y")

	tr.Reset()
	s.handle(ctx, ".trace")
	assert.Contains(t, tr.ErrorOutput(), "usage: .trace <column>")

	s.handle(ctx, ".trace nope_x")
	assert.Contains(t, tr.ErrorOutput(), "unknown column")

	s.handle(ctx, ".bogus")
	assert.Contains(t, tr.ErrorOutput(), "unknown command: .bogus")

	tr.Reset()
	s.handle(ctx, ".help")
	assert.Contains(t, tr.Output(), ".trace <column>")

	assert.True(t, s.handle(ctx, ".quit"))
	assert.True(t, s.handle(ctx, ".EXIT"))
}

func TestREPLSession_Errors(t *testing.T) {
	s, tr := newTestSession(t)

	assert.False(t, s.handle(context.Background(), "SELECT FROM;"))
	assert.Contains(t, tr.ErrorOutput(), "Error:")
	assert.Nil(t, s.last)
}

func TestREPLCompleter(t *testing.T) {
	pc := replCompleter()

	var names []string
	for _, child := range pc.GetChildren() {
		names = append(names, string(child.GetName()))
	}
	assert.Contains(t, names, ".trace ")
	assert.Contains(t, names, ".quit ")
}
