package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeAll(t *testing.T) {
	e := newTestEngine(t, Config{Concurrency: 2})

	var sources []Source
	for i := range 6 {
		sources = append(sources, Source{
			Name: fmt.Sprintf("q%d.sql", i),
			SQL:  fmt.Sprintf("SELECT c%d FROM t%d", i, i),
		})
	}
	sources = append(sources, Source{Name: "bad.sql", SQL: "SELECT FROM"})

	items, err := e.AnalyzeAll(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, items, len(sources))

	for i, item := range items[:6] {
		assert.Equal(t, sources[i].Name, item.Source.Name)
		require.NoError(t, item.Err)
		assert.Contains(t, item.Result.Graph.ColumnNodes, fmt.Sprintf("t%d_c%d", i, i))
	}

	last := items[len(items)-1]
	assert.Error(t, last.Err)
	assert.Nil(t, last.Result)
}

func TestAnalyzeAll_Cancelled(t *testing.T) {
	e := newTestEngine(t, Config{Concurrency: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := e.AnalyzeAll(ctx, []Source{{Name: "q.sql", SQL: "SELECT x FROM t"}})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, items, 1)
	assert.Error(t, items[0].Err)
}

func TestAnalyzeAll_Empty(t *testing.T) {
	e := newTestEngine(t, Config{})
	items, err := e.AnalyzeAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
