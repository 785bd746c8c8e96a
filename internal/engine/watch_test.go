package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watchOutcome struct {
	res *Result
	err error
}

func nextOutcome(t *testing.T, ch <-chan watchOutcome) watchOutcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for analysis")
		return watchOutcome{}
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT a FROM t"), 0o600))

	e := newTestEngine(t, Config{Debounce: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcomes := make(chan watchOutcome, 16)
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, path, "", func(res *Result, err error) {
			outcomes <- watchOutcome{res, err}
		})
	}()

	first := nextOutcome(t, outcomes)
	require.NoError(t, first.err)
	assert.Contains(t, first.res.Graph.ColumnNodes, "t_a")

	require.NoError(t, os.WriteFile(path, []byte("SELECT b FROM u"), 0o600))

	// Skip intermediate states of the rewrite, such as a truncated file.
	deadline := time.After(5 * time.Second)
	for {
		var out watchOutcome
		select {
		case out = <-outcomes:
		case <-deadline:
			t.Fatal("timed out waiting for re-analysis")
		}
		if out.err != nil {
			continue
		}
		if _, ok := out.res.Graph.Node("table_u"); ok {
			assert.Contains(t, out.res.Graph.ColumnNodes, "u_b")
			break
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_ReportsErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT FROM"), 0o600))

	e := newTestEngine(t, Config{Debounce: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcomes := make(chan watchOutcome, 16)
	go func() {
		_ = e.Watch(ctx, path, "", func(res *Result, err error) {
			outcomes <- watchOutcome{res, err}
		})
	}()

	out := nextOutcome(t, outcomes)
	assert.Error(t, out.err)
	assert.Nil(t, out.res)
}

func TestWatch_MissingDirectory(t *testing.T) {
	e := newTestEngine(t, Config{})
	err := e.Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "q.sql"), "", func(*Result, error) {})
	assert.Error(t, err)
}
