package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgraph/internal/cli/testutil"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	b := testutil.WriteFile(t, dir, "b.sql", "SELECT 1")
	a := testutil.WriteFile(t, sub, "a.JSON", "{}")
	testutil.WriteFile(t, dir, "notes.txt", "skip me")
	direct := testutil.WriteFile(t, t.TempDir(), "query.txt", "SELECT 1")

	files, err := collectFiles([]string{dir, direct})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a, direct}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := useConfig(t, map[string]string{"OUTPUT": "json", "CONCURRENCY": "2"})
	testutil.WriteFile(t, dir, "a.sql", "SELECT a FROM t")
	testutil.WriteFile(t, dir, "b.sql", "SELECT x, y FROM u")

	out, _, err := execute(t, NewBatchCommand(), "", dir, "--record")
	require.NoError(t, err)

	var entries []batchEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(dir, "a.sql"), entries[0].File)
	// table-to-table edges are not counted
	assert.Equal(t, 1, entries[0].Edges)
	assert.Equal(t, 2, entries[1].Edges)
	assert.Equal(t, 2, entries[1].Tables)
	assert.Equal(t, 4, entries[1].Columns)
	assert.NotEmpty(t, entries[0].SnapshotID)
	assert.NotEmpty(t, entries[1].Hash)
}

func TestBatchCommand_Failures(t *testing.T) {
	dir := useConfig(t, nil)
	testutil.WriteFile(t, dir, "good.sql", "SELECT a FROM t")
	testutil.WriteFile(t, dir, "bad.sql", "SELECT FROM")

	out, _, err := execute(t, NewBatchCommand(), "", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out, "# Batch Analysis")
	assert.Contains(t, out, "1 of 2 files analysed")
}

func TestBatchCommand_NoFiles(t *testing.T) {
	dir := useConfig(t, nil)

	_, _, err := execute(t, NewBatchCommand(), "", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .sql or .json files")
}
