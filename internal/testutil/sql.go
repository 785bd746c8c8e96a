package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/parser"
)

// MustParse parses sql or fails the test.
func MustParse(t testing.TB, sql string) *ast.Select {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err, "parse %q", sql)
	return stmt
}
