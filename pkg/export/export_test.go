package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlgraph/internal/testutil"
	"github.com/leapstack-labs/sqlgraph/pkg/layout"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

func document(t *testing.T, sql string) *Document {
	t.Helper()
	g, err := lineage.Build(testutil.MustParse(t, sql), lineage.Options{Conditions: true})
	require.NoError(t, err)
	return NewDocument(g, layout.DefaultOptions())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"YAML", FormatYAML},
		{"yml", FormatYAML},
		{" dot ", FormatDOT},
		{"graphviz", FormatDOT},
		{"mermaid", FormatMermaid},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("png")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	doc := document(t, "SELECT a.x FROM t AS a")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, doc))

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Tables, 2)
	require.Len(t, decoded.Edges, 1)
	assert.Equal(t, "source-t_x", decoded.Edges[0].SourceHandle)
	require.NotNil(t, decoded.Graph)
	assert.Contains(t, decoded.Graph.ColumnNodes, "Result_x")
	assert.Contains(t, buf.String(), `"type": "displayTable"`)
}

func TestWriteYAML(t *testing.T) {
	doc := document(t, "SELECT a.x FROM t AS a")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, doc))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "tables")
	assert.Contains(t, decoded, "edges")
	assert.Contains(t, buf.String(), "tableName: Result")
	assert.Contains(t, buf.String(), "sourceHandle: source-t_x")
}

func TestWriteDOT(t *testing.T) {
	doc := document(t, `WITH c AS (SELECT x FROM t) SELECT x FROM c WHERE c.x > 1`)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatDOT, doc))
	out := buf.String()

	assert.Contains(t, out, "digraph lineage {")
	assert.Contains(t, out, `label="c";`)
	assert.Contains(t, out, `"t_x" -> "c_x";`)
	assert.Contains(t, out, `"c_x" -> "Result_x";`)
	assert.Contains(t, out, `"c_x" -> "Result__condition" [style=dotted`)
	assert.Contains(t, out, `"table_t" -> "table_c" [style=dashed`)
	assert.Contains(t, out, `fillcolor="#dcfce7"`)
}

func TestWriteMermaid(t *testing.T) {
	doc := document(t, "SELECT a FROM t1 UNION SELECT a FROM t2")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatMermaid, doc))
	out := buf.String()

	assert.Contains(t, out, "flowchart LR\n")
	assert.Contains(t, out, `subgraph table_Result["Result"]`)
	assert.Contains(t, out, "t1_a --> Result_a")
	assert.Contains(t, out, "t2_a --> Result_a")
}

func TestMermaidID(t *testing.T) {
	assert.Equal(t, "table_my_table_x", mermaidID("table_my-table.x"))
}

func TestDotQuote(t *testing.T) {
	assert.Equal(t, `"a\"b\\c"`, dotQuote(`a"b\c`))
}
