package output

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := map[string]OutputMode{
		"":         ModeAuto,
		"auto":     ModeAuto,
		"TEXT":     ModeText,
		"md":       ModeMarkdown,
		"markdown": ModeMarkdown,
		"json":     ModeJSON,
		"yml":      ModeYAML,
		"dot":      ModeDOT,
		"mermaid":  ModeMermaid,
		"html":     ModeAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, Mode(in), "Mode(%q)", in)
	}
}

func TestEffectiveMode(t *testing.T) {
	r, _, _ := newTestRenderer(ModeAuto, true)
	assert.Equal(t, ModeText, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeAuto, false)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeJSON, true)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeAuto, false)

	r.Header(2, "Tables")
	r.Table([]string{"Table", "Columns"}, [][]string{{"orders", "3"}, {"Result", "2"}})
	r.Success("done")
	r.Warning("careful")

	text := out.String()
	assert.Contains(t, text, "## Tables")
	assert.Contains(t, text, "| Table | Columns |")
	assert.Contains(t, text, "| orders | 3 |")
	assert.Contains(t, text, "done")
	assert.False(t, ansiPattern.MatchString(text))
	assert.Contains(t, errOut.String(), "Warning: careful")
}

func TestRenderer_Text(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)

	r.Header(1, "Lineage")
	r.Table([]string{"Column"}, [][]string{{"Result_y"}})
	r.Table([]string{"Column"}, nil)

	text := out.String()
	assert.Contains(t, text, "Lineage")
	assert.Contains(t, text, "Result_y")
	assert.Contains(t, text, "┌")
	assert.Contains(t, text, "(none)")
}

func TestRenderer_Encoders(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"nodes": 3}))
	assert.Equal(t, "{\n  \"nodes\": 3\n}\n", out.String())

	r, out, _ = newTestRenderer(ModeYAML, false)
	require.NoError(t, r.YAML(map[string]any{"edges": []string{"a", "b"}}))
	assert.Equal(t, "edges:\n  - a\n  - b\n", out.String())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "# Graph", FormatHeader(0, "Graph"))
	assert.Equal(t, "### Graph", FormatHeader(3, "Graph"))
	assert.Equal(t, "- **Nodes**: 4", FormatKeyValue("Nodes", "4"))
	assert.Equal(t, "Column Mapping", Title("column_mapping"))
	assert.True(t, strings.HasPrefix(Title("table_TO_table"), "Table"))
}
