package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// WriteMermaid writes g as a Mermaid flowchart with one subgraph per table.
func WriteMermaid(w io.Writer, g *lineage.Graph) error {
	var sb strings.Builder
	sb.WriteString("flowchart LR\n")

	for _, t := range g.Tables() {
		sb.WriteString(fmt.Sprintf("    subgraph %s[%s]\n", mermaidID(t.ID), mermaidLabel(t.Name)))
		for _, c := range g.ColumnsOf(t.ID) {
			sb.WriteString(fmt.Sprintf("        %s[%s]\n", mermaidID(c.ID), mermaidLabel(c.Name)))
		}
		sb.WriteString("    end\n")
	}

	for _, e := range g.Edges {
		switch e.Type {
		case lineage.EdgeColumnMapping:
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(e.SourceColumn()), mermaidID(e.TargetColumn())))
		case lineage.EdgeCondition:
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", mermaidID(e.SourceColumn()), mermaidID(e.TargetColumn())))
		}
	}

	for _, t := range g.Tables() {
		if t.IsCTE {
			sb.WriteString(fmt.Sprintf("    style %s fill:#dcfce7\n", mermaidID(t.ID)))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// mermaidID maps an id onto the characters Mermaid accepts in node ids.
func mermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func mermaidLabel(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "#quot;") + `"`
}
