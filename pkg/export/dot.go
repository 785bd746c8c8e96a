package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// Cluster colours by table kind.
var dotColors = map[lineage.NodeKind]string{
	lineage.KindTable: "#dbeafe",
	lineage.KindCTE:   "#dcfce7",
}

const dotResultColor = "#fef3c7"

// WriteDOT writes g as a Graphviz digraph. Every table is a cluster holding
// its columns; column edges connect columns and table edges connect
// clusters through an invisible anchor node.
func WriteDOT(w io.Writer, g *lineage.Graph) error {
	var sb strings.Builder

	sb.WriteString("digraph lineage {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  compound=true;\n")
	sb.WriteString("  node [shape=box, style=filled, fillcolor=\"#ffffff\", fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")

	clusters := make(map[string]string)
	for i, t := range g.Tables() {
		name := fmt.Sprintf("cluster_%d", i)
		clusters[t.ID] = name

		color := dotColors[t.Type]
		if t.SetOperation != "" || strings.HasPrefix(t.Name, lineage.DefaultResultName) {
			color = dotResultColor
		}

		label := t.Name
		if t.SetOperation != "" {
			label += " (" + strings.ToUpper(string(t.SetOperation)) + ")"
		}

		sb.WriteString(fmt.Sprintf("  subgraph %s {\n", name))
		sb.WriteString(fmt.Sprintf("    label=%s;\n", dotQuote(label)))
		sb.WriteString("    style=filled;\n")
		sb.WriteString(fmt.Sprintf("    fillcolor=%s;\n", dotQuote(color)))
		sb.WriteString(fmt.Sprintf("    %s [shape=point, style=invis];\n", dotQuote(t.ID)))
		for _, c := range g.ColumnsOf(t.ID) {
			sb.WriteString(fmt.Sprintf("    %s [label=%s];\n", dotQuote(c.ID), dotQuote(c.Name)))
		}
		sb.WriteString("  }\n")
	}

	for _, e := range g.Edges {
		switch e.Type {
		case lineage.EdgeColumnMapping:
			sb.WriteString(fmt.Sprintf("  %s -> %s;\n", dotQuote(e.SourceColumn()), dotQuote(e.TargetColumn())))
		case lineage.EdgeCondition:
			sb.WriteString(fmt.Sprintf("  %s -> %s [style=dotted, color=\"#9ca3af\"];\n",
				dotQuote(e.SourceColumn()), dotQuote(e.TargetColumn())))
		case lineage.EdgeTableToTable:
			src, okSrc := clusters[e.Source]
			dst, okDst := clusters[e.Target]
			if !okSrc || !okDst {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s -> %s [style=dashed, ltail=%s, lhead=%s];\n",
				dotQuote(e.Source), dotQuote(e.Target), src, dst))
		}
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// dotQuote returns s as a double-quoted DOT identifier.
func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
