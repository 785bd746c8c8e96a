package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlgraph/internal/cli/output"
	"github.com/leapstack-labs/sqlgraph/internal/engine"
	"github.com/leapstack-labs/sqlgraph/pkg/export"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// renderResult writes an analysis in the renderer's mode. Structured modes
// write the export document; text and markdown summarise it as tables.
func renderResult(r *output.Renderer, res *engine.Result) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return export.WriteJSON(r.Writer(), res.Document)
	case output.ModeYAML:
		return export.WriteYAML(r.Writer(), res.Document)
	case output.ModeDOT:
		return export.WriteDOT(r.Writer(), res.Graph)
	case output.ModeMermaid:
		return export.WriteMermaid(r.Writer(), res.Graph)
	}

	g := res.Graph
	r.Header(1, "Lineage: "+res.Name)
	r.Println("")

	r.Header(2, "Tables")
	r.Table([]string{"Table", "Kind", "Columns"}, tableRows(g))
	r.Println("")

	r.Header(2, "Column Lineage")
	r.Table([]string{"Source", "Target"}, edgeRows(g, lineage.EdgeColumnMapping))

	if conds := edgeRows(g, lineage.EdgeCondition); len(conds) > 0 {
		r.Println("")
		r.Header(2, "Conditions")
		r.Table([]string{"Column", "Filters"}, conds)
	}

	r.Println("")
	summary := fmt.Sprintf("%d tables, %d columns, %d edges",
		len(g.TableNodes), len(g.ColumnNodes), len(g.Edges))
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Summary", summary))
		return nil
	}
	r.Println(r.Muted(summary))
	return nil
}

func tableRows(g *lineage.Graph) [][]string {
	var rows [][]string
	for _, t := range g.Tables() {
		var cols []string
		for _, c := range g.ColumnsOf(t.ID) {
			if c.Name != lineage.ConditionColumn {
				cols = append(cols, c.Name)
			}
		}
		rows = append(rows, []string{t.Name, tableKind(t), strings.Join(cols, ", ")})
	}
	return rows
}

func tableKind(n *lineage.Node) string {
	kind := output.Title(string(n.Type))
	if n.SetOperation != "" {
		kind += " (" + strings.ToUpper(string(n.SetOperation)) + ")"
	}
	return kind
}

func edgeRows(g *lineage.Graph, kind lineage.EdgeKind) [][]string {
	var rows [][]string
	for _, e := range g.EdgesOfKind(kind) {
		if !e.HasHandles() {
			continue
		}
		target := e.TargetColumn()
		if kind == lineage.EdgeCondition {
			target = lineage.TableName(e.Target)
		}
		rows = append(rows, []string{e.SourceColumn(), target})
	}
	return rows
}
