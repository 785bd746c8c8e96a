package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlgraph/internal/cli/output"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// NewHighlightCommand creates the highlight command.
func NewHighlightCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highlight [file]",
		Short: "Map columns to their text ranges in the statement",
		Long: `List, for every column of the lineage graph, the ranges of the statement
text that reference or define it. Editors use this to highlight a column's
occurrences when it is selected in the diagram.

Ranges are line:column (1-based) with byte offsets in brackets.`,
		Example: `  sqlgraph highlight query.sql
  sqlgraph highlight query.sql -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHighlight,
	}
	return cmd
}

func runHighlight(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	src, err := readSource(cmd, args, cmdCtx.Cfg.InputKind())
	if err != nil {
		return err
	}
	res, err := cmdCtx.Engine.Analyze(cmd.Context(), src)
	if err != nil {
		return err
	}

	return renderHighlights(cmdCtx.Renderer, res.Highlights)
}

func renderHighlights(r *output.Renderer, highlights map[string][]token.Span) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(highlights)
	case output.ModeYAML:
		return r.YAML(highlights)
	}

	ids := make([]string, 0, len(highlights))
	for id := range highlights {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		for _, span := range highlights[id] {
			rows = append(rows, []string{id, formatSpan(span)})
		}
	}

	r.Header(1, "Highlights")
	r.Println("")
	r.Table([]string{"Column", "Range"}, rows)
	return nil
}

func formatSpan(s token.Span) string {
	return fmt.Sprintf("%d:%d-%d:%d [%d,%d)",
		s.Start.Line, s.Start.Column, s.End.Line, s.End.Column, s.Start.Offset, s.End.Offset)
}
