package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	Record bool
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph [file]",
		Short: "Build the column lineage graph of a statement",
		Long: `Build the table and column lineage graph of a SELECT statement.

The statement is read from the file argument or from stdin. Files ending in
.json (or any input with --input json) are read as a JSON syntax tree.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown
  - --output json|yaml: the laid-out diagram document
  - --output dot|mermaid: a diagram for Graphviz or Mermaid`,
		Example: `  # Show lineage for a query
  sqlgraph graph query.sql

  # Pipe a statement in
  echo "SELECT o.id FROM orders o" | sqlgraph graph

  # Render with Graphviz
  sqlgraph graph query.sql -o dot | dot -Tsvg > lineage.svg

  # Include WHERE / JOIN ON / HAVING columns and save to history
  sqlgraph graph query.sql --conditions --record`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Record, "record", false, "Save the graph to history")

	return cmd
}

func runGraph(cmd *cobra.Command, args []string, opts *GraphOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, opts.Record)
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

	if opts.Record {
		snap, err := cmdCtx.Engine.Record(cmd.Context(), src, res)
		if err != nil {
			return err
		}
		cmdCtx.Logger.Info("recorded snapshot", "id", snap.ID, "file", src.Name)
		_, _ = fmt.Fprintf(cmdCtx.Renderer.ErrWriter(), "Saved snapshot %s\n", snap.ID)
	}

	return renderResult(cmdCtx.Renderer, res)
}
