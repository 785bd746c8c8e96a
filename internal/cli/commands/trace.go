package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlgraph/internal/cli/output"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// TraceOptions holds options for the trace command.
type TraceOptions struct {
	Upstream   bool
	Downstream bool
	Snapshot   string
}

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	opts := &TraceOptions{}

	cmd := &cobra.Command{
		Use:   "trace <column> [file]",
		Short: "Trace the lineage of one column",
		Long: `Show every column a column is derived from and every column derived
from it.

Columns are named <table>_<column>, as in the graph output: the final
projection is Result_<column>, a CTE column is <cte>_<column>.`,
		Example: `  # Where does the revenue column come from?
  sqlgraph trace Result_revenue query.sql

  # What depends on orders.amount?
  sqlgraph trace orders_amount query.sql --upstream=false

  # Trace inside a saved snapshot
  sqlgraph trace Result_revenue --snapshot 6f1c...`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Upstream, "upstream", true, "Include upstream columns")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", true, "Include downstream columns")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "Trace a saved snapshot instead of a file")

	return cmd
}

func runTrace(cmd *cobra.Command, column string, args []string, opts *TraceOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, opts.Snapshot != "")
	if err != nil {
		return err
	}
	defer cleanup()

	var g *lineage.Graph
	if opts.Snapshot != "" {
		snap, err := cmdCtx.History.Get(cmd.Context(), opts.Snapshot)
		if err != nil {
			return err
		}
		g = snap.Graph
	} else {
		src, err := readSource(cmd, args, cmdCtx.Cfg.InputKind())
		if err != nil {
			return err
		}
		res, err := cmdCtx.Engine.Analyze(cmd.Context(), src)
		if err != nil {
			return err
		}
		g = res.Graph
	}

	trace, err := lineage.Related(g, column)
	if err != nil {
		return err
	}
	if !opts.Upstream {
		trace.Upstream = nil
	}
	if !opts.Downstream {
		trace.Downstream = nil
	}

	return renderTrace(cmdCtx.Renderer, trace, opts)
}

func renderTrace(r *output.Renderer, trace *lineage.Trace, opts *TraceOptions) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(trace)
	case output.ModeYAML:
		return r.YAML(trace)
	}

	r.Header(1, "Lineage for: "+trace.Column)
	r.Println("")

	list := func(title string, ids []string, ends string, endIDs []string) {
		r.Header(2, fmt.Sprintf("%s (%d)", title, len(ids)))
		for _, id := range ids {
			r.Printf("- %s\n", id)
		}
		if len(endIDs) > 0 {
			r.Println(r.Muted(ends + ": " + strings.Join(endIDs, ", ")))
		}
		r.Println("")
	}
	if opts.Upstream {
		list("Upstream", trace.Upstream, "origins", trace.Origins)
	}
	if opts.Downstream {
		list("Downstream", trace.Downstream, "sinks", trace.Sinks)
	}
	r.Println(r.Muted(fmt.Sprintf("%d mapping edges on these paths", len(trace.Edges))))
	return nil
}
