package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlgraph/internal/cli/output"
	"github.com/leapstack-labs/sqlgraph/internal/state"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved lineage snapshots",
		Long: `List, show and delete the lineage graphs saved with --record or
through the HTTP API. Snapshots live in the state database (--state).`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryDeleteCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved snapshots, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			snaps, err := cmdCtx.History.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderSnapshots(cmdCtx.Renderer, snaps)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of snapshots (0 for all)")

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the graph of a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := cmdCtx.History.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderSnapshot(cmdCtx.Renderer, snap)
		},
	}
}

func newHistoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved snapshot",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.History.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("Deleted snapshot " + args[0])
			return nil
		},
	}
}

func renderSnapshots(r *output.Renderer, snaps []*state.Snapshot) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(snaps)
	case output.ModeYAML:
		return r.YAML(snaps)
	}

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.ID,
			s.Name,
			strconv.Itoa(s.Nodes),
			strconv.Itoa(s.Edges),
			s.CreatedAt.Local().Format(time.DateTime),
		})
	}

	r.Header(1, "History")
	r.Println("")
	r.Table([]string{"ID", "Name", "Nodes", "Edges", "Created"}, rows)
	return nil
}

func renderSnapshot(r *output.Renderer, snap *state.Snapshot) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(snap)
	case output.ModeYAML:
		return r.YAML(snap)
	}

	r.Header(1, "Snapshot "+snap.ID)
	r.Println("")
	r.Println(output.FormatKeyValue("Name", snap.Name))
	r.Println(output.FormatKeyValue("Created", snap.CreatedAt.Local().Format(time.DateTime)))
	r.Println(output.FormatKeyValue("Hash", snap.SQLHash))
	r.Println("")
	if snap.SQL != "" {
		r.Header(2, "Statement")
		r.Println(snap.SQL)
		r.Println("")
	}

	g := snap.Graph
	if g == nil {
		r.Warning("snapshot has no graph")
		return nil
	}

	r.Header(2, "Tables")
	r.Table([]string{"Table", "Kind", "Columns"}, tableRows(g))
	r.Println("")
	r.Header(2, "Column Lineage")
	r.Table([]string{"Source", "Target"}, edgeRows(g, lineage.EdgeColumnMapping))
	r.Println("")
	r.Println(r.Muted(fmt.Sprintf("%d nodes, %d edges", snap.Nodes, snap.Edges)))
	return nil
}
