package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlgraph/internal/cli/config"
	"github.com/leapstack-labs/sqlgraph/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the lineage API over HTTP",
		Long: `Start an HTTP server exposing lineage analysis.

Endpoints:
  POST /api/analyze          Analyze a statement (recorded to history)
  GET  /api/graph            Latest graph of the watched file
  GET  /api/trace/{column}   Trace a column
  GET  /api/history          Saved snapshots
  GET  /events               Live updates (server-sent events)
  GET  /metrics              Prometheus metrics

With a file argument the file is analyzed on start and, with --watch, again
on every change.`,
		Example: `  # Serve the API only
  sqlgraph serve

  # Watch a query and push updates to the browser
  sqlgraph serve query.sql --port 9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runServe,
	}

	// Values are read back through the config loader.
	cmd.Flags().Int("port", config.DefaultPort, "Port to serve on")
	cmd.Flags().Bool("watch", true, "Re-analyze the file when it changes")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	srvCfg := server.Config{
		Engine: cmdCtx.Engine,
		Port:   cfg.Serve.Port,
		Input:  cfg.InputKind(),
		Logger: cmdCtx.Logger,
	}
	if len(args) == 1 {
		if !cfg.Serve.Watch {
			cmdCtx.Logger.Warn("file given with --watch=false; it will not be analyzed", "file", args[0])
		} else {
			srvCfg.WatchFile = args[0]
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://localhost:%d\n", cfg.Serve.Port)
	if srvCfg.WatchFile != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", srvCfg.WatchFile)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	return server.New(srvCfg).Serve(cmd.Context())
}
