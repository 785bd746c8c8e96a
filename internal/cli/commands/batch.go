package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlgraph/internal/cli/output"
	"github.com/leapstack-labs/sqlgraph/internal/engine"
)

// BatchOptions holds options for the batch command.
type BatchOptions struct {
	Record bool
}

// batchEntry is the summary of one analysed file.
type batchEntry struct {
	File       string `json:"file" yaml:"file"`
	Hash       string `json:"hash,omitempty" yaml:"hash,omitempty"`
	Tables     int    `json:"tables" yaml:"tables"`
	Columns    int    `json:"columns" yaml:"columns"`
	Edges      int    `json:"edges" yaml:"edges"` // column mapping edges
	SnapshotID string `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	opts := &BatchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Analyse many statements concurrently",
		Long: `Analyse every .sql and .json file named on the command line or found
under the named directories. Files are analysed concurrently (see the
concurrency setting); one failing file does not stop the others.`,
		Example: `  # Analyse a directory of queries
  sqlgraph batch queries/

  # Save every graph to history with 8 workers
  sqlgraph batch queries/ --record --concurrency 8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Record, "record", false, "Save each graph to history")

	return cmd
}

func runBatch(cmd *cobra.Command, paths []string, opts *BatchOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, opts.Record)
	if err != nil {
		return err
	}
	defer cleanup()

	files, err := collectFiles(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .sql or .json files found in %s", strings.Join(paths, ", "))
	}

	sources := make([]engine.Source, 0, len(files))
	entries := make([]batchEntry, len(files))
	for i, f := range files {
		entries[i].File = f
		src, err := engine.LoadSource(f, cmdCtx.Cfg.InputKind())
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	items, err := cmdCtx.Engine.AnalyzeAll(cmd.Context(), sources)
	if err != nil {
		return err
	}

	failed := 0
	for i, item := range items {
		e := &entries[i]
		if item.Err != nil {
			failed++
			e.Error = item.Err.Error()
			cmdCtx.Logger.Warn("analysis failed", "file", e.File, "error", item.Err)
			continue
		}
		g := item.Result.Graph
		e.Hash = item.Result.Hash
		e.Tables = len(g.TableNodes)
		e.Columns = len(g.ColumnNodes)
		e.Edges = len(item.Result.Document.Edges)

		if opts.Record {
			snap, err := cmdCtx.Engine.Record(cmd.Context(), item.Source, item.Result)
			if err != nil {
				return err
			}
			e.SnapshotID = snap.ID
		}
	}

	if err := renderBatch(cmdCtx.Renderer, entries); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(entries))
	}
	return nil
}

// collectFiles expands directories to the .sql and .json files below them.
// Files named directly are kept whatever their extension.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".sql", ".json":
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func renderBatch(r *output.Renderer, entries []batchEntry) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(entries)
	case output.ModeYAML:
		return r.YAML(entries)
	}

	rows := make([][]string, 0, len(entries))
	ok := 0
	for _, e := range entries {
		status := "ok"
		if e.Error != "" {
			status = e.Error
		} else {
			ok++
		}
		rows = append(rows, []string{
			e.File,
			strconv.Itoa(e.Tables),
			strconv.Itoa(e.Columns),
			strconv.Itoa(e.Edges),
			status,
		})
	}

	r.Header(1, "Batch Analysis")
	r.Println("")
	r.Table([]string{"File", "Tables", "Columns", "Edges", "Status"}, rows)
	r.Println("")
	r.Println(r.Muted(fmt.Sprintf("%d of %d files analysed", ok, len(entries))))
	return nil
}
