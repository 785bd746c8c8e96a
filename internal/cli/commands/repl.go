package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlgraph/internal/cli/output"
	"github.com/leapstack-labs/sqlgraph/internal/engine"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

const (
	replPrompt     = "sqlgraph> "
	replContPrompt = "     ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Explore lineage interactively",
		Long: `Start an interactive shell. Type a SELECT statement ending with a
semicolon to see its lineage; the last graph can then be traced with
.trace <column>.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "repl_history")
	if err := os.MkdirAll(filepath.Dir(historyFile), 0o750); err != nil {
		historyFile = ""
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	session := newREPLSession(cmdCtx.Engine, cmdCtx.Renderer)

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "sqlgraph lineage REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if session.handle(cmd.Context(), line) {
			return nil
		}
		if session.pending() {
			rl.SetPrompt(replContPrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// replSession holds the REPL state between lines.
type replSession struct {
	engine *engine.Engine
	r      *output.Renderer
	buf    strings.Builder
	last   *engine.Result
	count  int
}

func newREPLSession(eng *engine.Engine, r *output.Renderer) *replSession {
	return &replSession{engine: eng, r: r}
}

func (s *replSession) reset() { s.buf.Reset() }

func (s *replSession) pending() bool { return s.buf.Len() > 0 }

// handle processes one input line and reports whether the session should
// end. Statements accumulate until a line ends with a semicolon.
func (s *replSession) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !s.pending() && strings.HasPrefix(line, ".") {
		return s.command(line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}

	sql := strings.TrimSuffix(s.buf.String(), ";")
	s.buf.Reset()
	s.count++

	res, err := s.engine.Analyze(ctx, engine.Source{Name: fmt.Sprintf("statement %d", s.count), SQL: sql})
	if err != nil {
		s.error(err)
		return false
	}
	s.last = res
	if err := renderResult(s.r, res); err != nil {
		s.error(err)
	}
	s.r.Println("")
	return false
}

func (s *replSession) command(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.r.Writer())

	case ".trace":
		if len(parts) < 2 {
			s.error(errors.New("usage: .trace <column>"))
			return false
		}
		if s.last == nil {
			s.error(errors.New("no graph yet: enter a statement first"))
			return false
		}
		trace, err := lineage.Related(s.last.Graph, parts[1])
		if err != nil {
			s.error(err)
			return false
		}
		if err := renderTrace(s.r, trace, &TraceOptions{Upstream: true, Downstream: true}); err != nil {
			s.error(err)
		}

	case ".columns":
		if s.last == nil {
			s.error(errors.New("no graph yet: enter a statement first"))
			return false
		}
		for _, n := range s.last.Graph.Nodes {
			if n.Type == lineage.KindColumn && n.Name != lineage.ConditionColumn {
				s.r.Println(n.ID)
			}
		}

	default:
		s.error(fmt.Errorf("unknown command: %s (type .help for commands)", parts[0]))
	}
	return false
}

func (s *replSession) error(err error) {
	_, _ = fmt.Fprintf(s.r.ErrWriter(), "Error: %v\n", err)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .columns         List the column ids of the last graph
  .trace <column>  Trace a column of the last graph
  .quit / .exit    Exit the REPL

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".columns"),
		readline.PcItem(".trace"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
