package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/sqlgraph/internal/cli/config"
	"github.com/leapstack-labs/sqlgraph/internal/cli/output"
	"github.com/leapstack-labs/sqlgraph/internal/engine"
	"github.com/leapstack-labs/sqlgraph/internal/state"
)

var errNoInput = errors.New("no input: pass a file or pipe a statement on stdin")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	History  state.Store
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an engine and renderer.
// With history set the snapshot store is opened and attached to the engine.
// The cleanup function must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, history bool) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	ecfg := cfg.EngineConfig()
	ecfg.Logger = logger

	var store state.Store
	if history {
		s, err := state.Open(cfg.StatePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		logger.Debug("opened history", "path", cfg.StatePath)
		store = s
		ecfg.History = s
	}

	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   engine.New(ecfg),
		History:  store,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}, cleanup, nil
}

// getConfig returns the loaded configuration, or defaults when the command
// runs without the root command (as in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// readSource reads the statement named by the first argument, or standard
// input when there is none or it is "-".
func readSource(cmd *cobra.Command, args []string, input engine.Input) (engine.Source, error) {
	if len(args) > 0 && args[0] != "-" {
		return engine.LoadSource(args[0], input)
	}
	if len(args) == 0 && stdinIsTerminal(cmd) {
		return engine.Source{}, errNoInput
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return engine.Source{}, fmt.Errorf("read stdin: %w", err)
	}
	return engine.NewSource("stdin", data, input), nil
}

// stdinIsTerminal reports whether standard input is interactive.
func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}
