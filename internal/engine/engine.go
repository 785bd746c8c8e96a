// Package engine drives lineage analysis: it turns SQL text or a JSON syntax
// tree into a laid-out lineage graph, analyses batches concurrently, watches
// files for changes and records results in the history store.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlgraph/internal/state"
	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/export"
	"github.com/leapstack-labs/sqlgraph/pkg/highlight"
	"github.com/leapstack-labs/sqlgraph/pkg/layout"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
	"github.com/leapstack-labs/sqlgraph/pkg/parser"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// Input is the kind of text a source holds.
type Input string

// Inputs.
const (
	InputSQL  Input = "sql"
	InputJSON Input = "json"
)

// Source is one statement to analyse. When AST is set it is decoded as a
// JSON syntax tree and SQL is only used for highlighting.
type Source struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
	AST  []byte `json:"-"`
}

// Result is the outcome of analysing one source.
type Result struct {
	Name       string                  `json:"name"`
	Hash       string                  `json:"hash"`
	Statement  *ast.Select             `json:"-"`
	Graph      *lineage.Graph          `json:"-"`
	Document   *export.Document        `json:"document"`
	Highlights map[string][]token.Span `json:"highlights"`
	Duration   time.Duration           `json:"duration"`
}

// Config holds engine configuration.
type Config struct {
	// Conditions adds condition edges for WHERE, HAVING and JOIN ON columns.
	Conditions bool
	// Concurrency bounds AnalyzeAll. Defaults to 4.
	Concurrency int
	// Layout positions the diagram. Zero value uses layout.DefaultOptions.
	Layout layout.Options
	// Debounce delays re-analysis after a watched file changes. Defaults to
	// 100ms.
	Debounce time.Duration
	// History records results when set (optional).
	History state.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine analyses SQL sources. It holds no per-analysis state, so one engine
// serves concurrent callers.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	if cfg.Layout == (layout.Options{}) {
		cfg.Layout = layout.DefaultOptions()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// History returns the configured history store, or nil.
func (e *Engine) History() state.Store {
	return e.cfg.History
}

// Parse turns a source into a statement.
func (e *Engine) Parse(src Source) (*ast.Select, error) {
	if len(src.AST) > 0 {
		stmt, err := ast.DecodeJSON(src.AST)
		if errors.Is(err, ast.ErrNotStatement) {
			return nil, fmt.Errorf("%s: %w: %w", src.Name, lineage.ErrInvalidRoot, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		return stmt, nil
	}

	if strings.TrimSpace(src.SQL) == "" {
		return nil, fmt.Errorf("%s: empty input: %w", src.Name, lineage.ErrInvalidRoot)
	}
	stmt, err := parser.Parse(src.SQL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	return stmt, nil
}

// Analyze builds the lineage graph of src with its layout and highlights.
// Each call uses its own build session.
func (e *Engine) Analyze(ctx context.Context, src Source) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stmt, err := e.Parse(src)
	if err != nil {
		analysesTotal.WithLabelValues(statusParseError).Inc()
		e.logger.Debug("parse failed", "file", src.Name, "error", err)
		return nil, err
	}

	g, err := lineage.Build(stmt, lineage.Options{
		Conditions: e.cfg.Conditions,
		Logger:     e.logger,
	})
	if err != nil {
		analysesTotal.WithLabelValues(statusError).Inc()
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}

	res := &Result{
		Name:       src.Name,
		Hash:       Hash(src),
		Statement:  stmt,
		Graph:      g,
		Document:   export.NewDocument(g, e.cfg.Layout),
		Highlights: highlight.Map(src.SQL, stmt, g),
		Duration:   time.Since(start),
	}

	if cycle := layout.Cycle(res.Document.Tables, res.Document.Edges); cycle != nil {
		e.logger.Warn("table lineage is cyclic", "file", src.Name, "cycle", cycle)
	}

	analysesTotal.WithLabelValues(statusOK).Inc()
	analysisDuration.Observe(res.Duration.Seconds())
	graphNodes.Set(float64(len(g.Nodes)))
	graphEdges.Set(float64(len(g.Edges)))

	e.logger.Debug("analysed",
		"file", src.Name,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration", res.Duration,
	)
	return res, nil
}

// Record stores res in the history store. It is a no-op returning nil when
// no store is configured.
func (e *Engine) Record(ctx context.Context, src Source, res *Result) (*state.Snapshot, error) {
	if e.cfg.History == nil {
		return nil, nil
	}
	snap := &state.Snapshot{
		Name:    res.Name,
		SQLHash: res.Hash,
		SQL:     src.SQL,
		Graph:   res.Graph,
	}
	if err := e.cfg.History.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("record %s: %w", res.Name, err)
	}
	e.logger.Debug("recorded snapshot", "file", res.Name, "id", snap.ID)
	return snap, nil
}

// Hash identifies the input of a source.
func Hash(src Source) string {
	h := sha256.New()
	if len(src.AST) > 0 {
		h.Write(src.AST)
	} else {
		h.Write([]byte(src.SQL))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadSource reads a source file. JSON input is recognised by the input kind
// or a .json extension.
func LoadSource(path string, input Input) (Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the user
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewSource(path, data, input), nil
}

// NewSource builds a source from raw input.
func NewSource(name string, data []byte, input Input) Source {
	if input == InputJSON || (input == "" && strings.EqualFold(filepath.Ext(name), ".json")) {
		return Source{Name: name, AST: data}
	}
	return Source{Name: name, SQL: string(data)}
}
