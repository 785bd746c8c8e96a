// Package export renders lineage graphs as JSON, YAML, Graphviz DOT and
// Mermaid documents.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlgraph/pkg/layout"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// Format is an export format.
type Format string

// Export formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatDOT, FormatMermaid}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatDOT, FormatMermaid:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "graphviz":
		return FormatDOT, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Document is the diagram-ready form of a graph: positioned tables, column
// connectors and the raw graph.
type Document struct {
	Tables []lineage.DisplayTable `json:"tables"`
	Edges  []lineage.FlowEdge     `json:"edges"`
	Graph  *lineage.Graph         `json:"graph"`
}

// NewDocument lays out g.
func NewDocument(g *lineage.Graph, opts layout.Options) *Document {
	tables, edges := layout.Graph(g, opts)
	return &Document{Tables: tables, Edges: edges, Graph: g}
}

// Write renders doc in format f.
func Write(w io.Writer, f Format, doc *Document) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatYAML:
		return WriteYAML(w, doc)
	case FormatDOT:
		return WriteDOT(w, doc.Graph)
	case FormatMermaid:
		return WriteMermaid(w, doc.Graph)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteYAML writes doc as YAML using the same field names as JSON.
func WriteYAML(w io.Writer, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}
	return enc.Close()
}
