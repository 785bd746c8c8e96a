// Package ast defines the syntax tree consumed by the lineage builder.
//
// The tree mirrors the shape produced by common JavaScript SQL parsers
// (a select statement with a with-list, projected columns, a flat FROM list
// and a "next" pointer for UNION/INTERSECT/EXCEPT chains), so trees parsed
// from SQL text by pkg/parser and trees decoded from JSON by DecodeJSON are
// interchangeable.
package ast

import "github.com/leapstack-labs/sqlgraph/pkg/token"

// Node is implemented by every syntax tree node.
type Node interface {
	GetSpan() token.Span
}

// Expr represents an expression in SQL.
type Expr interface {
	Node
	exprNode()
}

// NodeInfo provides the source span shared by all nodes.
// A zero span means the location is unknown.
type NodeInfo struct {
	Span token.Span
}

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() token.Span {
	return n.Span
}
