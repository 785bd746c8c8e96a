package lineage

import "github.com/leapstack-labs/sqlgraph/pkg/ast"

// SetChain is a flattened set-operation chain.
type SetChain struct {
	Operator ast.SetOp
	Branches []*ast.Select
}

// CollectSetOps flattens the chain headed by head into its branches, head
// first. Branches are shallow copies with the chaining fields cleared; the
// input tree is not modified. Operator is the first operator found in the
// chain, defaulting to union. A statement that is not a chain yields a
// single branch and no operator.
func CollectSetOps(head *ast.Select) SetChain {
	var chain SetChain
	for cur := head; cur != nil; cur = cur.Next {
		branch := *cur
		branch.SetOp = ast.SetOpNone
		branch.Next = nil
		chain.Branches = append(chain.Branches, &branch)

		if cur.Next != nil && chain.Operator == ast.SetOpNone {
			chain.Operator = cur.SetOp
			if chain.Operator == ast.SetOpNone {
				chain.Operator = ast.SetOpUnion
			}
		}
	}
	return chain
}
