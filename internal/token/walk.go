package token

// Inspect traverses nodes depth-first in source order, calling fn for each construct
// that can own nested blocks or declarations. Returning false from fn skips the children.
func Inspect(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		inspectNode(n, fn)
	}
}

func inspectNode(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Block:
		Inspect(n.Lines, fn)
	case *Function:
		inspectBlock(n.Body, fn)
	case *WhileLoop:
		inspectBlock(n.Body, fn)
	case *ForLoop:
		inspectBlock(n.Body, fn)
	case *If:
		inspectBlock(n.Body, fn)
		for _, elseIf := range n.ElseIfs {
			inspectNode(elseIf, fn)
		}
		inspectBlock(n.ElseBody, fn)
	case *TryCatch:
		inspectBlock(n.Try, fn)
		inspectBlock(n.Catch, fn)
	}
}

func inspectBlock(b *Block, fn func(Node) bool) {
	if b != nil {
		inspectNode(b, fn)
	}
}

// Imports returns every import construct in the tree, in source order.
func Imports(nodes []Node) []*Import {
	var out []*Import
	Inspect(nodes, func(n Node) bool {
		if imp, ok := n.(*Import); ok {
			out = append(out, imp)
		}
		return true
	})
	return out
}

// Count returns the number of constructs reachable through Inspect.
func Count(nodes []Node) int {
	total := 0
	Inspect(nodes, func(Node) bool {
		total++
		return true
	})
	return total
}
