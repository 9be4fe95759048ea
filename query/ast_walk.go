package query

import "math"

// Inspect walks the tree rooted at node depth-first in source order, calling
// fn for every node. When fn returns false the node's children are skipped.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Statements {
			Inspect(stmt, fn)
		}
	case *BinaryExpr:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *AssignExpr:
		Inspect(n.Value, fn)
	case *CallExpr:
		Inspect(n.Arg, fn)
	case *ReturnExpr:
		Inspect(n.Value, fn)
	case *ListLiteral:
		for _, elem := range n.Elements {
			Inspect(elem, fn)
		}
	}
}

// Equal reports whether two trees have the same shape and literals, ignoring
// spans.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Program:
		y, ok := b.(*Program)
		if !ok || len(x.Statements) != len(y.Statements) {
			return false
		}
		for i := range x.Statements {
			if !Equal(x.Statements[i], y.Statements[i]) {
				return false
			}
		}
		return true
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Operator == y.Operator && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Identifier:
		y, ok := b.(*Identifier)
		return ok && x.Name == y.Name
	case *AssignExpr:
		y, ok := b.(*AssignExpr)
		return ok && x.Name == y.Name && Equal(x.Value, y.Value)
	case *CallExpr:
		y, ok := b.(*CallExpr)
		return ok && x.Callee == y.Callee && Equal(x.Arg, y.Arg)
	case *ReturnExpr:
		y, ok := b.(*ReturnExpr)
		return ok && Equal(x.Value, y.Value)
	case *NumberLiteral:
		y, ok := b.(*NumberLiteral)
		return ok && (x.Value == y.Value || (math.IsNaN(x.Value) && math.IsNaN(y.Value)))
	case *StringLiteral:
		y, ok := b.(*StringLiteral)
		return ok && x.Value == y.Value
	case *ListLiteral:
		y, ok := b.(*ListLiteral)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !Equal(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}
