package syntax

import "iter"

// Visitor defines the interface for tree traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node *Node) (w Visitor)
}

// Walk traverses a tree in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each child of node.
func Walk(v Visitor, node *Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, c := range node.Children {
		Walk(v, c)
	}
}

// Inspect traverses a tree in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(node *Node, f func(*Node) bool) {
	Walk(inspector(f), node)
}

type inspector func(*Node) bool

func (f inspector) Visit(node *Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Preorder returns an iterator over every node of the trees rooted at
// roots, parents before children.
func Preorder(roots ...*Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var visit func(*Node) bool
		visit = func(n *Node) bool {
			if !yield(n) {
				return false
			}
			for _, c := range n.Children {
				if !visit(c) {
					return false
				}
			}
			return true
		}
		for _, r := range roots {
			if !visit(r) {
				return
			}
		}
	}
}

// Leaves returns an iterator over the text-carrying nodes of the trees
// rooted at roots, in rendering order.
func Leaves(roots ...*Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range Preorder(roots...) {
			if n.Kind.IsLeaf() && !yield(n) {
				return
			}
		}
	}
}
