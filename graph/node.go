package graph

import "github.com/ciltools/ciltools/bytecode"

// Node wraps one instruction of a Graph. Its links are references into the
// graph's arena and never own the nodes they point at.
type Node struct {
	g        *Graph
	index    int
	ins      bytecode.Instruction
	name     string
	target   int
	switches []int
}

// Index returns the position of the node in the graph.
func (n *Node) Index() int { return n.index }

// Instruction returns the wrapped instruction.
func (n *Node) Instruction() bytecode.Instruction { return n.ins }

// Offset returns the byte offset of the wrapped instruction.
func (n *Node) Offset() int { return n.ins.Offset() }

// Name returns the node's label, or "" when no branch targets it.
func (n *Node) Name() string { return n.name }

// HasName reports whether the node is a branch or switch target.
func (n *Node) HasName() bool { return n.name != "" }

// Next returns the following node, or nil for the last node.
func (n *Node) Next() *Node {
	if n.index+1 >= len(n.g.nodes) {
		return nil
	}
	return &n.g.nodes[n.index+1]
}

// Previous returns the preceding node, or nil for the root.
func (n *Node) Previous() *Node {
	if n.index == 0 {
		return nil
	}
	return &n.g.nodes[n.index-1]
}

// BranchTarget returns the target of a branch instruction, or nil.
func (n *Node) BranchTarget() *Node {
	if n.target < 0 {
		return nil
	}
	return &n.g.nodes[n.target]
}

// SwitchTargetCount returns the number of switch jump table entries.
func (n *Node) SwitchTargetCount() int {
	return len(n.switches)
}

// SwitchTargetAt returns the target of jump table entry i.
func (n *Node) SwitchTargetAt(i int) *Node {
	return &n.g.nodes[n.switches[i]]
}

// SwitchTargets returns the targets of a switch instruction in jump table
// order.
func (n *Node) SwitchTargets() []*Node {
	if len(n.switches) == 0 {
		return nil
	}
	out := make([]*Node, len(n.switches))
	for i, idx := range n.switches {
		out[i] = &n.g.nodes[idx]
	}
	return out
}

func (n *Node) String() string {
	if n.name != "" {
		return n.name + ": " + n.ins.String()
	}
	return n.ins.String()
}
