// Package graph links decoded instructions into a control-flow graph.
//
// Nodes live in one arena owned by the Graph. Sequential links and jump
// edges are indices into that arena, so back-edges from backward branches
// need no special ownership handling. Graphs are built in two phases: a
// mutable builder node per instruction collects names and targets, and
// the result is frozen into immutable Nodes once every edge resolves.
package graph

import (
	"fmt"
	"iter"
	"slices"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/metadata"
)

// Label is a generated name for an instruction that is a branch or switch
// target.
type Label struct {
	Name   string
	Offset int
	Node   int
}

// LabelName returns the name of the label with the given 0-based ordinal.
func LabelName(ordinal int) string {
	return fmt.Sprintf("IL_%04d", ordinal+1)
}

// Graph is an immutable control-flow graph over one method body.
type Graph struct {
	body     *bytecode.Body
	nodes    []Node
	byOffset map[int]int
	labels   []Label
}

// Create decodes the body and builds its graph.
func Create(body *bytecode.Body, resolver metadata.Resolver, opts ...bytecode.DecodeOption) (*Graph, error) {
	instrs, err := body.Decoder(resolver, opts...).All()
	if err != nil {
		return nil, err
	}
	return New(body, instrs)
}

type builderNode struct {
	ins      bytecode.Instruction
	name     string
	target   int
	switches []int
}

// New builds the graph of already decoded instructions. The body supplies
// the exception region table and header fields; it may be nil.
func New(body *bytecode.Body, instrs []bytecode.Instruction) (*Graph, error) {
	if body == nil {
		body = bytecode.NewBody(bytecode.BodyParams{})
	}
	byOffset := make(map[int]int, len(instrs))
	for i, ins := range instrs {
		byOffset[ins.Offset()] = i
	}

	// Pass 1: collect every target offset.
	var targets []int
	for _, ins := range instrs {
		targets = append(targets, ins.Targets()...)
	}
	slices.Sort(targets)
	targets = slices.Compact(targets)

	builders := make([]builderNode, len(instrs))
	for i, ins := range instrs {
		builders[i] = builderNode{ins: ins, target: -1}
	}

	// Pass 2: name the targets in ascending offset order.
	labels := make([]Label, 0, len(targets))
	for _, offset := range targets {
		idx, ok := byOffset[offset]
		if !ok {
			continue
		}
		name := LabelName(len(labels))
		builders[idx].name = name
		labels = append(labels, Label{Name: name, Offset: offset, Node: idx})
	}

	// Pass 3: resolve the edges.
	for i := range builders {
		b := &builders[i]
		ins := b.ins
		switch ins.Operand().Kind() {
		case bytecode.OperandBranch:
			offset, _ := ins.BranchTarget()
			idx, ok := byOffset[offset]
			if !ok {
				return nil, missingTarget(ins, offset)
			}
			b.target = idx
		case bytecode.OperandSwitch:
			n := ins.Operand().SwitchLen()
			b.switches = make([]int, n)
			for j := 0; j < n; j++ {
				offset := ins.SwitchTarget(j)
				idx, ok := byOffset[offset]
				if !ok {
					return nil, missingTarget(ins, offset)
				}
				b.switches[j] = idx
			}
		}
	}

	g := &Graph{body: body, byOffset: byOffset, labels: labels}
	g.nodes = make([]Node, len(builders))
	for i, b := range builders {
		g.nodes[i] = Node{
			g:        g,
			index:    i,
			ins:      b.ins,
			name:     b.name,
			target:   b.target,
			switches: b.switches,
		}
	}
	return g, nil
}

func missingTarget(ins bytecode.Instruction, offset int) error {
	return errz.NewGraphErrorf(errz.KindMissingTarget, ins.Offset(),
		"cannot find label for %s instruction: target 0x%04X is not an instruction boundary",
		ins.OpCode(), offset)
}

// Body returns the method body the graph was built from.
func (g *Graph) Body() *bytecode.Body {
	return g.body
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Root returns the first node, or nil for an empty body.
func (g *Graph) Root() *Node {
	if len(g.nodes) == 0 {
		return nil
	}
	return &g.nodes[0]
}

// Node returns the node at the given index.
func (g *Graph) Node(i int) *Node {
	return &g.nodes[i]
}

// NodeAt returns the node whose instruction starts at the given offset.
func (g *Graph) NodeAt(offset int) (*Node, bool) {
	idx, ok := g.byOffset[offset]
	if !ok {
		return nil, false
	}
	return &g.nodes[idx], true
}

// Nodes iterates over the nodes in sequential order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for i := range g.nodes {
			if !yield(&g.nodes[i]) {
				return
			}
		}
	}
}

// Instructions iterates over the instructions in sequential order.
func (g *Graph) Instructions() iter.Seq[bytecode.Instruction] {
	return func(yield func(bytecode.Instruction) bool) {
		for i := range g.nodes {
			if !yield(g.nodes[i].ins) {
				return
			}
		}
	}
}

// Labels returns the label table in ascending offset order.
func (g *Graph) Labels() []Label {
	return slices.Clone(g.labels)
}

// Regions returns the exception region table of the body.
func (g *Graph) Regions() []bytecode.ExceptionRegion {
	return g.body.Regions()
}

// CodeSize returns the offset immediately after the last instruction.
func (g *Graph) CodeSize() int {
	if len(g.nodes) == 0 {
		return 0
	}
	return g.nodes[len(g.nodes)-1].ins.End()
}

// HandlerNodes returns the nodes inside the handler range of the region.
func (g *Graph) HandlerNodes(r bytecode.ExceptionRegion) []*Node {
	var out []*Node
	for n := range g.Nodes() {
		off := n.Offset()
		if off >= r.HandlerOffset && off < r.HandlerEnd() {
			out = append(out, n)
		}
	}
	return out
}

// EnclosingRegions returns the regions whose protected range contains the
// node, innermost first.
func (g *Graph) EnclosingRegions(n *Node) []bytecode.ExceptionRegion {
	var out []bytecode.ExceptionRegion
	off := n.Offset()
	for _, r := range g.body.Regions() {
		if off >= r.TryOffset && off < r.TryEnd() {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b bytecode.ExceptionRegion) int {
		return a.TryLength - b.TryLength
	})
	return out
}
