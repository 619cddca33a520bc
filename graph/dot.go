package graph

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ciltools/ciltools/op"
)

// BasicBlock is a maximal run of nodes entered only at its first node and
// left only at its last.
type BasicBlock struct {
	Start int // index of the first node
	End   int // index after the last node
}

// BasicBlocks partitions the graph into basic blocks. A block starts at the
// root, at every named node and after every branch, return or throw.
func (g *Graph) BasicBlocks() []BasicBlock {
	if len(g.nodes) == 0 {
		return nil
	}
	leader := make([]bool, len(g.nodes))
	leader[0] = true
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.name != "" {
			leader[i] = true
		}
		if endsBlock(n) && i+1 < len(g.nodes) {
			leader[i+1] = true
		}
	}
	var blocks []BasicBlock
	start := 0
	for i := 1; i < len(g.nodes); i++ {
		if leader[i] {
			blocks = append(blocks, BasicBlock{Start: start, End: i})
			start = i
		}
	}
	return append(blocks, BasicBlock{Start: start, End: len(g.nodes)})
}

func endsBlock(n *Node) bool {
	switch n.ins.Info().Flow {
	case op.FlowBranch, op.FlowCondBranch, op.FlowReturn, op.FlowThrow:
		return true
	}
	return false
}

func fallsThrough(n *Node) bool {
	switch n.ins.Info().Flow {
	case op.FlowBranch, op.FlowReturn, op.FlowThrow:
		return false
	}
	return n.Next() != nil
}

// WriteDOT writes the basic-block graph in Graphviz DOT format. Solid edges
// are taken branches, dashed edges are fall-through.
func WriteDOT(w io.Writer, g *Graph, title string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph CIL {")
	fmt.Fprintln(bw, "  node [shape=box, fontname=\"monospace\"];")
	if title != "" {
		fmt.Fprintf(bw, "  labelloc=\"t\";\n  label=\"%s\";\n", escapeDOT(title))
	}

	blocks := g.BasicBlocks()
	blockOf := make([]int, len(g.nodes))
	for bi, b := range blocks {
		for i := b.Start; i < b.End; i++ {
			blockOf[i] = bi
		}
	}
	for bi, b := range blocks {
		var label strings.Builder
		first := &g.nodes[b.Start]
		if first.name != "" {
			label.WriteString(first.name)
		} else {
			fmt.Fprintf(&label, "IL_%04X", first.Offset())
		}
		label.WriteString("\\l")
		for i := b.Start; i < b.End; i++ {
			fmt.Fprintf(&label, "%s\\l", escapeDOT(g.nodes[i].ins.OpCode().String()))
		}
		fmt.Fprintf(bw, "  b%d [label=\"%s\"];\n", bi, label.String())
	}
	for bi, b := range blocks {
		last := &g.nodes[b.End-1]
		if t := last.BranchTarget(); t != nil {
			fmt.Fprintf(bw, "  b%d -> b%d;\n", bi, blockOf[t.index])
		}
		for _, t := range last.SwitchTargets() {
			fmt.Fprintf(bw, "  b%d -> b%d;\n", bi, blockOf[t.index])
		}
		if fallsThrough(last) {
			fmt.Fprintf(bw, "  b%d -> b%d [style=dashed];\n", bi, bi+1)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
