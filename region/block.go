// Package region rebuilds the lexical nesting of exception handling blocks
// from a method's flat exception region table.
//
// Build walks the instruction graph once. At every instruction it closes
// the blocks whose ranges end there, opens the filter and handler blocks
// that start there and then opens the protected blocks that start there.
// Every open pushes onto the current path and every close pops it, so a
// close with nothing open or a block left open at the end of the body is
// reported as a parse error.
package region

import (
	"iter"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
)

// Kind is the header kind of a Block.
type Kind uint8

const (
	// None is a plain block: the root, or the handler part of a filter
	// region.
	None Kind = iota
	Try
	Catch
	Filter
	FilterHandler
	Finally
	Fault
)

func (k Kind) String() string {
	switch k {
	case Try:
		return "try"
	case Catch:
		return "catch"
	case Filter:
		return "filter"
	case FilterHandler:
		return "filter handler"
	case Finally:
		return "finally"
	case Fault:
		return "fault"
	default:
		return "block"
	}
}

// Item is one child of a Block: either a nested block or an instruction
// node.
type Item struct {
	Block *Block
	Node  *graph.Node
}

// Block is a node of the nesting tree.
type Block struct {
	kind      Kind
	region    bytecode.ExceptionRegion
	hasRegion bool
	items     []Item

	opened int
	closed int
}

// Kind returns the header kind.
func (b *Block) Kind() Kind { return b.kind }

// Region returns the exception region that opened the block. The root has
// no region.
func (b *Block) Region() (bytecode.ExceptionRegion, bool) {
	return b.region, b.hasRegion
}

// CatchType returns the caught type of a Catch block.
func (b *Block) CatchType() *metadata.TypeRef {
	if b.kind != Catch {
		return nil
	}
	return b.region.CatchType
}

// Len returns the number of children.
func (b *Block) Len() int { return len(b.items) }

// ItemAt returns the child at index i.
func (b *Block) ItemAt(i int) Item { return b.items[i] }

// Items iterates over the children in order.
func (b *Block) Items() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, it := range b.items {
			if !yield(it) {
				return
			}
		}
	}
}

// Nodes iterates over every instruction node below the block in order.
func (b *Block) Nodes() iter.Seq[*graph.Node] {
	return func(yield func(*graph.Node) bool) {
		b.walkNodes(yield)
	}
}

func (b *Block) walkNodes(yield func(*graph.Node) bool) bool {
	for _, it := range b.items {
		if it.Block != nil {
			if !it.Block.walkNodes(yield) {
				return false
			}
			continue
		}
		if !yield(it.Node) {
			return false
		}
	}
	return true
}

// Opened returns the number of blocks opened while building the tree.
// Only meaningful on the root.
func (b *Block) Opened() int { return b.opened }

// Closed returns the number of blocks closed while building the tree.
// Only meaningful on the root.
func (b *Block) Closed() int { return b.closed }
