package region

import (
	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/graph"
)

// DefaultIterationLimit bounds the number of nodes Build visits.
const DefaultIterationLimit = 100000

type config struct {
	limit int
}

// Option configures Build.
type Option func(*config)

// WithIterationLimit sets the maximum number of nodes Build visits before
// failing. Values below one restore the default.
func WithIterationLimit(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = DefaultIterationLimit
		}
		c.limit = n
	}
}

type builder struct {
	root   *Block
	path   []*Block
	offset int
}

func (b *builder) top() *Block {
	if len(b.path) == 0 {
		return b.root
	}
	return b.path[len(b.path)-1]
}

func (b *builder) open(kind Kind, r bytecode.ExceptionRegion) {
	blk := &Block{kind: kind, region: r, hasRegion: true}
	parent := b.top()
	parent.items = append(parent.items, Item{Block: blk})
	b.path = append(b.path, blk)
	b.root.opened++
}

func (b *builder) close() error {
	if len(b.path) == 0 {
		return errz.NewRegionError(errz.KindUnexpectedEnd, b.offset)
	}
	b.path = b.path[:len(b.path)-1]
	b.root.closed++
	return nil
}

func (b *builder) apply(ev Events) error {
	for i := 0; i < ev.Closes(); i++ {
		if err := b.close(); err != nil {
			return err
		}
	}
	for _, r := range ev.FilterStarts {
		b.open(Filter, r)
	}
	for _, r := range ev.HandlerStarts {
		switch r.Kind {
		case bytecode.RegionClause:
			b.open(Catch, r)
		case bytecode.RegionFilter:
			if err := b.close(); err != nil {
				return err
			}
			b.open(FilterHandler, r)
		case bytecode.RegionFinally:
			b.open(Finally, r)
		case bytecode.RegionFault:
			b.open(Fault, r)
		}
	}
	for _, r := range ev.TryStarts {
		b.open(Try, r)
	}
	return nil
}

// Build reconstructs the block tree of g's exception regions and returns
// its root. Instruction nodes are attached to the innermost block open at
// their offset.
func Build(g *graph.Graph, opts ...Option) (*Block, error) {
	cfg := config{limit: DefaultIterationLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	regions := g.Regions()
	b := &builder{root: &Block{kind: None}}

	var steps int
	for n := g.Root(); n != nil; n = n.Next() {
		if steps++; steps > cfg.limit {
			return nil, errz.NewRegionError(errz.KindIterationLimit, n.Offset())
		}
		ins := n.Instruction()
		b.offset = ins.Offset()
		if len(regions) > 0 {
			if err := b.apply(At(regions, ins.Offset(), ins.End())); err != nil {
				return nil, err
			}
		}
		top := b.top()
		top.items = append(top.items, Item{Node: n})
	}

	if len(b.path) > 0 {
		end := g.CodeSize()
		b.offset = end
		ev := At(regions, end, end+1)
		if ev.Closes() < len(b.path) {
			return nil, errz.NewRegionError(errz.KindUnclosed, end)
		}
		for i := 0; i < ev.Closes(); i++ {
			if err := b.close(); err != nil {
				return nil, err
			}
		}
	}
	return b.root, nil
}
