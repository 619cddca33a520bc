package disasm

import (
	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/region"
	"github.com/ciltools/ciltools/syntax"
)

const (
	indentUnit = "  "
	labelPad   = "         " // width of "IL_0000: "
)

type projector struct {
	d         *Disassembler
	naming    metadata.Naming
	fragments []bytecode.SourceFragment
	next      int
}

// Body returns the syntax nodes of the method body: one Instruction node
// per instruction, nested Block nodes per exception handling block and
// source comments when a source provider is configured. m may be nil.
func (d *Disassembler) Body(m *metadata.Method, g *graph.Graph) ([]*syntax.Node, error) {
	return d.body(m, g, "")
}

func (d *Disassembler) body(m *metadata.Method, g *graph.Graph, indent string) ([]*syntax.Node, error) {
	root, err := region.Build(g, region.WithIterationLimit(d.cfg.limit))
	if err != nil {
		return nil, err
	}
	p := &projector{d: d, naming: d.naming(m)}
	if d.cfg.source != nil && m != nil {
		p.fragments, err = d.cfg.source.SourceFragments(m)
		if err != nil {
			d.report(-1, "loading source code", err)
			p.fragments = []bytecode.SourceFragment{{Text: "???"}}
		}
	}
	return p.items(root, indent), nil
}

func (p *projector) items(b *region.Block, indent string) []*syntax.Node {
	var out []*syntax.Node
	for it := range b.Items() {
		if it.Block != nil {
			out = append(out, p.block(it.Block, indent))
			continue
		}
		out = append(out, p.source(it.Node, indent)...)
		out = append(out, p.instruction(it.Node, indent))
	}
	return out
}

func (p *projector) block(b *region.Block, indent string) *syntax.Node {
	n := syntax.NewBlock()
	switch b.Kind() {
	case region.Try:
		n.Append(syntax.NewDirective(syntax.NewKeyword(".try").WithLead(indent).WithTrail("\n")))
	case region.Catch:
		kw := syntax.NewKeyword("catch").WithLead(indent)
		if t := b.CatchType(); t != nil {
			n.Append(kw, syntax.NewIdentifier(t.Ref(p.naming), syntax.RoleType).WithLead(" ").WithTrail("\n"))
		} else {
			n.Append(kw.WithTrail("\n"))
		}
	case region.Filter, region.Finally, region.Fault:
		n.Append(syntax.NewKeyword(b.Kind().String()).WithLead(indent).WithTrail("\n"))
	}
	n.Append(syntax.NewPunctuation("{").WithLead(indent).WithTrail("\n"))
	n.Append(p.items(b, indent+indentUnit)...)
	n.Append(syntax.NewPunctuation("}").WithLead(indent).WithTrail("\n"))
	return n
}

// source emits the next fragment once the cursor reaches its offset. The
// cursor only moves forward.
func (p *projector) source(n *graph.Node, indent string) []*syntax.Node {
	if p.next >= len(p.fragments) || n.Offset() < p.fragments[p.next].Offset {
		return nil
	}
	frag := p.fragments[p.next]
	p.next++
	lead := indent + labelPad
	var out []*syntax.Node
	for i, line := range splitLines(frag.Text) {
		c := syntax.NewComment("// " + line).WithLead(lead).WithTrail("\n")
		if i == 0 {
			c.Lead = "\n" + lead
		}
		out = append(out, c)
	}
	return out
}

func (p *projector) instruction(n *graph.Node, indent string) *syntax.Node {
	ins := n.Instruction()
	node := syntax.NewInstruction(ins.Offset())
	name := syntax.NewKeyword(ins.OpCode().String())
	if n.HasName() {
		node.Append(
			syntax.NewIdentifier(n.Name(), syntax.RoleLabel).WithLead(indent),
			syntax.NewPunctuation(":").WithTrail(" "),
		)
	} else {
		name.Lead = indent + labelPad
	}
	node.Append(name)
	node.Append(p.operand(n)...)
	last := node.Children[len(node.Children)-1]
	last.Trail += "\n"
	return node
}
