package disasm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/syntax"
)

// Method returns the syntax nodes of the whole method, including the
// sections enabled by the options. With WithSignature the result is the
// signature directive followed by a single Block holding everything else.
func (d *Disassembler) Method(m *metadata.Method, g *graph.Graph) ([]*syntax.Node, error) {
	if m == nil {
		return d.Body(nil, g)
	}
	n := d.naming(m)
	indent := ""
	if d.cfg.signature {
		indent = indentUnit
	}

	var inner []*syntax.Node
	if d.cfg.attributes {
		inner = append(inner, d.attributes(m, n, indent)...)
	}
	if d.cfg.defaults {
		inner = append(inner, defaults(m, indent)...)
	}
	if d.cfg.header {
		inner = append(inner, d.header(m, g, n, indent)...)
	}
	if len(inner) > 0 {
		inner = append(inner, syntax.NewGeneric("\n"))
	}
	body, err := d.body(m, g, indent)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}
	inner = append(inner, body...)

	if !d.cfg.signature {
		return inner, nil
	}
	blk := syntax.NewBlock(syntax.NewPunctuation("{").WithTrail("\n"))
	blk.Append(inner...)
	blk.Append(syntax.NewPunctuation("}").WithTrail("\n"))
	return []*syntax.Node{signature(m, n), blk}, nil
}

func typeSig(t *metadata.TypeRef, n metadata.Naming, missing string) string {
	if t == nil {
		return missing
	}
	return t.Sig(n)
}

func signature(m *metadata.Method, n metadata.Naming) *syntax.Node {
	dir := syntax.NewDirective(syntax.NewKeyword(".method"))
	if m.Flags != "" {
		dir.Append(syntax.NewGeneric(" " + m.Flags))
	}
	if !m.Static {
		dir.Append(syntax.NewKeyword("instance").WithLead(" "))
	}
	dir.Append(
		syntax.NewIdentifier(typeSig(m.Return, n, "void"), syntax.RoleType).WithLead(" "),
		syntax.NewIdentifier(m.Name, syntax.RoleMember).WithLead(" "),
		syntax.NewPunctuation("("),
	)
	for i, p := range m.Params {
		if i > 0 {
			dir.Append(syntax.NewPunctuation(",").WithTrail(" "))
		}
		dir.Append(syntax.NewIdentifier(typeSig(p.Type, n, "object"), syntax.RoleType))
		if p.Name != "" {
			dir.Append(syntax.NewIdentifier(p.Name, syntax.RoleVariable).WithLead(" "))
		}
	}
	dir.Append(syntax.NewPunctuation(")"))
	if m.ImplFlags != "" {
		dir.Append(syntax.NewGeneric(" " + m.ImplFlags))
	}
	last := dir.Children[len(dir.Children)-1]
	last.Trail = "\n"
	return dir
}

func (d *Disassembler) attributes(m *metadata.Method, n metadata.Naming, indent string) []*syntax.Node {
	var out []*syntax.Node
	for _, attr := range m.Attributes {
		if attr.Constructor == nil {
			d.report(-1, "reading custom attributes of "+m.Name, errors.New("attribute has no constructor"))
			continue
		}
		blob := make([]string, len(attr.Blob))
		for i, b := range attr.Blob {
			blob[i] = fmt.Sprintf("%02X", b)
		}
		out = append(out, syntax.NewDirective(
			syntax.NewKeyword(".custom").WithLead(indent),
			syntax.NewIdentifier(attr.Constructor.Sig(n), syntax.RoleMember).WithLead(" "),
			syntax.NewPunctuation("=").WithLead(" "),
			syntax.NewPunctuation("(").WithLead(" "),
			syntax.NewLiteral(strings.Join(blob, " "), syntax.RoleNone).WithLead(" "),
			syntax.NewPunctuation(")").WithLead(" ").WithTrail("\n"),
		))
	}
	return out
}

func defaults(m *metadata.Method, indent string) []*syntax.Node {
	var out []*syntax.Node
	for i, p := range m.Params {
		if !p.HasDefault {
			continue
		}
		seq := p.Sequence
		if seq == 0 {
			seq = i + 1
		}
		out = append(out, syntax.NewDirective(
			syntax.NewKeyword(".param").WithLead(indent),
			syntax.NewPunctuation("[").WithLead(" "),
			syntax.NewLiteral(strconv.Itoa(seq), syntax.RoleNone),
			syntax.NewPunctuation("]"),
			syntax.NewPunctuation("=").WithLead(" "),
			defaultValue(p).WithLead(" ").WithTrail("\n"),
		))
	}
	return out
}

func defaultValue(p *metadata.Param) *syntax.Node {
	switch v := p.Default.(type) {
	case nil:
		return syntax.NewKeyword("nullref")
	case string:
		return syntax.NewLiteral(strconv.Quote(v), syntax.RoleString)
	case bool:
		return syntax.NewLiteral(fmt.Sprintf("bool(%t)", v), syntax.RoleNone)
	case float32, float64:
		return syntax.NewLiteral(fmt.Sprintf("%s(%v)", primitive(p, "float64"), v), syntax.RoleNone)
	default:
		return syntax.NewLiteral(fmt.Sprintf("%s(%v)", primitive(p, "int32"), v), syntax.RoleNone)
	}
}

func primitive(p *metadata.Param, fallback string) string {
	if p.Type != nil && p.Type.Primitive != "" {
		return p.Type.Primitive
	}
	return fallback
}

func (d *Disassembler) header(m *metadata.Method, g *graph.Graph, n metadata.Naming, indent string) []*syntax.Node {
	var out []*syntax.Node
	if o := m.Override; o != nil {
		ref := o.Name
		if o.DeclaringType != nil {
			ref = o.DeclaringType.Ref(n) + "::" + o.Name
		}
		out = append(out, syntax.NewDirective(
			syntax.NewKeyword(".override").WithLead(indent),
			syntax.NewIdentifier(ref, syntax.RoleMember).WithLead(" ").WithTrail("\n"),
		))
	}
	if m.VTableSlot > 0 {
		out = append(out, syntax.NewComment(fmt.Sprintf("// vtable slot: %d", m.VTableSlot)).WithLead(indent).WithTrail("\n"))
	}
	body := g.Body()
	if body != nil {
		size := body.CodeSize()
		out = append(out, syntax.NewComment(fmt.Sprintf("// Code size: %d (0x%x)", size, size)).WithLead(indent).WithTrail("\n"))
	}
	if m.EntryPoint {
		out = append(out, syntax.NewDirective(syntax.NewKeyword(".entrypoint").WithLead(indent).WithTrail("\n")))
	}
	if body == nil {
		return out
	}
	out = append(out, syntax.NewDirective(
		syntax.NewKeyword(".maxstack").WithLead(indent),
		syntax.NewLiteral(strconv.Itoa(body.MaxStack()), syntax.RoleNone).WithLead(" ").WithTrail("\n"),
	))
	if body.LocalCount() == 0 {
		return out
	}
	dir := syntax.NewDirective(syntax.NewKeyword(".locals").WithLead(indent))
	if body.InitLocals() {
		dir.Append(syntax.NewKeyword("init").WithLead(" "))
	}
	dir.Append(syntax.NewPunctuation("(").WithLead(" "))
	for i, l := range body.Locals() {
		if i > 0 {
			dir.Append(syntax.NewPunctuation(",").WithTrail(" "))
		}
		if l == nil {
			d.report(-1, fmt.Sprintf("reading local %d of %s", i, m.Name), metadata.ErrNotFound)
			l = &metadata.Local{Index: i}
		}
		t := typeSig(l.Type, n, "???")
		if l.Pinned {
			t += " pinned"
		}
		dir.Append(
			syntax.NewIdentifier(t, syntax.RoleType),
			syntax.NewIdentifier(l.DisplayName(), syntax.RoleVariable).WithLead(" "),
		)
	}
	dir.Append(syntax.NewPunctuation(")").WithTrail("\n"))
	return append(out, dir)
}
