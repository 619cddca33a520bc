package disasm

import (
	"strconv"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/op"
	"github.com/ciltools/ciltools/syntax"
)

// operand returns the leaves of the instruction's operand in ILAsm
// notation. The first leaf carries the separating space.
func (p *projector) operand(n *graph.Node) []*syntax.Node {
	ins := n.Instruction()
	o := ins.Operand()
	var out []*syntax.Node
	switch o.Kind() {
	case bytecode.OperandNone:
		return nil
	case bytecode.OperandInt:
		out = append(out, syntax.NewLiteral(strconv.FormatInt(o.Int(), 10), syntax.RoleNone))
	case bytecode.OperandFloat:
		out = append(out, syntax.NewLiteral(strconv.FormatFloat(o.Float(), 'g', -1, 64), syntax.RoleNone))
	case bytecode.OperandString:
		out = append(out, syntax.NewLiteral(strconv.Quote(o.Text()), syntax.RoleString))
	case bytecode.OperandMember:
		out = p.member(ins.OpCode(), o.Member())
	case bytecode.OperandSignature:
		if sig := o.Signature(); sig != nil {
			out = append(out, syntax.NewIdentifier(sig.Sig(p.naming), syntax.RoleType))
		} else {
			out = p.member(ins.OpCode(), o.Member())
		}
	case bytecode.OperandLocal:
		out = append(out, syntax.NewIdentifier(o.Local().DisplayName(), syntax.RoleVariable))
	case bytecode.OperandParam:
		out = append(out, syntax.NewIdentifier(o.Param().DisplayName(), syntax.RoleVariable))
	case bytecode.OperandBranch:
		out = append(out, syntax.NewIdentifier(labelOf(n.BranchTarget()), syntax.RoleLabel))
	case bytecode.OperandSwitch:
		out = append(out, syntax.NewPunctuation("("))
		for i, t := range n.SwitchTargets() {
			if i > 0 {
				out = append(out, syntax.NewPunctuation(",").WithTrail(" "))
			}
			out = append(out, syntax.NewIdentifier(labelOf(t), syntax.RoleLabel))
		}
		out = append(out, syntax.NewPunctuation(")"))
	}
	if len(out) > 0 {
		out[0].Lead = " " + out[0].Lead
	}
	return out
}

func (p *projector) member(code op.Code, m metadata.Member) []*syntax.Node {
	switch v := m.(type) {
	case *metadata.MethodRef:
		id := syntax.NewIdentifier(v.Sig(p.naming), syntax.RoleMember)
		if code == op.Ldtoken {
			return []*syntax.Node{syntax.NewKeyword("method"), id.WithLead(" ")}
		}
		return []*syntax.Node{id}
	case *metadata.FieldRef:
		id := syntax.NewIdentifier(v.Sig(p.naming), syntax.RoleMember)
		if code == op.Ldtoken {
			return []*syntax.Node{syntax.NewKeyword("field"), id.WithLead(" ")}
		}
		return []*syntax.Node{id}
	case *metadata.TypeRef:
		return []*syntax.Node{syntax.NewIdentifier(v.Ref(p.naming), syntax.RoleType)}
	case *metadata.Signature:
		return []*syntax.Node{syntax.NewIdentifier(v.Sig(p.naming), syntax.RoleType)}
	case nil:
		return []*syntax.Node{syntax.NewGeneric("???")}
	default:
		return []*syntax.Node{syntax.NewIdentifier(m.MemberName(), syntax.RoleMember)}
	}
}

func labelOf(n *graph.Node) string {
	if n == nil || !n.HasName() {
		return "???"
	}
	return n.Name()
}
