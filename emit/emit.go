// Package emit replays an instruction graph into a bytecode sink.
//
// Emit defines one label per named node, then walks the nodes in order.
// At each node it writes the exception block markers that fall inside the
// instruction, marks the node's label and emits the instruction. Short
// branch forms are always promoted to their long forms so the output stays
// valid when instructions are inserted or removed around them.
package emit

import (
	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/op"
	"github.com/ciltools/ciltools/region"
)

// Label identifies a branch target defined on a Sink.
type Label int

// Sink receives the replayed method body. Its shape follows a reflection
// style IL generator.
type Sink interface {
	DeclareLocal(l *metadata.Local)
	DefineLabel() Label
	MarkLabel(l Label)

	BeginExceptionBlock()
	BeginCatchBlock(t *metadata.TypeRef)
	BeginExceptFilterBlock()
	BeginFinallyBlock()
	BeginFaultBlock()
	EndExceptionBlock()

	Emit(code op.Code)
	EmitOperand(code op.Code, o bytecode.Operand)
	EmitLabel(code op.Code, l Label)
	EmitSwitch(code op.Code, labels []Label)
}

type config struct {
	skip func(bytecode.Instruction) bool
}

// Option configures Emit.
type Option func(*config)

// WithSkip sets a callback that is asked about every instruction. When it
// returns true the instruction is not emitted. Its label and exception
// block markers are still written.
func WithSkip(fn func(bytecode.Instruction) bool) Option {
	return func(c *config) { c.skip = fn }
}

// Emit replays g into sink.
func Emit(g *graph.Graph, sink Sink, opts ...Option) error {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if body := g.Body(); body != nil {
		for _, l := range body.Locals() {
			sink.DeclareLocal(l)
		}
	}

	labels := make(map[int]Label)
	for n := range g.Nodes() {
		if n.HasName() {
			labels[n.Index()] = sink.DefineLabel()
		}
	}

	regions := g.Regions()
	for n := range g.Nodes() {
		ins := n.Instruction()
		if len(regions) > 0 {
			markers(sink, regions, region.At(regions, ins.Offset(), ins.End()))
		}
		if l, ok := labels[n.Index()]; ok {
			sink.MarkLabel(l)
		}
		if cfg.skip != nil && cfg.skip(ins) {
			continue
		}
		if err := instruction(sink, n, labels); err != nil {
			return err
		}
	}
	if len(regions) > 0 {
		end := g.CodeSize()
		endGroups(sink, regions, region.At(regions, end, end+1))
	}
	return nil
}

// markers writes the block markers of one position: group ends, then
// filter and handler starts, then protected block starts.
func markers(sink Sink, regions []bytecode.ExceptionRegion, ev region.Events) {
	endGroups(sink, regions, ev)
	for range ev.FilterStarts {
		sink.BeginExceptFilterBlock()
	}
	for _, r := range ev.HandlerStarts {
		switch r.Kind {
		case bytecode.RegionClause:
			sink.BeginCatchBlock(r.CatchType)
		case bytecode.RegionFilter:
			sink.BeginCatchBlock(nil)
		case bytecode.RegionFinally:
			sink.BeginFinallyBlock()
		case bytecode.RegionFault:
			sink.BeginFaultBlock()
		}
	}
	for range ev.TryStarts {
		sink.BeginExceptionBlock()
	}
}

// endGroups closes every try group whose last handler ends here.
func endGroups(sink Sink, regions []bytecode.ExceptionRegion, ev region.Events) {
	var closed []bytecode.TryKey
	for _, r := range ev.HandlerEnds {
		key := r.TryKey()
		if r.HandlerEnd() != lastHandlerEnd(regions, key) || contains(closed, key) {
			continue
		}
		closed = append(closed, key)
		sink.EndExceptionBlock()
	}
}

func lastHandlerEnd(regions []bytecode.ExceptionRegion, key bytecode.TryKey) int {
	end := -1
	for _, r := range regions {
		if r.TryKey() == key && r.HandlerEnd() > end {
			end = r.HandlerEnd()
		}
	}
	return end
}

func contains(keys []bytecode.TryKey, key bytecode.TryKey) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func instruction(sink Sink, n *graph.Node, labels map[int]Label) error {
	ins := n.Instruction()
	code := ins.OpCode()
	switch ins.Operand().Kind() {
	case bytecode.OperandBranch:
		target := n.BranchTarget()
		l, ok := labelFor(target, labels)
		if !ok {
			return errz.NewGraphErrorf(errz.KindMissingLabel, ins.Offset(),
				"cannot find label for %s instruction", code)
		}
		long, ok := op.LongForm(code)
		if !ok {
			return errz.NewGraphErrorf(errz.KindUnsupportedOpcode, ins.Offset(),
				"opcode not supported: %s", code)
		}
		sink.EmitLabel(long, l)
	case bytecode.OperandSwitch:
		targets := n.SwitchTargets()
		ls := make([]Label, len(targets))
		for i, t := range targets {
			l, ok := labelFor(t, labels)
			if !ok {
				return errz.NewGraphErrorf(errz.KindMissingLabel, ins.Offset(),
					"cannot find label for switch instruction")
			}
			ls[i] = l
		}
		sink.EmitSwitch(code, ls)
	case bytecode.OperandNone:
		sink.Emit(code)
	default:
		sink.EmitOperand(code, ins.Operand())
	}
	return nil
}

func labelFor(n *graph.Node, labels map[int]Label) (Label, bool) {
	if n == nil {
		return 0, false
	}
	l, ok := labels[n.Index()]
	return l, ok
}
