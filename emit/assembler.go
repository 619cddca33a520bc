package emit

import (
	"errors"
	"fmt"
	"math"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/op"
	"github.com/hashicorp/go-multierror"
)

type fixup struct {
	at    int // position of the operand
	base  int // end of the instruction
	label Label
	short bool
}

type tryGroup struct {
	tryStart int
	tryEnd   int
	filter   int
	handlers []bytecode.ExceptionRegion
}

// Assembler is a Sink that writes CIL bytes and collects the exception
// regions implied by the block markers. Call Body once the method has been
// emitted.
type Assembler struct {
	w       bytecode.Writer
	labels  []int
	fixups  []fixup
	locals  []*metadata.Local
	regions []bytecode.ExceptionRegion
	open    []*tryGroup
	errs    *multierror.Error
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

func (a *Assembler) fail(err error) {
	a.errs = multierror.Append(a.errs, err)
}

// DeclareLocal adds a local variable slot.
func (a *Assembler) DeclareLocal(l *metadata.Local) {
	local := &metadata.Local{Index: len(a.locals)}
	if l != nil {
		copied := *l
		copied.Index = len(a.locals)
		local = &copied
	}
	a.locals = append(a.locals, local)
}

// DefineLabel returns a new unmarked label.
func (a *Assembler) DefineLabel() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// MarkLabel binds l to the current position.
func (a *Assembler) MarkLabel(l Label) {
	if int(l) < 0 || int(l) >= len(a.labels) {
		a.fail(fmt.Errorf("mark label: label %d is not defined", l))
		return
	}
	a.labels[l] = a.w.Len()
}

func (a *Assembler) top(marker string) *tryGroup {
	if len(a.open) == 0 {
		a.fail(fmt.Errorf("%s at 0x%04X: no exception block is open", marker, a.w.Len()))
		return nil
	}
	return a.open[len(a.open)-1]
}

// BeginExceptionBlock opens a protected block at the current position.
func (a *Assembler) BeginExceptionBlock() {
	a.open = append(a.open, &tryGroup{tryStart: a.w.Len(), tryEnd: -1, filter: -1})
}

func (a *Assembler) endHandler(g *tryGroup) {
	pos := a.w.Len()
	if g.tryEnd < 0 {
		g.tryEnd = pos
	}
	if n := len(g.handlers); n > 0 && g.handlers[n-1].HandlerLength == 0 {
		h := &g.handlers[n-1]
		h.HandlerLength = pos - h.HandlerOffset
	}
}

func (a *Assembler) beginHandler(marker string, kind bytecode.RegionKind, t *metadata.TypeRef) {
	g := a.top(marker)
	if g == nil {
		return
	}
	a.endHandler(g)
	r := bytecode.ExceptionRegion{
		Kind:          kind,
		TryOffset:     g.tryStart,
		TryLength:     g.tryEnd - g.tryStart,
		HandlerOffset: a.w.Len(),
		CatchType:     t,
	}
	if g.filter >= 0 {
		r.Kind = bytecode.RegionFilter
		r.FilterOffset = g.filter
		r.CatchType = nil
		g.filter = -1
	}
	g.handlers = append(g.handlers, r)
}

// BeginCatchBlock starts a catch handler, or the handler of a filter when
// a filter block is pending.
func (a *Assembler) BeginCatchBlock(t *metadata.TypeRef) {
	a.beginHandler("catch", bytecode.RegionClause, t)
}

// BeginExceptFilterBlock starts a filter block.
func (a *Assembler) BeginExceptFilterBlock() {
	g := a.top("filter")
	if g == nil {
		return
	}
	a.endHandler(g)
	g.filter = a.w.Len()
}

// BeginFinallyBlock starts a finally handler.
func (a *Assembler) BeginFinallyBlock() {
	a.beginHandler("finally", bytecode.RegionFinally, nil)
}

// BeginFaultBlock starts a fault handler.
func (a *Assembler) BeginFaultBlock() {
	a.beginHandler("fault", bytecode.RegionFault, nil)
}

// EndExceptionBlock closes the innermost protected block and its handlers.
func (a *Assembler) EndExceptionBlock() {
	g := a.top("end exception block")
	if g == nil {
		return
	}
	a.endHandler(g)
	if len(g.handlers) == 0 {
		a.fail(fmt.Errorf("exception block at 0x%04X has no handler", g.tryStart))
	}
	a.regions = append(a.regions, g.handlers...)
	a.open = a.open[:len(a.open)-1]
}

// Emit writes an instruction without operand.
func (a *Assembler) Emit(code op.Code) {
	a.w.Op(code)
}

// EmitOperand writes an instruction with its operand.
func (a *Assembler) EmitOperand(code op.Code, o bytecode.Operand) {
	if err := a.w.Encode(code, o); err != nil {
		a.fail(err)
	}
}

// EmitLabel writes a branch to l. The offset is patched by Body.
func (a *Assembler) EmitLabel(code op.Code, l Label) {
	info := op.GetInfo(code)
	a.w.Op(code)
	switch info.Operand {
	case op.ShortInlineBrTarget:
		at := a.w.Len()
		a.w.I8(0)
		a.fixups = append(a.fixups, fixup{at: at, base: a.w.Len(), label: l, short: true})
	case op.InlineBrTarget:
		at := a.w.Len()
		a.w.I32(0)
		a.fixups = append(a.fixups, fixup{at: at, base: a.w.Len(), label: l})
	default:
		a.fail(fmt.Errorf("emit %s: not a branch instruction", code))
	}
}

// EmitSwitch writes a switch over labels.
func (a *Assembler) EmitSwitch(code op.Code, labels []Label) {
	a.w.Op(code).I32(int32(len(labels)))
	start := a.w.Len()
	base := start + 4*len(labels)
	for i, l := range labels {
		a.w.I32(0)
		a.fixups = append(a.fixups, fixup{at: start + 4*i, base: base, label: l})
	}
}

// Len returns the number of bytes written so far.
func (a *Assembler) Len() int {
	return a.w.Len()
}

// Body resolves label references and returns the assembled method body.
func (a *Assembler) Body(maxStack int, initLocals bool) (*bytecode.Body, error) {
	for _, f := range a.fixups {
		if int(f.label) < 0 || int(f.label) >= len(a.labels) || a.labels[f.label] < 0 {
			a.fail(errz.NewGraphErrorf(errz.KindMissingLabel, f.at, "label %d is never marked", f.label))
			continue
		}
		rel := a.labels[f.label] - f.base
		if !f.short {
			a.w.PatchI32(f.at, int32(rel))
			continue
		}
		if rel < math.MinInt8 || rel > math.MaxInt8 {
			a.fail(fmt.Errorf("branch at 0x%04X: offset %d does not fit a short form", f.at, rel))
			continue
		}
		a.w.PatchI8(f.at, int8(rel))
	}
	a.fixups = nil
	if len(a.open) > 0 {
		a.fail(errors.New("exception blocks are still open"))
	}
	if err := a.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return bytecode.NewBody(bytecode.BodyParams{
		Code:       a.w.Bytes(),
		MaxStack:   maxStack,
		InitLocals: initLocals,
		Locals:     a.locals,
		Regions:    a.regions,
	}), nil
}
