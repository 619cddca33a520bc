package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/op"
)

// Decoder decodes the IL bytes of one method body. A Decoder holds no
// iteration state; each call to Iter starts a new pass over the bytes.
type Decoder struct {
	code     []byte
	resolver metadata.Resolver
	sink     errz.Sink
}

// DecodeOption configures a Decoder.
type DecodeOption func(*Decoder)

// WithDiagnostics sets the sink that receives resolution failures.
func WithDiagnostics(sink errz.Sink) DecodeOption {
	return func(d *Decoder) {
		if sink != nil {
			d.sink = sink
		}
	}
}

// NewDecoder returns a decoder for the given IL bytes. The resolver may be
// nil, in which case every token operand is reported as unresolved.
func NewDecoder(code []byte, resolver metadata.Resolver, opts ...DecodeOption) *Decoder {
	d := &Decoder{code: code, resolver: resolver, sink: errz.Discard}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Iter returns a fresh iterator positioned at the start of the body.
func (d *Decoder) Iter() *InstructionIter {
	return &InstructionIter{d: d}
}

// All decodes the whole body.
func (d *Decoder) All() ([]Instruction, error) {
	return d.Iter().All()
}

// Decode is shorthand for NewDecoder(code, resolver, opts...).All().
func Decode(code []byte, resolver metadata.Resolver, opts ...DecodeOption) ([]Instruction, error) {
	return NewDecoder(code, resolver, opts...).All()
}

// InstructionIter lazily decodes instructions.
type InstructionIter struct {
	d     *Decoder
	pos   int
	index int
	err   error
}

// Next decodes the next instruction. It returns false at the end of the
// body or after a decode error; check Err to tell them apart.
func (it *InstructionIter) Next() (Instruction, bool) {
	if it.err != nil || it.pos >= len(it.d.code) {
		return Instruction{}, false
	}
	ins, err := it.d.decodeAt(it.pos, it.index)
	if err != nil {
		it.err = err
		return Instruction{}, false
	}
	it.pos = ins.End()
	it.index++
	return ins, true
}

// Err returns the decode error that stopped iteration, if any.
func (it *InstructionIter) Err() error {
	return it.err
}

// All returns the remaining instructions as a newly allocated slice.
func (it *InstructionIter) All() ([]Instruction, error) {
	var results []Instruction
	for {
		ins, ok := it.Next()
		if !ok {
			break
		}
		results = append(results, ins)
	}
	return results, it.err
}

func (d *Decoder) decodeAt(pos, index int) (Instruction, error) {
	start := pos
	code := op.Code(d.code[pos])
	pos++
	if code == op.Prefix {
		if pos >= len(d.code) {
			return Instruction{}, errz.NewDecodeErrorf(errz.KindTruncated, start,
				"bytecode truncated, ends within a two-byte opcode")
		}
		code = op.Code(op.Prefix)<<8 | op.Code(d.code[pos])
		pos++
	}
	info := op.GetInfo(code)
	if !info.Valid() {
		return Instruction{}, errz.NewDecodeErrorf(errz.KindUnknownOpcode, start,
			"unknown opcode 0x%02X", uint16(code))
	}
	if need := info.Operand.Size(); pos+need > len(d.code) {
		return Instruction{}, errz.NewDecodeErrorf(errz.KindTruncated, start,
			"bytecode truncated, ends within %s operand", info.Name)
	}

	ins := Instruction{index: index, offset: start, code: code}
	o := Operand{resolved: true}
	raw := d.code[pos:]
	switch info.Operand {
	case op.InlineNone:
	case op.ShortInlineI:
		o.kind, o.i = OperandInt, int64(int8(raw[0]))
		if code == op.Unaligned {
			o.i = int64(raw[0])
		}
	case op.InlineI:
		o.kind, o.i = OperandInt, int64(int32(binary.LittleEndian.Uint32(raw)))
	case op.InlineI8:
		o.kind, o.i = OperandInt, int64(binary.LittleEndian.Uint64(raw))
	case op.ShortInlineR:
		o.kind, o.f = OperandFloat, float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case op.InlineR:
		o.kind, o.f = OperandFloat, math.Float64frombits(binary.LittleEndian.Uint64(raw))
	case op.ShortInlineBrTarget:
		o.kind, o.targets = OperandBranch, []int32{int32(int8(raw[0]))}
	case op.InlineBrTarget:
		o.kind, o.targets = OperandBranch, []int32{int32(binary.LittleEndian.Uint32(raw))}
	case op.ShortInlineVar:
		o = d.variable(start, info, int(raw[0]))
	case op.InlineVar:
		o = d.variable(start, info, int(binary.LittleEndian.Uint16(raw)))
	case op.InlineString:
		o = d.str(start, metadata.Token(binary.LittleEndian.Uint32(raw)))
	case op.InlineSig:
		o = d.signature(start, metadata.Token(binary.LittleEndian.Uint32(raw)))
	case op.InlineMethod, op.InlineField, op.InlineType, op.InlineTok:
		o = d.member(start, info, metadata.Token(binary.LittleEndian.Uint32(raw)))
	case op.InlineSwitch:
		n := uint64(binary.LittleEndian.Uint32(raw))
		if uint64(pos)+4+4*n > uint64(len(d.code)) {
			return Instruction{}, errz.NewDecodeErrorf(errz.KindTruncated, start,
				"bytecode truncated, switch table of %d entries", n)
		}
		targets := make([]int32, n)
		for i := range targets {
			targets[i] = int32(binary.LittleEndian.Uint32(raw[4+4*i:]))
		}
		o.kind, o.targets = OperandSwitch, targets
		pos += int(4 * n)
	}
	pos += info.Operand.Size()
	ins.size = pos - start
	ins.operand = o
	return ins, nil
}

func (d *Decoder) report(offset int, context string, err error) {
	d.sink.Report(errz.Diagnostic{Offset: offset, Context: context, Err: err})
}

func unresolved(tok metadata.Token, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("token %s: %w", tok, metadata.ErrNotFound)
}

func (d *Decoder) member(offset int, info op.Info, tok metadata.Token) Operand {
	o := Operand{kind: OperandMember, token: tok}
	var (
		m   metadata.Member
		err error
	)
	if d.resolver != nil {
		m, err = d.resolver.ResolveMember(tok)
	}
	if err != nil || m == nil {
		d.report(offset, fmt.Sprintf("resolving %s operand %s", info.Name, tok), unresolved(tok, err))
		o.member = metadata.Unresolved{Token: tok}
		return o
	}
	o.member, o.resolved = m, true
	return o
}

func (d *Decoder) str(offset int, tok metadata.Token) Operand {
	o := Operand{kind: OperandString, token: tok}
	if d.resolver == nil {
		d.report(offset, fmt.Sprintf("resolving string %s", tok), unresolved(tok, nil))
		return o
	}
	s, err := d.resolver.ResolveString(tok)
	if err != nil {
		d.report(offset, fmt.Sprintf("resolving string %s", tok), err)
		return o
	}
	o.s, o.resolved = s, true
	return o
}

func (d *Decoder) signature(offset int, tok metadata.Token) Operand {
	o := Operand{kind: OperandSignature, token: tok}
	var (
		sig *metadata.Signature
		err error
	)
	if d.resolver != nil {
		sig, err = d.resolver.ResolveSignature(tok)
	}
	if err != nil || sig == nil {
		d.report(offset, fmt.Sprintf("resolving signature %s", tok), unresolved(tok, err))
		o.member = metadata.Unresolved{Token: tok}
		return o
	}
	o.sig, o.member, o.resolved = sig, sig, true
	return o
}

func (d *Decoder) variable(offset int, info op.Info, index int) Operand {
	if info.Arg {
		o := Operand{kind: OperandParam, i: int64(index)}
		var (
			p   *metadata.Param
			err error
		)
		if d.resolver != nil {
			p, err = d.resolver.ResolveParam(index)
		}
		if err != nil || p == nil {
			if err == nil {
				err = fmt.Errorf("argument %d: %w", index, metadata.ErrNotFound)
			}
			d.report(offset, fmt.Sprintf("resolving %s argument %d", info.Name, index), err)
			o.param = &metadata.Param{Index: index}
			return o
		}
		o.param, o.resolved = p, true
		return o
	}
	o := Operand{kind: OperandLocal, i: int64(index)}
	var (
		l   *metadata.Local
		err error
	)
	if d.resolver != nil {
		l, err = d.resolver.ResolveLocal(index)
	}
	if err != nil || l == nil {
		if err == nil {
			err = fmt.Errorf("local %d: %w", index, metadata.ErrNotFound)
		}
		d.report(offset, fmt.Sprintf("resolving %s local %d", info.Name, index), err)
		o.local = &metadata.Local{Index: index}
		return o
	}
	o.local, o.resolved = l, true
	return o
}
