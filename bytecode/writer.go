package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/op"
)

// Writer appends CIL encodings to a byte buffer. The zero value is ready
// to use. Its methods return the Writer so calls can be chained.
type Writer struct {
	buf []byte
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns a copy of the bytes written.
func (w *Writer) Bytes() []byte {
	return copyBytes(w.buf)
}

// Op writes an opcode.
func (w *Writer) Op(code op.Code) *Writer {
	if code.Size() == 2 {
		w.buf = append(w.buf, op.Prefix)
	}
	w.buf = append(w.buf, byte(code))
	return w
}

// U8 writes an unsigned byte.
func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// I8 writes a signed byte.
func (w *Writer) I8(v int8) *Writer {
	w.buf = append(w.buf, byte(v))
	return w
}

// U16 writes a little-endian uint16.
func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return w
}

// I32 writes a little-endian int32.
func (w *Writer) I32(v int32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	return w
}

// I64 writes a little-endian int64.
func (w *Writer) I64(v int64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
	return w
}

// F32 writes a little-endian float32.
func (w *Writer) F32(v float32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
	return w
}

// F64 writes a little-endian float64.
func (w *Writer) F64(v float64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
	return w
}

// Token writes a metadata token.
func (w *Writer) Token(tok metadata.Token) *Writer {
	return w.I32(int32(tok))
}

// PatchI8 overwrites the byte at the given position.
func (w *Writer) PatchI8(at int, v int8) {
	w.buf[at] = byte(v)
}

// PatchI32 overwrites the four bytes at the given position.
func (w *Writer) PatchI32(at int, v int32) {
	binary.LittleEndian.PutUint32(w.buf[at:], uint32(v))
}

// Encode writes the opcode followed by the operand encoded as the opcode's
// operand type requires. Branch and switch operands are written with
// their raw relative offsets. Nothing is written when the operand does
// not fit.
func (w *Writer) Encode(code op.Code, o Operand) error {
	info := op.GetInfo(code)
	if !info.Valid() {
		return fmt.Errorf("encode: unknown opcode 0x%02X", uint16(code))
	}
	if err := checkOperand(info, o); err != nil {
		return err
	}
	w.Op(code)
	switch info.Operand {
	case op.InlineNone:
	case op.ShortInlineI, op.ShortInlineVar:
		w.U8(uint8(o.i))
	case op.InlineI:
		w.I32(int32(o.i))
	case op.InlineI8:
		w.I64(o.i)
	case op.ShortInlineR:
		w.F32(float32(o.f))
	case op.InlineR:
		w.F64(o.f)
	case op.InlineVar:
		w.U16(uint16(o.i))
	case op.InlineString, op.InlineSig, op.InlineMethod, op.InlineField, op.InlineType, op.InlineTok:
		w.Token(o.token)
	case op.ShortInlineBrTarget:
		w.I8(int8(o.Branch()))
	case op.InlineBrTarget:
		w.I32(o.Branch())
	case op.InlineSwitch:
		w.I32(int32(o.SwitchLen()))
		for i := 0; i < o.SwitchLen(); i++ {
			w.I32(o.SwitchAt(i))
		}
	}
	return nil
}

func checkOperand(info op.Info, o Operand) error {
	switch info.Operand {
	case op.ShortInlineVar:
		if o.i < 0 || o.i > math.MaxUint8 {
			return fmt.Errorf("encode %s: variable index %d out of range", info.Name, o.i)
		}
	case op.InlineVar:
		if o.i < 0 || o.i > math.MaxUint16 {
			return fmt.Errorf("encode %s: variable index %d out of range", info.Name, o.i)
		}
	case op.ShortInlineBrTarget:
		if rel := o.Branch(); rel < math.MinInt8 || rel > math.MaxInt8 {
			return fmt.Errorf("encode %s: branch offset %d out of range", info.Name, rel)
		}
	}
	return nil
}
