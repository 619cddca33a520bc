// Package op defines the CIL opcode table used by the decoder, the graph
// builder and the re-emitter.
package op

import "strings"

// Code identifies a CIL opcode. One-byte opcodes use their byte value;
// two-byte opcodes use Prefix<<8 | second byte.
type Code uint16

// Prefix is the first byte of every two-byte opcode.
const Prefix = 0xFE

const (
	Nop       Code = 0x00
	Break     Code = 0x01
	Ldarg0    Code = 0x02
	Ldarg1    Code = 0x03
	Ldarg2    Code = 0x04
	Ldarg3    Code = 0x05
	Ldloc0    Code = 0x06
	Ldloc1    Code = 0x07
	Ldloc2    Code = 0x08
	Ldloc3    Code = 0x09
	Stloc0    Code = 0x0A
	Stloc1    Code = 0x0B
	Stloc2    Code = 0x0C
	Stloc3    Code = 0x0D
	LdargS    Code = 0x0E
	LdargaS   Code = 0x0F
	StargS    Code = 0x10
	LdlocS    Code = 0x11
	LdlocaS   Code = 0x12
	StlocS    Code = 0x13
	Ldnull    Code = 0x14
	LdcI4M1   Code = 0x15
	LdcI40    Code = 0x16
	LdcI41    Code = 0x17
	LdcI42    Code = 0x18
	LdcI43    Code = 0x19
	LdcI44    Code = 0x1A
	LdcI45    Code = 0x1B
	LdcI46    Code = 0x1C
	LdcI47    Code = 0x1D
	LdcI48    Code = 0x1E
	LdcI4S    Code = 0x1F
	LdcI4     Code = 0x20
	LdcI8     Code = 0x21
	LdcR4     Code = 0x22
	LdcR8     Code = 0x23
	Dup       Code = 0x25
	Pop       Code = 0x26
	Jmp       Code = 0x27
	Call      Code = 0x28
	Calli     Code = 0x29
	Ret       Code = 0x2A
	BrS       Code = 0x2B
	BrfalseS  Code = 0x2C
	BrtrueS   Code = 0x2D
	BeqS      Code = 0x2E
	BgeS      Code = 0x2F
	BgtS      Code = 0x30
	BleS      Code = 0x31
	BltS      Code = 0x32
	BneUnS    Code = 0x33
	BgeUnS    Code = 0x34
	BgtUnS    Code = 0x35
	BleUnS    Code = 0x36
	BltUnS    Code = 0x37
	Br        Code = 0x38
	Brfalse   Code = 0x39
	Brtrue    Code = 0x3A
	Beq       Code = 0x3B
	Bge       Code = 0x3C
	Bgt       Code = 0x3D
	Ble       Code = 0x3E
	Blt       Code = 0x3F
	BneUn     Code = 0x40
	BgeUn     Code = 0x41
	BgtUn     Code = 0x42
	BleUn     Code = 0x43
	BltUn     Code = 0x44
	Switch    Code = 0x45
	LdindI1   Code = 0x46
	LdindU1   Code = 0x47
	LdindI2   Code = 0x48
	LdindU2   Code = 0x49
	LdindI4   Code = 0x4A
	LdindU4   Code = 0x4B
	LdindI8   Code = 0x4C
	LdindI    Code = 0x4D
	LdindR4   Code = 0x4E
	LdindR8   Code = 0x4F
	LdindRef  Code = 0x50
	StindRef  Code = 0x51
	StindI1   Code = 0x52
	StindI2   Code = 0x53
	StindI4   Code = 0x54
	StindI8   Code = 0x55
	StindR4   Code = 0x56
	StindR8   Code = 0x57
	Add       Code = 0x58
	Sub       Code = 0x59
	Mul       Code = 0x5A
	Div       Code = 0x5B
	DivUn     Code = 0x5C
	Rem       Code = 0x5D
	RemUn     Code = 0x5E
	And       Code = 0x5F
	Or        Code = 0x60
	Xor       Code = 0x61
	Shl       Code = 0x62
	Shr       Code = 0x63
	ShrUn     Code = 0x64
	Neg       Code = 0x65
	Not       Code = 0x66
	ConvI1    Code = 0x67
	ConvI2    Code = 0x68
	ConvI4    Code = 0x69
	ConvI8    Code = 0x6A
	ConvR4    Code = 0x6B
	ConvR8    Code = 0x6C
	ConvU4    Code = 0x6D
	ConvU8    Code = 0x6E
	Callvirt  Code = 0x6F
	Cpobj     Code = 0x70
	Ldobj     Code = 0x71
	Ldstr     Code = 0x72
	Newobj    Code = 0x73
	Castclass Code = 0x74
	Isinst    Code = 0x75
	ConvRUn   Code = 0x76
	Unbox     Code = 0x79
	Throw     Code = 0x7A
	Ldfld     Code = 0x7B
	Ldflda    Code = 0x7C
	Stfld     Code = 0x7D
	Ldsfld    Code = 0x7E
	Ldsflda   Code = 0x7F
	Stsfld    Code = 0x80
	Stobj     Code = 0x81

	ConvOvfI1Un Code = 0x82
	ConvOvfI2Un Code = 0x83
	ConvOvfI4Un Code = 0x84
	ConvOvfI8Un Code = 0x85
	ConvOvfU1Un Code = 0x86
	ConvOvfU2Un Code = 0x87
	ConvOvfU4Un Code = 0x88
	ConvOvfU8Un Code = 0x89
	ConvOvfIUn  Code = 0x8A
	ConvOvfUUn  Code = 0x8B

	Box       Code = 0x8C
	Newarr    Code = 0x8D
	Ldlen     Code = 0x8E
	Ldelema   Code = 0x8F
	LdelemI1  Code = 0x90
	LdelemU1  Code = 0x91
	LdelemI2  Code = 0x92
	LdelemU2  Code = 0x93
	LdelemI4  Code = 0x94
	LdelemU4  Code = 0x95
	LdelemI8  Code = 0x96
	LdelemI   Code = 0x97
	LdelemR4  Code = 0x98
	LdelemR8  Code = 0x99
	LdelemRef Code = 0x9A
	StelemI   Code = 0x9B
	StelemI1  Code = 0x9C
	StelemI2  Code = 0x9D
	StelemI4  Code = 0x9E
	StelemI8  Code = 0x9F
	StelemR4  Code = 0xA0
	StelemR8  Code = 0xA1
	StelemRef Code = 0xA2
	Ldelem    Code = 0xA3
	Stelem    Code = 0xA4
	UnboxAny  Code = 0xA5

	ConvOvfI1 Code = 0xB3
	ConvOvfU1 Code = 0xB4
	ConvOvfI2 Code = 0xB5
	ConvOvfU2 Code = 0xB6
	ConvOvfI4 Code = 0xB7
	ConvOvfU4 Code = 0xB8
	ConvOvfI8 Code = 0xB9
	ConvOvfU8 Code = 0xBA

	Refanyval  Code = 0xC2
	Ckfinite   Code = 0xC3
	Mkrefany   Code = 0xC6
	Ldtoken    Code = 0xD0
	ConvU2     Code = 0xD1
	ConvU1     Code = 0xD2
	ConvI      Code = 0xD3
	ConvOvfI   Code = 0xD4
	ConvOvfU   Code = 0xD5
	AddOvf     Code = 0xD6
	AddOvfUn   Code = 0xD7
	MulOvf     Code = 0xD8
	MulOvfUn   Code = 0xD9
	SubOvf     Code = 0xDA
	SubOvfUn   Code = 0xDB
	Endfinally Code = 0xDC
	Leave      Code = 0xDD
	LeaveS     Code = 0xDE
	StindI     Code = 0xDF
	ConvU      Code = 0xE0

	// Two-byte opcodes
	Arglist     Code = 0xFE00
	Ceq         Code = 0xFE01
	Cgt         Code = 0xFE02
	CgtUn       Code = 0xFE03
	Clt         Code = 0xFE04
	CltUn       Code = 0xFE05
	Ldftn       Code = 0xFE06
	Ldvirtftn   Code = 0xFE07
	Ldarg       Code = 0xFE09
	Ldarga      Code = 0xFE0A
	Starg       Code = 0xFE0B
	Ldloc       Code = 0xFE0C
	Ldloca      Code = 0xFE0D
	Stloc       Code = 0xFE0E
	Localloc    Code = 0xFE0F
	Endfilter   Code = 0xFE11
	Unaligned   Code = 0xFE12
	Volatile    Code = 0xFE13
	Tail        Code = 0xFE14
	Initobj     Code = 0xFE15
	Constrained Code = 0xFE16
	Cpblk       Code = 0xFE17
	Initblk     Code = 0xFE18
	No          Code = 0xFE19
	Rethrow     Code = 0xFE1A
	Sizeof      Code = 0xFE1C
	Refanytype  Code = 0xFE1D
	Readonly    Code = 0xFE1E
)

// OperandType describes the encoding of an opcode's inline operand.
type OperandType uint8

const (
	InlineNone OperandType = iota
	ShortInlineBrTarget
	InlineBrTarget
	ShortInlineI
	InlineI
	InlineI8
	ShortInlineR
	InlineR
	ShortInlineVar
	InlineVar
	InlineMethod
	InlineField
	InlineType
	InlineTok
	InlineString
	InlineSig
	InlineSwitch
)

// Size returns the fixed encoded size of the operand in bytes. InlineSwitch
// returns the size of its count prefix only; the jump table follows it.
func (t OperandType) Size() int {
	switch t {
	case InlineNone:
		return 0
	case ShortInlineBrTarget, ShortInlineI, ShortInlineVar:
		return 1
	case InlineVar:
		return 2
	case InlineI8, InlineR:
		return 8
	default:
		return 4
	}
}

// IsToken reports whether the operand is a metadata token.
func (t OperandType) IsToken() bool {
	switch t {
	case InlineMethod, InlineField, InlineType, InlineTok, InlineString, InlineSig:
		return true
	}
	return false
}

func (t OperandType) String() string {
	switch t {
	case InlineNone:
		return "InlineNone"
	case ShortInlineBrTarget:
		return "ShortInlineBrTarget"
	case InlineBrTarget:
		return "InlineBrTarget"
	case ShortInlineI:
		return "ShortInlineI"
	case InlineI:
		return "InlineI"
	case InlineI8:
		return "InlineI8"
	case ShortInlineR:
		return "ShortInlineR"
	case InlineR:
		return "InlineR"
	case ShortInlineVar:
		return "ShortInlineVar"
	case InlineVar:
		return "InlineVar"
	case InlineMethod:
		return "InlineMethod"
	case InlineField:
		return "InlineField"
	case InlineType:
		return "InlineType"
	case InlineTok:
		return "InlineTok"
	case InlineString:
		return "InlineString"
	case InlineSig:
		return "InlineSig"
	case InlineSwitch:
		return "InlineSwitch"
	default:
		return "Unknown"
	}
}

// FlowControl classifies how an instruction affects control flow.
type FlowControl uint8

const (
	FlowNext FlowControl = iota
	FlowBreak
	FlowCall
	FlowBranch
	FlowCondBranch
	FlowReturn
	FlowThrow
	FlowMeta
)

func (f FlowControl) String() string {
	switch f {
	case FlowNext:
		return "next"
	case FlowBreak:
		return "break"
	case FlowCall:
		return "call"
	case FlowBranch:
		return "branch"
	case FlowCondBranch:
		return "cond-branch"
	case FlowReturn:
		return "return"
	case FlowThrow:
		return "throw"
	case FlowMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// Info contains information about an opcode.
type Info struct {
	Code    Code
	Name    string
	Operand OperandType
	Flow    FlowControl

	// Arg is set for the variable opcodes that address method arguments
	// rather than locals.
	Arg bool
}

// Valid reports whether the info describes a known opcode.
func (i Info) Valid() bool {
	return i.Name != ""
}

// Size returns the encoded size of the opcode itself (1 or 2 bytes).
func (c Code) Size() int {
	if c>>8 == Prefix {
		return 2
	}
	return 1
}

// String returns the opcode mnemonic.
func (c Code) String() string {
	if info := GetInfo(c); info.Valid() {
		return info.Name
	}
	return "unknown"
}

// IsBranch reports whether the opcode carries a branch or switch operand.
func (c Code) IsBranch() bool {
	switch GetInfo(c).Operand {
	case ShortInlineBrTarget, InlineBrTarget, InlineSwitch:
		return true
	}
	return false
}

var (
	oneByte [256]Info
	twoByte [256]Info
	byName  = map[string]Code{}
	longs   = map[Code]Code{}
)

func init() {
	type opInfo struct {
		op      Code
		name    string
		operand OperandType
		flow    FlowControl
	}
	ops := []opInfo{
		{Nop, "nop", InlineNone, FlowNext},
		{Break, "break", InlineNone, FlowBreak},
		{Ldarg0, "ldarg.0", InlineNone, FlowNext},
		{Ldarg1, "ldarg.1", InlineNone, FlowNext},
		{Ldarg2, "ldarg.2", InlineNone, FlowNext},
		{Ldarg3, "ldarg.3", InlineNone, FlowNext},
		{Ldloc0, "ldloc.0", InlineNone, FlowNext},
		{Ldloc1, "ldloc.1", InlineNone, FlowNext},
		{Ldloc2, "ldloc.2", InlineNone, FlowNext},
		{Ldloc3, "ldloc.3", InlineNone, FlowNext},
		{Stloc0, "stloc.0", InlineNone, FlowNext},
		{Stloc1, "stloc.1", InlineNone, FlowNext},
		{Stloc2, "stloc.2", InlineNone, FlowNext},
		{Stloc3, "stloc.3", InlineNone, FlowNext},
		{LdargS, "ldarg.s", ShortInlineVar, FlowNext},
		{LdargaS, "ldarga.s", ShortInlineVar, FlowNext},
		{StargS, "starg.s", ShortInlineVar, FlowNext},
		{LdlocS, "ldloc.s", ShortInlineVar, FlowNext},
		{LdlocaS, "ldloca.s", ShortInlineVar, FlowNext},
		{StlocS, "stloc.s", ShortInlineVar, FlowNext},
		{Ldnull, "ldnull", InlineNone, FlowNext},
		{LdcI4M1, "ldc.i4.m1", InlineNone, FlowNext},
		{LdcI40, "ldc.i4.0", InlineNone, FlowNext},
		{LdcI41, "ldc.i4.1", InlineNone, FlowNext},
		{LdcI42, "ldc.i4.2", InlineNone, FlowNext},
		{LdcI43, "ldc.i4.3", InlineNone, FlowNext},
		{LdcI44, "ldc.i4.4", InlineNone, FlowNext},
		{LdcI45, "ldc.i4.5", InlineNone, FlowNext},
		{LdcI46, "ldc.i4.6", InlineNone, FlowNext},
		{LdcI47, "ldc.i4.7", InlineNone, FlowNext},
		{LdcI48, "ldc.i4.8", InlineNone, FlowNext},
		{LdcI4S, "ldc.i4.s", ShortInlineI, FlowNext},
		{LdcI4, "ldc.i4", InlineI, FlowNext},
		{LdcI8, "ldc.i8", InlineI8, FlowNext},
		{LdcR4, "ldc.r4", ShortInlineR, FlowNext},
		{LdcR8, "ldc.r8", InlineR, FlowNext},
		{Dup, "dup", InlineNone, FlowNext},
		{Pop, "pop", InlineNone, FlowNext},
		{Jmp, "jmp", InlineMethod, FlowCall},
		{Call, "call", InlineMethod, FlowCall},
		{Calli, "calli", InlineSig, FlowCall},
		{Ret, "ret", InlineNone, FlowReturn},
		{BrS, "br.s", ShortInlineBrTarget, FlowBranch},
		{BrfalseS, "brfalse.s", ShortInlineBrTarget, FlowCondBranch},
		{BrtrueS, "brtrue.s", ShortInlineBrTarget, FlowCondBranch},
		{BeqS, "beq.s", ShortInlineBrTarget, FlowCondBranch},
		{BgeS, "bge.s", ShortInlineBrTarget, FlowCondBranch},
		{BgtS, "bgt.s", ShortInlineBrTarget, FlowCondBranch},
		{BleS, "ble.s", ShortInlineBrTarget, FlowCondBranch},
		{BltS, "blt.s", ShortInlineBrTarget, FlowCondBranch},
		{BneUnS, "bne.un.s", ShortInlineBrTarget, FlowCondBranch},
		{BgeUnS, "bge.un.s", ShortInlineBrTarget, FlowCondBranch},
		{BgtUnS, "bgt.un.s", ShortInlineBrTarget, FlowCondBranch},
		{BleUnS, "ble.un.s", ShortInlineBrTarget, FlowCondBranch},
		{BltUnS, "blt.un.s", ShortInlineBrTarget, FlowCondBranch},
		{Br, "br", InlineBrTarget, FlowBranch},
		{Brfalse, "brfalse", InlineBrTarget, FlowCondBranch},
		{Brtrue, "brtrue", InlineBrTarget, FlowCondBranch},
		{Beq, "beq", InlineBrTarget, FlowCondBranch},
		{Bge, "bge", InlineBrTarget, FlowCondBranch},
		{Bgt, "bgt", InlineBrTarget, FlowCondBranch},
		{Ble, "ble", InlineBrTarget, FlowCondBranch},
		{Blt, "blt", InlineBrTarget, FlowCondBranch},
		{BneUn, "bne.un", InlineBrTarget, FlowCondBranch},
		{BgeUn, "bge.un", InlineBrTarget, FlowCondBranch},
		{BgtUn, "bgt.un", InlineBrTarget, FlowCondBranch},
		{BleUn, "ble.un", InlineBrTarget, FlowCondBranch},
		{BltUn, "blt.un", InlineBrTarget, FlowCondBranch},
		{Switch, "switch", InlineSwitch, FlowCondBranch},
		{LdindI1, "ldind.i1", InlineNone, FlowNext},
		{LdindU1, "ldind.u1", InlineNone, FlowNext},
		{LdindI2, "ldind.i2", InlineNone, FlowNext},
		{LdindU2, "ldind.u2", InlineNone, FlowNext},
		{LdindI4, "ldind.i4", InlineNone, FlowNext},
		{LdindU4, "ldind.u4", InlineNone, FlowNext},
		{LdindI8, "ldind.i8", InlineNone, FlowNext},
		{LdindI, "ldind.i", InlineNone, FlowNext},
		{LdindR4, "ldind.r4", InlineNone, FlowNext},
		{LdindR8, "ldind.r8", InlineNone, FlowNext},
		{LdindRef, "ldind.ref", InlineNone, FlowNext},
		{StindRef, "stind.ref", InlineNone, FlowNext},
		{StindI1, "stind.i1", InlineNone, FlowNext},
		{StindI2, "stind.i2", InlineNone, FlowNext},
		{StindI4, "stind.i4", InlineNone, FlowNext},
		{StindI8, "stind.i8", InlineNone, FlowNext},
		{StindR4, "stind.r4", InlineNone, FlowNext},
		{StindR8, "stind.r8", InlineNone, FlowNext},
		{Add, "add", InlineNone, FlowNext},
		{Sub, "sub", InlineNone, FlowNext},
		{Mul, "mul", InlineNone, FlowNext},
		{Div, "div", InlineNone, FlowNext},
		{DivUn, "div.un", InlineNone, FlowNext},
		{Rem, "rem", InlineNone, FlowNext},
		{RemUn, "rem.un", InlineNone, FlowNext},
		{And, "and", InlineNone, FlowNext},
		{Or, "or", InlineNone, FlowNext},
		{Xor, "xor", InlineNone, FlowNext},
		{Shl, "shl", InlineNone, FlowNext},
		{Shr, "shr", InlineNone, FlowNext},
		{ShrUn, "shr.un", InlineNone, FlowNext},
		{Neg, "neg", InlineNone, FlowNext},
		{Not, "not", InlineNone, FlowNext},
		{ConvI1, "conv.i1", InlineNone, FlowNext},
		{ConvI2, "conv.i2", InlineNone, FlowNext},
		{ConvI4, "conv.i4", InlineNone, FlowNext},
		{ConvI8, "conv.i8", InlineNone, FlowNext},
		{ConvR4, "conv.r4", InlineNone, FlowNext},
		{ConvR8, "conv.r8", InlineNone, FlowNext},
		{ConvU4, "conv.u4", InlineNone, FlowNext},
		{ConvU8, "conv.u8", InlineNone, FlowNext},
		{Callvirt, "callvirt", InlineMethod, FlowCall},
		{Cpobj, "cpobj", InlineType, FlowNext},
		{Ldobj, "ldobj", InlineType, FlowNext},
		{Ldstr, "ldstr", InlineString, FlowNext},
		{Newobj, "newobj", InlineMethod, FlowCall},
		{Castclass, "castclass", InlineType, FlowNext},
		{Isinst, "isinst", InlineType, FlowNext},
		{ConvRUn, "conv.r.un", InlineNone, FlowNext},
		{Unbox, "unbox", InlineType, FlowNext},
		{Throw, "throw", InlineNone, FlowThrow},
		{Ldfld, "ldfld", InlineField, FlowNext},
		{Ldflda, "ldflda", InlineField, FlowNext},
		{Stfld, "stfld", InlineField, FlowNext},
		{Ldsfld, "ldsfld", InlineField, FlowNext},
		{Ldsflda, "ldsflda", InlineField, FlowNext},
		{Stsfld, "stsfld", InlineField, FlowNext},
		{Stobj, "stobj", InlineType, FlowNext},
		{ConvOvfI1Un, "conv.ovf.i1.un", InlineNone, FlowNext},
		{ConvOvfI2Un, "conv.ovf.i2.un", InlineNone, FlowNext},
		{ConvOvfI4Un, "conv.ovf.i4.un", InlineNone, FlowNext},
		{ConvOvfI8Un, "conv.ovf.i8.un", InlineNone, FlowNext},
		{ConvOvfU1Un, "conv.ovf.u1.un", InlineNone, FlowNext},
		{ConvOvfU2Un, "conv.ovf.u2.un", InlineNone, FlowNext},
		{ConvOvfU4Un, "conv.ovf.u4.un", InlineNone, FlowNext},
		{ConvOvfU8Un, "conv.ovf.u8.un", InlineNone, FlowNext},
		{ConvOvfIUn, "conv.ovf.i.un", InlineNone, FlowNext},
		{ConvOvfUUn, "conv.ovf.u.un", InlineNone, FlowNext},
		{Box, "box", InlineType, FlowNext},
		{Newarr, "newarr", InlineType, FlowNext},
		{Ldlen, "ldlen", InlineNone, FlowNext},
		{Ldelema, "ldelema", InlineType, FlowNext},
		{LdelemI1, "ldelem.i1", InlineNone, FlowNext},
		{LdelemU1, "ldelem.u1", InlineNone, FlowNext},
		{LdelemI2, "ldelem.i2", InlineNone, FlowNext},
		{LdelemU2, "ldelem.u2", InlineNone, FlowNext},
		{LdelemI4, "ldelem.i4", InlineNone, FlowNext},
		{LdelemU4, "ldelem.u4", InlineNone, FlowNext},
		{LdelemI8, "ldelem.i8", InlineNone, FlowNext},
		{LdelemI, "ldelem.i", InlineNone, FlowNext},
		{LdelemR4, "ldelem.r4", InlineNone, FlowNext},
		{LdelemR8, "ldelem.r8", InlineNone, FlowNext},
		{LdelemRef, "ldelem.ref", InlineNone, FlowNext},
		{StelemI, "stelem.i", InlineNone, FlowNext},
		{StelemI1, "stelem.i1", InlineNone, FlowNext},
		{StelemI2, "stelem.i2", InlineNone, FlowNext},
		{StelemI4, "stelem.i4", InlineNone, FlowNext},
		{StelemI8, "stelem.i8", InlineNone, FlowNext},
		{StelemR4, "stelem.r4", InlineNone, FlowNext},
		{StelemR8, "stelem.r8", InlineNone, FlowNext},
		{StelemRef, "stelem.ref", InlineNone, FlowNext},
		{Ldelem, "ldelem", InlineType, FlowNext},
		{Stelem, "stelem", InlineType, FlowNext},
		{UnboxAny, "unbox.any", InlineType, FlowNext},
		{ConvOvfI1, "conv.ovf.i1", InlineNone, FlowNext},
		{ConvOvfU1, "conv.ovf.u1", InlineNone, FlowNext},
		{ConvOvfI2, "conv.ovf.i2", InlineNone, FlowNext},
		{ConvOvfU2, "conv.ovf.u2", InlineNone, FlowNext},
		{ConvOvfI4, "conv.ovf.i4", InlineNone, FlowNext},
		{ConvOvfU4, "conv.ovf.u4", InlineNone, FlowNext},
		{ConvOvfI8, "conv.ovf.i8", InlineNone, FlowNext},
		{ConvOvfU8, "conv.ovf.u8", InlineNone, FlowNext},
		{Refanyval, "refanyval", InlineType, FlowNext},
		{Ckfinite, "ckfinite", InlineNone, FlowNext},
		{Mkrefany, "mkrefany", InlineType, FlowNext},
		{Ldtoken, "ldtoken", InlineTok, FlowNext},
		{ConvU2, "conv.u2", InlineNone, FlowNext},
		{ConvU1, "conv.u1", InlineNone, FlowNext},
		{ConvI, "conv.i", InlineNone, FlowNext},
		{ConvOvfI, "conv.ovf.i", InlineNone, FlowNext},
		{ConvOvfU, "conv.ovf.u", InlineNone, FlowNext},
		{AddOvf, "add.ovf", InlineNone, FlowNext},
		{AddOvfUn, "add.ovf.un", InlineNone, FlowNext},
		{MulOvf, "mul.ovf", InlineNone, FlowNext},
		{MulOvfUn, "mul.ovf.un", InlineNone, FlowNext},
		{SubOvf, "sub.ovf", InlineNone, FlowNext},
		{SubOvfUn, "sub.ovf.un", InlineNone, FlowNext},
		{Endfinally, "endfinally", InlineNone, FlowReturn},
		{Leave, "leave", InlineBrTarget, FlowBranch},
		{LeaveS, "leave.s", ShortInlineBrTarget, FlowBranch},
		{StindI, "stind.i", InlineNone, FlowNext},
		{ConvU, "conv.u", InlineNone, FlowNext},
		{Arglist, "arglist", InlineNone, FlowNext},
		{Ceq, "ceq", InlineNone, FlowNext},
		{Cgt, "cgt", InlineNone, FlowNext},
		{CgtUn, "cgt.un", InlineNone, FlowNext},
		{Clt, "clt", InlineNone, FlowNext},
		{CltUn, "clt.un", InlineNone, FlowNext},
		{Ldftn, "ldftn", InlineMethod, FlowNext},
		{Ldvirtftn, "ldvirtftn", InlineMethod, FlowNext},
		{Ldarg, "ldarg", InlineVar, FlowNext},
		{Ldarga, "ldarga", InlineVar, FlowNext},
		{Starg, "starg", InlineVar, FlowNext},
		{Ldloc, "ldloc", InlineVar, FlowNext},
		{Ldloca, "ldloca", InlineVar, FlowNext},
		{Stloc, "stloc", InlineVar, FlowNext},
		{Localloc, "localloc", InlineNone, FlowNext},
		{Endfilter, "endfilter", InlineNone, FlowReturn},
		{Unaligned, "unaligned.", ShortInlineI, FlowMeta},
		{Volatile, "volatile.", InlineNone, FlowMeta},
		{Tail, "tail.", InlineNone, FlowMeta},
		{Initobj, "initobj", InlineType, FlowNext},
		{Constrained, "constrained.", InlineType, FlowMeta},
		{Cpblk, "cpblk", InlineNone, FlowNext},
		{Initblk, "initblk", InlineNone, FlowNext},
		{No, "no.", ShortInlineI, FlowMeta},
		{Rethrow, "rethrow", InlineNone, FlowThrow},
		{Sizeof, "sizeof", InlineType, FlowNext},
		{Refanytype, "refanytype", InlineNone, FlowNext},
		{Readonly, "readonly.", InlineNone, FlowMeta},
	}
	for _, o := range ops {
		info := Info{
			Code:    o.op,
			Name:    o.name,
			Operand: o.operand,
			Flow:    o.flow,
			Arg:     strings.HasPrefix(o.name, "ldarg") || strings.HasPrefix(o.name, "starg"),
		}
		if o.op>>8 == Prefix {
			twoByte[o.op&0xFF] = info
		} else {
			oneByte[o.op] = info
		}
		byName[o.name] = o.op
	}
	// Every short branch has exactly one long counterpart: drop the ".s".
	for _, o := range ops {
		if o.operand != ShortInlineBrTarget {
			continue
		}
		if long, ok := byName[strings.TrimSuffix(o.name, ".s")]; ok {
			longs[o.op] = long
		}
	}
}

// GetInfo returns information about the given opcode. The returned Info
// is the zero value when the opcode is unknown.
func GetInfo(op Code) Info {
	switch {
	case op <= 0xFF:
		return oneByte[op]
	case op>>8 == Prefix:
		return twoByte[op&0xFF]
	default:
		return Info{}
	}
}

// Lookup returns the opcode with the given mnemonic.
func Lookup(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}

// LongForm returns the long branch form of a short branch opcode. Opcodes
// that are not short branches are returned unchanged with ok set to true;
// ok is false only for a short branch without a long counterpart.
func LongForm(op Code) (Code, bool) {
	if GetInfo(op).Operand != ShortInlineBrTarget {
		return op, true
	}
	long, ok := longs[op]
	return long, ok
}
