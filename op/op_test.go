package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(Ldstr)
	assert.Equal(t, "ldstr", info.Name)
	assert.Equal(t, InlineString, info.Operand)
	assert.Equal(t, Ldstr, info.Code)
	assert.True(t, info.Valid())
}

func TestGetInfoOpcodes(t *testing.T) {
	tests := []struct {
		code    Code
		name    string
		operand OperandType
		flow    FlowControl
		size    int
	}{
		{Nop, "nop", InlineNone, FlowNext, 1},
		{Ret, "ret", InlineNone, FlowReturn, 1},
		{Call, "call", InlineMethod, FlowCall, 1},
		{Calli, "calli", InlineSig, FlowCall, 1},
		{BrS, "br.s", ShortInlineBrTarget, FlowBranch, 1},
		{BrtrueS, "brtrue.s", ShortInlineBrTarget, FlowCondBranch, 1},
		{Leave, "leave", InlineBrTarget, FlowBranch, 1},
		{Switch, "switch", InlineSwitch, FlowCondBranch, 1},
		{LdcI4S, "ldc.i4.s", ShortInlineI, FlowNext, 1},
		{LdcI8, "ldc.i8", InlineI8, FlowNext, 1},
		{LdcR4, "ldc.r4", ShortInlineR, FlowNext, 1},
		{LdcR8, "ldc.r8", InlineR, FlowNext, 1},
		{Ldsfld, "ldsfld", InlineField, FlowNext, 1},
		{Ldtoken, "ldtoken", InlineTok, FlowNext, 1},
		{Throw, "throw", InlineNone, FlowThrow, 1},
		{Ceq, "ceq", InlineNone, FlowNext, 2},
		{Ldloc, "ldloc", InlineVar, FlowNext, 2},
		{Endfilter, "endfilter", InlineNone, FlowReturn, 2},
		{Constrained, "constrained.", InlineType, FlowMeta, 2},
		{Rethrow, "rethrow", InlineNone, FlowThrow, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.code)
			assert.Equal(t, tt.code, info.Code)
			assert.Equal(t, tt.name, info.Name)
			assert.Equal(t, tt.operand, info.Operand)
			assert.Equal(t, tt.flow, info.Flow)
			assert.Equal(t, tt.size, tt.code.Size())
		})
	}
}

func TestGetInfoInvalid(t *testing.T) {
	for _, c := range []Code{0x24, 0x77, 0xFE08, 0xFE1F, 0x1234} {
		info := GetInfo(c)
		assert.False(t, info.Valid(), "opcode %#x", uint16(c))
		assert.Equal(t, "unknown", c.String())
	}
}

func TestArgFlag(t *testing.T) {
	assert.True(t, GetInfo(LdargS).Arg)
	assert.True(t, GetInfo(Starg).Arg)
	assert.True(t, GetInfo(LdargaS).Arg)
	assert.False(t, GetInfo(LdlocS).Arg)
	assert.False(t, GetInfo(Stloc).Arg)
	assert.False(t, GetInfo(Arglist).Arg)
}

func TestLookup(t *testing.T) {
	c, ok := Lookup("bne.un.s")
	require.True(t, ok)
	assert.Equal(t, BneUnS, c)

	_, ok = Lookup("frobnicate")
	assert.False(t, ok)
}

func TestLongForm(t *testing.T) {
	pairs := map[Code]Code{
		BrS:      Br,
		BrfalseS: Brfalse,
		BrtrueS:  Brtrue,
		BeqS:     Beq,
		BgeS:     Bge,
		BgtS:     Bgt,
		BleS:     Ble,
		BltS:     Blt,
		BneUnS:   BneUn,
		BgeUnS:   BgeUn,
		BgtUnS:   BgtUn,
		BleUnS:   BleUn,
		BltUnS:   BltUn,
		LeaveS:   Leave,
	}
	for short, long := range pairs {
		got, ok := LongForm(short)
		require.True(t, ok, short.String())
		assert.Equal(t, long, got, short.String())
		assert.Equal(t, InlineBrTarget, GetInfo(got).Operand)
	}

	got, ok := LongForm(Switch)
	require.True(t, ok)
	assert.Equal(t, Switch, got)

	got, ok = LongForm(LdargS)
	require.True(t, ok)
	assert.Equal(t, LdargS, got)
}

func TestEveryShortBranchHasLongForm(t *testing.T) {
	for b := 0; b < 256; b++ {
		info := GetInfo(Code(b))
		if info.Operand != ShortInlineBrTarget {
			continue
		}
		_, ok := LongForm(info.Code)
		assert.True(t, ok, info.Name)
	}
}

func TestOperandSize(t *testing.T) {
	assert.Equal(t, 0, InlineNone.Size())
	assert.Equal(t, 1, ShortInlineBrTarget.Size())
	assert.Equal(t, 2, InlineVar.Size())
	assert.Equal(t, 4, InlineMethod.Size())
	assert.Equal(t, 4, InlineSwitch.Size())
	assert.Equal(t, 8, InlineR.Size())
	assert.True(t, InlineString.IsToken())
	assert.False(t, InlineI.IsToken())
}

func TestIsBranch(t *testing.T) {
	assert.True(t, BrS.IsBranch())
	assert.True(t, Switch.IsBranch())
	assert.True(t, Leave.IsBranch())
	assert.False(t, Call.IsBranch())
	assert.False(t, Ret.IsBranch())
}
