package graph

import (
	"bytes"
	"testing"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/op"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, w *bytecode.Writer, regions ...bytecode.ExceptionRegion) *Graph {
	t.Helper()
	body := bytecode.NewBody(bytecode.BodyParams{Code: w.Bytes(), Regions: regions})
	g, err := Create(body, nil)
	require.NoError(t, err)
	return g
}

// sumLoop is
//
//	0000 ldc.i4.0
//	0001 stloc.0
//	0002 br.s 0006
//	0004 ldloc.0
//	0005 pop
//	0006 ldloc.0
//	0007 brtrue.s 0004
//	0009 ret
func sumLoop() *bytecode.Writer {
	var w bytecode.Writer
	w.Op(op.LdcI40)
	w.Op(op.Stloc0)
	w.Op(op.BrS).I8(2)
	w.Op(op.Ldloc0)
	w.Op(op.Pop)
	w.Op(op.Ldloc0)
	w.Op(op.BrtrueS).I8(-5)
	w.Op(op.Ret)
	return &w
}

func TestLinks(t *testing.T) {
	g := build(t, sumLoop())
	require.Equal(t, 8, g.Len())

	root := g.Root()
	require.NotNil(t, root)
	assert.Nil(t, root.Previous())

	var count int
	last := root
	for n := root; n != nil; n = n.Next() {
		if prev := n.Previous(); prev != nil {
			assert.Same(t, n, prev.Next())
		}
		last = n
		count++
	}
	assert.Equal(t, g.Len(), count)
	assert.Equal(t, op.Ret, last.Instruction().OpCode())
	assert.Equal(t, 10, g.CodeSize())
}

func TestBranchTargets(t *testing.T) {
	g := build(t, sumLoop())
	for n := range g.Nodes() {
		ins := n.Instruction()
		if ins.Operand().Kind() != bytecode.OperandBranch {
			assert.Nil(t, n.BranchTarget())
			continue
		}
		want := ins.Offset() + ins.Size() + int(ins.Operand().Branch())
		require.NotNil(t, n.BranchTarget())
		assert.Equal(t, want, n.BranchTarget().Offset())
	}

	// The backward branch forms a cycle through the arena.
	back, ok := g.NodeAt(7)
	require.True(t, ok)
	assert.Equal(t, 4, back.BranchTarget().Offset())
}

func TestLabels(t *testing.T) {
	g := build(t, sumLoop())
	labels := g.Labels()
	require.Len(t, labels, 2)
	assert.Equal(t, Label{Name: "IL_0001", Offset: 4, Node: 3}, labels[0])
	assert.Equal(t, Label{Name: "IL_0002", Offset: 6, Node: 5}, labels[1])

	n, _ := g.NodeAt(4)
	assert.True(t, n.HasName())
	assert.Equal(t, "IL_0001", n.Name())
	assert.False(t, g.Root().HasName())
	assert.Equal(t, "IL_0001: IL_0004: ldloc.0", n.String())
}

func TestSwitchTargets(t *testing.T) {
	var w bytecode.Writer
	w.Op(op.Ldarg0)
	w.Op(op.Switch).I32(3).I32(2).I32(0).I32(2) // base is offset 18
	w.Op(op.Ret)                                // 18
	w.Op(op.Ldnull)                             // 19
	w.Op(op.Ret)                                // 20
	w.Op(op.Ret)                                // 21
	g := build(t, &w)

	sw := g.Node(1)
	require.Equal(t, 3, sw.SwitchTargetCount())
	targets := sw.SwitchTargets()
	require.Len(t, targets, 3)
	assert.Equal(t, 20, targets[0].Offset())
	assert.Equal(t, 18, targets[1].Offset())
	assert.Equal(t, 20, targets[2].Offset())
	assert.Same(t, targets[0], sw.SwitchTargetAt(0))
	assert.Nil(t, sw.BranchTarget())

	// Two distinct target offsets, named in ascending order.
	assert.Equal(t, "IL_0001", targets[1].Name())
	assert.Equal(t, "IL_0002", targets[0].Name())
}

func TestMissingTarget(t *testing.T) {
	tests := []struct {
		name string
		w    func(w *bytecode.Writer)
	}{
		{"into operand", func(w *bytecode.Writer) {
			w.Op(op.LdcI4).I32(0)
			w.Op(op.Br).I32(-8)
			w.Op(op.Ret)
		}},
		{"past end", func(w *bytecode.Writer) {
			w.Op(op.BrS).I8(10)
			w.Op(op.Ret)
		}},
		{"switch entry", func(w *bytecode.Writer) {
			w.Op(op.Switch).I32(2).I32(0).I32(40)
			w.Op(op.Ret)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w bytecode.Writer
			tt.w(&w)
			body := bytecode.NewBody(bytecode.BodyParams{Code: w.Bytes()})
			_, err := Create(body, nil)
			require.Error(t, err)
			assert.True(t, errz.IsKind(err, errz.KindMissingTarget))
			assert.Contains(t, err.Error(), "cannot find label")
		})
	}
}

func TestCreateDecodeError(t *testing.T) {
	body := bytecode.NewBody(bytecode.BodyParams{Code: []byte{0x00, 0x24}})
	_, err := Create(body, nil)
	assert.True(t, errz.IsKind(err, errz.KindUnknownOpcode))
}

func TestEmpty(t *testing.T) {
	g, err := New(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, g.Root())
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 0, g.CodeSize())
	assert.Empty(t, g.BasicBlocks())
	assert.Empty(t, g.Regions())
}

func tryFinally() (*bytecode.Writer, bytecode.ExceptionRegion) {
	var w bytecode.Writer
	w.Op(op.Nop)          // 0 try
	w.Op(op.LeaveS).I8(2) // 1
	w.Op(op.Nop)          // 3 finally
	w.Op(op.Endfinally)   // 4
	w.Op(op.Ret)          // 5
	r := bytecode.ExceptionRegion{
		Kind:          bytecode.RegionFinally,
		TryOffset:     0,
		TryLength:     3,
		HandlerOffset: 3,
		HandlerLength: 2,
	}
	return &w, r
}

func TestHandlerNodes(t *testing.T) {
	w, r := tryFinally()
	g := build(t, w, r)
	nodes := g.HandlerNodes(r)
	require.Len(t, nodes, 2)
	assert.Equal(t, op.Nop, nodes[0].Instruction().OpCode())
	assert.Equal(t, op.Endfinally, nodes[1].Instruction().OpCode())

	inTry, _ := g.NodeAt(1)
	assert.Equal(t, []bytecode.ExceptionRegion{r}, g.EnclosingRegions(inTry))
	after, _ := g.NodeAt(5)
	assert.Empty(t, g.EnclosingRegions(after))
}

func TestEnclosingRegionsInnermostFirst(t *testing.T) {
	var w bytecode.Writer
	for i := 0; i < 8; i++ {
		w.Op(op.Nop)
	}
	outer := bytecode.ExceptionRegion{Kind: bytecode.RegionFault, TryOffset: 0, TryLength: 6, HandlerOffset: 6, HandlerLength: 2}
	inner := bytecode.ExceptionRegion{Kind: bytecode.RegionFault, TryOffset: 1, TryLength: 2, HandlerOffset: 3, HandlerLength: 2}
	g := build(t, &w, outer, inner)
	n, _ := g.NodeAt(2)
	assert.Equal(t, []bytecode.ExceptionRegion{inner, outer}, g.EnclosingRegions(n))
}

func TestBasicBlocks(t *testing.T) {
	g := build(t, sumLoop())
	assert.Equal(t, []BasicBlock{
		{Start: 0, End: 3},
		{Start: 3, End: 5},
		{Start: 5, End: 7},
		{Start: 7, End: 8},
	}, g.BasicBlocks())
}

func TestWriteDOT(t *testing.T) {
	g := build(t, sumLoop())
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, g, `Program::"Sum"`))
	expected := `digraph CIL {
  node [shape=box, fontname="monospace"];
  labelloc="t";
  label="Program::\"Sum\"";
  b0 [label="IL_0000\lldc.i4.0\lstloc.0\lbr.s\l"];
  b1 [label="IL_0001\lldloc.0\lpop\l"];
  b2 [label="IL_0002\lldloc.0\lbrtrue.s\l"];
  b3 [label="IL_0009\lret\l"];
  b0 -> b2;
  b1 -> b2 [style=dashed];
  b2 -> b1;
  b2 -> b3 [style=dashed];
}
`
	assert.Equal(t, expected, buf.String())
}
