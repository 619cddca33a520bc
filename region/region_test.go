package region

import (
	"strconv"
	"testing"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/op"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nops(n int) *bytecode.Writer {
	var w bytecode.Writer
	for i := 0; i < n; i++ {
		w.Op(op.Nop)
	}
	return &w
}

func buildGraph(t *testing.T, w *bytecode.Writer, regions ...bytecode.ExceptionRegion) *graph.Graph {
	t.Helper()
	body := bytecode.NewBody(bytecode.BodyParams{Code: w.Bytes(), Regions: regions})
	g, err := graph.Create(body, nil)
	require.NoError(t, err)
	return g
}

// shape renders the tree as nested kinds and offsets, e.g. "try(0 1) 3".
func shape(b *Block) string {
	var out string
	for i, it := range b.items {
		if i > 0 {
			out += " "
		}
		if it.Block != nil {
			out += it.Block.Kind().String() + "(" + shape(it.Block) + ")"
			continue
		}
		out += strconv.Itoa(it.Node.Offset())
	}
	return out
}

func divideByZero() *metadata.TypeRef {
	return metadata.MustParseType("[System.Runtime]System.DivideByZeroException")
}

func TestTryCatchFinallySharedTry(t *testing.T) {
	var w bytecode.Writer
	w.Op(op.Nop)          // 0 try
	w.Op(op.LeaveS).I8(5) // 1
	w.Op(op.Pop)          // 3 catch
	w.Op(op.LeaveS).I8(2) // 4
	w.Op(op.Nop)          // 6 finally
	w.Op(op.Endfinally)   // 7
	w.Op(op.Ret)          // 8
	g := buildGraph(t, &w,
		bytecode.ExceptionRegion{Kind: bytecode.RegionClause, TryLength: 3, HandlerOffset: 3, HandlerLength: 3, CatchType: divideByZero()},
		bytecode.ExceptionRegion{Kind: bytecode.RegionFinally, TryLength: 3, HandlerOffset: 6, HandlerLength: 2},
	)

	root, err := Build(g)
	require.NoError(t, err)
	assert.Equal(t, "try(0 1) catch(3 4) finally(6 7) 8", shape(root))
	assert.Equal(t, 3, root.Opened())
	assert.Equal(t, root.Opened(), root.Closed())

	require.Equal(t, 4, root.Len())
	catch := root.ItemAt(1).Block
	require.NotNil(t, catch)
	assert.Equal(t, "DivideByZeroException", catch.CatchType().Name)
	assert.Nil(t, root.ItemAt(0).Block.CatchType())

	_, ok := root.Region()
	assert.False(t, ok)
	r, ok := catch.Region()
	require.True(t, ok)
	assert.Equal(t, 3, r.HandlerOffset)
}

func TestNestedTryStartingAtSameOffset(t *testing.T) {
	// The usual compiler layout for try/catch/finally: an inner try/catch
	// wrapped by a try/finally, both protected ranges starting at 0.
	g := buildGraph(t, nops(9),
		bytecode.ExceptionRegion{Kind: bytecode.RegionClause, TryLength: 3, HandlerOffset: 3, HandlerLength: 3, CatchType: divideByZero()},
		bytecode.ExceptionRegion{Kind: bytecode.RegionFinally, TryLength: 6, HandlerOffset: 6, HandlerLength: 2},
	)
	root, err := Build(g)
	require.NoError(t, err)
	assert.Equal(t, "try(try(0 1 2) catch(3 4 5)) finally(6 7) 8", shape(root))
	assert.Equal(t, 4, root.Opened())
	assert.Equal(t, 4, root.Closed())
}

func TestBackToBackTries(t *testing.T) {
	g := buildGraph(t, nops(9),
		bytecode.ExceptionRegion{Kind: bytecode.RegionFinally, TryLength: 2, HandlerOffset: 2, HandlerLength: 2},
		bytecode.ExceptionRegion{Kind: bytecode.RegionFault, TryOffset: 4, TryLength: 2, HandlerOffset: 6, HandlerLength: 2},
	)
	root, err := Build(g)
	require.NoError(t, err)
	assert.Equal(t, "try(0 1) finally(2 3) try(4 5) fault(6 7) 8", shape(root))
}

func TestTryInsideHandler(t *testing.T) {
	g := buildGraph(t, nops(9),
		bytecode.ExceptionRegion{Kind: bytecode.RegionFinally, TryLength: 2, HandlerOffset: 2, HandlerLength: 6},
		bytecode.ExceptionRegion{Kind: bytecode.RegionFault, TryOffset: 2, TryLength: 2, HandlerOffset: 4, HandlerLength: 2},
	)
	root, err := Build(g)
	require.NoError(t, err)
	assert.Equal(t, "try(0 1) finally(try(2 3) fault(4 5) 6 7) 8", shape(root))
}

func TestFilter(t *testing.T) {
	g := buildGraph(t, nops(7),
		bytecode.ExceptionRegion{Kind: bytecode.RegionFilter, TryLength: 2, FilterOffset: 2, HandlerOffset: 4, HandlerLength: 2},
	)
	root, err := Build(g)
	require.NoError(t, err)
	assert.Equal(t, "try(0 1) filter(2 3) filter handler(4 5) 6", shape(root))
	assert.Equal(t, root.Opened(), root.Closed())
}

func TestHandlerEndingAtEndOfBody(t *testing.T) {
	g := buildGraph(t, nops(5),
		bytecode.ExceptionRegion{Kind: bytecode.RegionFinally, TryLength: 3, HandlerOffset: 3, HandlerLength: 2},
	)
	root, err := Build(g)
	require.NoError(t, err)
	assert.Equal(t, "try(0 1 2) finally(3 4)", shape(root))
	assert.Equal(t, 2, root.Closed())
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		region bytecode.ExceptionRegion
		kind   errz.ErrorKind
		msg    string
		offset int
	}{
		{
			name:   "zero length try",
			region: bytecode.ExceptionRegion{Kind: bytecode.RegionFault, TryOffset: 1, HandlerOffset: 2, HandlerLength: 1},
			kind:   errz.KindUnexpectedEnd,
			msg:    "parse error: unexpected block end",
			offset: 1,
		},
		{
			name:   "handler past end",
			region: bytecode.ExceptionRegion{Kind: bytecode.RegionFault, TryLength: 2, HandlerOffset: 2, HandlerLength: 98},
			kind:   errz.KindUnclosed,
			msg:    "parse error: not all blocks closed",
			offset: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, nops(4), tt.region)
			_, err := Build(g)
			require.Error(t, err)
			var re *errz.RegionError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.kind, re.Kind)
			assert.Equal(t, tt.offset, re.Offset)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestIterationLimit(t *testing.T) {
	g := buildGraph(t, nops(5))
	_, err := Build(g, WithIterationLimit(3))
	assert.True(t, errz.IsKind(err, errz.KindIterationLimit))

	root, err := Build(g, WithIterationLimit(0))
	require.NoError(t, err)
	assert.Equal(t, 5, root.Len())
}

func TestNodesPreorder(t *testing.T) {
	g := buildGraph(t, nops(5),
		bytecode.ExceptionRegion{Kind: bytecode.RegionFinally, TryOffset: 1, TryLength: 1, HandlerOffset: 2, HandlerLength: 2},
	)
	root, err := Build(g)
	require.NoError(t, err)
	var offsets []int
	for n := range root.Nodes() {
		offsets = append(offsets, n.Offset())
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, offsets)
}

func TestAt(t *testing.T) {
	catch := bytecode.ExceptionRegion{Kind: bytecode.RegionClause, TryOffset: 0, TryLength: 4, HandlerOffset: 4, HandlerLength: 2}
	finally := bytecode.ExceptionRegion{Kind: bytecode.RegionFinally, TryOffset: 0, TryLength: 4, HandlerOffset: 6, HandlerLength: 2}
	outer := bytecode.ExceptionRegion{Kind: bytecode.RegionFault, TryOffset: 0, TryLength: 8, HandlerOffset: 8, HandlerLength: 1}
	regions := []bytecode.ExceptionRegion{catch, finally, outer}

	ev := At(regions, 0, 1)
	assert.Equal(t, []bytecode.ExceptionRegion{outer, catch}, ev.TryStarts)
	assert.Empty(t, ev.TryEnds)

	// A span covering several bytes picks up every boundary inside it.
	ev = At(regions, 3, 5)
	assert.Equal(t, []bytecode.ExceptionRegion{catch}, ev.TryEnds)
	assert.Equal(t, []bytecode.ExceptionRegion{catch}, ev.HandlerStarts)
	assert.Equal(t, 1, ev.Closes())

	ev = At(regions, 8, 9)
	assert.Len(t, ev.TryEnds, 1)
	assert.Len(t, ev.HandlerEnds, 1)
	assert.Len(t, ev.HandlerStarts, 1)
	assert.Equal(t, 2, ev.Closes())

	assert.True(t, At(regions, 1, 2).Empty())
	assert.True(t, At(nil, 0, 10).Empty())
}
