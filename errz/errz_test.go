package errz

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			NewDecodeErrorf(KindTruncated, 0x1A, "operand of %s is truncated", "ldc.i4"),
			"decode error: operand of ldc.i4 is truncated (offset 0x001A)",
		},
		{
			NewGraphErrorf(KindMissingTarget, 3, "branch target 0x%04X is not an instruction", 0x40),
			"graph error: branch target 0x0040 is not an instruction (offset 0x0003)",
		},
		{
			NewRegionError(KindUnexpectedEnd, 8),
			"parse error: unexpected block end (offset 0x0008)",
		},
		{
			NewRegionError(KindUnclosed, 12),
			"parse error: not all blocks closed (offset 0x000C)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("method Main: %w", NewRegionError(KindIterationLimit, 0))
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindIterationLimit, kind)
	assert.True(t, IsKind(wrapped, KindIterationLimit))
	assert.False(t, IsKind(wrapped, KindUnclosed))

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestWithCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewGraphErrorf(KindMissingLabel, 0, "no label").WithCause(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.IsFatal())
}

func TestCollector(t *testing.T) {
	var c Collector
	require.NoError(t, c.Err())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Report(Diagnostic{Offset: i, Context: "resolving token", Err: errors.New("missing")})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
	assert.Len(t, c.Diagnostics(), 10)
	require.Error(t, c.Err())
	assert.Contains(t, c.Err().Error(), "10 errors occurred")
}

func TestDiagnosticError(t *testing.T) {
	d := Diagnostic{Offset: 0x10, Context: "resolving token 0x0A000001", Err: errors.New("not found")}
	assert.Equal(t, "IL_0010: resolving token 0x0A000001: not found", d.Error())

	d.Offset = -1
	assert.Equal(t, "resolving token 0x0A000001: not found", d.Error())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink(zerolog.New(&buf))
	sink.Report(Diagnostic{Offset: 4, Context: "resolving string", Err: errors.New("bad token")})
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"offset":4`)
	assert.Contains(t, out, `"error":"bad token"`)
	assert.Contains(t, out, `"message":"resolving string"`)
}

func TestTee(t *testing.T) {
	var a, b Collector
	Tee(&a, nil, &b).Report(Diagnostic{Offset: -1, Context: "x", Err: errors.New("y")})
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}
