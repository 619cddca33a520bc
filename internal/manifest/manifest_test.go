package manifest

import (
	"errors"
	"testing"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/op"
	"github.com/ciltools/ciltools/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) *Manifest {
	t.Helper()
	m, err := Load("testdata/app.yaml")
	require.NoError(t, err)
	return m
}

func TestLoad(t *testing.T) {
	m := load(t)
	assert.Equal(t, "App", m.Assembly())
	require.Len(t, m.Entries(), 3)
	assert.Equal(t, 7, m.Table().Len())

	main := m.Entries()[0]
	assert.Equal(t, "Main", main.Method.Name)
	assert.Equal(t, metadata.NewToken(metadata.TableMethodDef, 1), main.Method.Token)
	assert.True(t, main.Method.EntryPoint)
	assert.True(t, main.Method.Static)
	assert.Equal(t, "App", main.Method.Assembly)
	assert.Equal(t, 11, main.Body.CodeSize())
	assert.Equal(t, 8, main.Body.MaxStack())
	assert.Equal(t, []bytecode.SourceFragment{
		{Offset: 0, Text: `Console.WriteLine("Hello, World");`},
		{Offset: 10, Text: "}"},
	}, main.Source)
}

func TestDecodeLoadedMethod(t *testing.T) {
	m := load(t)
	e, err := m.Lookup("App.Program::Main")
	require.NoError(t, err)

	instrs, err := bytecode.Decode(e.Body.Code(), e.Resolver(m.Table()))
	require.NoError(t, err)
	require.Len(t, instrs, 3)
	assert.Equal(t, "Hello, World", instrs[0].Operand().Text())
	assert.Equal(t, "WriteLine", instrs[1].Operand().Member().MemberName())
	assert.Equal(t, op.Ret, instrs[2].OpCode())
}

func TestRegionsAndLocals(t *testing.T) {
	m := load(t)
	e, err := m.Lookup("Divide")
	require.NoError(t, err)

	body := e.Body
	assert.Equal(t, 24, body.CodeSize())
	assert.True(t, body.InitLocals())
	require.Equal(t, 1, body.LocalCount())
	assert.Equal(t, "result", body.LocalAt(0).DisplayName())

	require.Equal(t, 2, body.RegionCount())
	catch := body.RegionAt(0)
	assert.Equal(t, bytecode.RegionClause, catch.Kind)
	assert.Equal(t, bytecode.TryKey{Offset: 0, Length: 6}, catch.TryKey())
	assert.Equal(t, 11, catch.HandlerEnd())
	assert.Equal(t, "DivideByZeroException", catch.CatchType.MemberName())
	assert.Equal(t, bytecode.RegionFinally, body.RegionAt(1).Kind)

	b := e.Method.Params[1]
	assert.True(t, b.HasDefault)
	assert.Equal(t, 1, b.Default)
	assert.False(t, e.Method.Params[0].HasDefault)

	g, err := graph.Create(body, e.Resolver(m.Table()))
	require.NoError(t, err)
	root, err := region.Build(g)
	require.NoError(t, err)
	require.Equal(t, 4, root.Len())
	assert.Equal(t, region.Try, root.ItemAt(0).Block.Kind())
	assert.Equal(t, region.Finally, root.ItemAt(1).Block.Kind())
	assert.Equal(t, 22, root.ItemAt(2).Node.Offset())
	assert.Equal(t, 4, root.Opened())
	assert.Equal(t, 4, root.Closed())
}

func TestMethodExtras(t *testing.T) {
	m := load(t)
	e, err := m.Lookup("App.Runner::Run")
	require.NoError(t, err)

	meth := e.Method
	assert.False(t, meth.Static)
	assert.Equal(t, 5, meth.VTableSlot)
	require.NotNil(t, meth.Override)
	assert.Equal(t, "Run", meth.Override.Name)
	require.Len(t, meth.Attributes, 1)
	assert.Equal(t, ".ctor", meth.Attributes[0].Constructor.Name)
	assert.Equal(t, []byte{1, 0, 0, 0}, meth.Attributes[0].Blob)

	name := meth.Params[0]
	assert.True(t, name.HasDefault)
	assert.Nil(t, name.Default)

	instrs, err := bytecode.Decode(e.Body.Code(), e.Resolver(m.Table()))
	require.NoError(t, err)
	assert.Equal(t, "counter", instrs[0].Operand().Member().MemberName())
}

func TestLookup(t *testing.T) {
	m := load(t)
	_, err := m.Lookup("Missing")
	assert.True(t, errors.Is(err, ErrNoMethod))
	_, err = m.Lookup("App.Other::Main")
	assert.True(t, errors.Is(err, ErrNoMethod))

	_, err = m.SourceFragments(&metadata.Method{Name: "Main"})
	assert.True(t, errors.Is(err, ErrNoMethod))

	e, err := m.Lookup("Divide")
	require.NoError(t, err)
	src, err := m.SourceFragments(e.Method)
	require.NoError(t, err)
	assert.Empty(t, src)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"bad token", "members:\n  - token: nope\n    kind: type\n    type: int32\n", "invalid token"},
		{"unknown member kind", "members:\n  - token: 1\n    kind: event\n", "unknown member kind"},
		{"bad hex", "methods:\n  - name: M\n    code: \"2A 0\"\n", "code"},
		{"unknown region kind", "methods:\n  - name: M\n    code: 2A\n    regions:\n      - kind: except\n", "unknown region kind"},
		{"short region", "methods:\n  - name: M\n    code: 2A\n    regions:\n      - kind: fault\n        try: [0]\n        handler: [0, 1]\n", "pairs"},
		{"catch type on finally", "methods:\n  - name: M\n    code: 2A\n    regions:\n      - kind: finally\n        try: [0, 1]\n        handler: [1, 1]\n        catchType: object\n", "catchType"},
		{"missing override", "methods:\n  - name: M\n    override: 0x0A000009\n", "override"},
		{"bad local type", "methods:\n  - name: M\n    locals:\n      - type: \"[x\"\n", "local 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	assert.Error(t, err)
}
