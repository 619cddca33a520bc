package metadata

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	tok := NewToken(TableMemberRef, 0x12)
	assert.Equal(t, TableMemberRef, tok.Table())
	assert.Equal(t, uint32(0x12), tok.Row())
	assert.Equal(t, "0x0A000012", tok.String())
	assert.False(t, tok.IsNil())
	assert.True(t, NewToken(TableTypeRef, 0).IsNil())
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		sig  string
		ref  string
		name string
	}{
		{"int32", "int32", "int32", "int32"},
		{"native int", "native int", "native int", "native int"},
		{"string[]", "string[]", "string[]", "string"},
		{"[mscorlib]System.Exception", "class [mscorlib]System.Exception", "[mscorlib]System.Exception", "Exception"},
		{"class [mscorlib]System.Exception", "class [mscorlib]System.Exception", "[mscorlib]System.Exception", "Exception"},
		{"valuetype [System.Runtime]System.DateTime", "valuetype [System.Runtime]System.DateTime", "[System.Runtime]System.DateTime", "DateTime"},
		{"valuetype [System.Runtime]System.DateTime&", "valuetype [System.Runtime]System.DateTime&", "valuetype [System.Runtime]System.DateTime&", "DateTime"},
		{"Program", "class Program", "Program", "Program"},
		{"[App]App.Outer/Inner", "class [App]App.Outer/Inner", "[App]App.Outer/Inner", "Outer/Inner"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			typ, err := ParseType(tt.in)
			require.NoError(t, err)
			n := Naming{QualifyAll: true}
			assert.Equal(t, tt.sig, typ.Sig(n))
			assert.Equal(t, tt.ref, typ.Ref(n))
			assert.Equal(t, tt.name, typ.MemberName())
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, in := range []string{"", "[mscorlib", "[x]", "class a b"} {
		_, err := ParseType(in)
		assert.Error(t, err, in)
	}
}

func TestNaming(t *testing.T) {
	own := MustParseType("[HelloApp]HelloApp.Program")
	other := MustParseType("[System.Console]System.Console")

	n := Naming{Assembly: "HelloApp"}
	assert.Equal(t, "HelloApp.Program", own.Ref(n))
	assert.Equal(t, "[System.Console]System.Console", other.Ref(n))

	n.QualifyAll = true
	assert.Equal(t, "[HelloApp]HelloApp.Program", own.Ref(n))
}

func TestMemberSignatures(t *testing.T) {
	console := MustParseType("[System.Console]System.Console")
	writeLine := &MethodRef{
		Token:         NewToken(TableMemberRef, 1),
		DeclaringType: console,
		Name:          "WriteLine",
		Params:        []*TypeRef{MustParseType("string")},
	}
	assert.Equal(t, "void [System.Console]System.Console::WriteLine(string)", writeLine.String())
	assert.Equal(t, KindMethod, writeLine.Kind())
	assert.Equal(t, "WriteLine", writeLine.MemberName())

	toString := &MethodRef{
		DeclaringType: MustParseType("[mscorlib]System.Object"),
		Name:          "ToString",
		Instance:      true,
		Return:        MustParseType("string"),
	}
	assert.Equal(t, "instance string [mscorlib]System.Object::ToString()", toString.String())

	field := &FieldRef{
		DeclaringType: MustParseType("[App]App.Program"),
		Name:          "counter",
		Type:          MustParseType("int32"),
	}
	assert.Equal(t, "int32 App.Program::counter", field.Sig(Naming{Assembly: "App"}))

	sig := &Signature{CallConv: "unmanaged cdecl", Return: MustParseType("int32"), Params: []*TypeRef{MustParseType("native int")}}
	assert.Equal(t, "unmanaged cdecl int32(native int)", sig.Sig(Naming{}))

	u := Unresolved{Token: NewToken(TableMethodDef, 3)}
	assert.Equal(t, KindUnresolved, u.Kind())
	assert.Equal(t, "<unresolved 0x06000003>", u.MemberName())
}

func TestTable(t *testing.T) {
	table := NewTable()
	typ := &TypeRef{Token: NewToken(TableTypeRef, 1), Namespace: "System", Name: "Exception", Assembly: "mscorlib"}
	table.Add(typ)
	table.Add(&Signature{Token: NewToken(TableStandAloneSig, 1)})
	table.AddString(NewToken(TableUserString, 1), "Hello")
	assert.Equal(t, 3, table.Len())

	m, err := table.ResolveMember(typ.Token)
	require.NoError(t, err)
	assert.Same(t, typ, m)

	_, err = table.ResolveMember(NewToken(TableTypeRef, 2))
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := table.ResolveString(NewToken(TableUserString, 1))
	require.NoError(t, err)
	assert.Equal(t, "Hello", s)

	sig, err := table.ResolveSignature(NewToken(TableStandAloneSig, 1))
	require.NoError(t, err)
	assert.NotNil(t, sig)

	_, err = table.ResolveLocal(0)
	assert.ErrorIs(t, err, ErrNoMethodContext)
}

func TestScope(t *testing.T) {
	method := &Method{
		Name:          "Add",
		DeclaringType: MustParseType("[App]App.Calc"),
		Params: []*Param{
			{Name: "a", Type: MustParseType("int32")},
			{Type: MustParseType("int32")},
		},
	}
	locals := []*Local{{Index: 0, Type: MustParseType("int32")}}
	r := Scope(NewTable(), method, locals)

	this, err := r.ResolveParam(0)
	require.NoError(t, err)
	assert.Equal(t, "this", this.DisplayName())

	a, err := r.ResolveParam(1)
	require.NoError(t, err)
	assert.Equal(t, "a", a.DisplayName())
	assert.Equal(t, 1, a.Sequence)

	b, err := r.ResolveParam(2)
	require.NoError(t, err)
	assert.Equal(t, "A_2", b.DisplayName())
	assert.Equal(t, 2, b.Sequence)

	_, err = r.ResolveParam(3)
	assert.ErrorIs(t, err, ErrNotFound)

	l, err := r.ResolveLocal(0)
	require.NoError(t, err)
	assert.Equal(t, "V_0", l.DisplayName())

	_, err = r.ResolveLocal(1)
	assert.ErrorIs(t, err, ErrNotFound)

	method.Static = true
	a, err = r.ResolveParam(0)
	require.NoError(t, err)
	assert.Equal(t, "a", a.DisplayName())
}

type countingResolver struct {
	*Table
	mu    sync.Mutex
	calls int
}

func (c *countingResolver) ResolveMember(tok Token) (Member, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Table.ResolveMember(tok)
}

func TestCached(t *testing.T) {
	inner := &countingResolver{Table: NewTable()}
	tok := NewToken(TableTypeRef, 1)
	inner.Add(&TypeRef{Token: tok, Name: "Program"})

	cached, err := NewCached(inner, 16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cached.ResolveMember(tok)
		}()
	}
	wg.Wait()
	m, err := cached.ResolveMember(tok)
	require.NoError(t, err)
	assert.Equal(t, "Program", m.MemberName())
	assert.LessOrEqual(t, inner.calls, 8)
	assert.Equal(t, 1, cached.Len())

	calls := inner.calls
	_, err = cached.ResolveMember(tok)
	require.NoError(t, err)
	assert.Equal(t, calls, inner.calls)

	// Misses are not cached.
	_, err = cached.ResolveMember(NewToken(TableTypeRef, 9))
	assert.True(t, errors.Is(err, ErrNotFound))
	_, _ = cached.ResolveMember(NewToken(TableTypeRef, 9))
	assert.Equal(t, calls+2, inner.calls)
}
