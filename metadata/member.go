package metadata

import (
	"fmt"
	"strings"
)

// MemberKind identifies the kind of a resolved member reference.
type MemberKind uint8

const (
	KindUnresolved MemberKind = iota
	KindType
	KindMethod
	KindField
	KindSignature
)

func (k MemberKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindSignature:
		return "signature"
	default:
		return "unresolved"
	}
}

// Member is a resolved metadata reference carried by an instruction operand.
type Member interface {
	MetadataToken() Token
	Kind() MemberKind
	MemberName() string
}

// Naming controls how type references are written. Types that belong to
// Assembly are written without an assembly scope unless QualifyAll is set.
type Naming struct {
	Assembly   string
	QualifyAll bool
}

// TypeRef references a type. Primitive types set Primitive to their ILAsm
// keyword; array and by-reference types set Elem.
type TypeRef struct {
	Token     Token
	Primitive string
	Assembly  string
	Namespace string
	Name      string // nested types use Outer/Inner
	ValueType bool

	Elem  *TypeRef
	Array bool
	ByRef bool
}

// MetadataToken returns the token of the type reference.
func (t *TypeRef) MetadataToken() Token { return t.Token }

// Kind returns KindType.
func (t *TypeRef) Kind() MemberKind { return KindType }

// MemberName returns the simple name of the type.
func (t *TypeRef) MemberName() string {
	switch {
	case t.Elem != nil:
		return t.Elem.MemberName()
	case t.Primitive != "":
		return t.Primitive
	default:
		return t.Name
	}
}

// FullName returns the namespace-qualified name of the type.
func (t *TypeRef) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Ref writes the type the way it appears after a type-token opcode or as a
// member's declaring type: [Assembly]Namespace.Name, without a class or
// valuetype keyword.
func (t *TypeRef) Ref(n Naming) string {
	if t.Elem != nil || t.Primitive != "" {
		return t.Sig(n)
	}
	if t.Assembly != "" && (n.QualifyAll || t.Assembly != n.Assembly) {
		return "[" + t.Assembly + "]" + t.FullName()
	}
	return t.FullName()
}

// Sig writes the type the way it appears inside a signature.
func (t *TypeRef) Sig(n Naming) string {
	switch {
	case t.Elem != nil && t.ByRef:
		return t.Elem.Sig(n) + "&"
	case t.Elem != nil:
		return t.Elem.Sig(n) + "[]"
	case t.Primitive != "":
		return t.Primitive
	case t.ValueType:
		return "valuetype " + t.Ref(n)
	default:
		return "class " + t.Ref(n)
	}
}

func (t *TypeRef) String() string {
	return t.Ref(Naming{QualifyAll: true})
}

// MethodRef references a method.
type MethodRef struct {
	Token         Token
	DeclaringType *TypeRef
	Name          string
	Instance      bool
	Return        *TypeRef
	Params        []*TypeRef
}

// MetadataToken returns the token of the method reference.
func (m *MethodRef) MetadataToken() Token { return m.Token }

// Kind returns KindMethod.
func (m *MethodRef) Kind() MemberKind { return KindMethod }

// MemberName returns the method name.
func (m *MethodRef) MemberName() string { return m.Name }

// Sig writes the method reference in ILAsm call notation:
// [instance] ret [Assembly]Type::Name(params).
func (m *MethodRef) Sig(n Naming) string {
	var b strings.Builder
	if m.Instance {
		b.WriteString("instance ")
	}
	b.WriteString(typeSig(m.Return, n))
	b.WriteByte(' ')
	if m.DeclaringType != nil {
		b.WriteString(m.DeclaringType.Ref(n))
		b.WriteString("::")
	}
	b.WriteString(m.Name)
	writeParams(&b, m.Params, n)
	return b.String()
}

func (m *MethodRef) String() string {
	return m.Sig(Naming{QualifyAll: true})
}

// FieldRef references a field.
type FieldRef struct {
	Token         Token
	DeclaringType *TypeRef
	Name          string
	Type          *TypeRef
}

// MetadataToken returns the token of the field reference.
func (f *FieldRef) MetadataToken() Token { return f.Token }

// Kind returns KindField.
func (f *FieldRef) Kind() MemberKind { return KindField }

// MemberName returns the field name.
func (f *FieldRef) MemberName() string { return f.Name }

// Sig writes the field in ILAsm notation: type [Assembly]Type::Name.
func (f *FieldRef) Sig(n Naming) string {
	var b strings.Builder
	b.WriteString(typeSig(f.Type, n))
	b.WriteByte(' ')
	if f.DeclaringType != nil {
		b.WriteString(f.DeclaringType.Ref(n))
		b.WriteString("::")
	}
	b.WriteString(f.Name)
	return b.String()
}

func (f *FieldRef) String() string {
	return f.Sig(Naming{QualifyAll: true})
}

// Signature is a stand-alone method signature used by calli.
type Signature struct {
	Token    Token
	CallConv string // e.g. "unmanaged cdecl"; empty for the default convention
	Instance bool
	Return   *TypeRef
	Params   []*TypeRef
}

// MetadataToken returns the token of the signature.
func (s *Signature) MetadataToken() Token { return s.Token }

// Kind returns KindSignature.
func (s *Signature) Kind() MemberKind { return KindSignature }

// MemberName returns an empty string; signatures are anonymous.
func (s *Signature) MemberName() string { return "" }

// Sig writes the signature in ILAsm notation.
func (s *Signature) Sig(n Naming) string {
	var b strings.Builder
	if s.Instance {
		b.WriteString("instance ")
	}
	if s.CallConv != "" {
		b.WriteString(s.CallConv)
		b.WriteByte(' ')
	}
	b.WriteString(typeSig(s.Return, n))
	writeParams(&b, s.Params, n)
	return b.String()
}

// Unresolved is the placeholder operand for a token the resolver could not
// resolve.
type Unresolved struct {
	Token Token
}

// MetadataToken returns the unresolved token.
func (u Unresolved) MetadataToken() Token { return u.Token }

// Kind returns KindUnresolved.
func (u Unresolved) Kind() MemberKind { return KindUnresolved }

// MemberName returns a placeholder naming the token.
func (u Unresolved) MemberName() string {
	return fmt.Sprintf("<unresolved %s>", u.Token)
}

// Local is a local variable of a method body.
type Local struct {
	Index  int
	Name   string
	Type   *TypeRef
	Pinned bool
}

// DisplayName returns the local's name, or V_<index> when it has none.
func (l *Local) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("V_%d", l.Index)
}

// Param is a method parameter. Index is the argument index used by the
// ldarg family (0 is "this" for instance methods); Sequence is the 1-based
// position used by .param directives.
type Param struct {
	Index      int
	Sequence   int
	Name       string
	Type       *TypeRef
	HasDefault bool
	Default    any
}

// DisplayName returns the parameter's name, or A_<index> when it has none.
func (p *Param) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("A_%d", p.Index)
}

func typeSig(t *TypeRef, n Naming) string {
	if t == nil {
		return "void"
	}
	return t.Sig(n)
}

func writeParams(b *strings.Builder, params []*TypeRef, n Naming) {
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(typeSig(p, n))
	}
	b.WriteByte(')')
}
