package metadata

import "fmt"

// Method describes the method whose body is being disassembled.
type Method struct {
	Token         Token
	Name          string
	DeclaringType *TypeRef
	Assembly      string // the assembly that contains the method

	Flags     string // e.g. "public hidebysig static"
	ImplFlags string // e.g. "cil managed"
	Static    bool
	Return    *TypeRef
	Params    []*Param

	EntryPoint bool
	VTableSlot int // 0 when the method has no vtable slot
	Override   *MethodRef
	Attributes []CustomAttribute
}

// CustomAttribute is a custom attribute applied to a method: its
// constructor and the raw value blob.
type CustomAttribute struct {
	Constructor *MethodRef
	Blob        []byte
}

// Naming returns the naming rules for types referenced from this method.
func (m *Method) Naming(qualifyAll bool) Naming {
	return Naming{Assembly: m.Assembly, QualifyAll: qualifyAll}
}

// Arg returns the parameter addressed by the given argument index. For
// instance methods argument 0 is "this".
func (m *Method) Arg(index int) (*Param, error) {
	if !m.Static {
		if index == 0 {
			return &Param{Index: 0, Name: "this", Type: m.DeclaringType}, nil
		}
		index--
	}
	if index < 0 || index >= len(m.Params) {
		return nil, fmt.Errorf("argument %d of %s: %w", index, m.Name, ErrNotFound)
	}
	p := *m.Params[index]
	p.Index = index
	if !m.Static {
		p.Index++
	}
	if p.Sequence == 0 {
		p.Sequence = index + 1
	}
	return &p, nil
}
