package bytecode

import (
	"github.com/ciltools/ciltools/metadata"
)

// OperandKind identifies the variant held by an Operand.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandInt
	OperandFloat
	OperandString
	OperandMember
	OperandSignature
	OperandLocal
	OperandParam
	OperandBranch
	OperandSwitch
)

func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandInt:
		return "int"
	case OperandFloat:
		return "float"
	case OperandString:
		return "string"
	case OperandMember:
		return "member"
	case OperandSignature:
		return "signature"
	case OperandLocal:
		return "local"
	case OperandParam:
		return "param"
	case OperandBranch:
		return "branch"
	case OperandSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// Operand is the inline operand of an instruction. Only the accessors
// matching Kind return meaningful values.
type Operand struct {
	kind     OperandKind
	i        int64
	f        float64
	s        string
	member   metadata.Member
	sig      *metadata.Signature
	local    *metadata.Local
	param    *metadata.Param
	token    metadata.Token
	targets  []int32
	resolved bool
}

// Kind returns the operand variant.
func (o Operand) Kind() OperandKind { return o.kind }

// Int returns an integer operand, or the index of a local or parameter.
func (o Operand) Int() int64 { return o.i }

// Float returns a floating point operand.
func (o Operand) Float() float64 { return o.f }

// Text returns a string operand.
func (o Operand) Text() string { return o.s }

// Member returns the member referenced by a token operand. Unresolved
// tokens yield a metadata.Unresolved placeholder.
func (o Operand) Member() metadata.Member { return o.member }

// Signature returns the stand-alone signature of a calli operand.
func (o Operand) Signature() *metadata.Signature { return o.sig }

// Local returns the local addressed by a variable operand.
func (o Operand) Local() *metadata.Local { return o.local }

// Param returns the parameter addressed by a variable operand.
func (o Operand) Param() *metadata.Param { return o.param }

// Token returns the raw metadata token of a token operand.
func (o Operand) Token() metadata.Token { return o.token }

// Resolved reports whether a token or variable operand was resolved.
// Operands of other kinds are always resolved.
func (o Operand) Resolved() bool { return o.resolved }

// Branch returns the raw relative offset of a branch operand.
func (o Operand) Branch() int32 {
	if o.kind != OperandBranch {
		return 0
	}
	return o.targets[0]
}

// SwitchLen returns the number of entries in a switch jump table.
func (o Operand) SwitchLen() int {
	if o.kind != OperandSwitch {
		return 0
	}
	return len(o.targets)
}

// SwitchAt returns the raw relative offset of jump table entry i.
func (o Operand) SwitchAt(i int) int32 {
	return o.targets[i]
}
