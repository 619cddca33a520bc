package bytecode

import (
	"fmt"

	"github.com/ciltools/ciltools/op"
)

// Instruction is one decoded CIL instruction. It is immutable.
type Instruction struct {
	index   int
	offset  int
	size    int
	code    op.Code
	operand Operand
}

// Index returns the 0-based position of the instruction in its body.
func (ins Instruction) Index() int { return ins.index }

// Offset returns the byte offset of the instruction in its body.
func (ins Instruction) Offset() int { return ins.offset }

// Size returns the encoded size of the instruction, opcode included.
func (ins Instruction) Size() int { return ins.size }

// End returns the offset immediately after the instruction.
func (ins Instruction) End() int { return ins.offset + ins.size }

// OpCode returns the opcode.
func (ins Instruction) OpCode() op.Code { return ins.code }

// Info returns the opcode table entry.
func (ins Instruction) Info() op.Info { return op.GetInfo(ins.code) }

// Operand returns the inline operand.
func (ins Instruction) Operand() Operand { return ins.operand }

// BranchTarget returns the absolute target offset of a branch instruction.
func (ins Instruction) BranchTarget() (int, bool) {
	if ins.operand.kind != OperandBranch {
		return 0, false
	}
	return ins.End() + int(ins.operand.Branch()), true
}

// SwitchTarget returns the absolute target offset of jump table entry i.
// Every entry is relative to the end of the switch instruction.
func (ins Instruction) SwitchTarget(i int) int {
	return ins.End() + int(ins.operand.SwitchAt(i))
}

// Targets returns the absolute target offsets of a branch or switch
// instruction in operand order.
func (ins Instruction) Targets() []int {
	switch ins.operand.kind {
	case OperandBranch:
		t, _ := ins.BranchTarget()
		return []int{t}
	case OperandSwitch:
		out := make([]int, ins.operand.SwitchLen())
		for i := range out {
			out[i] = ins.SwitchTarget(i)
		}
		return out
	}
	return nil
}

func (ins Instruction) String() string {
	name := ins.code.String()
	o := ins.operand
	switch o.kind {
	case OperandInt:
		return fmt.Sprintf("IL_%04X: %s %d", ins.offset, name, o.i)
	case OperandFloat:
		return fmt.Sprintf("IL_%04X: %s %g", ins.offset, name, o.f)
	case OperandString:
		return fmt.Sprintf("IL_%04X: %s %q", ins.offset, name, o.s)
	case OperandMember:
		return fmt.Sprintf("IL_%04X: %s %s", ins.offset, name, o.member.MemberName())
	case OperandSignature:
		return fmt.Sprintf("IL_%04X: %s %s", ins.offset, name, o.token)
	case OperandLocal:
		return fmt.Sprintf("IL_%04X: %s %s", ins.offset, name, o.local.DisplayName())
	case OperandParam:
		return fmt.Sprintf("IL_%04X: %s %s", ins.offset, name, o.param.DisplayName())
	case OperandBranch, OperandSwitch:
		return fmt.Sprintf("IL_%04X: %s %v", ins.offset, name, ins.Targets())
	default:
		return fmt.Sprintf("IL_%04X: %s", ins.offset, name)
	}
}
