package bytecode

import "github.com/ciltools/ciltools/op"

// Stats contains statistics about a decoded method body.
type Stats struct {
	// CodeSize is the length of the IL bytes.
	CodeSize int

	// InstructionCount is the number of decoded instructions.
	InstructionCount int

	// BranchCount is the number of branch and switch instructions.
	BranchCount int

	// CallCount is the number of call, callvirt, calli, newobj and jmp
	// instructions.
	CallCount int

	// RegionCount is the number of exception regions.
	RegionCount int

	// LocalCount is the number of declared locals.
	LocalCount int
}

// Stats computes statistics for the body and its decoded instructions.
func (b *Body) Stats(instrs []Instruction) Stats {
	s := Stats{
		CodeSize:         len(b.code),
		InstructionCount: len(instrs),
		RegionCount:      len(b.regions),
		LocalCount:       len(b.locals),
	}
	for _, ins := range instrs {
		if ins.code.IsBranch() {
			s.BranchCount++
		}
		if ins.Info().Flow == op.FlowCall {
			s.CallCount++
		}
	}
	return s
}
