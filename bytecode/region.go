package bytecode

import (
	"fmt"

	"github.com/ciltools/ciltools/metadata"
)

// RegionKind is the kind of an exception region. The values match the
// flags of the method body's exception handling clauses.
type RegionKind uint16

const (
	RegionClause  RegionKind = 0
	RegionFilter  RegionKind = 1
	RegionFinally RegionKind = 2
	RegionFault   RegionKind = 4
)

func (k RegionKind) String() string {
	switch k {
	case RegionClause:
		return "catch"
	case RegionFilter:
		return "filter"
	case RegionFinally:
		return "finally"
	case RegionFault:
		return "fault"
	default:
		return fmt.Sprintf("RegionKind(%d)", uint16(k))
	}
}

// ExceptionRegion describes one protected range and its handler.
type ExceptionRegion struct {
	Kind          RegionKind
	TryOffset     int
	TryLength     int
	HandlerOffset int
	HandlerLength int
	FilterOffset  int               // start of the filter block (RegionFilter only)
	CatchType     *metadata.TypeRef // caught type (RegionClause only)
}

// TryKey identifies a protected range. Regions with equal keys are
// handlers of the same try block.
type TryKey struct {
	Offset int
	Length int
}

// TryKey returns the region's protected range key.
func (r ExceptionRegion) TryKey() TryKey {
	return TryKey{Offset: r.TryOffset, Length: r.TryLength}
}

// TryEnd returns the offset immediately after the protected range.
func (r ExceptionRegion) TryEnd() int {
	return r.TryOffset + r.TryLength
}

// HandlerEnd returns the offset immediately after the handler.
func (r ExceptionRegion) HandlerEnd() int {
	return r.HandlerOffset + r.HandlerLength
}

func (r ExceptionRegion) String() string {
	s := fmt.Sprintf("%s try [0x%04X, 0x%04X) handler [0x%04X, 0x%04X)",
		r.Kind, r.TryOffset, r.TryEnd(), r.HandlerOffset, r.HandlerEnd())
	switch {
	case r.Kind == RegionFilter:
		s += fmt.Sprintf(" filter 0x%04X", r.FilterOffset)
	case r.Kind == RegionClause && r.CatchType != nil:
		s += " " + r.CatchType.String()
	}
	return s
}
