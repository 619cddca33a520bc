// Package errz defines the error taxonomy shared by the decoder, the graph
// builder, the region reconstructor and the re-emitter, together with the
// diagnostics sink used for non-fatal resolution failures.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindTruncated indicates an operand that reads past the end of the body.
	KindTruncated ErrorKind = iota
	// KindUnknownOpcode indicates an opcode that is not in the opcode table.
	KindUnknownOpcode
	// KindMissingTarget indicates a branch whose target is not an instruction.
	KindMissingTarget
	// KindMissingLabel indicates a branch target without a defined label.
	KindMissingLabel
	// KindUnsupportedOpcode indicates an opcode that cannot be re-emitted.
	KindUnsupportedOpcode
	// KindUnexpectedEnd indicates a block close with nothing open.
	KindUnexpectedEnd
	// KindUnclosed indicates blocks still open at the end of the body.
	KindUnclosed
	// KindIterationLimit indicates the nesting walk exceeded its step limit.
	KindIterationLimit
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTruncated:
		return "truncated"
	case KindUnknownOpcode:
		return "unknown opcode"
	case KindMissingTarget:
		return "missing target"
	case KindMissingLabel:
		return "missing label"
	case KindUnsupportedOpcode:
		return "unsupported opcode"
	case KindUnexpectedEnd:
		return "unexpected block end"
	case KindUnclosed:
		return "not all blocks closed"
	case KindIterationLimit:
		return "iteration limit"
	default:
		return "error"
	}
}

// DecodeError is returned when a method body cannot be decoded. It aborts
// decoding of that body only.
type DecodeError struct {
	Kind    ErrorKind
	Message string
	Offset  int
	Cause   error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s (offset 0x%04X)", e.Message, e.Offset)
}

// Unwrap returns the underlying cause of the error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// IsFatal returns whether the error is considered fatal.
func (e *DecodeError) IsFatal() bool {
	return true
}

// NewDecodeErrorf returns a DecodeError with a formatted message.
func NewDecodeErrorf(kind ErrorKind, offset int, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// GraphError is returned when the instruction graph is inconsistent: a
// branch target that matches no instruction, a target without a label at
// emission time, or an opcode without a long-form mapping.
type GraphError struct {
	Kind    ErrorKind
	Message string
	Offset  int
	Cause   error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	return fmt.Sprintf("graph error: %s (offset 0x%04X)", e.Message, e.Offset)
}

// Unwrap returns the underlying cause of the error.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// IsFatal returns whether the error is considered fatal.
func (e *GraphError) IsFatal() bool {
	return true
}

// NewGraphErrorf returns a GraphError with a formatted message.
func NewGraphErrorf(kind ErrorKind, offset int, format string, args ...any) *GraphError {
	return &GraphError{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// RegionError is returned when exception regions cannot be nested into a
// block tree.
type RegionError struct {
	Kind    ErrorKind
	Message string
	Offset  int
}

// Error implements the error interface.
func (e *RegionError) Error() string {
	return fmt.Sprintf("parse error: %s (offset 0x%04X)", e.Message, e.Offset)
}

// IsFatal returns whether the error is considered fatal.
func (e *RegionError) IsFatal() bool {
	return true
}

// NewRegionError returns a RegionError whose message is the kind's text.
func NewRegionError(kind ErrorKind, offset int) *RegionError {
	return &RegionError{Kind: kind, Offset: offset, Message: kind.String()}
}

// WithCause returns a copy of the error with the given cause attached.
func (e *DecodeError) WithCause(cause error) *DecodeError {
	c := *e
	c.Cause = cause
	return &c
}

// WithCause returns a copy of the error with the given cause attached.
func (e *GraphError) WithCause(cause error) *GraphError {
	c := *e
	c.Cause = cause
	return &c
}

// KindOf returns the kind of the first DecodeError, GraphError or
// RegionError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	var re *RegionError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
