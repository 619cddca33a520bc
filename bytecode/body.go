package bytecode

import (
	"github.com/ciltools/ciltools/metadata"
)

// Body is an immutable method body: the IL bytes, the header fields and
// the exception region table. It is safe for concurrent use.
type Body struct {
	code       []byte
	maxStack   int
	initLocals bool
	localSig   metadata.Token
	locals     []*metadata.Local
	regions    []ExceptionRegion
}

// BodyParams contains parameters for creating a new Body.
type BodyParams struct {
	Code           []byte
	MaxStack       int
	InitLocals     bool
	LocalSignature metadata.Token
	Locals         []*metadata.Local
	Regions        []ExceptionRegion
}

// NewBody creates a new immutable Body from the given parameters.
// Input slices are copied.
func NewBody(params BodyParams) *Body {
	return &Body{
		code:       copyBytes(params.Code),
		maxStack:   params.MaxStack,
		initLocals: params.InitLocals,
		localSig:   params.LocalSignature,
		locals:     copyLocals(params.Locals),
		regions:    copyRegions(params.Regions),
	}
}

// Code returns a copy of the IL bytes.
func (b *Body) Code() []byte {
	return copyBytes(b.code)
}

// CodeSize returns the length of the IL bytes.
func (b *Body) CodeSize() int {
	return len(b.code)
}

// MaxStack returns the declared maximum evaluation stack depth.
func (b *Body) MaxStack() int {
	return b.maxStack
}

// InitLocals reports whether locals are zero-initialized.
func (b *Body) InitLocals() bool {
	return b.initLocals
}

// LocalSignature returns the token of the locals signature.
func (b *Body) LocalSignature() metadata.Token {
	return b.localSig
}

// LocalCount returns the number of declared locals.
func (b *Body) LocalCount() int {
	return len(b.locals)
}

// LocalAt returns the local at the given index.
func (b *Body) LocalAt(i int) *metadata.Local {
	return b.locals[i]
}

// Locals returns a copy of the declared locals.
func (b *Body) Locals() []*metadata.Local {
	return copyLocals(b.locals)
}

// RegionCount returns the number of exception regions.
func (b *Body) RegionCount() int {
	return len(b.regions)
}

// RegionAt returns the exception region at the given index.
func (b *Body) RegionAt(i int) ExceptionRegion {
	return b.regions[i]
}

// Regions returns a copy of the exception region table.
func (b *Body) Regions() []ExceptionRegion {
	return copyRegions(b.regions)
}

// Decoder returns a decoder for the body's IL bytes.
func (b *Body) Decoder(resolver metadata.Resolver, opts ...DecodeOption) *Decoder {
	return NewDecoder(b.code, resolver, opts...)
}
