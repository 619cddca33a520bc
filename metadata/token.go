// Package metadata describes the metadata references that CIL operands
// point at, and the resolver capability the decoder uses to look them up.
//
// Loading metadata from PE files is outside this module. Callers provide a
// Resolver backed by their own metadata reader; Table is a map-backed
// implementation used by the manifest loader and tests, and Cached wraps
// any Resolver with an LRU cache so one resolver can be shared across
// concurrent decodes.
package metadata

import "fmt"

// Token is a metadata token: a table index in the high byte and a row
// number in the low three bytes.
type Token uint32

// Metadata tables referenced by CIL operands.
const (
	TableTypeRef       byte = 0x01
	TableTypeDef       byte = 0x02
	TableField         byte = 0x04
	TableMethodDef     byte = 0x06
	TableMemberRef     byte = 0x0A
	TableStandAloneSig byte = 0x11
	TableTypeSpec      byte = 0x1B
	TableMethodSpec    byte = 0x2B
	TableUserString    byte = 0x70
)

// NewToken returns the token for the given table and row.
func NewToken(table byte, row uint32) Token {
	return Token(uint32(table)<<24 | row&0x00FFFFFF)
}

// Table returns the table index of the token.
func (t Token) Table() byte {
	return byte(t >> 24)
}

// Row returns the row number of the token.
func (t Token) Row() uint32 {
	return uint32(t) & 0x00FFFFFF
}

// IsNil reports whether the token has a zero row.
func (t Token) IsNil() bool {
	return t.Row() == 0
}

func (t Token) String() string {
	return fmt.Sprintf("0x%08X", uint32(t))
}
