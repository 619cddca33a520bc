package bytecode

import "github.com/ciltools/ciltools/metadata"

// copyBytes returns a copy of the given byte slice.
func copyBytes(src []byte) []byte {
	if src == nil {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// copyLocals returns a copy of the given local slice.
func copyLocals(src []*metadata.Local) []*metadata.Local {
	if src == nil {
		return nil
	}
	dst := make([]*metadata.Local, len(src))
	copy(dst, src)
	return dst
}

// copyRegions returns a copy of the given exception region slice.
func copyRegions(src []ExceptionRegion) []ExceptionRegion {
	if src == nil {
		return nil
	}
	dst := make([]ExceptionRegion, len(src))
	copy(dst, src)
	return dst
}
