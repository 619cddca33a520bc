package bytecode

import "fmt"

// SourceFragment is a piece of source text mapped to the body offset of
// the first instruction generated from it.
type SourceFragment struct {
	Offset int
	Text   string
}

// String returns a formatted representation of the fragment.
func (f SourceFragment) String() string {
	return fmt.Sprintf("IL_%04X: %s", f.Offset, f.Text)
}

// IsZero returns true if the fragment has not been set.
func (f SourceFragment) IsZero() bool {
	return f.Offset == 0 && f.Text == ""
}
