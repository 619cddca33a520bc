package syntax

import (
	"bufio"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Text concatenates the leaves of the given trees.
func Text(nodes ...*Node) string {
	var sb strings.Builder
	for n := range Leaves(nodes...) {
		sb.WriteString(n.Lead)
		sb.WriteString(n.Content)
		sb.WriteString(n.Trail)
	}
	return sb.String()
}

// WriteTo writes the text of the given trees to w.
func WriteTo(w io.Writer, nodes ...*Node) error {
	bw := bufio.NewWriter(w)
	for n := range Leaves(nodes...) {
		bw.WriteString(n.Lead)
		bw.WriteString(n.Content)
		bw.WriteString(n.Trail)
	}
	return bw.Flush()
}

// Colorizer renders trees with terminal colors. Keywords are yellow,
// directive names magenta, member references cyan, string literals red
// and comments green.
type Colorizer struct {
	keyword   *color.Color
	directive *color.Color
	member    *color.Color
	str       *color.Color
	comment   *color.Color
}

// NewColorizer returns a Colorizer. Colors are always emitted; callers
// decide whether the output is a terminal.
func NewColorizer() *Colorizer {
	mk := func(a color.Attribute) *color.Color {
		c := color.New(a)
		c.EnableColor()
		return c
	}
	return &Colorizer{
		keyword:   mk(color.FgYellow),
		directive: mk(color.FgMagenta),
		member:    mk(color.FgCyan),
		str:       mk(color.FgRed),
		comment:   mk(color.FgGreen),
	}
}

func (c *Colorizer) paint(n *Node) string {
	switch n.Kind {
	case Keyword:
		if strings.HasPrefix(n.Content, ".") {
			return c.directive.Sprint(n.Content)
		}
		return c.keyword.Sprint(n.Content)
	case Identifier:
		if n.Role == RoleMember {
			return c.member.Sprint(n.Content)
		}
		return n.Content
	case Literal:
		if n.Role == RoleString {
			return c.str.Sprint(n.Content)
		}
		return n.Content
	case Comment:
		return c.comment.Sprint(n.Content)
	case Punctuation, Generic:
		return n.Content
	case Directive, Block, Instruction:
		return ""
	default:
		panic("syntax: unknown node kind " + n.Kind.String())
	}
}

// Render writes the colored text of the given trees to w. Leads and
// trails are written uncolored.
func (c *Colorizer) Render(w io.Writer, nodes ...*Node) error {
	bw := bufio.NewWriter(w)
	for n := range Leaves(nodes...) {
		bw.WriteString(n.Lead)
		bw.WriteString(c.paint(n))
		bw.WriteString(n.Trail)
	}
	return bw.Flush()
}
