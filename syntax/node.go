// Package syntax defines the render-agnostic tree produced by the
// disassembler.
//
// Only leaf nodes carry text. Each leaf has a lead, a content and a trail
// string, and concatenating them for every leaf in depth-first order yields
// the rendered output exactly. Interior nodes group leaves: a Block holds
// its header, the opening brace, its content and the closing brace; an
// Instruction holds the leaves of one instruction line.
package syntax

// Kind identifies the variant of a Node.
type Kind uint8

const (
	Identifier Kind = iota
	Keyword
	Punctuation
	Literal
	Comment
	Generic
	Directive
	Block
	Instruction
)

var kindNames = [...]string{
	Identifier:  "identifier",
	Keyword:     "keyword",
	Punctuation: "punctuation",
	Literal:     "literal",
	Comment:     "comment",
	Generic:     "generic",
	Directive:   "directive",
	Block:       "block",
	Instruction: "instruction",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsLeaf reports whether nodes of this kind carry text.
func (k Kind) IsLeaf() bool {
	return k <= Generic
}

// Role refines what an Identifier or Literal names.
type Role uint8

const (
	RoleNone Role = iota
	RoleLabel
	RoleMember
	RoleType
	RoleVariable
	RoleString
)

// Node is one element of the syntax tree.
type Node struct {
	Kind Kind
	Role Role

	Lead    string
	Content string
	Trail   string

	// Offset is the body offset of an Instruction node, or -1.
	Offset int

	Children []*Node
}

// Text returns lead, content and trail of a leaf. Interior nodes return
// the text of their leaves.
func (n *Node) Text() string {
	if n.Kind.IsLeaf() {
		return n.Lead + n.Content + n.Trail
	}
	return Text(n.Children...)
}

// Append adds children to an interior node and returns it.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

func leaf(kind Kind, role Role, content string) *Node {
	return &Node{Kind: kind, Role: role, Content: content, Offset: -1}
}

// NewIdentifier returns an identifier leaf.
func NewIdentifier(content string, role Role) *Node {
	return leaf(Identifier, role, content)
}

// NewKeyword returns a keyword leaf. Directive names such as ".maxstack"
// are keywords too.
func NewKeyword(content string) *Node {
	return leaf(Keyword, RoleNone, content)
}

// NewPunctuation returns a punctuation leaf.
func NewPunctuation(content string) *Node {
	return leaf(Punctuation, RoleNone, content)
}

// NewLiteral returns a literal leaf.
func NewLiteral(content string, role Role) *Node {
	return leaf(Literal, role, content)
}

// NewComment returns a comment leaf. The content includes the "//" marker.
func NewComment(content string) *Node {
	return leaf(Comment, RoleNone, content)
}

// NewGeneric returns a plain text leaf.
func NewGeneric(content string) *Node {
	return leaf(Generic, RoleNone, content)
}

// NewDirective returns a directive line made of the given leaves.
func NewDirective(children ...*Node) *Node {
	return (&Node{Kind: Directive, Offset: -1}).Append(children...)
}

// NewBlock returns a block node.
func NewBlock(children ...*Node) *Node {
	return (&Node{Kind: Block, Offset: -1}).Append(children...)
}

// NewInstruction returns the node for the instruction at offset.
func NewInstruction(offset int, children ...*Node) *Node {
	return (&Node{Kind: Instruction, Offset: offset}).Append(children...)
}

// WithLead sets the lead of a leaf and returns it.
func (n *Node) WithLead(s string) *Node {
	n.Lead = s
	return n
}

// WithTrail sets the trail of a leaf and returns it.
func (n *Node) WithTrail(s string) *Node {
	n.Trail = s
	return n
}
