package ast

import "fmt"

// ---------------------------------------------------------------------------
// Node kinds for the Slime syntax tree
// ---------------------------------------------------------------------------

// Kind identifies the syntactic form a Node represents.
type Kind int

const (
	Program Kind = iota
	Statement
	If
	While
	For
	Break
	Continue
	Assign
	Call
	Operator
	NumberLiteral
	StringLiteral
	Identifier
	Block
	Expression
	Directive
)

var kindNames = map[Kind]string{
	Program:       "Program",
	Statement:     "Statement",
	If:            "If",
	While:         "While",
	For:           "For",
	Break:         "Break",
	Continue:      "Continue",
	Assign:        "Assign",
	Call:          "Call",
	Operator:      "Operator",
	NumberLiteral: "NumberLiteral",
	StringLiteral: "StringLiteral",
	Identifier:    "Identifier",
	Block:         "Block",
	Expression:    "Expression",
	Directive:     "Directive",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is one node of the syntax tree produced by the parser.
// The tree is owned by its producer; consumers (the code generator and the
// interpreter) traverse it read-only and never mutate it.
type Node struct {
	Kind     Kind
	Value    string // textual payload: literal text, identifier, operator, keyword
	Children []*Node
}

// New creates a node with no children.
func New(kind Kind, value string) *Node {
	return &Node{Kind: kind, Value: value}
}

// AddChild appends a child node.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Child returns the i-th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.Children)
}

func (n *Node) String() string {
	if n.Value != "" {
		return fmt.Sprintf("%s(%q)", n.Kind, n.Value)
	}
	return n.Kind.String()
}
