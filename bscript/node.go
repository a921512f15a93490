package bscript

import (
	"fmt"
	"strings"
)

// Kind tags a Node with the grammar production or terminal it was built from.
type Kind int

const (
	KindInvalid Kind = iota

	// Terminals
	KindNumberLiteral
	KindStringLiteral
	KindTrue
	KindFalse
	KindIdentifier
	KindDef
	KindIf
	KindElif
	KindElse
	KindWhile
	KindFor
	KindIn
	KindReturnKeyword
	KindAndKeyword
	KindOrKeyword
	KindNotKeyword
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindLBrace
	KindRBrace
	KindAssign
	KindEq
	KindNe
	KindGt
	KindGe
	KindLt
	KindLe
	KindAmp
	KindDot
	KindPlus
	KindMinus
	KindMult
	KindDiv
	KindHat
	KindComma
	KindTerm

	// Writeables
	KindArrayLiteral
	KindProperty
	KindArrayIndex
	KindLValue

	// Arithmetic
	KindUnaryMinus
	KindTerminal
	KindExp
	KindProduct
	KindSum

	// Comparison and boolean logic
	KindCmp
	KindNegation
	KindAnd
	KindOr
	KindParenGroup
	KindValue

	// Assignment
	KindReference
	KindAssignment

	// Calls
	KindValueList
	KindArgList
	KindCall

	// Conditionals
	KindIfHeader
	KindElifHeader
	KindIfBlock
	KindElifBlock
	KindElseBlock
	KindElifChain
	KindElseClause
	KindConditional

	// Loops
	KindLoopHeader
	KindLoop
	KindForHeader
	KindForLoop

	// Statements
	KindReturn
	KindStatement
	KindStatementList
	KindStatementBlock

	// Functions
	KindParamList
	KindFunctionName
	KindFunctionHeader
	KindFunctionDef

	KindProgram
)

var kindNames = map[Kind]string{
	KindInvalid:        "Invalid",
	KindNumberLiteral:  "NumberLiteral",
	KindStringLiteral:  "StringLiteral",
	KindTrue:           "True",
	KindFalse:          "False",
	KindIdentifier:     "Identifier",
	KindDef:            "def",
	KindIf:             "if",
	KindElif:           "elif",
	KindElse:           "else",
	KindWhile:          "while",
	KindFor:            "for",
	KindIn:             "in",
	KindReturnKeyword:  "return",
	KindAndKeyword:     "and",
	KindOrKeyword:      "or",
	KindNotKeyword:     "not",
	KindLParen:         "(",
	KindRParen:         ")",
	KindLBracket:       "[",
	KindRBracket:       "]",
	KindLBrace:         "{",
	KindRBrace:         "}",
	KindAssign:         "=",
	KindEq:             "==",
	KindNe:             "!=",
	KindGt:             ">",
	KindGe:             ">=",
	KindLt:             "<",
	KindLe:             "<=",
	KindAmp:            "&",
	KindDot:            ".",
	KindPlus:           "+",
	KindMinus:          "-",
	KindMult:           "*",
	KindDiv:            "/",
	KindHat:            "^",
	KindComma:          ",",
	KindTerm:           ";",
	KindArrayLiteral:   "ArrayLiteral",
	KindProperty:       "Property",
	KindArrayIndex:     "ArrayIndex",
	KindLValue:         "LValue",
	KindUnaryMinus:     "UnaryMinus",
	KindTerminal:       "Terminal",
	KindExp:            "Exp",
	KindProduct:        "Product",
	KindSum:            "Sum",
	KindCmp:            "Cmp",
	KindNegation:       "Negation",
	KindAnd:            "And",
	KindOr:             "Or",
	KindParenGroup:     "ParenGroup",
	KindValue:          "Value",
	KindReference:      "Reference",
	KindAssignment:     "Assignment",
	KindValueList:      "ValueList",
	KindArgList:        "ArgList",
	KindCall:           "Call",
	KindIfHeader:       "IfHeader",
	KindElifHeader:     "ElifHeader",
	KindIfBlock:        "IfBlock",
	KindElifBlock:      "ElifBlock",
	KindElseBlock:      "ElseBlock",
	KindElifChain:      "ElifChain",
	KindElseClause:     "ElseClause",
	KindConditional:    "Conditional",
	KindLoopHeader:     "LoopHeader",
	KindLoop:           "Loop",
	KindForHeader:      "ForHeader",
	KindForLoop:        "ForLoop",
	KindReturn:         "Return",
	KindStatement:      "Statement",
	KindStatementList:  "StatementList",
	KindStatementBlock: "StatementBlock",
	KindParamList:      "ParamList",
	KindFunctionName:   "FunctionName",
	KindFunctionHeader: "FunctionHeader",
	KindFunctionDef:    "FunctionDef",
	KindProgram:        "Program",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsTerminal reports whether k is a token kind rather than a production.
func (k Kind) IsTerminal() bool {
	return k > KindInvalid && k <= KindTerm
}

// Position identifies a location in the script source.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Line <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is one immutable parse tree node. Text carries the literal payload of
// identifiers, numerals and strings; productions carry ordered Children.
type Node struct {
	Kind     Kind
	Text     string
	Children []*Node
	Pos      Position
}

// NewNode builds a production node positioned at its first child.
func NewNode(kind Kind, children ...*Node) *Node {
	n := &Node{Kind: kind, Children: children}
	if len(children) > 0 && children[0] != nil {
		n.Pos = children[0].Pos
	}
	return n
}

// NewLeaf builds a terminal node.
func NewLeaf(kind Kind, text string, pos Position) *Node {
	return &Node{Kind: kind, Text: text, Pos: pos}
}

// Child returns the i-th child or nil when out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// String renders the tree one node per line, indented by depth.
func (n *Node) String() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	if n == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind.String())
	if n.Text != "" {
		fmt.Fprintf(b, " %q", n.Text)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		c.dump(b, depth+1)
	}
}
