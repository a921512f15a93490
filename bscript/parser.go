package bscript

import "fmt"

// SyntaxError reports source that does not match the grammar.
type SyntaxError struct {
	Message string
	Pos     Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Message)
}

// maxNesting bounds how deeply expressions and statement bodies may nest.
const maxNesting = 1000

type parser struct {
	tokens []Token
	pos    int
	depth  int
}

// Parse turns script source into a Program tree.
func Parse(source string) (*Node, error) {
	p, err := newParser(source)
	if err != nil {
		return nil, err
	}
	list, err := p.parseStatementList(tokenEOF)
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return NewNode(KindProgram, list), nil
}

// ParseExpression turns a single expression into a Value tree.
func ParseExpression(source string) (*Node, error) {
	p, err := newParser(source)
	if err != nil {
		return nil, err
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return value, nil
}

func newParser(source string) (*parser, error) {
	toks := newLexer(source).tokens()
	last := toks[len(toks)-1]
	if last.Kind == tokenIllegal {
		return nil, &SyntaxError{Message: last.Literal, Pos: last.Pos}
	}
	return &parser{tokens: toks}, nil
}

func (p *parser) cur() Token {
	return p.tokens[p.pos]
}

func (p *parser) at(kind Kind) bool {
	return p.cur().Kind == kind
}

func (p *parser) advance() *Node {
	tok := p.cur()
	if tok.Kind != tokenEOF {
		p.pos++
	}
	return NewLeaf(tok.Kind, tok.Literal, tok.Pos)
}

func (p *parser) expect(kind Kind) (*Node, error) {
	if !p.at(kind) {
		return nil, p.errorf("expected '%s', found %s", kind, describeToken(p.cur()))
	}
	return p.advance(), nil
}

func (p *parser) expectEOF() error {
	if !p.at(tokenEOF) {
		return p.errorf("unexpected %s", describeToken(p.cur()))
	}
	return nil
}

// enter counts one level of nesting; pair it with leave.
func (p *parser) enter() error {
	if p.depth >= maxNesting {
		return p.errorf("nesting too deep (limit %d)", maxNesting)
	}
	p.depth++
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Pos: p.cur().Pos}
}
