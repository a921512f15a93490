package bscript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexer struct {
	input string

	offset int
	width  int

	line   int
	column int

	ch rune
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1, column: 0}
	l.readRune()
	return l
}

func (l *lexer) readRune() {
	if l.offset >= len(l.input) {
		// step past the final rune once so EOF sits after it
		if l.width != 0 {
			l.column++
		}
		l.width = 0
		l.ch = 0
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.width = w
	l.offset += w

	if r == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}

	l.ch = r
}

func (l *lexer) peekRune() rune {
	if l.offset >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

// tokens drains the input. Lexing stops at the first illegal token.
func (l *lexer) tokens() []Token {
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Kind == tokenEOF || tok.Kind == tokenIllegal {
			return out
		}
	}
}

func (l *lexer) NextToken() Token {
	if msg := l.skipWhitespaceAndComments(); msg != "" {
		return l.makeToken(tokenIllegal, msg)
	}

	tok := Token{Pos: Position{Line: l.line, Column: l.column}}

	switch l.ch {
	case 0:
		tok.Kind = tokenEOF
	case '+':
		tok = l.single(KindPlus)
	case '-':
		tok = l.single(KindMinus)
	case '*':
		tok = l.single(KindMult)
	case '/':
		tok = l.single(KindDiv)
	case '^':
		tok = l.single(KindHat)
	case '(':
		tok = l.single(KindLParen)
	case ')':
		tok = l.single(KindRParen)
	case '{':
		tok = l.single(KindLBrace)
	case '}':
		tok = l.single(KindRBrace)
	case '[':
		tok = l.single(KindLBracket)
	case ']':
		tok = l.single(KindRBracket)
	case ',':
		tok = l.single(KindComma)
	case ';':
		tok = l.single(KindTerm)
	case '.':
		tok = l.single(KindDot)
	case '&':
		tok = l.single(KindAmp)
	case '=':
		tok = l.withEquals(KindAssign, KindEq)
	case '>':
		tok = l.withEquals(KindGt, KindGe)
	case '<':
		tok = l.withEquals(KindLt, KindLe)
	case '!':
		if l.peekRune() == '=' {
			tok = l.makeToken(KindNe, "!=")
			l.readRune()
			l.readRune()
		} else {
			tok = l.makeToken(tokenIllegal, "unexpected character '!'")
			l.readRune()
		}
	case '"':
		literal, err := l.readString()
		if err != "" {
			tok.Kind = tokenIllegal
			tok.Literal = err
		} else {
			tok.Kind = KindStringLiteral
			tok.Literal = literal
		}
	default:
		switch {
		case isIdentifierStart(l.ch):
			literal := l.readIdentifier()
			tok.Kind = lookupIdent(literal)
			tok.Literal = literal
			return tok
		case isDigit(l.ch):
			tok.Kind = KindNumberLiteral
			tok.Literal = l.readNumber()
			return tok
		default:
			tok = l.makeToken(tokenIllegal, "unexpected character '"+string(l.ch)+"'")
			l.readRune()
		}
	}

	return tok
}

func (l *lexer) single(kind Kind) Token {
	tok := l.makeToken(kind, string(l.ch))
	l.readRune()
	return tok
}

func (l *lexer) withEquals(plain, withEq Kind) Token {
	if l.peekRune() == '=' {
		tok := l.makeToken(withEq, string(l.ch)+"=")
		l.readRune()
		l.readRune()
		return tok
	}
	return l.single(plain)
}

func (l *lexer) currentOffset() int {
	return l.offset - l.width
}

func (l *lexer) makeToken(kind Kind, literal string) Token {
	return Token{Kind: kind, Literal: literal, Pos: Position{Line: l.line, Column: l.column}}
}

func (l *lexer) skipWhitespaceAndComments() string {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readRune()
		case l.ch == '/' && l.peekRune() == '/':
			for l.ch != 0 && l.ch != '\n' {
				l.readRune()
			}
		case l.ch == '/' && l.peekRune() == '*':
			l.readRune()
			l.readRune()
			for !(l.ch == '*' && l.peekRune() == '/') {
				if l.ch == 0 {
					return "unterminated block comment"
				}
				l.readRune()
			}
			l.readRune()
			l.readRune()
		default:
			return ""
		}
	}
}

func (l *lexer) readIdentifier() string {
	start := l.currentOffset()
	for isIdentifierRune(l.peekRune()) {
		l.readRune()
	}
	literal := l.input[start:l.offset]
	l.readRune()
	return literal
}

func (l *lexer) readNumber() string {
	start := l.currentOffset()
	for isDigit(l.peekRune()) {
		l.readRune()
	}
	if l.peekRune() == '.' {
		// a fraction needs at least one digit after the dot
		rest := l.input[l.offset+1:]
		if r, _ := utf8.DecodeRuneInString(rest); isDigit(r) {
			l.readRune()
			for isDigit(l.peekRune()) {
				l.readRune()
			}
		}
	}
	literal := l.input[start:l.offset]
	l.readRune()
	return literal
}

func (l *lexer) readString() (string, string) {
	var sb strings.Builder

	for {
		l.readRune()
		switch l.ch {
		case 0:
			return "", "unterminated string"
		case '"':
			l.readRune()
			return sb.String(), ""
		case '\\':
			next := l.peekRune()
			switch next {
			case 'n':
				l.readRune()
				sb.WriteByte('\n')
			case 't':
				l.readRune()
				sb.WriteByte('\t')
			case '"', '\\':
				l.readRune()
				sb.WriteRune(next)
			default:
				sb.WriteRune('\\')
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentifierStart(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || r == '_')
}

func isIdentifierRune(r rune) bool {
	return isIdentifierStart(r) || isDigit(r)
}
