package bscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindsOf(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexerTokens(t *testing.T) {
	toks := newLexer(`x = 3.5 >= "a\n"; r = &y.z[0]; a != b <= c`).tokens()
	assert.Equal(t, []Kind{
		KindIdentifier, KindAssign, KindNumberLiteral, KindGe, KindStringLiteral, KindTerm,
		KindIdentifier, KindAssign, KindAmp, KindIdentifier, KindDot, KindIdentifier,
		KindLBracket, KindNumberLiteral, KindRBracket, KindTerm,
		KindIdentifier, KindNe, KindIdentifier, KindLe, KindIdentifier,
		tokenEOF,
	}, kindsOf(toks))

	assert.Equal(t, "3.5", toks[2].Literal)
	assert.Equal(t, "a\n", toks[4].Literal)
}

func TestLexerKeywords(t *testing.T) {
	toks := newLexer("def if elif else while for in return and or not true false define").tokens()
	assert.Equal(t, []Kind{
		KindDef, KindIf, KindElif, KindElse, KindWhile, KindFor, KindIn,
		KindReturnKeyword, KindAndKeyword, KindOrKeyword, KindNotKeyword,
		KindTrue, KindFalse, KindIdentifier, tokenEOF,
	}, kindsOf(toks))
}

func TestLexerPositions(t *testing.T) {
	toks := newLexer("a = 1;\n  bb = 2;").tokens()
	require.Len(t, toks, 9)
	assert.Equal(t, Position{Line: 1, Column: 1}, toks[0].Pos)
	assert.Equal(t, Position{Line: 1, Column: 5}, toks[2].Pos)
	assert.Equal(t, Position{Line: 2, Column: 3}, toks[4].Pos)
	assert.Equal(t, "bb", toks[4].Literal)
}

func TestLexerComments(t *testing.T) {
	toks := newLexer("a // line\n/* block\n comment */ b").tokens()
	assert.Equal(t, []Kind{KindIdentifier, KindIdentifier, tokenEOF}, kindsOf(toks))
	assert.Equal(t, 3, toks[1].Pos.Line)
}

func TestLexerNumberWithoutFraction(t *testing.T) {
	toks := newLexer("a.length 12.x").tokens()
	assert.Equal(t, []Kind{
		KindIdentifier, KindDot, KindIdentifier, KindNumberLiteral, KindDot, KindIdentifier, tokenEOF,
	}, kindsOf(toks))
	assert.Equal(t, "12", toks[3].Literal)
}

func TestLexerIllegal(t *testing.T) {
	cases := map[string]string{
		`"open`:      "unterminated string",
		"/* open":    "unterminated block comment",
		"a ! b":      "unexpected character '!'",
		"x = 1 @ 2;": "unexpected character '@'",
	}
	for src, msg := range cases {
		toks := newLexer(src).tokens()
		last := toks[len(toks)-1]
		assert.Equal(t, tokenIllegal, last.Kind, src)
		assert.Equal(t, msg, last.Literal, src)
	}
}
