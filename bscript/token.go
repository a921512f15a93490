package bscript

const (
	tokenEOF     Kind = -1
	tokenIllegal Kind = -2
)

// Token captures lexical information for the parser. Terminal tokens reuse the
// Kind of the leaf Node they become.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Position
}

var keywords = map[string]Kind{
	"def":    KindDef,
	"if":     KindIf,
	"elif":   KindElif,
	"else":   KindElse,
	"while":  KindWhile,
	"for":    KindFor,
	"in":     KindIn,
	"return": KindReturnKeyword,
	"and":    KindAndKeyword,
	"or":     KindOrKeyword,
	"not":    KindNotKeyword,
	"true":   KindTrue,
	"false":  KindFalse,
}

func lookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return KindIdentifier
}

func describeToken(tok Token) string {
	switch tok.Kind {
	case tokenEOF:
		return "end of input"
	case tokenIllegal:
		return tok.Literal
	case KindIdentifier:
		return "identifier " + tok.Literal
	case KindNumberLiteral:
		return "number " + tok.Literal
	case KindStringLiteral:
		return "string"
	default:
		return "'" + tok.Kind.String() + "'"
	}
}
