// Package token enumerates the lexical token kinds produced by internal/lexer
// and consumed by internal/parser.
package token

// Kind differentiates the token classes emitted by the lexer.
type Kind int

// Token kinds. Single-character operators and punctuation reuse their own
// rune value, mirroring the teacher's lexer convention of emitting the rune
// itself for anything without a dedicated keyword.
const (
	EOF Kind = iota
	Error

	Ident
	IntLit

	// Keywords.
	KwConst
	KwInt
	KwVoid
	KwIf
	KwElse
	KwWhile
	KwBreak
	KwContinue
	KwReturn

	// Multi-rune operators that can't be represented as a bare rune.
	OpLe
	OpGe
	OpEq
	OpNe
	OpAnd
	OpOr
)

var names = map[Kind]string{
	EOF:        "EOF",
	Error:      "ERROR",
	Ident:      "IDENT",
	IntLit:     "INTLIT",
	KwConst:    "const",
	KwInt:      "int",
	KwVoid:     "void",
	KwIf:       "if",
	KwElse:     "else",
	KwWhile:    "while",
	KwBreak:    "break",
	KwContinue: "continue",
	KwReturn:   "return",
	OpLe:       "<=",
	OpGe:       ">=",
	OpEq:       "==",
	OpNe:       "!=",
	OpAnd:      "&&",
	OpOr:       "||",
}

// Keywords maps reserved words to their Kind.
var Keywords = map[string]Kind{
	"const":    KwConst,
	"int":      KwInt,
	"void":     KwVoid,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"break":    KwBreak,
	"continue": KwContinue,
	"return":   KwReturn,
}

// String returns a print friendly name for the Kind, falling back to the
// literal rune for single-character tokens.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return string(rune(k))
}

// Token is a single lexeme scanned from the source stream.
type Token struct {
	Kind Kind
	Val  string
	Line int
	Pos  int
}
