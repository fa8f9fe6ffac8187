package token

import "fmt"

type TokenType string

const (
	// Special
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers & Literals
	IDENT  = "IDENT"
	INT    = "INT"
	FLOAT  = "FLOAT"
	STRING = "STRING"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	TILDE    = "~"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	AMP      = "&"
	PIPE     = "|"
	CARET    = "^"
	SHL      = "<<"
	SHR      = ">>"
	AND      = "&&"
	OR       = "||"
	QUESTION = "?"

	PLUS_PLUS   = "++"
	MINUS_MINUS = "--"

	PLUS_ASSIGN     = "+="
	MINUS_ASSIGN    = "-="
	ASTERISK_ASSIGN = "*="
	SLASH_ASSIGN    = "/="
	PERCENT_ASSIGN  = "%="
	AMP_ASSIGN      = "&="
	PIPE_ASSIGN     = "|="
	CARET_ASSIGN    = "^="
	SHL_ASSIGN      = "<<="
	SHR_ASSIGN      = ">>="

	LT     = "<"
	GT     = ">"
	EQ     = "=="
	NOT_EQ = "!="
	LTE    = "<="
	GTE    = ">="

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"
	DOT       = "."

	// Keywords
	IF     = "IF"
	ELSE   = "ELSE"
	WHILE  = "WHILE"
	FOR    = "FOR"
	RETURN = "RETURN"
	TRUE   = "TRUE"
	FALSE  = "FALSE"

	// Type keywords
	FLOAT_TYPE = "FLOAT_TYPE"
	INT_TYPE   = "INT_TYPE"
	BOOL_TYPE  = "BOOL_TYPE"
	VEC2       = "VEC2"
	VEC3       = "VEC3"
	VEC4       = "VEC4"
	MAT3       = "MAT3"
	VOID       = "VOID"
)

// LexErrorKind classifies an ILLEGAL token.
type LexErrorKind int

const (
	NoLexError LexErrorKind = iota
	InvalidNumber
	UnexpectedChar
	UnterminatedString
	UnterminatedComment
)

func (k LexErrorKind) String() string {
	switch k {
	case InvalidNumber:
		return "invalid number"
	case UnexpectedChar:
		return "unexpected character"
	case UnterminatedString:
		return "unterminated string"
	case UnterminatedComment:
		return "unterminated comment"
	}
	return "no error"
}

// Token is a lexeme and the byte offset it starts at. The literal is the
// raw source text, so the token ends at Pos+len(Literal).
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
	Err     LexErrorKind
}

func (t Token) End() int {
	return t.Pos + len(t.Literal)
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, @%d)", t.Type, t.Literal, t.Pos)
}

var keywords = map[string]TokenType{
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"for":    FOR,
	"return": RETURN,
	"true":   TRUE,
	"false":  FALSE,
	"float":  FLOAT_TYPE,
	"int":    INT_TYPE,
	"bool":   BOOL_TYPE,
	"vec2":   VEC2,
	"vec3":   VEC3,
	"vec4":   VEC4,
	"mat3":   MAT3,
	"void":   VOID,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsType reports whether t names a value type.
func IsType(t TokenType) bool {
	switch t {
	case FLOAT_TYPE, INT_TYPE, BOOL_TYPE, VEC2, VEC3, VEC4, MAT3, VOID:
		return true
	}
	return false
}
