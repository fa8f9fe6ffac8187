package lexer

import (
	"lps/pkg/token"
	"strconv"
	"strings"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Tokenize scans the whole input. The result always ends with an EOF token;
// malformed input shows up as ILLEGAL tokens carrying a LexErrorKind.
func Tokenize(input string) []token.Token {
	l := New(input)
	tokens := make([]token.Token, 0, len(input)/3+1)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) NextToken() token.Token {
	if tok, ok := l.skipWhitespaceAndComments(); !ok {
		return tok
	}

	start := l.position
	if l.atEnd() {
		return token.Token{Type: token.EOF, Pos: start}
	}

	var tok token.Token

	switch l.ch {
	case '=':
		tok = l.either('=', token.EQ, token.ASSIGN)
	case '+':
		tok = l.pick(token.PLUS, '+', token.PLUS_PLUS, '=', token.PLUS_ASSIGN)
	case '-':
		tok = l.pick(token.MINUS, '-', token.MINUS_MINUS, '=', token.MINUS_ASSIGN)
	case '*':
		tok = l.either('=', token.ASTERISK_ASSIGN, token.ASTERISK)
	case '/':
		tok = l.either('=', token.SLASH_ASSIGN, token.SLASH)
	case '%':
		tok = l.either('=', token.PERCENT_ASSIGN, token.PERCENT)
	case '!':
		tok = l.either('=', token.NOT_EQ, token.BANG)
	case '^':
		tok = l.either('=', token.CARET_ASSIGN, token.CARET)
	case '&':
		tok = l.pick(token.AMP, '&', token.AND, '=', token.AMP_ASSIGN)
	case '|':
		tok = l.pick(token.PIPE, '|', token.OR, '=', token.PIPE_ASSIGN)
	case '<':
		tok = l.shiftOrCompare(token.LT, token.LTE, token.SHL, token.SHL_ASSIGN)
	case '>':
		tok = l.shiftOrCompare(token.GT, token.GTE, token.SHR, token.SHR_ASSIGN)
	case '~':
		tok = newToken(token.TILDE, l.ch, start)
	case '?':
		tok = newToken(token.QUESTION, l.ch, start)
	case ':':
		tok = newToken(token.COLON, l.ch, start)
	case ',':
		tok = newToken(token.COMMA, l.ch, start)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, start)
	case '(':
		tok = newToken(token.LPAREN, l.ch, start)
	case ')':
		tok = newToken(token.RPAREN, l.ch, start)
	case '{':
		tok = newToken(token.LBRACE, l.ch, start)
	case '}':
		tok = newToken(token.RBRACE, l.ch, start)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		tok = newToken(token.DOT, l.ch, start)
	case '"':
		return l.readString()
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(ident), Literal: ident, Pos: start}
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = newToken(token.ILLEGAL, l.ch, start)
		tok.Err = token.UnexpectedChar
	}

	l.readChar()
	return tok
}

// skipWhitespaceAndComments returns ok=false with an ILLEGAL token when a
// block comment is not closed.
func (l *Lexer) skipWhitespaceAndComments() (token.Token, bool) {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for !l.atEnd() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			start := l.position
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.atEnd() {
					return token.Token{
						Type:    token.ILLEGAL,
						Literal: l.input[start:],
						Pos:     start,
						Err:     token.UnterminatedComment,
					}, false
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return token.Token{}, true
		}
	}
}

// either emits two when the next char is next, otherwise one.
func (l *Lexer) either(next byte, two, one token.TokenType) token.Token {
	start := l.position
	if l.peekChar() == next {
		l.readChar()
		return token.Token{Type: two, Literal: l.input[start : l.position+1], Pos: start}
	}
	return newToken(one, l.ch, start)
}

func (l *Lexer) pick(one token.TokenType, a byte, ta token.TokenType, b byte, tb token.TokenType) token.Token {
	switch l.peekChar() {
	case a:
		return l.either(a, ta, one)
	case b:
		return l.either(b, tb, one)
	}
	return newToken(one, l.ch, l.position)
}

func (l *Lexer) shiftOrCompare(single, orEqual, shift, shiftAssign token.TokenType) token.Token {
	start := l.position
	ch := l.ch
	switch l.peekChar() {
	case '=':
		return l.either('=', orEqual, single)
	case ch:
		l.readChar()
		if l.peekChar() == '=' {
			l.readChar()
			return token.Token{Type: shiftAssign, Literal: l.input[start : l.position+1], Pos: start}
		}
		return token.Token{Type: shift, Literal: l.input[start : l.position+1], Pos: start}
	}
	return newToken(single, ch, start)
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber scans an int, hex int or float literal. A '.', an exponent or
// an 'f' suffix makes the literal a float.
func (l *Lexer) readNumber() token.Token {
	start := l.position
	isFloat := false
	valid := true

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		digits := l.position
		for isHexDigit(l.ch) {
			l.readChar()
		}
		lit := l.input[start:l.position]
		if l.position == digits || isLetter(l.ch) || isDigit(l.ch) {
			return l.invalidNumber(start)
		}
		if _, err := strconv.ParseUint(lit[2:], 16, 32); err != nil {
			return token.Token{Type: token.ILLEGAL, Literal: lit, Pos: start, Err: token.InvalidNumber}
		}
		return token.Token{Type: token.INT, Literal: lit, Pos: start}
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && l.peekChar() != '.' {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		isFloat = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			valid = false
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'f' || l.ch == 'F' {
		isFloat = true
		l.readChar()
	}
	if !valid || isLetter(l.ch) || isDigit(l.ch) {
		return l.invalidNumber(start)
	}

	lit := l.input[start:l.position]
	if isFloat {
		if _, err := strconv.ParseFloat(strings.TrimRight(lit, "fF"), 64); err != nil {
			return token.Token{Type: token.ILLEGAL, Literal: lit, Pos: start, Err: token.InvalidNumber}
		}
		return token.Token{Type: token.FLOAT, Literal: lit, Pos: start}
	}
	// 2147483648 lexes so that -2147483648 can be written; the parser
	// rejects it anywhere but after a unary minus
	if n, err := strconv.ParseUint(lit, 10, 32); err != nil || n > 1<<31 {
		return token.Token{Type: token.ILLEGAL, Literal: lit, Pos: start, Err: token.InvalidNumber}
	}
	return token.Token{Type: token.INT, Literal: lit, Pos: start}
}

// invalidNumber swallows the rest of a malformed literal.
func (l *Lexer) invalidNumber(start int) token.Token {
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return token.Token{Type: token.ILLEGAL, Literal: l.input[start:l.position], Pos: start, Err: token.InvalidNumber}
}

func (l *Lexer) readString() token.Token {
	start := l.position
	l.readChar()
	for l.ch != '"' {
		if l.atEnd() || l.ch == '\n' {
			return token.Token{Type: token.ILLEGAL, Literal: l.input[start:l.position], Pos: start, Err: token.UnterminatedString}
		}
		l.readChar()
	}
	l.readChar()
	return token.Token{Type: token.STRING, Literal: l.input[start:l.position], Pos: start}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func newToken(tokenType token.TokenType, ch byte, pos int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Pos: pos}
}
