package parser

import (
	"errors"
	"fmt"
	"lps/pkg/alloc"
	"lps/pkg/ast"
	"lps/pkg/token"
)

type ErrorKind int

const (
	UnexpectedToken ErrorKind = iota
	UnexpectedEOF
	InvalidExpression
	RecursionLimitExceeded
	ExprLimitExceeded
	StmtLimitExceeded
	AllocationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case UnexpectedEOF:
		return "unexpected end of input"
	case InvalidExpression:
		return "invalid expression"
	case RecursionLimitExceeded:
		return "recursion limit exceeded"
	case ExprLimitExceeded:
		return "expression limit exceeded"
	case StmtLimitExceeded:
		return "statement limit exceeded"
	case AllocationFailed:
		return "allocation failed"
	}
	return "parse error"
}

// Error is the first problem the parser hit. Parsing never continues past it.
type Error struct {
	Kind ErrorKind
	Span token.Span
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// LexError surfaces an ILLEGAL token from the lexer.
type LexError struct {
	Kind    token.LexErrorKind
	Span    token.Span
	Literal string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s %q", e.Kind, e.Literal)
}

// firstLexError returns the earliest ILLEGAL token as an error.
func firstLexError(tokens []token.Token) error {
	for _, tok := range tokens {
		if tok.Type == token.ILLEGAL {
			return &LexError{Kind: tok.Err, Span: token.NewSpan(tok.Pos, tok.End()), Literal: tok.Literal}
		}
	}
	return nil
}

func poolError(err error, span token.Span) *Error {
	kind := AllocationFailed
	switch {
	case errors.Is(err, ast.ErrExprLimitExceeded):
		kind = ExprLimitExceeded
	case errors.Is(err, ast.ErrStmtLimitExceeded):
		kind = StmtLimitExceeded
	case errors.Is(err, alloc.ErrAllocationFailed):
		kind = AllocationFailed
	}
	return &Error{Kind: kind, Span: span, Msg: err.Error(), Err: err}
}
