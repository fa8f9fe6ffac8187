package typecheck

import (
	"fmt"
	"lps/pkg/token"
	"lps/pkg/types"
)

type ErrorKind int

const (
	Mismatch ErrorKind = iota
	UndefinedVariable
	UndefinedFunction
	WrongArgCount
	InvalidOperation
	InvalidSwizzle
	MissingReturn
	InvalidLValue
	Redefinition
	AllocationFailed
)

var kindNames = [...]string{
	Mismatch:          "type mismatch",
	UndefinedVariable: "undefined variable",
	UndefinedFunction: "undefined function",
	WrongArgCount:     "wrong argument count",
	InvalidOperation:  "invalid operation",
	InvalidSwizzle:    "invalid swizzle",
	MissingReturn:     "missing return",
	InvalidLValue:     "invalid assignment target",
	Redefinition:      "redefinition",
	AllocationFailed:  "allocation failed",
}

func (k ErrorKind) String() string { return kindNames[k] }

// TypeError is the first rule violation found. Expected and Found are set
// for Mismatch; Name for undefined or redefined identifiers.
type TypeError struct {
	Kind     ErrorKind
	Span     token.Span
	Expected types.Type
	Found    types.Type
	Name     string
	Msg      string
	Err      error
}

func (e *TypeError) Error() string {
	switch {
	case e.Kind == Mismatch && e.Msg == "":
		return fmt.Sprintf("%s: expected %s, found %s", e.Kind, e.Expected, e.Found)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Name != "":
		return fmt.Sprintf("%s %q", e.Kind, e.Name)
	}
	return e.Kind.String()
}

func (e *TypeError) Unwrap() error { return e.Err }

func mismatch(span token.Span, expected, found types.Type) *TypeError {
	return &TypeError{Kind: Mismatch, Span: span, Expected: expected, Found: found}
}

func invalidOp(span token.Span, format string, args ...any) *TypeError {
	return &TypeError{Kind: InvalidOperation, Span: span, Msg: fmt.Sprintf(format, args...)}
}
