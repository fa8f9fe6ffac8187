package compiler

import (
	"fmt"
	"lps/pkg/token"
)

type ErrorKind uint8

const (
	UnsupportedFeature ErrorKind = iota
	TooManyLocals
	ProgramTooLarge
	AllocationFailed
)

var kindNames = [...]string{
	UnsupportedFeature: "unsupported feature",
	TooManyLocals:      "too many locals",
	ProgramTooLarge:    "program too large",
	AllocationFailed:   "allocation failed",
}

func (k ErrorKind) String() string { return kindNames[k] }

// CodegenError reports a structural limit hit while lowering a checked tree.
type CodegenError struct {
	Kind ErrorKind
	Span token.Span
	Name string
	Msg  string
	Err  error
}

func (e *CodegenError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("codegen: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("codegen: %s", e.Kind)
}

func (e *CodegenError) Unwrap() error { return e.Err }
