package lps

import (
	"errors"
	"fmt"
	"lps/pkg/compiler"
	"lps/pkg/parser"
	"lps/pkg/token"
	"lps/pkg/typecheck"
	"strings"
)

type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageType
	StageCodegen
)

var stageNames = [...]string{
	StageLex:     "lex error",
	StageParse:   "parse error",
	StageType:    "type error",
	StageCodegen: "codegen error",
}

func (s Stage) String() string { return stageNames[s] }

// CompileError wraps the first error of the stage that rejected the source.
type CompileError struct {
	Stage Stage
	Span  token.Span
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Stage, e.Span, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// compileError classifies err by the stage type it carries.
func compileError(err error) *CompileError {
	var (
		lexErr   *parser.LexError
		parseErr *parser.Error
		typeErr  *typecheck.TypeError
		genErr   *compiler.CodegenError
	)
	switch {
	case errors.As(err, &lexErr):
		return &CompileError{Stage: StageLex, Span: lexErr.Span, Err: err}
	case errors.As(err, &parseErr):
		return &CompileError{Stage: StageParse, Span: parseErr.Span, Err: err}
	case errors.As(err, &typeErr):
		return &CompileError{Stage: StageType, Span: typeErr.Span, Err: err}
	case errors.As(err, &genErr):
		return &CompileError{Stage: StageCodegen, Span: genErr.Span, Err: err}
	}
	return &CompileError{Stage: StageCodegen, Err: err}
}

// Format renders the error with the offending line of src and a caret under
// the span, plus one line of context on each side.
func (e *CompileError) Format(src string) string {
	line, col := e.Span.LineCol(src)
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		line = len(lines)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d:%d: %s\n", e.Stage, line, col, e.Err)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	width := max(1, e.Span.End-e.Span.Start)
	if rest := len(lines[line-1]) - (col - 1); width > rest {
		width = max(1, rest)
	}
	fmt.Fprintf(&b, "     | %s%s\n", strings.Repeat(" ", col-1), strings.Repeat("^", width))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
