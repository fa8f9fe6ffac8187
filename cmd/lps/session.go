package main

import (
	"lps/pkg/ast"
	"lps/pkg/compiler"
	"lps/pkg/lexer"
	"lps/pkg/lps"
	"lps/pkg/parser"
	"lps/pkg/token"
	"lps/pkg/types"
	"strings"
)

// Session accumulates REPL input. Function definitions and void statements
// become a prelude that every later input is compiled after, so locals and
// functions persist between lines.
type Session struct {
	opts   lps.Options
	run    func(*compiler.Program) (string, error)
	funcs  []string
	stmts  []string
	source string
}

func NewSession(opts lps.Options, run func(*compiler.Program) (string, error)) *Session {
	return &Session{opts: opts, run: run}
}

// Source is the full text the last input was compiled as. Error spans point
// into it.
func (s *Session) Source() string { return s.source }

func (s *Session) prelude(extra ...string) string {
	parts := append(append(append([]string{}, s.funcs...), s.stmts...), extra...)
	return strings.Join(parts, "\n")
}

func (s *Session) compile(src string) (*compiler.Program, error) {
	s.source = src
	return lps.CompileScript(src, s.opts)
}

// Eval handles one complete input. The result is empty when the input only
// extended the prelude.
func (s *Session) Eval(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	tokens := lexer.Tokenize(input)

	if isFunctionDefinition(tokens) {
		src := strings.Join(append(append([]string{}, s.funcs...), input), "\n")
		if _, err := s.compile(src + "\n" + strings.Join(s.stmts, "\n")); err != nil {
			return "", err
		}
		s.funcs = append(s.funcs, input)
		return "", nil
	}

	if isValueExpression(tokens, s.opts) {
		expr := strings.TrimSuffix(input, ";")
		prog, err := s.compile(s.prelude("return (" + expr + ");"))
		if err != nil {
			return "", err
		}
		return s.run(prog)
	}

	stmt := input
	if !strings.HasSuffix(stmt, ";") && !strings.HasSuffix(stmt, "}") {
		stmt += ";"
	}
	prog, err := s.compile(s.prelude(stmt))
	if err != nil {
		return "", err
	}
	if prog.ReturnType() == types.Void {
		s.stmts = append(s.stmts, stmt)
		return "", nil
	}
	return s.run(prog)
}

// Reset forgets every definition.
func (s *Session) Reset() {
	s.funcs, s.stmts, s.source = nil, nil, ""
}

func isFunctionDefinition(tokens []token.Token) bool {
	return len(tokens) > 2 && token.IsType(tokens[0].Type) &&
		tokens[1].Type == token.IDENT && tokens[2].Type == token.LPAREN
}

// isValueExpression reports whether the input parses as one expression
// that is not an assignment. Assignments fall through to statements so
// their effect persists.
func isValueExpression(tokens []token.Token, opts lps.Options) bool {
	pool := ast.NewPool(opts.Pool, nil)
	defer pool.Release()
	id, err := parser.New(tokens, pool, opts.Parser).Parse()
	if err != nil {
		return false
	}
	kind := pool.Expr(id).Kind
	return kind != ast.Assign && kind != ast.IncDec
}

// incomplete reports whether src has unclosed braces or parentheses.
func incomplete(src string) bool {
	depth := 0
	for _, tok := range lexer.Tokenize(src) {
		switch tok.Type {
		case token.LBRACE, token.LPAREN:
			depth++
		case token.RBRACE, token.RPAREN:
			depth--
		}
	}
	return depth > 0
}
