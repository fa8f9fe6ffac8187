// Package lps compiles LPS source into programs for the vm package. It runs
// every stage in order and stops at the first error.
package lps

import (
	"log/slog"
	"lps/pkg/alloc"
	"lps/pkg/ast"
	"lps/pkg/compiler"
	"lps/pkg/lexer"
	"lps/pkg/optimizer"
	"lps/pkg/parser"
	"lps/pkg/typecheck"
)

type Options struct {
	Optimizer optimizer.Options
	Pool      ast.Limits
	Parser    parser.Config
	Compiler  compiler.Config

	// Alloc is charged for the tree and the generated code. nil is
	// unbounded.
	Alloc  alloc.Context
	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Optimizer: optimizer.All(),
		Pool:      ast.DefaultLimits(),
		Parser:    parser.DefaultConfig(),
		Compiler:  compiler.DefaultConfig(),
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// CompileExpr compiles a single expression into a program whose entry point
// returns its value.
func CompileExpr(src string, opts Options) (*compiler.Program, error) {
	pool := ast.NewPool(opts.Pool, opts.Alloc)
	defer pool.Release()

	id, err := parser.New(lexer.Tokenize(src), pool, opts.Parser).Parse()
	if err != nil {
		return nil, compileError(err)
	}
	if _, err := typecheck.New(pool).CheckExpr(id); err != nil {
		return nil, compileError(err)
	}
	opt := optimizer.New(pool, opts.Optimizer)
	passes := opt.Expr(id)

	c := compiler.GetCompiler(pool, opts.Compiler, opts.Alloc)
	defer compiler.PutCompiler(c)
	prog, err := c.CompileExpr(id)
	if err != nil {
		return nil, compileError(err)
	}
	return finish(opt, prog, passes, opts), nil
}

// CompileScript compiles function definitions followed by top-level
// statements. The statements become function 0.
func CompileScript(src string, opts Options) (*compiler.Program, error) {
	pool := ast.NewPool(opts.Pool, opts.Alloc)
	defer pool.Release()

	tree, err := parser.New(lexer.Tokenize(src), pool, opts.Parser).ParseProgram()
	if err != nil {
		return nil, compileError(err)
	}
	if err := typecheck.New(pool).CheckProgram(tree); err != nil {
		return nil, compileError(err)
	}
	opt := optimizer.New(pool, opts.Optimizer)
	passes := opt.Program(tree)

	c := compiler.GetCompiler(pool, opts.Compiler, opts.Alloc)
	defer compiler.PutCompiler(c)
	prog, err := c.CompileProgram(tree)
	if err != nil {
		return nil, compileError(err)
	}
	return finish(opt, prog, passes, opts), nil
}

func finish(opt *optimizer.Optimizer, prog *compiler.Program, passes int, opts Options) *compiler.Program {
	before := prog.OpcodeCount()
	opt.Code(prog)
	opts.logger().Debug("compiled",
		"functions", len(prog.Functions),
		"returns", prog.ReturnType().String(),
		"passes", passes,
		"opcodes", prog.OpcodeCount(),
		"peephole_removed", before-prog.OpcodeCount(),
	)
	return prog
}
