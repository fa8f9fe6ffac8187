// Package optimizer rewrites checked trees and generated code without
// changing what they compute. The tree passes work in place on the pool:
// a node is overwritten, never re-pointed, so nodes shared by several
// parents stay consistent.
package optimizer

import (
	"lps/pkg/ast"
)

type Options struct {
	ConstantFolding bool
	Algebraic       bool
	DeadCode        bool
	Peephole        bool

	// MaxPasses bounds the tree passes; iteration also stops once a pass
	// leaves the tree unchanged.
	MaxPasses int
}

func All() Options {
	return Options{ConstantFolding: true, Algebraic: true, DeadCode: true, Peephole: true, MaxPasses: 5}
}

func None() Options {
	return Options{}
}

func (o Options) treePasses() bool {
	return o.ConstantFolding || o.Algebraic || o.DeadCode
}

type Optimizer struct {
	pool *ast.Pool
	opts Options
}

func New(pool *ast.Pool, opts Options) *Optimizer {
	return &Optimizer{pool: pool, opts: opts}
}

// Expr optimizes a standalone expression and returns the number of passes
// run.
func (o *Optimizer) Expr(id ast.ExprId) int {
	if !o.opts.treePasses() {
		return 0
	}
	return o.iterate(func() string { return o.pool.ExprString(id) }, func() { o.expr(id) })
}

// Program optimizes every function body and the top-level statements.
func (o *Optimizer) Program(prog *ast.Program) int {
	if !o.opts.treePasses() {
		return 0
	}
	return o.iterate(func() string { return o.pool.ProgramString(prog) }, func() {
		for i := range prog.Functions {
			prog.Functions[i].Body = o.body(prog.Functions[i].Body)
		}
		prog.Main = o.body(prog.Main)
	})
}

func (o *Optimizer) iterate(snapshot func() string, pass func()) int {
	max := o.opts.MaxPasses
	if max <= 0 {
		max = 1
	}
	before := snapshot()
	for n := 1; n <= max; n++ {
		pass()
		after := snapshot()
		if after == before {
			return n
		}
		before = after
	}
	return max
}

// expr runs the enabled expression rewrites bottom-up.
func (o *Optimizer) expr(id ast.ExprId) {
	if id == ast.NoExpr {
		return
	}
	e := o.pool.Expr(id)
	switch e.Kind {
	case ast.Binary:
		o.expr(e.Left)
		o.expr(e.Right)
	case ast.Unary, ast.Swizzle, ast.Convert, ast.IncDec:
		o.expr(e.Left)
	case ast.Assign:
		o.expr(e.Right)
	case ast.Ternary:
		o.expr(e.Left)
		o.expr(e.Right)
		o.expr(e.Else)
	case ast.Call, ast.Constructor:
		for _, arg := range e.Args {
			o.expr(arg)
		}
	}

	if o.opts.ConstantFolding {
		o.fold(id)
	}
	if o.opts.Algebraic {
		o.simplify(id)
	}
}
