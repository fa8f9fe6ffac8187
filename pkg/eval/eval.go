// Package eval is a tree-walking evaluator over the type-checked AST. It
// shares every numeric kernel with the VM, so both produce bit-identical
// results; the optimizer folds constants with it and the tests compare the
// two backends against each other.
package eval

import (
	"errors"
	"fmt"
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/typecheck"
	"lps/pkg/types"
)

var (
	ErrDivisionByZero    = errors.New("division by zero")
	ErrCallDepthExceeded = errors.New("call depth exceeded")
	ErrStepLimitExceeded = errors.New("step limit exceeded")
	ErrUnresolved        = errors.New("unresolved name")
	ErrMissingReturn     = errors.New("function ended without returning a value")
)

type Limits struct {
	MaxCallDepth int
	MaxSteps     int
}

func DefaultLimits() Limits {
	return Limits{MaxCallDepth: 64, MaxSteps: 1_000_000}
}

// Evaluator runs one expression or program against one set of inputs.
type Evaluator struct {
	pool   *ast.Pool
	funcs  map[string]*ast.FunctionDecl
	inputs [builtin.NumInputs]fixed.Fixed
	limits Limits

	depth int
	steps int
}

func New(pool *ast.Pool, in builtin.Inputs, limits Limits) *Evaluator {
	return &Evaluator{
		pool:   pool,
		funcs:  make(map[string]*ast.FunctionDecl),
		inputs: in.Values(),
		limits: limits,
	}
}

// EvalExpr evaluates a checked standalone expression.
func EvalExpr(pool *ast.Pool, id ast.ExprId, in builtin.Inputs) (Value, error) {
	return New(pool, in, DefaultLimits()).Expr(id, NewEnvironment())
}

// EvalProgram runs a checked script and returns the value of its top-level
// return, or nil for a void script.
func EvalProgram(pool *ast.Pool, prog *ast.Program, in builtin.Inputs) (Value, error) {
	return New(pool, in, DefaultLimits()).Program(prog)
}

func (ev *Evaluator) Program(prog *ast.Program) (Value, error) {
	for i := range prog.Functions {
		ev.funcs[prog.Functions[i].Name] = &prog.Functions[i]
	}
	v, returned, err := ev.block(prog.Main, NewEnvironment())
	if err != nil {
		return nil, err
	}
	if !returned && prog.MainReturn != types.Void && prog.MainReturn != types.Unknown {
		return nil, ErrMissingReturn
	}
	return v, nil
}

func (ev *Evaluator) step() error {
	ev.steps++
	if ev.limits.MaxSteps > 0 && ev.steps > ev.limits.MaxSteps {
		return ErrStepLimitExceeded
	}
	return nil
}

// block runs statements in order and stops at the first return.
func (ev *Evaluator) block(body []ast.StmtId, env *Environment) (Value, bool, error) {
	for _, id := range body {
		v, returned, err := ev.stmt(id, env)
		if err != nil || returned {
			return v, returned, err
		}
	}
	return nil, false, nil
}

func (ev *Evaluator) scoped(id ast.StmtId, env *Environment) (Value, bool, error) {
	return ev.stmt(id, NewEnclosedEnvironment(env))
}

func (ev *Evaluator) stmt(id ast.StmtId, env *Environment) (Value, bool, error) {
	if err := ev.step(); err != nil {
		return nil, false, err
	}
	s := ev.pool.Stmt(id)
	switch s.Kind {
	case ast.VarDecl:
		v := make(Value, s.DeclType.Size())
		if s.Value != ast.NoExpr {
			init, err := ev.Expr(s.Value, env)
			if err != nil {
				return nil, false, err
			}
			v = init
		}
		env.Define(s.Name, s.DeclType, v)

	case ast.Return:
		if s.Value == ast.NoExpr {
			return nil, true, nil
		}
		v, err := ev.Expr(s.Value, env)
		return v, true, err

	case ast.ExprStmt:
		_, err := ev.Expr(s.Value, env)
		return nil, false, err

	case ast.Block:
		return ev.block(s.Body, NewEnclosedEnvironment(env))

	case ast.If:
		cond, err := ev.Expr(s.Cond, env)
		if err != nil {
			return nil, false, err
		}
		if cond.Bool() {
			return ev.scoped(s.Then, env)
		}
		if s.Else != ast.NoStmt {
			return ev.scoped(s.Else, env)
		}

	case ast.While:
		for {
			cond, err := ev.Expr(s.Cond, env)
			if err != nil {
				return nil, false, err
			}
			if !cond.Bool() {
				break
			}
			if v, returned, err := ev.scoped(s.Then, env); err != nil || returned {
				return v, returned, err
			}
		}

	case ast.For:
		loop := NewEnclosedEnvironment(env)
		if s.Init != ast.NoStmt {
			if _, _, err := ev.stmt(s.Init, loop); err != nil {
				return nil, false, err
			}
		}
		for {
			if s.Cond != ast.NoExpr {
				cond, err := ev.Expr(s.Cond, loop)
				if err != nil {
					return nil, false, err
				}
				if !cond.Bool() {
					break
				}
			} else if err := ev.step(); err != nil {
				return nil, false, err
			}
			if v, returned, err := ev.scoped(s.Then, loop); err != nil || returned {
				return v, returned, err
			}
			if s.Step != ast.NoExpr {
				if _, err := ev.Expr(s.Step, loop); err != nil {
					return nil, false, err
				}
			}
		}

	default:
		return nil, false, fmt.Errorf("eval: unknown statement kind %s", s.Kind)
	}
	return nil, false, nil
}

func (ev *Evaluator) exprs(ids []ast.ExprId, env *Environment) ([]Value, error) {
	out := make([]Value, len(ids))
	for i, id := range ids {
		v, err := ev.Expr(id, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Expr evaluates one node in env.
func (ev *Evaluator) Expr(id ast.ExprId, env *Environment) (Value, error) {
	if err := ev.step(); err != nil {
		return nil, err
	}
	e := ev.pool.Expr(id)
	switch e.Kind {
	case ast.NumberLit:
		return Value{e.Num}, nil
	case ast.IntLit:
		return Value{fixed.Fixed(e.Int)}, nil
	case ast.BoolLit:
		return boolValue(e.Bool), nil

	case ast.Variable:
		if v, ok := env.Get(e.Name); ok {
			return append(Value(nil), v...), nil
		}
		bv, ok := builtin.LookupVariable(e.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, e.Name)
		}
		v := make(Value, len(bv.Sources))
		for i, src := range bv.Sources {
			v[i] = ev.inputs[src]
		}
		return v, nil

	case ast.Binary:
		left, err := ev.Expr(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := ev.Expr(e.Right, env)
		if err != nil {
			return nil, err
		}
		return ev.binary(e, left, right)

	case ast.Unary:
		v, err := ev.Expr(e.Left, env)
		if err != nil {
			return nil, err
		}
		return unary(e.Op, ev.pool.Expr(e.Left).Ty, v)

	case ast.Call:
		return ev.call(e, env)

	case ast.Constructor:
		args, err := ev.exprs(e.Args, env)
		if err != nil {
			return nil, err
		}
		out := make(Value, 0, e.Target.Size())
		for _, a := range args {
			out = append(out, a...)
		}
		return out, nil

	case ast.Swizzle:
		v, err := ev.Expr(e.Left, env)
		if err != nil {
			return nil, err
		}
		indices, ok := ast.SwizzleIndices(e.Swizzle)
		if !ok {
			return nil, fmt.Errorf("eval: bad swizzle %q", e.Swizzle)
		}
		out := make(Value, len(indices))
		for i, idx := range indices {
			out[i] = v[idx]
		}
		return out, nil

	case ast.Assign:
		v, err := ev.Expr(e.Right, env)
		if err != nil {
			return nil, err
		}
		name := ev.pool.Expr(e.Left).Name
		if !env.Set(name, v) {
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, name)
		}
		return v, nil

	case ast.Ternary:
		cond, err := ev.Expr(e.Left, env)
		if err != nil {
			return nil, err
		}
		if cond.Bool() {
			return ev.Expr(e.Right, env)
		}
		return ev.Expr(e.Else, env)

	case ast.IncDec:
		return ev.incDec(e, env)

	case ast.Convert:
		v, err := ev.Expr(e.Left, env)
		if err != nil {
			return nil, err
		}
		return convert(ev.pool.Expr(e.Left).Ty, e.Target, v), nil
	}
	return nil, fmt.Errorf("eval: unknown expression kind %s", e.Kind)
}

func (ev *Evaluator) incDec(e *ast.Expr, env *Environment) (Value, error) {
	target := ev.pool.Expr(e.Left)
	old, ok := env.Get(target.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolved, target.Name)
	}
	delta := fixed.One
	if target.Ty == types.Int32 {
		delta = 1
	}
	if e.Op == ast.PreDec || e.Op == ast.PostDec {
		delta = -delta
	}
	before := Value{old[0]}
	after := Value{old[0] + delta}
	env.Set(target.Name, after)
	if e.Op == ast.PostInc || e.Op == ast.PostDec {
		return before, nil
	}
	return after, nil
}

func convert(from, to types.Type, v Value) Value {
	switch {
	case from == to:
		return v
	case from == types.Int32 && to == types.Fixed:
		return Value{fixed.FromInt(v.Int32())}
	case to == types.Int32:
		return Value{fixed.Fixed(v[0].Floor())}
	case to == types.Bool:
		return boolValue(v[0] != 0)
	}
	// bool to float keeps 0.0 or 1.0
	return v
}

func (ev *Evaluator) call(e *ast.Expr, env *Environment) (Value, error) {
	if e.Func == builtin.NoFunc {
		fn, ok := ev.funcs[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: function %q", ErrUnresolved, e.Name)
		}
		args, err := ev.exprs(e.Args, env)
		if err != nil {
			return nil, err
		}
		return ev.callUser(fn, args)
	}

	if e.Func == builtin.Perlin3 {
		p, err := ev.Expr(e.Args[0], env)
		if err != nil {
			return nil, err
		}
		octaves := int32(builtin.DefaultOctaves)
		if len(e.Args) == 2 {
			octaves, _ = typecheck.OctaveCount(ev.pool.Expr(e.Args[1]))
		}
		return Value{fixed.Perlin3(p[0], p[1], p[2], octaves)}, nil
	}

	args, err := ev.exprs(e.Args, env)
	if err != nil {
		return nil, err
	}
	if e.Func.Componentwise() {
		return scalarBuiltin(e.Func, e.Ty, args)
	}
	return vectorBuiltin(e.Func, args)
}

func (ev *Evaluator) callUser(fn *ast.FunctionDecl, args []Value) (Value, error) {
	// the entry point occupies the first frame
	if ev.limits.MaxCallDepth > 0 && ev.depth+1 >= ev.limits.MaxCallDepth {
		return nil, ErrCallDepthExceeded
	}
	ev.depth++
	defer func() { ev.depth-- }()

	// functions see their parameters only
	env := NewEnvironment()
	for i, p := range fn.Params {
		env.Define(p.Name, p.Ty, args[i])
	}
	v, returned, err := ev.block(fn.Body, env)
	if err != nil {
		return nil, err
	}
	if !returned && fn.ReturnType != types.Void {
		return nil, fmt.Errorf("%w: %s", ErrMissingReturn, fn.Name)
	}
	return v, nil
}
