package typecheck

import (
	"fmt"
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/types"
)

var componentNames = [4]string{"x", "y", "z", "w"}

func (c *Checker) call(e *ast.Expr) (types.Type, error) {
	argTypes := make([]types.Type, len(e.Args))
	for i, arg := range e.Args {
		ty, err := c.expr(arg)
		if err != nil {
			return types.Unknown, err
		}
		argTypes[i] = ty
	}

	// user functions shadow built-ins of the same name
	if sig, ok := c.functions[e.Name]; ok {
		if len(e.Args) != len(sig.params) {
			return types.Unknown, wrongArgCount(e, len(sig.params))
		}
		for i, want := range sig.params {
			if err := c.expect(&e.Args[i], want); err != nil {
				return types.Unknown, err
			}
		}
		return sig.ret, nil
	}

	f, ok := builtin.LookupFunc(e.Name)
	if !ok {
		return types.Unknown, &TypeError{Kind: UndefinedFunction, Span: e.Span, Name: e.Name}
	}
	e.Func = f
	return c.builtinCall(e, f, argTypes)
}

func wrongArgCount(e *ast.Expr, want int) *TypeError {
	return &TypeError{Kind: WrongArgCount, Span: e.Span, Name: e.Name,
		Msg: fmt.Sprintf("%s takes %d arguments, got %d", e.Name, want, len(e.Args))}
}

func (c *Checker) builtinCall(e *ast.Expr, f builtin.Func, argTypes []types.Type) (types.Type, error) {
	if f.Componentwise() {
		want := f.Arity()
		if f == builtin.Atan && len(e.Args) == 2 {
			want = 2
		}
		if len(e.Args) != want {
			return types.Unknown, wrongArgCount(e, want)
		}
		for i, ty := range argTypes {
			if ty.IsVector() {
				return c.expandComponentwise(e, argTypes)
			}
			if !ty.IsScalar() {
				return types.Unknown, mismatch(c.pool.Expr(e.Args[i]).Span, types.Fixed, ty)
			}
		}
		if integerForm(f) && allOf(argTypes, types.Int32) {
			return types.Int32, nil
		}
		for i := range e.Args {
			if err := c.promote(&e.Args[i]); err != nil {
				return types.Unknown, err
			}
		}
		return types.Fixed, nil
	}

	switch f {
	case builtin.Length, builtin.Normalize:
		if len(e.Args) != 1 {
			return types.Unknown, wrongArgCount(e, 1)
		}
		if !argTypes[0].IsVector() {
			return types.Unknown, invalidOp(c.pool.Expr(e.Args[0]).Span, "%s needs a vector, found %s", e.Name, argTypes[0])
		}
		if f == builtin.Normalize {
			return argTypes[0], nil
		}
		return types.Fixed, nil

	case builtin.Dot, builtin.Distance, builtin.Cross:
		if len(e.Args) != 2 {
			return types.Unknown, wrongArgCount(e, 2)
		}
		if argTypes[0] != argTypes[1] {
			return types.Unknown, mismatch(c.pool.Expr(e.Args[1]).Span, argTypes[0], argTypes[1])
		}
		if f == builtin.Cross {
			if argTypes[0] != types.Vec3 {
				return types.Unknown, invalidOp(e.Span, "cross needs vec3 arguments, found %s", argTypes[0])
			}
			return types.Vec3, nil
		}
		if !argTypes[0].IsVector() {
			return types.Unknown, invalidOp(e.Span, "%s needs vectors, found %s", e.Name, argTypes[0])
		}
		return types.Fixed, nil

	case builtin.Transpose, builtin.Determinant, builtin.Inverse:
		if len(e.Args) != 1 {
			return types.Unknown, wrongArgCount(e, 1)
		}
		if argTypes[0] != types.Mat3 {
			return types.Unknown, mismatch(c.pool.Expr(e.Args[0]).Span, types.Mat3, argTypes[0])
		}
		if f == builtin.Determinant {
			return types.Fixed, nil
		}
		return types.Mat3, nil

	case builtin.Perlin3:
		if len(e.Args) < 1 || len(e.Args) > 2 {
			return types.Unknown, wrongArgCount(e, 1)
		}
		if argTypes[0] != types.Vec3 {
			return types.Unknown, mismatch(c.pool.Expr(e.Args[0]).Span, types.Vec3, argTypes[0])
		}
		if len(e.Args) == 2 {
			if _, ok := OctaveCount(c.pool.Expr(e.Args[1])); !ok {
				return types.Unknown, invalidOp(c.pool.Expr(e.Args[1]).Span,
					"octave count must be an integer constant between %d and %d", fixed.MinOctaves, fixed.MaxOctaves)
			}
		}
		return types.Fixed, nil
	}
	return types.Unknown, &TypeError{Kind: UndefinedFunction, Span: e.Span, Name: e.Name}
}

// OctaveCount reads the constant octave argument of perlin3.
func OctaveCount(e *ast.Expr) (int32, bool) {
	var n int32
	switch {
	case e.Kind == ast.IntLit:
		n = e.Int
	case e.Kind == ast.NumberLit && e.Num.IsInteger():
		n = e.Num.Trunc()
	default:
		return 0, false
	}
	return n, n >= fixed.MinOctaves && n <= fixed.MaxOctaves
}

// integerForm lists the componentwise built-ins with Int32 opcodes.
func integerForm(f builtin.Func) bool {
	return f == builtin.Abs || f == builtin.Min || f == builtin.Max
}

func allOf(tys []types.Type, want types.Type) bool {
	for _, ty := range tys {
		if ty != want {
			return false
		}
	}
	return true
}

// expandComponentwise rewrites f(v, ...) over vectors into
// vecN(f(v.x, ...), f(v.y, ...), ...). Scalar arguments are shared by every
// component call; vector arguments must all have the same arity.
func (c *Checker) expandComponentwise(e *ast.Expr, argTypes []types.Type) (types.Type, error) {
	n := 0
	for i, ty := range argTypes {
		switch {
		case ty.IsVector():
			if n != 0 && ty.Size() != n {
				return types.Unknown, mismatch(c.pool.Expr(e.Args[i]).Span, types.VecOf(n), ty)
			}
			n = ty.Size()
		case !ty.IsScalar():
			return types.Unknown, mismatch(c.pool.Expr(e.Args[i]).Span, types.Fixed, ty)
		}
	}

	calls := make([]ast.ExprId, n)
	for comp := 0; comp < n; comp++ {
		args := make([]ast.ExprId, len(e.Args))
		for i, arg := range e.Args {
			if !argTypes[i].IsVector() {
				args[i] = arg
				continue
			}
			span := c.pool.Expr(arg).Span
			sw, err := c.pool.AddExpr(ast.Expr{Kind: ast.Swizzle, Left: arg, Swizzle: componentNames[comp], Span: span})
			if err != nil {
				return types.Unknown, allocError(err, span)
			}
			args[i] = sw
		}
		call, err := c.pool.AddExpr(ast.Expr{Kind: ast.Call, Name: e.Name, Args: args, Span: e.Span})
		if err != nil {
			return types.Unknown, allocError(err, e.Span)
		}
		calls[comp] = call
	}

	// rewritten in place so every parent sees the constructor
	*e = ast.Expr{Kind: ast.Constructor, Target: types.VecOf(n), Args: calls, Span: e.Span}
	return c.constructor(e)
}
