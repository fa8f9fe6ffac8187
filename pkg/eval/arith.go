package eval

import (
	"fmt"
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/types"
)

// FixedOp applies a fixed point arithmetic operator to one pair of
// components. Add and Sub wrap.
func FixedOp(op ast.Op, a, b fixed.Fixed) (fixed.Fixed, error) {
	switch op {
	case ast.Add:
		return a + b, nil
	case ast.Sub:
		return a - b, nil
	case ast.Mul:
		return fixed.Mul(a, b), nil
	case ast.Div:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return fixed.Div(a, b), nil
	case ast.Mod:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return fixed.Mod(a, b), nil
	}
	return 0, fmt.Errorf("eval: %s is not arithmetic", op)
}

// Int32Op applies an integer operator. Arithmetic wraps and division
// truncates toward zero.
func Int32Op(op ast.Op, a, b int32) (int32, error) {
	switch op {
	case ast.Add:
		return a + b, nil
	case ast.Sub:
		return a - b, nil
	case ast.Mul:
		return a * b, nil
	case ast.Div:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case ast.Mod:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a % b, nil
	case ast.BitAnd:
		return a & b, nil
	case ast.BitOr:
		return a | b, nil
	case ast.BitXor:
		return a ^ b, nil
	case ast.Shl:
		return fixed.Shl(a, b), nil
	case ast.Shr:
		return fixed.Shr(a, b), nil
	}
	return 0, fmt.Errorf("eval: %s is not an int operator", op)
}

// Compare orders two scalars of the same type.
func Compare(op ast.Op, a, b int32) bool {
	switch op {
	case ast.Less:
		return a < b
	case ast.Greater:
		return a > b
	case ast.LessEq:
		return a <= b
	case ast.GreaterEq:
		return a >= b
	case ast.Eq:
		return a == b
	case ast.NotEq:
		return a != b
	}
	return false
}

func componentwise(op ast.Op, a, b Value) (Value, error) {
	out := make(Value, len(a))
	for i := range a {
		c, err := FixedOp(op, a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func broadcast(v fixed.Fixed, n int) Value {
	out := make(Value, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func (ev *Evaluator) binary(e *ast.Expr, left, right Value) (Value, error) {
	lt, rt := ev.pool.Expr(e.Left).Ty, ev.pool.Expr(e.Right).Ty
	switch {
	case e.Op.IsComparison():
		// fixed point, int and bool slots all order as signed 32-bit words
		return boolValue(Compare(e.Op, int32(left[0]), int32(right[0]))), nil

	case e.Op == ast.And:
		return boolValue(left.Bool() && right.Bool()), nil
	case e.Op == ast.Or:
		return boolValue(left.Bool() || right.Bool()), nil

	case e.Op.IsBitwise():
		v, err := Int32Op(e.Op, left.Int32(), right.Int32())
		return Value{fixed.Fixed(v)}, err
	}
	return arithmetic(e.Op, lt, rt, left, right)
}

func arithmetic(op ast.Op, lt, rt types.Type, left, right Value) (Value, error) {
	switch {
	case lt == types.Int32 && rt == types.Int32:
		v, err := Int32Op(op, left.Int32(), right.Int32())
		return Value{fixed.Fixed(v)}, err

	case lt == types.Mat3 && rt == types.Mat3:
		switch op {
		case ast.Add, ast.Sub:
			return componentwise(op, left, right)
		case ast.Mul:
			m := fixed.Mat3Mul(left, right)
			return m[:], nil
		}

	case lt == types.Mat3 && rt == types.Vec3 && op == ast.Mul:
		v := fixed.Mat3MulVec3(left, right)
		return v[:], nil

	case lt == rt:
		return componentwise(op, left, right)

	case rt.IsScalar():
		return componentwise(op, left, broadcast(right[0], len(left)))

	case lt.IsScalar():
		return componentwise(op, broadcast(left[0], len(right)), right)
	}
	return nil, fmt.Errorf("eval: %s %s %s", lt, op, rt)
}

func unary(op ast.Op, ty types.Type, v Value) (Value, error) {
	switch op {
	case ast.Neg:
		out := make(Value, len(v))
		for i, c := range v {
			out[i] = -c
		}
		return out, nil
	case ast.Not:
		return boolValue(!v.Bool()), nil
	case ast.BitNot:
		return Value{fixed.Fixed(^v.Int32())}, nil
	}
	return nil, fmt.Errorf("eval: unary %s on %s", op, ty)
}

// ScalarBuiltin evaluates a componentwise built-in on scalar arguments.
// Int32 results come from the integer forms of abs, min and max.
func ScalarBuiltin(f builtin.Func, args []fixed.Fixed, intForm bool) (fixed.Fixed, error) {
	if intForm {
		a, b := int32(args[0]), int32(0)
		if len(args) > 1 {
			b = int32(args[1])
		}
		switch f {
		case builtin.Abs:
			if a < 0 {
				a = -a
			}
			return fixed.Fixed(a), nil
		case builtin.Min:
			return fixed.Fixed(min(a, b)), nil
		case builtin.Max:
			return fixed.Fixed(max(a, b)), nil
		}
	}

	switch f {
	case builtin.Sin:
		return fixed.Sin(args[0]), nil
	case builtin.Cos:
		return fixed.Cos(args[0]), nil
	case builtin.Tan:
		return fixed.Tan(args[0]), nil
	case builtin.Atan:
		if len(args) == 2 {
			return fixed.Atan2(args[0], args[1]), nil
		}
		return fixed.Atan(args[0]), nil
	case builtin.Abs:
		return fixed.Abs(args[0]), nil
	case builtin.Floor:
		return fixed.Floor(args[0]), nil
	case builtin.Ceil:
		return fixed.Ceil(args[0]), nil
	case builtin.Sqrt:
		return fixed.Sqrt(args[0]), nil
	case builtin.Sign:
		return fixed.Sign(args[0]), nil
	case builtin.Fract:
		return fixed.Fract(args[0]), nil
	case builtin.Saturate:
		return fixed.Saturate(args[0]), nil
	case builtin.Exp2:
		return fixed.Exp2(args[0]), nil
	case builtin.Log2:
		return fixed.Log2(args[0]), nil
	case builtin.Pow:
		return fixed.Pow(args[0], args[1]), nil
	case builtin.Mod:
		return FixedOp(ast.Mod, args[0], args[1])
	case builtin.Min:
		return fixed.Min(args[0], args[1]), nil
	case builtin.Max:
		return fixed.Max(args[0], args[1]), nil
	case builtin.Step:
		return fixed.Step(args[0], args[1]), nil
	case builtin.Clamp:
		return fixed.Clamp(args[0], args[1], args[2]), nil
	case builtin.Lerp:
		return fixed.Lerp(args[0], args[1], args[2]), nil
	case builtin.Smoothstep:
		return fixed.Smoothstep(args[0], args[1], args[2]), nil
	}
	return 0, fmt.Errorf("eval: %d is not a scalar built-in", f)
}

func scalarBuiltin(f builtin.Func, ty types.Type, args []Value) (Value, error) {
	scalars := make([]fixed.Fixed, len(args))
	for i, a := range args {
		scalars[i] = a[0]
	}
	v, err := ScalarBuiltin(f, scalars, ty == types.Int32)
	if err != nil {
		return nil, err
	}
	return Value{v}, nil
}

func vectorBuiltin(f builtin.Func, args []Value) (Value, error) {
	switch f {
	case builtin.Length:
		return Value{fixed.Length(args[0])}, nil
	case builtin.Normalize:
		out := make(Value, len(args[0]))
		fixed.Normalize(out, args[0])
		return out, nil
	case builtin.Dot:
		return Value{fixed.Dot(args[0], args[1])}, nil
	case builtin.Distance:
		return Value{fixed.Distance(args[0], args[1])}, nil
	case builtin.Cross:
		v := fixed.Cross(args[0], args[1])
		return v[:], nil
	case builtin.Transpose:
		m := fixed.Transpose(args[0])
		return m[:], nil
	case builtin.Determinant:
		return Value{fixed.Determinant(args[0])}, nil
	case builtin.Inverse:
		m := fixed.Inverse(args[0])
		return m[:], nil
	}
	return nil, fmt.Errorf("eval: %d is not a vector built-in", f)
}
