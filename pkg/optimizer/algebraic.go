package optimizer

import (
	"lps/pkg/ast"
	"lps/pkg/fixed"
	"lps/pkg/types"
)

func isZero(e *ast.Expr) bool {
	return (e.Kind == ast.NumberLit && e.Num == 0) || (e.Kind == ast.IntLit && e.Int == 0)
}

func isOne(e *ast.Expr) bool {
	return (e.Kind == ast.NumberLit && e.Num == fixed.One) || (e.Kind == ast.IntLit && e.Int == 1)
}

func isBool(e *ast.Expr, b bool) bool {
	return e.Kind == ast.BoolLit && e.Bool == b
}

// truth reads a literal condition.
func truth(e *ast.Expr) (value, ok bool) {
	switch e.Kind {
	case ast.BoolLit:
		return e.Bool, true
	case ast.NumberLit:
		return e.Num != 0, true
	case ast.IntLit:
		return e.Int != 0, true
	}
	return false, false
}

// replace overwrites id with a copy of the node at with, keeping the
// original span.
func (o *Optimizer) replace(id, with ast.ExprId) {
	e := o.pool.Expr(id)
	span := e.Span
	*e = *o.pool.Expr(with)
	e.Span = span
}

// simplify applies identity and annihilator laws. Rewrites only fire when
// both operands already have the node's type, so no implicit conversion is
// lost.
func (o *Optimizer) simplify(id ast.ExprId) {
	e := o.pool.Expr(id)
	switch e.Kind {
	case ast.Binary:
		o.simplifyBinary(id, e)
	case ast.Unary:
		// -(-x), !!x and ~~x
		if inner := o.pool.Expr(e.Left); inner.Kind == ast.Unary && inner.Op == e.Op {
			o.replace(id, inner.Left)
		}
	case ast.Ternary:
		if v, ok := truth(o.pool.Expr(e.Left)); ok {
			if v {
				o.replace(id, e.Right)
			} else {
				o.replace(id, e.Else)
			}
		}
	}
}

func (o *Optimizer) simplifyBinary(id ast.ExprId, e *ast.Expr) {
	l, r := o.pool.Expr(e.Left), o.pool.Expr(e.Right)
	if l.Ty != e.Ty || r.Ty != e.Ty {
		return
	}
	scalar := e.Ty == types.Fixed || e.Ty == types.Int32

	switch e.Op {
	case ast.Add:
		switch {
		case isZero(r):
			o.replace(id, e.Left)
		case isZero(l):
			o.replace(id, e.Right)
		}
	case ast.Sub:
		if isZero(r) {
			o.replace(id, e.Left)
		}
	case ast.Mul:
		switch {
		case isOne(r):
			o.replace(id, e.Left)
		case isOne(l):
			o.replace(id, e.Right)
		case scalar && isZero(r) && o.pool.IsPure(e.Left):
			o.replace(id, e.Right)
		case scalar && isZero(l) && o.pool.IsPure(e.Right):
			o.replace(id, e.Left)
		}
	case ast.Div:
		if isOne(r) {
			o.replace(id, e.Left)
		}
	case ast.And:
		switch {
		case isBool(l, true):
			o.replace(id, e.Right)
		case isBool(r, true):
			o.replace(id, e.Left)
		case isBool(l, false) && o.pool.IsPure(e.Right):
			o.replace(id, e.Left)
		case isBool(r, false) && o.pool.IsPure(e.Left):
			o.replace(id, e.Right)
		}
	case ast.Or:
		switch {
		case isBool(l, false):
			o.replace(id, e.Right)
		case isBool(r, false):
			o.replace(id, e.Left)
		case isBool(l, true) && o.pool.IsPure(e.Right):
			o.replace(id, e.Left)
		case isBool(r, true) && o.pool.IsPure(e.Left):
			o.replace(id, e.Right)
		}
	case ast.BitOr, ast.BitXor, ast.Shl, ast.Shr:
		if isZero(r) {
			o.replace(id, e.Left)
		}
	}
}
