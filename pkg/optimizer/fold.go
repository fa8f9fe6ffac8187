package optimizer

import (
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/eval"
	"lps/pkg/types"
)

// foldLimits keeps a constant subtree from running away during folding.
var foldLimits = eval.Limits{MaxCallDepth: 1, MaxSteps: 10_000}

// constant reports whether id depends on nothing but literals.
func (o *Optimizer) constant(id ast.ExprId) bool {
	e := o.pool.Expr(id)
	switch e.Kind {
	case ast.NumberLit, ast.IntLit, ast.BoolLit:
		return true
	case ast.Variable, ast.Assign, ast.IncDec:
		return false
	case ast.Call:
		if e.Func == builtin.NoFunc {
			return false
		}
		return o.allConstant(e.Args)
	case ast.Constructor:
		return o.allConstant(e.Args)
	case ast.Binary:
		return o.constant(e.Left) && o.constant(e.Right)
	case ast.Unary, ast.Swizzle, ast.Convert:
		return o.constant(e.Left)
	case ast.Ternary:
		return o.constant(e.Left) && o.constant(e.Right) && o.constant(e.Else)
	}
	return false
}

func (o *Optimizer) allConstant(ids []ast.ExprId) bool {
	for _, id := range ids {
		if !o.constant(id) {
			return false
		}
	}
	return true
}

// fold evaluates a constant scalar subtree and overwrites the node with the
// literal result. Subtrees that fail at run time, such as a division by
// zero, are left for the VM to report.
func (o *Optimizer) fold(id ast.ExprId) {
	e := o.pool.Expr(id)
	if e.IsLiteral() || e.Ty.Size() != 1 || !o.constant(id) {
		return
	}
	v, err := eval.New(o.pool, builtin.Inputs{}, foldLimits).Expr(id, eval.NewEnvironment())
	if err != nil {
		return
	}
	*e = literal(e.Ty, v, e)
}

func literal(ty types.Type, v eval.Value, from *ast.Expr) ast.Expr {
	lit := ast.Expr{Span: from.Span, Ty: ty, Left: ast.NoExpr, Right: ast.NoExpr, Else: ast.NoExpr}
	switch ty {
	case types.Int32:
		lit.Kind, lit.Int = ast.IntLit, v.Int32()
	case types.Bool:
		lit.Kind, lit.Bool = ast.BoolLit, v.Bool()
	default:
		lit.Kind, lit.Num = ast.NumberLit, v.Scalar()
	}
	return lit
}
