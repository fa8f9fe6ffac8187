package ast

import "lps/pkg/builtin"

// IsPure reports whether evaluating id neither writes a local nor can fail at
// run time. Pure subtrees may be evaluated eagerly or dropped. Calls to user
// functions are never pure since they may recurse past the call limit.
func (p *Pool) IsPure(id ExprId) bool {
	e := p.Expr(id)
	switch e.Kind {
	case NumberLit, IntLit, BoolLit, Variable:
		return true
	case Assign, IncDec:
		return false
	case Binary:
		if (e.Op == Div || e.Op == Mod) && !p.isNonZeroLiteral(e.Right) {
			return false
		}
		return p.IsPure(e.Left) && p.IsPure(e.Right)
	case Unary, Swizzle, Convert:
		return p.IsPure(e.Left)
	case Ternary:
		return p.IsPure(e.Left) && p.IsPure(e.Right) && p.IsPure(e.Else)
	case Call:
		if e.Func == builtin.NoFunc || e.Func == builtin.Mod {
			return false
		}
		return p.allPure(e.Args)
	case Constructor:
		return p.allPure(e.Args)
	}
	return false
}

func (p *Pool) allPure(ids []ExprId) bool {
	for _, id := range ids {
		if !p.IsPure(id) {
			return false
		}
	}
	return true
}

func (p *Pool) isNonZeroLiteral(id ExprId) bool {
	e := p.Expr(id)
	switch e.Kind {
	case NumberLit:
		return e.Num != 0
	case IntLit:
		return e.Int != 0
	}
	return false
}
