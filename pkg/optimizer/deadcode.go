package optimizer

import "lps/pkg/ast"

// body optimizes a statement list and returns it, truncated after the
// first statement that always returns when dead code elimination is on.
func (o *Optimizer) body(stmts []ast.StmtId) []ast.StmtId {
	for i, id := range stmts {
		o.stmt(id)
		if o.opts.DeadCode && o.pool.AlwaysReturns(id) {
			return stmts[:i+1]
		}
	}
	return stmts
}

func (o *Optimizer) stmt(id ast.StmtId) {
	if id == ast.NoStmt {
		return
	}
	s := o.pool.Stmt(id)
	switch s.Kind {
	case ast.VarDecl, ast.Return, ast.ExprStmt:
		o.expr(s.Value)

	case ast.Block:
		s.Body = o.body(s.Body)

	case ast.If:
		o.expr(s.Cond)
		o.stmt(s.Then)
		o.stmt(s.Else)
		if !o.opts.DeadCode {
			return
		}
		taken, ok := truth(o.pool.Expr(s.Cond))
		if !ok {
			return
		}
		// the block keeps the branch's own scope
		branch := s.Else
		if taken {
			branch = s.Then
		}
		*s = ast.Stmt{Kind: ast.Block, Span: s.Span}
		if branch != ast.NoStmt {
			s.Body = []ast.StmtId{branch}
		}

	case ast.While:
		o.expr(s.Cond)
		o.stmt(s.Then)
		if taken, ok := truth(o.pool.Expr(s.Cond)); o.opts.DeadCode && ok && !taken {
			*s = ast.Stmt{Kind: ast.Block, Span: s.Span}
		}

	case ast.For:
		o.stmt(s.Init)
		o.expr(s.Cond)
		o.expr(s.Step)
		o.stmt(s.Then)
		if s.Cond == ast.NoExpr || !o.opts.DeadCode {
			return
		}
		if taken, ok := truth(o.pool.Expr(s.Cond)); ok && !taken {
			init := s.Init
			*s = ast.Stmt{Kind: ast.Block, Span: s.Span}
			if init != ast.NoStmt {
				s.Body = []ast.StmtId{init}
			}
		}
	}
}
