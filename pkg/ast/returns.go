package ast

// AlwaysReturns reports whether every path through the statement ends in a
// return. Loops never count, since their body may not run.
func (p *Pool) AlwaysReturns(id StmtId) bool {
	if id == NoStmt {
		return false
	}
	s := p.Stmt(id)
	switch s.Kind {
	case Return:
		return true
	case Block:
		return p.BodyAlwaysReturns(s.Body)
	case If:
		return s.Else != NoStmt && p.AlwaysReturns(s.Then) && p.AlwaysReturns(s.Else)
	}
	return false
}

// BodyAlwaysReturns is AlwaysReturns for a statement list.
func (p *Pool) BodyAlwaysReturns(body []StmtId) bool {
	for _, id := range body {
		if p.AlwaysReturns(id) {
			return true
		}
	}
	return false
}
