package ast

import (
	"errors"
	"fmt"
	"lps/pkg/alloc"
	"unsafe"
)

var (
	ErrExprLimitExceeded = errors.New("expression limit exceeded")
	ErrStmtLimitExceeded = errors.New("statement limit exceeded")
)

type Limits struct {
	MaxExprs int
	MaxStmts int
}

func DefaultLimits() Limits {
	return Limits{MaxExprs: 20000, MaxStmts: 10000}
}

const (
	chunkBits = 8
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1

	exprChunkBytes = int(unsafe.Sizeof(Expr{})) * chunkSize
	stmtChunkBytes = int(unsafe.Sizeof(Stmt{})) * chunkSize
)

// Pool owns every node of one compilation. Nodes live in fixed-size chunks
// so a *Expr or *Stmt stays valid while the pool grows. Nodes are never
// freed individually; the pool is dropped as a whole.
type Pool struct {
	exprs  [][]Expr
	stmts  [][]Stmt
	nexprs int
	nstmts int
	limits Limits
	alloc  alloc.Context
}

func NewPool(limits Limits, ctx alloc.Context) *Pool {
	return &Pool{limits: limits, alloc: alloc.Or(ctx)}
}

func (p *Pool) AddExpr(e Expr) (ExprId, error) {
	if p.limits.MaxExprs > 0 && p.nexprs >= p.limits.MaxExprs {
		return NoExpr, fmt.Errorf("%w: max %d", ErrExprLimitExceeded, p.limits.MaxExprs)
	}
	if p.nexprs&chunkMask == 0 {
		if err := p.alloc.Reserve(exprChunkBytes); err != nil {
			return NoExpr, err
		}
		p.exprs = append(p.exprs, make([]Expr, chunkSize))
	}
	id := ExprId(p.nexprs)
	p.exprs[p.nexprs>>chunkBits][p.nexprs&chunkMask] = e
	p.nexprs++
	return id, nil
}

func (p *Pool) AddStmt(s Stmt) (StmtId, error) {
	if p.limits.MaxStmts > 0 && p.nstmts >= p.limits.MaxStmts {
		return NoStmt, fmt.Errorf("%w: max %d", ErrStmtLimitExceeded, p.limits.MaxStmts)
	}
	if p.nstmts&chunkMask == 0 {
		if err := p.alloc.Reserve(stmtChunkBytes); err != nil {
			return NoStmt, err
		}
		p.stmts = append(p.stmts, make([]Stmt, chunkSize))
	}
	id := StmtId(p.nstmts)
	p.stmts[p.nstmts>>chunkBits][p.nstmts&chunkMask] = s
	p.nstmts++
	return id, nil
}

func (p *Pool) Expr(id ExprId) *Expr {
	return &p.exprs[id>>chunkBits][id&chunkMask]
}

func (p *Pool) Stmt(id StmtId) *Stmt {
	return &p.stmts[id>>chunkBits][id&chunkMask]
}

func (p *Pool) NumExprs() int { return p.nexprs }
func (p *Pool) NumStmts() int { return p.nstmts }

// Release returns the pool's chunks to its allocation context.
func (p *Pool) Release() {
	p.alloc.Release(len(p.exprs)*exprChunkBytes + len(p.stmts)*stmtChunkBytes)
	p.exprs, p.stmts = nil, nil
	p.nexprs, p.nstmts = 0, 0
}
