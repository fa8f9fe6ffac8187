package compiler

import (
	"lps/pkg/alloc"
	"lps/pkg/ast"
	"sync"
)

// Compiler pool for reusing compiler instances across compilations
var compilerPool = sync.Pool{
	New: func() interface{} {
		return &Compiler{functions: make(map[string]int)}
	},
}

// GetCompiler retrieves a compiler from the pool bound to the given tree
func GetCompiler(pool *ast.Pool, cfg Config, ctx alloc.Context) *Compiler {
	c := compilerPool.Get().(*Compiler)
	c.pool = pool
	c.cfg = cfg
	c.alloc = alloc.Or(ctx)
	return c
}

// PutCompiler returns a compiler to the pool after use. Programs it produced
// stay valid; their code slices are not reused.
func PutCompiler(c *Compiler) {
	c.pool = nil
	c.alloc = nil
	c.locals = nil
	c.code = nil
	c.reserved = 0
	c.err = nil
	clear(c.functions)

	compilerPool.Put(c)
}
