package compiler

import (
	"fmt"
	"lps/pkg/alloc"
	"lps/pkg/ast"
	"lps/pkg/opcode"
	"lps/pkg/types"
	"unsafe"
)

type Config struct {
	MaxLocalSlots   int
	MaxInstructions int
	MaxFunctions    int
}

func DefaultConfig() Config {
	return Config{MaxLocalSlots: 256, MaxInstructions: 1 << 16, MaxFunctions: 256}
}

const (
	codeChunk      = 256
	codeChunkBytes = int(unsafe.Sizeof(opcode.Instruction{})) * codeChunk
)

// Compiler lowers a type-checked tree into one instruction sequence per
// function. Opcodes are chosen from the static types recorded on each node.
type Compiler struct {
	pool  *ast.Pool
	cfg   Config
	alloc alloc.Context

	functions map[string]int
	locals    *LocalAllocator
	code      opcode.Instructions
	reserved  int
	err       error
}

func New(pool *ast.Pool, cfg Config, ctx alloc.Context) *Compiler {
	return &Compiler{
		pool:      pool,
		cfg:       cfg,
		alloc:     alloc.Or(ctx),
		functions: make(map[string]int),
	}
}

// CompileProgram lowers a checked script. The top-level statements become
// function 0.
func (c *Compiler) CompileProgram(prog *ast.Program) (*Program, error) {
	if c.cfg.MaxFunctions > 0 && len(prog.Functions)+1 > c.cfg.MaxFunctions {
		return nil, &CodegenError{Kind: ProgramTooLarge,
			Msg: fmt.Sprintf("%d functions, max %d", len(prog.Functions)+1, c.cfg.MaxFunctions)}
	}
	for i, fn := range prog.Functions {
		c.functions[fn.Name] = i + 1
	}

	out := &Program{Functions: make([]FunctionDef, 0, len(prog.Functions)+1)}
	main, err := c.function(ast.FunctionDecl{Name: "main", ReturnType: prog.MainReturn, Body: prog.Main})
	if err != nil {
		return nil, err
	}
	out.Functions = append(out.Functions, main)

	for _, fn := range prog.Functions {
		def, err := c.function(fn)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, def)
	}
	return out, nil
}

// CompileExpr lowers a checked standalone expression into a program whose
// entry point returns its value.
func (c *Compiler) CompileExpr(id ast.ExprId) (*Program, error) {
	c.begin()
	if err := c.expr(id); err != nil {
		return nil, err
	}
	c.emit(opcode.OpReturn)
	if c.err != nil {
		return nil, c.err
	}
	main := FunctionDef{
		Name:       "main",
		ReturnType: c.pool.Expr(id).Ty,
		Locals:     c.locals.Locals(),
		NumSlots:   c.locals.NumSlots(),
		Code:       c.code,
	}
	return &Program{Functions: []FunctionDef{main}}, nil
}

func (c *Compiler) begin() {
	c.locals = NewLocalAllocator(c.cfg.MaxLocalSlots)
	c.code = nil
	c.reserved = 0
	c.err = nil
}

func (c *Compiler) function(fn ast.FunctionDecl) (FunctionDef, error) {
	c.begin()
	def := FunctionDef{Name: fn.Name, ReturnType: fn.ReturnType}
	for _, p := range fn.Params {
		if _, err := c.locals.Declare(p.Name, p.Ty); err != nil {
			return FunctionDef{}, err
		}
		def.Params = append(def.Params, Param{Name: p.Name, Type: p.Ty})
	}
	def.ParamSlots = c.locals.NumSlots()

	for _, s := range fn.Body {
		if err := c.stmt(s); err != nil {
			return FunctionDef{}, err
		}
	}
	if n := len(c.code); n == 0 || c.code[n-1].Op != opcode.OpReturn {
		c.emit(opcode.OpReturn)
	}
	if c.err != nil {
		return FunctionDef{}, c.err
	}

	def.Locals = c.locals.Locals()
	def.NumSlots = c.locals.NumSlots()
	def.Code = c.code
	return def, nil
}

// emit appends an instruction and returns its index. Limit and allocation
// failures are recorded and reported when the function is finished.
func (c *Compiler) emit(op opcode.Opcode, arg ...int32) int {
	pos := len(c.code)
	if c.err != nil {
		return pos
	}
	if c.cfg.MaxInstructions > 0 && pos >= c.cfg.MaxInstructions {
		c.err = &CodegenError{Kind: ProgramTooLarge,
			Msg: fmt.Sprintf("function exceeds %d instructions", c.cfg.MaxInstructions)}
		return pos
	}
	if pos >= c.reserved {
		if err := c.alloc.Reserve(codeChunkBytes); err != nil {
			c.err = &CodegenError{Kind: AllocationFailed, Msg: err.Error(), Err: err}
			return pos
		}
		c.reserved += codeChunk
	}
	c.code = append(c.code, opcode.Make(op, arg...))
	return pos
}

// patchJump points the jump at pos to the next instruction to be emitted.
func (c *Compiler) patchJump(pos int) {
	if c.err != nil {
		return
	}
	c.code[pos].Arg = int32(len(c.code) - pos - 1)
}

func (c *Compiler) emitJumpTo(op opcode.Opcode, target int) {
	c.emit(op, int32(target-len(c.code)-1))
}

func (c *Compiler) stmt(id ast.StmtId) error {
	s := c.pool.Stmt(id)
	switch s.Kind {
	case ast.VarDecl:
		if s.Value != ast.NoExpr {
			if err := c.expr(s.Value); err != nil {
				return err
			}
		} else {
			c.zero(s.DeclType)
		}
		// the initializer still resolves names to any outer binding
		def, err := c.locals.Declare(s.Name, s.DeclType)
		if err != nil {
			if ce, ok := err.(*CodegenError); ok {
				ce.Span = s.Span
			}
			return err
		}
		c.emit(storeOps[s.DeclType], int32(def.Slot))

	case ast.Return:
		if s.Value != ast.NoExpr {
			if err := c.expr(s.Value); err != nil {
				return err
			}
		}
		c.emit(opcode.OpReturn)

	case ast.ExprStmt:
		if err := c.expr(s.Value); err != nil {
			return err
		}
		c.drop(c.pool.Expr(s.Value).Ty)

	case ast.Block:
		c.locals.PushScope()
		defer c.locals.PopScope()
		for _, b := range s.Body {
			if err := c.stmt(b); err != nil {
				return err
			}
		}

	case ast.If:
		if err := c.expr(s.Cond); err != nil {
			return err
		}
		jumpElse := c.emit(opcode.OpJumpIfZero)
		if err := c.scoped(s.Then); err != nil {
			return err
		}
		if s.Else == ast.NoStmt {
			c.patchJump(jumpElse)
			return nil
		}
		jumpEnd := c.emit(opcode.OpJump)
		c.patchJump(jumpElse)
		if err := c.scoped(s.Else); err != nil {
			return err
		}
		c.patchJump(jumpEnd)

	case ast.While:
		loopStart := len(c.code)
		if err := c.expr(s.Cond); err != nil {
			return err
		}
		jumpEnd := c.emit(opcode.OpJumpIfZero)
		if err := c.scoped(s.Then); err != nil {
			return err
		}
		c.emitJumpTo(opcode.OpJump, loopStart)
		c.patchJump(jumpEnd)

	case ast.For:
		c.locals.PushScope()
		defer c.locals.PopScope()
		if s.Init != ast.NoStmt {
			if err := c.stmt(s.Init); err != nil {
				return err
			}
		}
		loopStart := len(c.code)
		jumpEnd := -1
		if s.Cond != ast.NoExpr {
			if err := c.expr(s.Cond); err != nil {
				return err
			}
			jumpEnd = c.emit(opcode.OpJumpIfZero)
		}
		if err := c.scoped(s.Then); err != nil {
			return err
		}
		if s.Step != ast.NoExpr {
			if err := c.expr(s.Step); err != nil {
				return err
			}
			c.drop(c.pool.Expr(s.Step).Ty)
		}
		c.emitJumpTo(opcode.OpJump, loopStart)
		if jumpEnd >= 0 {
			c.patchJump(jumpEnd)
		}

	default:
		return &CodegenError{Kind: UnsupportedFeature, Span: s.Span,
			Msg: fmt.Sprintf("statement kind %s", s.Kind)}
	}
	return nil
}

func (c *Compiler) scoped(id ast.StmtId) error {
	c.locals.PushScope()
	defer c.locals.PopScope()
	return c.stmt(id)
}

// zero pushes the default value of ty.
func (c *Compiler) zero(ty types.Type) {
	if ty == types.Int32 {
		c.emit(opcode.OpPushInt32, 0)
		return
	}
	c.emit(opcode.OpPushFixed, 0)
	for i := 1; i < ty.Size(); i++ {
		c.emit(opcode.OpDup1)
	}
}

func (c *Compiler) drop(ty types.Type) {
	if n := ty.Size(); n > 0 {
		c.emit(dropOps[n])
	}
}

func (c *Compiler) dup(ty types.Type) {
	if n := ty.Size(); n > 0 {
		c.emit(dupOps[n])
	}
}
