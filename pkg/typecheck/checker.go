package typecheck

import (
	"fmt"
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/token"
	"lps/pkg/types"
)

type signature struct {
	params []types.Type
	ret    types.Type
}

// Checker annotates every node of a pool with its type. It rewrites the
// tree where the language inserts implicit work: Int32 operands promoted to
// fixed point and componentwise built-ins over vectors.
type Checker struct {
	pool      *ast.Pool
	functions map[string]signature
	scope     *SymbolTable

	returnType  types.Type
	inMain      bool
	mainReturns []*ast.Stmt
}

func New(pool *ast.Pool) *Checker {
	return &Checker{pool: pool, functions: make(map[string]signature)}
}

// CheckExpr checks a standalone expression and returns its type.
func (c *Checker) CheckExpr(id ast.ExprId) (types.Type, error) {
	c.scope = NewSymbolTable()
	return c.expr(id)
}

// CheckProgram checks every function and the top-level statements, and
// records the entry point's return type in prog.MainReturn.
func (c *Checker) CheckProgram(prog *ast.Program) error {
	for _, fn := range prog.Functions {
		sig := signature{ret: fn.ReturnType}
		seen := make(map[string]bool, len(fn.Params))
		for _, p := range fn.Params {
			if p.Ty == types.Void {
				return invalidOp(p.Span, "parameter %q cannot be void", p.Name)
			}
			if seen[p.Name] {
				return &TypeError{Kind: Redefinition, Span: p.Span, Name: p.Name}
			}
			seen[p.Name] = true
			sig.params = append(sig.params, p.Ty)
		}
		c.functions[fn.Name] = sig
	}

	for _, fn := range prog.Functions {
		if err := c.function(fn); err != nil {
			return err
		}
	}

	c.scope = NewSymbolTable()
	c.inMain = true
	c.returnType = types.Unknown
	c.mainReturns = nil
	for _, s := range prog.Main {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	c.inMain = false

	if c.returnType == types.Unknown {
		c.returnType = types.Void
	}
	if c.returnType != types.Void && !c.pool.BodyAlwaysReturns(prog.Main) {
		return &TypeError{Kind: MissingReturn, Span: bodySpan(c.pool, prog.Main), Name: "main",
			Msg: "top-level statements do not return on every path"}
	}
	prog.MainReturn = c.returnType
	return nil
}

func (c *Checker) function(fn ast.FunctionDecl) error {
	c.scope = NewSymbolTable()
	for _, p := range fn.Params {
		c.scope.Define(p.Name, p.Ty)
	}
	c.returnType = fn.ReturnType
	for _, s := range fn.Body {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	if fn.ReturnType != types.Void && !c.pool.BodyAlwaysReturns(fn.Body) {
		return &TypeError{Kind: MissingReturn, Span: fn.Span, Name: fn.Name,
			Msg: fmt.Sprintf("function %q does not return on every path", fn.Name)}
	}
	return nil
}

func bodySpan(pool *ast.Pool, body []ast.StmtId) token.Span {
	if len(body) == 0 {
		return token.Span{}
	}
	return pool.Stmt(body[0]).Span.Join(pool.Stmt(body[len(body)-1]).Span)
}

func (c *Checker) pushScope() {
	c.scope = NewEnclosedSymbolTable(c.scope)
}

func (c *Checker) popScope() {
	c.scope = c.scope.Outer
}

// scoped checks a nested statement in its own scope, so a declaration used
// as an unbraced if or loop body does not leak.
func (c *Checker) scoped(id ast.StmtId) error {
	c.pushScope()
	defer c.popScope()
	return c.stmt(id)
}

func (c *Checker) stmt(id ast.StmtId) error {
	s := c.pool.Stmt(id)
	switch s.Kind {
	case ast.VarDecl:
		if s.DeclType == types.Void {
			return invalidOp(s.Span, "variable %q cannot be void", s.Name)
		}
		if s.Value != ast.NoExpr {
			if err := c.expect(&s.Value, s.DeclType); err != nil {
				return err
			}
		}
		// defined after the initializer, which still sees any outer binding
		c.scope.Define(s.Name, s.DeclType)
		return nil

	case ast.Return:
		return c.returnStmt(s)

	case ast.ExprStmt:
		_, err := c.expr(s.Value)
		return err

	case ast.Block:
		c.pushScope()
		defer c.popScope()
		for _, b := range s.Body {
			if err := c.stmt(b); err != nil {
				return err
			}
		}
		return nil

	case ast.If:
		if err := c.condition(s.Cond); err != nil {
			return err
		}
		if err := c.scoped(s.Then); err != nil {
			return err
		}
		if s.Else != ast.NoStmt {
			return c.scoped(s.Else)
		}
		return nil

	case ast.While:
		if err := c.condition(s.Cond); err != nil {
			return err
		}
		return c.scoped(s.Then)

	case ast.For:
		c.pushScope()
		defer c.popScope()
		if s.Init != ast.NoStmt {
			if err := c.stmt(s.Init); err != nil {
				return err
			}
		}
		if s.Cond != ast.NoExpr {
			if err := c.condition(s.Cond); err != nil {
				return err
			}
		}
		if s.Step != ast.NoExpr {
			if _, err := c.expr(s.Step); err != nil {
				return err
			}
		}
		return c.scoped(s.Then)
	}
	return fmt.Errorf("typecheck: unknown statement kind %s", s.Kind)
}

func (c *Checker) returnStmt(s *ast.Stmt) error {
	if s.Value == ast.NoExpr {
		if c.inMain && c.returnType == types.Unknown {
			c.returnType = types.Void
		}
		if c.returnType != types.Void {
			return mismatch(s.Span, c.returnType, types.Void)
		}
		return nil
	}
	if c.inMain {
		return c.mainReturn(s)
	}
	if c.returnType == types.Void {
		return mismatch(c.pool.Expr(s.Value).Span, types.Void, c.typeOf(s.Value))
	}
	return c.expect(&s.Value, c.returnType)
}

// mainReturn infers the entry point's type from its returns. An Int32
// return widens to fixed point when any other return is fixed point,
// whichever comes first.
func (c *Checker) mainReturn(s *ast.Stmt) error {
	ty, err := c.expr(s.Value)
	if err != nil {
		return err
	}
	switch {
	case c.returnType == types.Unknown:
		c.returnType = ty
	case c.returnType == types.Int32 && ty == types.Fixed:
		for _, prev := range c.mainReturns {
			if err := c.promote(&prev.Value); err != nil {
				return err
			}
		}
		c.returnType = types.Fixed
	case c.returnType == types.Void:
		return mismatch(c.pool.Expr(s.Value).Span, types.Void, ty)
	default:
		if err := c.expect(&s.Value, c.returnType); err != nil {
			return err
		}
	}
	c.mainReturns = append(c.mainReturns, s)
	return nil
}

// condition accepts anything with a zero test.
func (c *Checker) condition(id ast.ExprId) error {
	ty, err := c.expr(id)
	if err != nil {
		return err
	}
	switch ty {
	case types.Bool, types.Fixed, types.Int32:
		return nil
	}
	return mismatch(c.pool.Expr(id).Span, types.Bool, ty)
}

// expect checks *ref against want, promoting an Int32 value where a fixed
// point one is required.
func (c *Checker) expect(ref *ast.ExprId, want types.Type) error {
	ty, err := c.expr(*ref)
	if err != nil {
		return err
	}
	if want == types.Fixed && ty == types.Int32 {
		return c.promote(ref)
	}
	if ty != want {
		return mismatch(c.pool.Expr(*ref).Span, want, ty)
	}
	return nil
}

func (c *Checker) typeOf(id ast.ExprId) types.Type {
	ty, _ := c.expr(id)
	return ty
}

// promote converts an Int32 operand to fixed point. Literals are rewritten
// in place; anything else is wrapped in a Convert node.
func (c *Checker) promote(ref *ast.ExprId) error {
	e := c.pool.Expr(*ref)
	if e.Ty != types.Int32 {
		return nil
	}
	if e.Kind == ast.IntLit {
		e.Kind = ast.NumberLit
		e.Num = fixed.FromInt(e.Int)
		e.Ty = types.Fixed
		return nil
	}
	id, err := c.pool.AddExpr(ast.Expr{Kind: ast.Convert, Target: types.Fixed, Left: *ref, Span: e.Span, Ty: types.Fixed})
	if err != nil {
		return allocError(err, e.Span)
	}
	*ref = id
	return nil
}

func allocError(err error, span token.Span) *TypeError {
	return &TypeError{Kind: AllocationFailed, Span: span, Msg: err.Error(), Err: err}
}

// expr types a node once; later visits return the recorded type.
func (c *Checker) expr(id ast.ExprId) (types.Type, error) {
	e := c.pool.Expr(id)
	if e.Ty != types.Unknown {
		return e.Ty, nil
	}
	ty, err := c.infer(e)
	if err != nil {
		return types.Unknown, err
	}
	e.Ty = ty
	return ty, nil
}

func (c *Checker) infer(e *ast.Expr) (types.Type, error) {
	switch e.Kind {
	case ast.NumberLit:
		return types.Fixed, nil
	case ast.IntLit:
		return types.Int32, nil
	case ast.BoolLit:
		return types.Bool, nil
	case ast.Variable:
		if sym, ok := c.scope.Resolve(e.Name); ok {
			return sym.Type, nil
		}
		if v, ok := builtin.LookupVariable(e.Name); ok {
			return v.Type, nil
		}
		return types.Unknown, &TypeError{Kind: UndefinedVariable, Span: e.Span, Name: e.Name}
	case ast.Binary:
		return c.binary(e)
	case ast.Unary:
		return c.unary(e)
	case ast.Call:
		return c.call(e)
	case ast.Constructor:
		return c.constructor(e)
	case ast.Swizzle:
		return c.swizzle(e)
	case ast.Assign:
		return c.assign(e)
	case ast.Ternary:
		return c.ternary(e)
	case ast.IncDec:
		return c.incDec(e)
	case ast.Convert:
		return c.convert(e)
	}
	return types.Unknown, fmt.Errorf("typecheck: unknown expression kind %s", e.Kind)
}

func (c *Checker) binary(e *ast.Expr) (types.Type, error) {
	lt, err := c.expr(e.Left)
	if err != nil {
		return types.Unknown, err
	}
	rt, err := c.expr(e.Right)
	if err != nil {
		return types.Unknown, err
	}
	rightSpan := c.pool.Expr(e.Right).Span

	switch {
	case e.Op.IsArithmetic():
		return c.arithmetic(e, lt, rt)

	case e.Op.IsComparison():
		if lt == types.Bool && rt == types.Bool && (e.Op == ast.Eq || e.Op == ast.NotEq) {
			return types.Bool, nil
		}
		if !lt.IsScalar() {
			return types.Unknown, invalidOp(e.Span, "cannot compare %s", lt)
		}
		if !rt.IsScalar() {
			return types.Unknown, mismatch(rightSpan, lt, rt)
		}
		if lt != rt {
			if err := c.promoteBoth(e); err != nil {
				return types.Unknown, err
			}
		}
		return types.Bool, nil

	case e.Op.IsLogical():
		if lt != types.Bool {
			return types.Unknown, mismatch(c.pool.Expr(e.Left).Span, types.Bool, lt)
		}
		if rt != types.Bool {
			return types.Unknown, mismatch(rightSpan, types.Bool, rt)
		}
		return types.Bool, nil

	case e.Op.IsBitwise():
		if lt != types.Int32 || rt != types.Int32 {
			return types.Unknown, invalidOp(e.Span, "%s requires int operands, found %s and %s", e.Op, lt, rt)
		}
		return types.Int32, nil
	}
	return types.Unknown, invalidOp(e.Span, "unknown operator %s", e.Op)
}

func (c *Checker) promoteBoth(e *ast.Expr) error {
	if err := c.promote(&e.Left); err != nil {
		return err
	}
	return c.promote(&e.Right)
}

func (c *Checker) arithmetic(e *ast.Expr, lt, rt types.Type) (types.Type, error) {
	rightSpan := c.pool.Expr(e.Right).Span
	if !lt.IsNumeric() {
		return types.Unknown, mismatch(c.pool.Expr(e.Left).Span, types.Fixed, lt)
	}
	if !rt.IsNumeric() {
		return types.Unknown, mismatch(rightSpan, lt, rt)
	}

	switch {
	case lt == rt:
		if lt == types.Mat3 && (e.Op == ast.Div || e.Op == ast.Mod) {
			return types.Unknown, invalidOp(e.Span, "%s is not defined for mat3", e.Op)
		}
		return lt, nil

	case lt.IsScalar() && rt.IsScalar():
		return types.Fixed, c.promoteBoth(e)

	case lt.IsVector() && rt.IsScalar():
		return lt, c.promote(&e.Right)

	case lt.IsScalar() && rt.IsVector():
		return rt, c.promote(&e.Left)

	case lt == types.Mat3 && rt.IsScalar() && (e.Op == ast.Mul || e.Op == ast.Div):
		return types.Mat3, c.promote(&e.Right)

	case lt.IsScalar() && rt == types.Mat3 && e.Op == ast.Mul:
		return types.Mat3, c.promote(&e.Left)

	case lt == types.Mat3 && rt == types.Vec3 && e.Op == ast.Mul:
		return types.Vec3, nil
	}
	return types.Unknown, mismatch(rightSpan, lt, rt)
}

func (c *Checker) unary(e *ast.Expr) (types.Type, error) {
	ty, err := c.expr(e.Left)
	if err != nil {
		return types.Unknown, err
	}
	span := c.pool.Expr(e.Left).Span
	switch e.Op {
	case ast.Neg:
		if !ty.IsNumeric() {
			return types.Unknown, mismatch(span, types.Fixed, ty)
		}
		return ty, nil
	case ast.Not:
		if ty != types.Bool {
			return types.Unknown, mismatch(span, types.Bool, ty)
		}
		return types.Bool, nil
	case ast.BitNot:
		if ty != types.Int32 {
			return types.Unknown, mismatch(span, types.Int32, ty)
		}
		return types.Int32, nil
	}
	return types.Unknown, invalidOp(e.Span, "unknown unary operator %s", e.Op)
}

func (c *Checker) constructor(e *ast.Expr) (types.Type, error) {
	count := 0
	for i := range e.Args {
		ty, err := c.expr(e.Args[i])
		if err != nil {
			return types.Unknown, err
		}
		switch {
		case ty == types.Int32:
			if err := c.promote(&e.Args[i]); err != nil {
				return types.Unknown, err
			}
			count++
		case ty == types.Fixed:
			count++
		case ty.IsVector():
			count += ty.Size()
		default:
			return types.Unknown, mismatch(c.pool.Expr(e.Args[i]).Span, types.Fixed, ty)
		}
	}
	if count != e.Target.Size() {
		return types.Unknown, &TypeError{Kind: WrongArgCount, Span: e.Span,
			Msg: fmt.Sprintf("%s needs %d components, got %d", e.Target, e.Target.Size(), count)}
	}
	return e.Target, nil
}

func (c *Checker) swizzle(e *ast.Expr) (types.Type, error) {
	src, err := c.expr(e.Left)
	if err != nil {
		return types.Unknown, err
	}
	if !src.IsVector() {
		return types.Unknown, &TypeError{Kind: InvalidSwizzle, Span: e.Span,
			Msg: fmt.Sprintf("cannot swizzle %s", src)}
	}
	indices, ok := ast.SwizzleIndices(e.Swizzle)
	if !ok {
		return types.Unknown, &TypeError{Kind: InvalidSwizzle, Span: e.Span,
			Msg: fmt.Sprintf("bad component string %q", e.Swizzle)}
	}
	for _, idx := range indices {
		if idx >= src.Size() {
			return types.Unknown, &TypeError{Kind: InvalidSwizzle, Span: e.Span,
				Msg: fmt.Sprintf("component %q out of range for %s", e.Swizzle, src)}
		}
	}
	return types.VecOf(len(indices)), nil
}

// lvalue resolves an assignment or increment target to its local binding.
func (c *Checker) lvalue(id ast.ExprId) (types.Type, error) {
	target := c.pool.Expr(id)
	if target.Kind != ast.Variable {
		return types.Unknown, &TypeError{Kind: InvalidLValue, Span: target.Span,
			Msg: fmt.Sprintf("cannot assign to %s", target.Kind)}
	}
	sym, ok := c.scope.Resolve(target.Name)
	if !ok {
		if _, isInput := builtin.LookupVariable(target.Name); isInput {
			return types.Unknown, &TypeError{Kind: InvalidLValue, Span: target.Span, Name: target.Name,
				Msg: fmt.Sprintf("%q is a read-only input", target.Name)}
		}
		return types.Unknown, &TypeError{Kind: UndefinedVariable, Span: target.Span, Name: target.Name}
	}
	target.Ty = sym.Type
	return sym.Type, nil
}

func (c *Checker) assign(e *ast.Expr) (types.Type, error) {
	ty, err := c.lvalue(e.Left)
	if err != nil {
		return types.Unknown, err
	}
	if err := c.expect(&e.Right, ty); err != nil {
		return types.Unknown, err
	}
	return ty, nil
}

func (c *Checker) incDec(e *ast.Expr) (types.Type, error) {
	ty, err := c.lvalue(e.Left)
	if err != nil {
		return types.Unknown, err
	}
	if !ty.IsScalar() {
		return types.Unknown, invalidOp(e.Span, "%s needs an int or float variable, found %s", e.Op, ty)
	}
	return ty, nil
}

func (c *Checker) ternary(e *ast.Expr) (types.Type, error) {
	if err := c.condition(e.Left); err != nil {
		return types.Unknown, err
	}
	tt, err := c.expr(e.Right)
	if err != nil {
		return types.Unknown, err
	}
	et, err := c.expr(e.Else)
	if err != nil {
		return types.Unknown, err
	}
	switch {
	case tt == et:
		return tt, nil
	case tt.IsScalar() && et.IsScalar():
		if err := c.promote(&e.Right); err != nil {
			return types.Unknown, err
		}
		return types.Fixed, c.promote(&e.Else)
	}
	return types.Unknown, mismatch(c.pool.Expr(e.Else).Span, tt, et)
}

func (c *Checker) convert(e *ast.Expr) (types.Type, error) {
	ty, err := c.expr(e.Left)
	if err != nil {
		return types.Unknown, err
	}
	switch ty {
	case types.Int32, types.Fixed, types.Bool:
		return e.Target, nil
	}
	return types.Unknown, invalidOp(e.Span, "cannot convert %s to %s", ty, e.Target)
}
