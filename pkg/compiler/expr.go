package compiler

import (
	"fmt"
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/opcode"
	"lps/pkg/typecheck"
	"lps/pkg/types"
)

func (c *Compiler) unsupported(e *ast.Expr, format string, args ...any) error {
	return &CodegenError{Kind: UnsupportedFeature, Span: e.Span, Msg: fmt.Sprintf(format, args...)}
}

func (c *Compiler) typeOf(id ast.ExprId) types.Type {
	return c.pool.Expr(id).Ty
}

func (c *Compiler) exprs(ids []ast.ExprId) error {
	for _, id := range ids {
		if err := c.expr(id); err != nil {
			return err
		}
	}
	return nil
}

func boolValue(b bool) int32 {
	if b {
		return int32(fixed.One)
	}
	return 0
}

func (c *Compiler) expr(id ast.ExprId) error {
	e := c.pool.Expr(id)
	switch e.Kind {
	case ast.NumberLit:
		c.emit(opcode.OpPushFixed, int32(e.Num))
	case ast.IntLit:
		c.emit(opcode.OpPushInt32, e.Int)
	case ast.BoolLit:
		c.emit(opcode.OpPushFixed, boolValue(e.Bool))
	case ast.Variable:
		return c.variable(e)
	case ast.Binary:
		return c.binary(e)
	case ast.Unary:
		return c.unary(e)
	case ast.Call:
		return c.call(e)
	case ast.Constructor:
		return c.exprs(e.Args)
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
	default:
		return c.unsupported(e, "expression kind %s", e.Kind)
	}
	return nil
}

func (c *Compiler) variable(e *ast.Expr) error {
	if def, ok := c.locals.Resolve(e.Name); ok {
		c.emit(loadOps[def.Type], int32(def.Slot))
		return nil
	}
	v, ok := builtin.LookupVariable(e.Name)
	if !ok {
		return c.unsupported(e, "unresolved variable %q", e.Name)
	}
	for _, src := range v.Sources {
		c.emit(opcode.OpLoad, int32(src))
	}
	return nil
}

func (c *Compiler) operands(e *ast.Expr) error {
	if err := c.expr(e.Left); err != nil {
		return err
	}
	return c.expr(e.Right)
}

func (c *Compiler) binary(e *ast.Expr) error {
	switch {
	case e.Op.IsArithmetic():
		return c.arithmetic(e)

	case e.Op.IsComparison():
		if err := c.operands(e); err != nil {
			return err
		}
		row := compareFixed
		if c.typeOf(e.Left) == types.Int32 {
			row = compareInt32
		}
		c.emit(row[e.Op-ast.Less])

	case e.Op == ast.And, e.Op == ast.Or:
		if err := c.operands(e); err != nil {
			return err
		}
		if e.Op == ast.And {
			c.emit(opcode.OpAnd)
		} else {
			c.emit(opcode.OpOr)
		}

	case e.Op.IsBitwise():
		if err := c.operands(e); err != nil {
			return err
		}
		c.emit(bitwiseOps[e.Op-ast.BitAnd])

	default:
		return c.unsupported(e, "binary operator %s", e.Op)
	}
	return nil
}

// broadcast widens the scalar on top of the stack to n components.
func (c *Compiler) broadcast(n int) {
	for i := 1; i < n; i++ {
		c.emit(opcode.OpDup1)
	}
}

// arithmetic selects the opcode from the operand types. The scalar-scaling
// opcodes expect the vector or matrix first and the scalar on top, so a
// scalar left operand of * is evaluated second.
func (c *Compiler) arithmetic(e *ast.Expr) error {
	lt, rt := c.typeOf(e.Left), c.typeOf(e.Right)
	row := int(e.Op - ast.Add)

	switch {
	case lt == rt && lt != types.Mat3:
		ops, ok := arithOps[lt]
		if !ok {
			break
		}
		if err := c.operands(e); err != nil {
			return err
		}
		c.emit(ops[row])
		return nil

	case lt == types.Mat3 && rt == types.Mat3:
		var op opcode.Opcode
		switch e.Op {
		case ast.Add:
			op = opcode.OpAddMat3
		case ast.Sub:
			op = opcode.OpSubMat3
		case ast.Mul:
			op = opcode.OpMulMat3
		default:
			return c.unsupported(e, "%s on mat3", e.Op)
		}
		if err := c.operands(e); err != nil {
			return err
		}
		c.emit(op)
		return nil

	case lt.IsVector() && rt.IsScalar():
		n := lt.Size()
		if err := c.operands(e); err != nil {
			return err
		}
		switch e.Op {
		case ast.Mul:
			c.emit(mulVecScalarOps[n])
		case ast.Div:
			c.emit(divVecScalarOps[n])
		default:
			c.broadcast(n)
			c.emit(arithOps[lt][row])
		}
		return nil

	case lt.IsScalar() && rt.IsVector():
		n := rt.Size()
		if e.Op == ast.Mul {
			if err := c.expr(e.Right); err != nil {
				return err
			}
			if err := c.expr(e.Left); err != nil {
				return err
			}
			c.emit(mulVecScalarOps[n])
			return nil
		}
		if err := c.expr(e.Left); err != nil {
			return err
		}
		c.broadcast(n)
		if err := c.expr(e.Right); err != nil {
			return err
		}
		c.emit(arithOps[rt][row])
		return nil

	case lt == types.Mat3 && rt.IsScalar() && (e.Op == ast.Mul || e.Op == ast.Div):
		if err := c.operands(e); err != nil {
			return err
		}
		if e.Op == ast.Mul {
			c.emit(opcode.OpMulMat3Scalar)
		} else {
			c.emit(opcode.OpDivMat3Scalar)
		}
		return nil

	case lt.IsScalar() && rt == types.Mat3 && e.Op == ast.Mul:
		if err := c.expr(e.Right); err != nil {
			return err
		}
		if err := c.expr(e.Left); err != nil {
			return err
		}
		c.emit(opcode.OpMulMat3Scalar)
		return nil

	case lt == types.Mat3 && rt == types.Vec3 && e.Op == ast.Mul:
		if err := c.operands(e); err != nil {
			return err
		}
		c.emit(opcode.OpMulMat3Vec3)
		return nil
	}
	return c.unsupported(e, "%s %s %s", lt, e.Op, rt)
}

func (c *Compiler) unary(e *ast.Expr) error {
	if err := c.expr(e.Left); err != nil {
		return err
	}
	switch e.Op {
	case ast.Neg:
		op, ok := negOps[c.typeOf(e.Left)]
		if !ok {
			return c.unsupported(e, "negation of %s", c.typeOf(e.Left))
		}
		c.emit(op)
	case ast.Not:
		c.emit(opcode.OpNot)
	case ast.BitNot:
		c.emit(opcode.OpBitNotInt32)
	default:
		return c.unsupported(e, "unary operator %s", e.Op)
	}
	return nil
}

func (c *Compiler) call(e *ast.Expr) error {
	if e.Func == builtin.NoFunc {
		idx, ok := c.functions[e.Name]
		if !ok {
			return c.unsupported(e, "unresolved function %q", e.Name)
		}
		if err := c.exprs(e.Args); err != nil {
			return err
		}
		c.emit(opcode.OpCall, int32(idx))
		return nil
	}

	if e.Func == builtin.Perlin3 {
		if err := c.expr(e.Args[0]); err != nil {
			return err
		}
		octaves := int32(builtin.DefaultOctaves)
		if len(e.Args) == 2 {
			octaves, _ = typecheck.OctaveCount(c.pool.Expr(e.Args[1]))
		}
		c.emit(opcode.OpPerlin3, octaves)
		return nil
	}

	if err := c.exprs(e.Args); err != nil {
		return err
	}

	if e.Func.Componentwise() {
		if e.Ty == types.Int32 {
			if op, ok := int32Builtins[e.Func]; ok {
				c.emit(op)
				return nil
			}
		}
		if e.Func == builtin.Atan && len(e.Args) == 2 {
			c.emit(opcode.OpAtan2)
			return nil
		}
		c.emit(scalarBuiltins[e.Func])
		return nil
	}

	n := c.typeOf(e.Args[0]).Size()
	switch e.Func {
	case builtin.Length:
		c.emit(lengthOps[n])
	case builtin.Normalize:
		c.emit(normalizeOps[n])
	case builtin.Dot:
		c.emit(dotOps[n])
	case builtin.Distance:
		c.emit(distanceOps[n])
	case builtin.Cross:
		c.emit(opcode.OpCrossVec3)
	case builtin.Transpose:
		c.emit(opcode.OpTransposeMat3)
	case builtin.Determinant:
		c.emit(opcode.OpDeterminantMat3)
	case builtin.Inverse:
		c.emit(opcode.OpInverseMat3)
	default:
		return c.unsupported(e, "built-in %s", e.Name)
	}
	return nil
}

func (c *Compiler) swizzle(e *ast.Expr) error {
	if err := c.expr(e.Left); err != nil {
		return err
	}
	indices, ok := ast.SwizzleIndices(e.Swizzle)
	if !ok {
		return c.unsupported(e, "swizzle %q", e.Swizzle)
	}
	n := c.typeOf(e.Left).Size()

	prefix := true
	for i, idx := range indices {
		if idx != i {
			prefix = false
			break
		}
	}
	switch {
	case prefix:
		// .xy of a vec2 is free; .xy of a vec4 drops the tail
		if tail := n - len(indices); tail > 0 {
			c.emit(dropOps[tail])
		}
		return nil

	case len(indices) == 1:
		c.extract(n, indices[0])
		return nil

	case n == 2 && len(indices) == 2:
		if indices[0] != indices[1] {
			// yx
			c.emit(opcode.OpSwap)
			return nil
		}
		c.extract(2, indices[0])
		c.emit(opcode.OpDup1)
		return nil
	}

	op := swizzleOps[n][len(indices)]
	c.emit(op, opcode.PackSwizzle(indices))
	return nil
}

// extract keeps component idx of the n-component value on top of the stack.
func (c *Compiler) extract(n, idx int) {
	if tail := n - 1 - idx; tail > 0 {
		c.emit(dropOps[tail])
	}
	for i := 0; i < idx; i++ {
		c.emit(opcode.OpSwap)
		c.emit(opcode.OpDrop1)
	}
}

func (c *Compiler) target(e *ast.Expr) (LocalDef, error) {
	t := c.pool.Expr(e.Left)
	def, ok := c.locals.Resolve(t.Name)
	if !ok {
		return LocalDef{}, c.unsupported(t, "assignment to %q", t.Name)
	}
	return def, nil
}

// assign leaves the stored value on the stack as the expression's result.
func (c *Compiler) assign(e *ast.Expr) error {
	def, err := c.target(e)
	if err != nil {
		return err
	}
	if err := c.expr(e.Right); err != nil {
		return err
	}
	c.dup(def.Type)
	c.emit(storeOps[def.Type], int32(def.Slot))
	return nil
}

// incDec differs between prefix and postfix only in when the result copy is
// taken.
func (c *Compiler) incDec(e *ast.Expr) error {
	def, err := c.target(e)
	if err != nil {
		return err
	}
	one, add, sub := opcode.Make(opcode.OpPushFixed, int32(fixed.One)), opcode.OpAddFixed, opcode.OpSubFixed
	if def.Type == types.Int32 {
		one, add, sub = opcode.Make(opcode.OpPushInt32, 1), opcode.OpAddInt32, opcode.OpSubInt32
	}
	op := add
	if e.Op == ast.PreDec || e.Op == ast.PostDec {
		op = sub
	}
	post := e.Op == ast.PostInc || e.Op == ast.PostDec

	c.emit(loadOps[def.Type], int32(def.Slot))
	if post {
		c.emit(opcode.OpDup1)
	}
	c.emit(one.Op, one.Arg)
	c.emit(op)
	if !post {
		c.emit(opcode.OpDup1)
	}
	c.emit(storeOps[def.Type], int32(def.Slot))
	return nil
}

// ternary selects without branching when both arms are one slot wide and
// safe to evaluate eagerly.
func (c *Compiler) ternary(e *ast.Expr) error {
	if err := c.expr(e.Left); err != nil {
		return err
	}
	if e.Ty.Size() == 1 && c.pool.IsPure(e.Right) && c.pool.IsPure(e.Else) {
		if err := c.expr(e.Right); err != nil {
			return err
		}
		if err := c.expr(e.Else); err != nil {
			return err
		}
		c.emit(opcode.OpSelect)
		return nil
	}

	jumpElse := c.emit(opcode.OpJumpIfZero)
	if err := c.expr(e.Right); err != nil {
		return err
	}
	jumpEnd := c.emit(opcode.OpJump)
	c.patchJump(jumpElse)
	if err := c.expr(e.Else); err != nil {
		return err
	}
	c.patchJump(jumpEnd)
	return nil
}

func (c *Compiler) convert(e *ast.Expr) error {
	if err := c.expr(e.Left); err != nil {
		return err
	}
	from := c.typeOf(e.Left)
	switch {
	case from == e.Target:
	case from == types.Int32 && e.Target == types.Fixed:
		c.emit(opcode.OpInt32ToFixed)
	case from == types.Fixed && e.Target == types.Int32,
		from == types.Bool && e.Target == types.Int32:
		c.emit(opcode.OpFixedToInt32)
	case from == types.Bool && e.Target == types.Fixed:
		// booleans are already 0.0 or 1.0
	case from == types.Fixed && e.Target == types.Bool:
		c.emit(opcode.OpPushFixed, 0)
		c.emit(opcode.OpNotEqFixed)
	case from == types.Int32 && e.Target == types.Bool:
		c.emit(opcode.OpPushInt32, 0)
		c.emit(opcode.OpNotEqInt32)
	default:
		return c.unsupported(e, "conversion from %s to %s", from, e.Target)
	}
	return nil
}
