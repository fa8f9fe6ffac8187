package vm

import (
	"lps/pkg/fixed"
	"lps/pkg/opcode"
)

// divByZero is filled in with its location by the dispatch loop.
func divByZero() error {
	return &RuntimeError{Kind: DivisionByZero}
}

func truth(b bool) fixed.Fixed {
	if b {
		return fixed.One
	}
	return 0
}

// vecSize maps the three sizes of a vector opcode family to 2, 3 and 4.
func vecSize(op, first opcode.Opcode) int {
	return int(op-first) + 2
}

// execute runs the arithmetic and built-in opcodes, whose stack effects
// were already checked by the caller. It returns the new stack pointer.
func (vm *VM) execute(in opcode.Instruction, stack []fixed.Fixed, sp int) (int, error) {
	op := in.Op
	switch op {
	case opcode.OpAddInt32, opcode.OpSubInt32, opcode.OpMulInt32, opcode.OpDivInt32, opcode.OpModInt32,
		opcode.OpMinInt32, opcode.OpMaxInt32, opcode.OpBitAndInt32, opcode.OpBitOrInt32,
		opcode.OpBitXorInt32, opcode.OpShlInt32, opcode.OpShrInt32:
		a, b := int32(stack[sp-2]), int32(stack[sp-1])
		var r int32
		switch op {
		case opcode.OpAddInt32:
			r = a + b
		case opcode.OpSubInt32:
			r = a - b
		case opcode.OpMulInt32:
			r = a * b
		case opcode.OpDivInt32:
			if b == 0 {
				return sp, divByZero()
			}
			r = a / b
		case opcode.OpModInt32:
			if b == 0 {
				return sp, divByZero()
			}
			r = a % b
		case opcode.OpMinInt32:
			r = min(a, b)
		case opcode.OpMaxInt32:
			r = max(a, b)
		case opcode.OpBitAndInt32:
			r = a & b
		case opcode.OpBitOrInt32:
			r = a | b
		case opcode.OpBitXorInt32:
			r = a ^ b
		case opcode.OpShlInt32:
			r = fixed.Shl(a, b)
		case opcode.OpShrInt32:
			r = fixed.Shr(a, b)
		}
		stack[sp-2] = fixed.Fixed(r)
		return sp - 1, nil

	case opcode.OpNegInt32, opcode.OpNegFixed:
		stack[sp-1] = -stack[sp-1]
	case opcode.OpAbsInt32:
		if stack[sp-1] < 0 {
			stack[sp-1] = -stack[sp-1]
		}
	case opcode.OpBitNotInt32:
		stack[sp-1] = ^stack[sp-1]
	case opcode.OpInt32ToFixed:
		stack[sp-1] = fixed.FromInt(int32(stack[sp-1]))
	case opcode.OpFixedToInt32:
		stack[sp-1] = fixed.Fixed(stack[sp-1].Floor())

	// Int32, fixed and bool slots all compare as signed words
	case opcode.OpLessInt32, opcode.OpLessFixed:
		stack[sp-2] = truth(stack[sp-2] < stack[sp-1])
		return sp - 1, nil
	case opcode.OpGreaterInt32, opcode.OpGreaterFixed:
		stack[sp-2] = truth(stack[sp-2] > stack[sp-1])
		return sp - 1, nil
	case opcode.OpLessEqInt32, opcode.OpLessEqFixed:
		stack[sp-2] = truth(stack[sp-2] <= stack[sp-1])
		return sp - 1, nil
	case opcode.OpGreaterEqInt32, opcode.OpGreaterEqFixed:
		stack[sp-2] = truth(stack[sp-2] >= stack[sp-1])
		return sp - 1, nil
	case opcode.OpEqInt32, opcode.OpEqFixed:
		stack[sp-2] = truth(stack[sp-2] == stack[sp-1])
		return sp - 1, nil
	case opcode.OpNotEqInt32, opcode.OpNotEqFixed:
		stack[sp-2] = truth(stack[sp-2] != stack[sp-1])
		return sp - 1, nil

	case opcode.OpAnd:
		stack[sp-2] = truth(stack[sp-2] != 0 && stack[sp-1] != 0)
		return sp - 1, nil
	case opcode.OpOr:
		stack[sp-2] = truth(stack[sp-2] != 0 || stack[sp-1] != 0)
		return sp - 1, nil
	case opcode.OpNot:
		stack[sp-1] = truth(stack[sp-1] == 0)
	case opcode.OpSelect:
		if stack[sp-3] != 0 {
			stack[sp-3] = stack[sp-2]
		} else {
			stack[sp-3] = stack[sp-1]
		}
		return sp - 2, nil

	case opcode.OpAddFixed, opcode.OpSubFixed, opcode.OpMulFixed, opcode.OpDivFixed, opcode.OpModFixed:
		r, err := fixedOp(op-opcode.OpAddFixed, stack[sp-2], stack[sp-1])
		if err != nil {
			return sp, err
		}
		stack[sp-2] = r
		return sp - 1, nil
	case opcode.OpAbsFixed:
		stack[sp-1] = fixed.Abs(stack[sp-1])
	case opcode.OpMinFixed:
		stack[sp-2] = fixed.Min(stack[sp-2], stack[sp-1])
		return sp - 1, nil
	case opcode.OpMaxFixed:
		stack[sp-2] = fixed.Max(stack[sp-2], stack[sp-1])
		return sp - 1, nil

	case opcode.OpSin:
		stack[sp-1] = fixed.Sin(stack[sp-1])
	case opcode.OpCos:
		stack[sp-1] = fixed.Cos(stack[sp-1])
	case opcode.OpTan:
		stack[sp-1] = fixed.Tan(stack[sp-1])
	case opcode.OpAtan:
		stack[sp-1] = fixed.Atan(stack[sp-1])
	case opcode.OpFloor:
		stack[sp-1] = fixed.Floor(stack[sp-1])
	case opcode.OpCeil:
		stack[sp-1] = fixed.Ceil(stack[sp-1])
	case opcode.OpSqrt:
		stack[sp-1] = fixed.Sqrt(stack[sp-1])
	case opcode.OpSign:
		stack[sp-1] = fixed.Sign(stack[sp-1])
	case opcode.OpFract:
		stack[sp-1] = fixed.Fract(stack[sp-1])
	case opcode.OpSaturate:
		stack[sp-1] = fixed.Saturate(stack[sp-1])
	case opcode.OpExp2:
		stack[sp-1] = fixed.Exp2(stack[sp-1])
	case opcode.OpLog2:
		stack[sp-1] = fixed.Log2(stack[sp-1])
	case opcode.OpAtan2:
		stack[sp-2] = fixed.Atan2(stack[sp-2], stack[sp-1])
		return sp - 1, nil
	case opcode.OpPow:
		stack[sp-2] = fixed.Pow(stack[sp-2], stack[sp-1])
		return sp - 1, nil
	case opcode.OpStep:
		stack[sp-2] = fixed.Step(stack[sp-2], stack[sp-1])
		return sp - 1, nil
	case opcode.OpClamp:
		stack[sp-3] = fixed.Clamp(stack[sp-3], stack[sp-2], stack[sp-1])
		return sp - 2, nil
	case opcode.OpLerp:
		stack[sp-3] = fixed.Lerp(stack[sp-3], stack[sp-2], stack[sp-1])
		return sp - 2, nil
	case opcode.OpSmoothstep:
		stack[sp-3] = fixed.Smoothstep(stack[sp-3], stack[sp-2], stack[sp-1])
		return sp - 2, nil

	case opcode.OpAddVec2, opcode.OpAddVec3, opcode.OpAddVec4:
		return componentwise(opcode.OpAddFixed, vecSize(op, opcode.OpAddVec2), stack, sp)
	case opcode.OpSubVec2, opcode.OpSubVec3, opcode.OpSubVec4:
		return componentwise(opcode.OpSubFixed, vecSize(op, opcode.OpSubVec2), stack, sp)
	case opcode.OpMulVec2, opcode.OpMulVec3, opcode.OpMulVec4:
		return componentwise(opcode.OpMulFixed, vecSize(op, opcode.OpMulVec2), stack, sp)
	case opcode.OpDivVec2, opcode.OpDivVec3, opcode.OpDivVec4:
		return componentwise(opcode.OpDivFixed, vecSize(op, opcode.OpDivVec2), stack, sp)
	case opcode.OpModVec2, opcode.OpModVec3, opcode.OpModVec4:
		return componentwise(opcode.OpModFixed, vecSize(op, opcode.OpModVec2), stack, sp)
	case opcode.OpNegVec2, opcode.OpNegVec3, opcode.OpNegVec4:
		negate(stack[sp-vecSize(op, opcode.OpNegVec2) : sp])

	case opcode.OpMulVec2Scalar, opcode.OpMulVec3Scalar, opcode.OpMulVec4Scalar:
		return scale(opcode.OpMulFixed, vecSize(op, opcode.OpMulVec2Scalar), stack, sp)
	case opcode.OpDivVec2Scalar, opcode.OpDivVec3Scalar, opcode.OpDivVec4Scalar:
		return scale(opcode.OpDivFixed, vecSize(op, opcode.OpDivVec2Scalar), stack, sp)

	case opcode.OpDotVec2, opcode.OpDotVec3, opcode.OpDotVec4:
		n := vecSize(op, opcode.OpDotVec2)
		stack[sp-2*n] = fixed.Dot(stack[sp-2*n:sp-n], stack[sp-n:sp])
		return sp - 2*n + 1, nil
	case opcode.OpDistanceVec2, opcode.OpDistanceVec3, opcode.OpDistanceVec4:
		n := vecSize(op, opcode.OpDistanceVec2)
		stack[sp-2*n] = fixed.Distance(stack[sp-2*n:sp-n], stack[sp-n:sp])
		return sp - 2*n + 1, nil
	case opcode.OpLengthVec2, opcode.OpLengthVec3, opcode.OpLengthVec4:
		n := vecSize(op, opcode.OpLengthVec2)
		stack[sp-n] = fixed.Length(stack[sp-n : sp])
		return sp - n + 1, nil
	case opcode.OpNormalizeVec2, opcode.OpNormalizeVec3, opcode.OpNormalizeVec4:
		v := stack[sp-vecSize(op, opcode.OpNormalizeVec2) : sp]
		fixed.Normalize(v, v)
	case opcode.OpCrossVec3:
		r := fixed.Cross(stack[sp-6:sp-3], stack[sp-3:sp])
		copy(stack[sp-6:], r[:])
		return sp - 3, nil

	case opcode.OpAddMat3:
		return componentwise(opcode.OpAddFixed, 9, stack, sp)
	case opcode.OpSubMat3:
		return componentwise(opcode.OpSubFixed, 9, stack, sp)
	case opcode.OpMulMat3:
		r := fixed.Mat3Mul(stack[sp-18:sp-9], stack[sp-9:sp])
		copy(stack[sp-18:], r[:])
		return sp - 9, nil
	case opcode.OpNegMat3:
		negate(stack[sp-9 : sp])
	case opcode.OpMulMat3Scalar:
		return scale(opcode.OpMulFixed, 9, stack, sp)
	case opcode.OpDivMat3Scalar:
		return scale(opcode.OpDivFixed, 9, stack, sp)
	case opcode.OpMulMat3Vec3:
		r := fixed.Mat3MulVec3(stack[sp-12:sp-3], stack[sp-3:sp])
		copy(stack[sp-12:], r[:])
		return sp - 9, nil
	case opcode.OpTransposeMat3:
		r := fixed.Transpose(stack[sp-9 : sp])
		copy(stack[sp-9:], r[:])
	case opcode.OpDeterminantMat3:
		stack[sp-9] = fixed.Determinant(stack[sp-9 : sp])
		return sp - 8, nil
	case opcode.OpInverseMat3:
		r := fixed.Inverse(stack[sp-9 : sp])
		copy(stack[sp-9:], r[:])

	case opcode.OpPerlin3:
		if in.Arg < fixed.MinOctaves || in.Arg > fixed.MaxOctaves {
			return sp, &RuntimeError{Kind: InvalidOperand}
		}
		stack[sp-3] = fixed.Perlin3(stack[sp-3], stack[sp-2], stack[sp-1], in.Arg)
		return sp - 2, nil

	default:
		return sp, &RuntimeError{Kind: InvalidOpcode}
	}
	return sp, nil
}

// fixedOp applies + - * / % selected by its offset from OpAddFixed.
func fixedOp(row opcode.Opcode, a, b fixed.Fixed) (fixed.Fixed, error) {
	switch row {
	case 0:
		return a + b, nil
	case 1:
		return a - b, nil
	case 2:
		return fixed.Mul(a, b), nil
	case 3:
		if b == 0 {
			return 0, divByZero()
		}
		return fixed.Div(a, b), nil
	default:
		if b == 0 {
			return 0, divByZero()
		}
		return fixed.Mod(a, b), nil
	}
}

// componentwise combines the two n-slot values on top of the stack.
func componentwise(scalar opcode.Opcode, n int, stack []fixed.Fixed, sp int) (int, error) {
	a, b := stack[sp-2*n:sp-n], stack[sp-n:sp]
	for i := range a {
		r, err := fixedOp(scalar-opcode.OpAddFixed, a[i], b[i])
		if err != nil {
			return sp, err
		}
		a[i] = r
	}
	return sp - n, nil
}

// scale combines the n-slot value below the top with the scalar on top.
func scale(scalar opcode.Opcode, n int, stack []fixed.Fixed, sp int) (int, error) {
	s := stack[sp-1]
	v := stack[sp-1-n : sp-1]
	for i := range v {
		r, err := fixedOp(scalar-opcode.OpAddFixed, v[i], s)
		if err != nil {
			return sp, err
		}
		v[i] = r
	}
	return sp - 1, nil
}

func negate(v []fixed.Fixed) {
	for i := range v {
		v[i] = -v[i]
	}
}
