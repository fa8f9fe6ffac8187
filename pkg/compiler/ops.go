package compiler

import (
	"lps/pkg/builtin"
	"lps/pkg/opcode"
	"lps/pkg/types"
)

var loadOps = [...]opcode.Opcode{
	types.Bool:  opcode.OpLoadLocalFixed,
	types.Int32: opcode.OpLoadLocalInt32,
	types.Fixed: opcode.OpLoadLocalFixed,
	types.Vec2:  opcode.OpLoadLocalVec2,
	types.Vec3:  opcode.OpLoadLocalVec3,
	types.Vec4:  opcode.OpLoadLocalVec4,
	types.Mat3:  opcode.OpLoadLocalMat3,
}

var storeOps = [...]opcode.Opcode{
	types.Bool:  opcode.OpStoreLocalFixed,
	types.Int32: opcode.OpStoreLocalInt32,
	types.Fixed: opcode.OpStoreLocalFixed,
	types.Vec2:  opcode.OpStoreLocalVec2,
	types.Vec3:  opcode.OpStoreLocalVec3,
	types.Vec4:  opcode.OpStoreLocalVec4,
	types.Mat3:  opcode.OpStoreLocalMat3,
}

// dupOps and dropOps are indexed by slot width.
var dupOps = [...]opcode.Opcode{1: opcode.OpDup1, 2: opcode.OpDup2, 3: opcode.OpDup3, 4: opcode.OpDup4, 9: opcode.OpDup9}
var dropOps = [...]opcode.Opcode{1: opcode.OpDrop1, 2: opcode.OpDrop2, 3: opcode.OpDrop3, 4: opcode.OpDrop4, 9: opcode.OpDrop9}

// arithOps rows are + - * / % for operands of one type.
var arithOps = map[types.Type][5]opcode.Opcode{
	types.Int32: {opcode.OpAddInt32, opcode.OpSubInt32, opcode.OpMulInt32, opcode.OpDivInt32, opcode.OpModInt32},
	types.Fixed: {opcode.OpAddFixed, opcode.OpSubFixed, opcode.OpMulFixed, opcode.OpDivFixed, opcode.OpModFixed},
	types.Vec2:  {opcode.OpAddVec2, opcode.OpSubVec2, opcode.OpMulVec2, opcode.OpDivVec2, opcode.OpModVec2},
	types.Vec3:  {opcode.OpAddVec3, opcode.OpSubVec3, opcode.OpMulVec3, opcode.OpDivVec3, opcode.OpModVec3},
	types.Vec4:  {opcode.OpAddVec4, opcode.OpSubVec4, opcode.OpMulVec4, opcode.OpDivVec4, opcode.OpModVec4},
}

// Vector tables are indexed by component count.
var (
	mulVecScalarOps = [...]opcode.Opcode{2: opcode.OpMulVec2Scalar, 3: opcode.OpMulVec3Scalar, 4: opcode.OpMulVec4Scalar}
	divVecScalarOps = [...]opcode.Opcode{2: opcode.OpDivVec2Scalar, 3: opcode.OpDivVec3Scalar, 4: opcode.OpDivVec4Scalar}
	lengthOps       = [...]opcode.Opcode{2: opcode.OpLengthVec2, 3: opcode.OpLengthVec3, 4: opcode.OpLengthVec4}
	normalizeOps    = [...]opcode.Opcode{2: opcode.OpNormalizeVec2, 3: opcode.OpNormalizeVec3, 4: opcode.OpNormalizeVec4}
	dotOps          = [...]opcode.Opcode{2: opcode.OpDotVec2, 3: opcode.OpDotVec3, 4: opcode.OpDotVec4}
	distanceOps     = [...]opcode.Opcode{2: opcode.OpDistanceVec2, 3: opcode.OpDistanceVec3, 4: opcode.OpDistanceVec4}
)

var negOps = map[types.Type]opcode.Opcode{
	types.Int32: opcode.OpNegInt32,
	types.Fixed: opcode.OpNegFixed,
	types.Vec2:  opcode.OpNegVec2,
	types.Vec3:  opcode.OpNegVec3,
	types.Vec4:  opcode.OpNegVec4,
	types.Mat3:  opcode.OpNegMat3,
}

// comparison rows are < > <= >= == !=
var (
	compareInt32 = [6]opcode.Opcode{opcode.OpLessInt32, opcode.OpGreaterInt32, opcode.OpLessEqInt32, opcode.OpGreaterEqInt32, opcode.OpEqInt32, opcode.OpNotEqInt32}
	compareFixed = [6]opcode.Opcode{opcode.OpLessFixed, opcode.OpGreaterFixed, opcode.OpLessEqFixed, opcode.OpGreaterEqFixed, opcode.OpEqFixed, opcode.OpNotEqFixed}
)

// bitwise rows are & | ^ << >>
var bitwiseOps = [5]opcode.Opcode{opcode.OpBitAndInt32, opcode.OpBitOrInt32, opcode.OpBitXorInt32, opcode.OpShlInt32, opcode.OpShrInt32}

var scalarBuiltins = map[builtin.Func]opcode.Opcode{
	builtin.Sin:        opcode.OpSin,
	builtin.Cos:        opcode.OpCos,
	builtin.Tan:        opcode.OpTan,
	builtin.Atan:       opcode.OpAtan,
	builtin.Abs:        opcode.OpAbsFixed,
	builtin.Floor:      opcode.OpFloor,
	builtin.Ceil:       opcode.OpCeil,
	builtin.Sqrt:       opcode.OpSqrt,
	builtin.Sign:       opcode.OpSign,
	builtin.Fract:      opcode.OpFract,
	builtin.Saturate:   opcode.OpSaturate,
	builtin.Exp2:       opcode.OpExp2,
	builtin.Log2:       opcode.OpLog2,
	builtin.Pow:        opcode.OpPow,
	builtin.Mod:        opcode.OpModFixed,
	builtin.Min:        opcode.OpMinFixed,
	builtin.Max:        opcode.OpMaxFixed,
	builtin.Step:       opcode.OpStep,
	builtin.Clamp:      opcode.OpClamp,
	builtin.Lerp:       opcode.OpLerp,
	builtin.Smoothstep: opcode.OpSmoothstep,
}

var int32Builtins = map[builtin.Func]opcode.Opcode{
	builtin.Abs: opcode.OpAbsInt32,
	builtin.Min: opcode.OpMinInt32,
	builtin.Max: opcode.OpMaxInt32,
}

// swizzleOps is indexed by [source size][result size].
var swizzleOps = [5][5]opcode.Opcode{
	2: {3: opcode.OpSwizzle2to3, 4: opcode.OpSwizzle2to4},
	3: {2: opcode.OpSwizzle3to2, 3: opcode.OpSwizzle3to3, 4: opcode.OpSwizzle3to4},
	4: {2: opcode.OpSwizzle4to2, 3: opcode.OpSwizzle4to3, 4: opcode.OpSwizzle4to4},
}
