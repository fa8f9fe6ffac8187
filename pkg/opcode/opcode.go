package opcode

import (
	"bytes"
	"fmt"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
)

type Opcode uint8

// Instruction is one decoded opcode and its single operand. Only the opcodes
// whose Definition names an operand read Arg.
type Instruction struct {
	Op  Opcode
	Arg int32
}

type Instructions []Instruction

const (
	// OpPushFixed pushes the Q16.16 constant in Arg
	OpPushFixed Opcode = iota
	// OpPushInt32 pushes the integer constant in Arg
	OpPushInt32
	// OpLoad pushes the host input named by Arg
	OpLoad

	OpDup1
	OpDup2
	OpDup3
	OpDup4
	OpDup9
	OpDrop1
	OpDrop2
	OpDrop3
	OpDrop4
	OpDrop9
	// OpSwap exchanges the top two slots
	OpSwap

	// Swizzles read Arg as packed 2-bit component indices, lowest bits first
	OpSwizzle2to3
	OpSwizzle2to4
	OpSwizzle3to2
	OpSwizzle3to3
	OpSwizzle3to4
	OpSwizzle4to2
	OpSwizzle4to3
	OpSwizzle4to4

	OpLoadLocalFixed
	OpLoadLocalInt32
	OpLoadLocalVec2
	OpLoadLocalVec3
	OpLoadLocalVec4
	OpLoadLocalMat3
	OpStoreLocalFixed
	OpStoreLocalInt32
	OpStoreLocalVec2
	OpStoreLocalVec3
	OpStoreLocalVec4
	OpStoreLocalMat3

	OpAddInt32
	OpSubInt32
	OpMulInt32
	OpDivInt32
	OpModInt32
	OpNegInt32
	OpAbsInt32
	OpMinInt32
	OpMaxInt32
	OpBitAndInt32
	OpBitOrInt32
	OpBitXorInt32
	OpBitNotInt32
	OpShlInt32
	OpShrInt32
	OpLessInt32
	OpGreaterInt32
	OpLessEqInt32
	OpGreaterEqInt32
	OpEqInt32
	OpNotEqInt32
	OpInt32ToFixed
	OpFixedToInt32

	OpAddFixed
	OpSubFixed
	OpMulFixed
	OpDivFixed
	OpModFixed
	OpNegFixed
	OpAbsFixed
	OpMinFixed
	OpMaxFixed
	OpLessFixed
	OpGreaterFixed
	OpLessEqFixed
	OpGreaterEqFixed
	OpEqFixed
	OpNotEqFixed
	// OpAnd, OpOr and OpNot treat any non-zero slot as true
	OpAnd
	OpOr
	OpNot
	// OpSelect pops false, true, cond and pushes one of the two values
	OpSelect

	OpSin
	OpCos
	OpTan
	OpAtan
	OpAtan2
	OpFloor
	OpCeil
	OpSqrt
	OpSign
	OpFract
	OpSaturate
	OpExp2
	OpLog2
	OpPow
	OpStep
	OpClamp
	OpLerp
	OpSmoothstep

	OpAddVec2
	OpAddVec3
	OpAddVec4
	OpSubVec2
	OpSubVec3
	OpSubVec4
	OpMulVec2
	OpMulVec3
	OpMulVec4
	OpDivVec2
	OpDivVec3
	OpDivVec4
	OpModVec2
	OpModVec3
	OpModVec4
	OpNegVec2
	OpNegVec3
	OpNegVec4
	// OpMulVecNScalar and OpDivVecNScalar expect the vector below the scalar
	OpMulVec2Scalar
	OpMulVec3Scalar
	OpMulVec4Scalar
	OpDivVec2Scalar
	OpDivVec3Scalar
	OpDivVec4Scalar
	OpDotVec2
	OpDotVec3
	OpDotVec4
	OpLengthVec2
	OpLengthVec3
	OpLengthVec4
	OpNormalizeVec2
	OpNormalizeVec3
	OpNormalizeVec4
	OpDistanceVec2
	OpDistanceVec3
	OpDistanceVec4
	OpCrossVec3

	OpAddMat3
	OpSubMat3
	OpMulMat3
	OpNegMat3
	OpMulMat3Scalar
	OpDivMat3Scalar
	OpMulMat3Vec3
	OpTransposeMat3
	OpDeterminantMat3
	OpInverseMat3

	// OpPerlin3 pops a vec3; the octave count is in Arg
	OpPerlin3

	// Jumps are relative: the next pc is pc + 1 + Arg
	OpJump
	OpJumpIfZero
	OpJumpIfNonZero
	// OpCall invokes the function with index Arg
	OpCall
	OpReturn
)

// OperandKind says how Arg is interpreted.
type OperandKind uint8

const (
	NoOperand OperandKind = iota
	FixedOperand
	IntOperand
	InputOperand
	SlotOperand
	SwizzleOperand
	OctavesOperand
	OffsetOperand
	FuncOperand
)

// Variable marks a stack effect that depends on the callee.
const Variable = -1

type Definition struct {
	Name    string
	Operand OperandKind
	Pops    int
	Pushes  int
}

var definitions = [...]Definition{
	OpPushFixed: {"PushFixed", FixedOperand, 0, 1},
	OpPushInt32: {"PushInt32", IntOperand, 0, 1},
	OpLoad:      {"Load", InputOperand, 0, 1},

	OpDup1:  {"Dup1", NoOperand, 1, 2},
	OpDup2:  {"Dup2", NoOperand, 2, 4},
	OpDup3:  {"Dup3", NoOperand, 3, 6},
	OpDup4:  {"Dup4", NoOperand, 4, 8},
	OpDup9:  {"Dup9", NoOperand, 9, 18},
	OpDrop1: {"Drop1", NoOperand, 1, 0},
	OpDrop2: {"Drop2", NoOperand, 2, 0},
	OpDrop3: {"Drop3", NoOperand, 3, 0},
	OpDrop4: {"Drop4", NoOperand, 4, 0},
	OpDrop9: {"Drop9", NoOperand, 9, 0},
	OpSwap:  {"Swap", NoOperand, 2, 2},

	OpSwizzle2to3: {"Swizzle2to3", SwizzleOperand, 2, 3},
	OpSwizzle2to4: {"Swizzle2to4", SwizzleOperand, 2, 4},
	OpSwizzle3to2: {"Swizzle3to2", SwizzleOperand, 3, 2},
	OpSwizzle3to3: {"Swizzle3to3", SwizzleOperand, 3, 3},
	OpSwizzle3to4: {"Swizzle3to4", SwizzleOperand, 3, 4},
	OpSwizzle4to2: {"Swizzle4to2", SwizzleOperand, 4, 2},
	OpSwizzle4to3: {"Swizzle4to3", SwizzleOperand, 4, 3},
	OpSwizzle4to4: {"Swizzle4to4", SwizzleOperand, 4, 4},

	OpLoadLocalFixed:  {"LoadLocalFixed", SlotOperand, 0, 1},
	OpLoadLocalInt32:  {"LoadLocalInt32", SlotOperand, 0, 1},
	OpLoadLocalVec2:   {"LoadLocalVec2", SlotOperand, 0, 2},
	OpLoadLocalVec3:   {"LoadLocalVec3", SlotOperand, 0, 3},
	OpLoadLocalVec4:   {"LoadLocalVec4", SlotOperand, 0, 4},
	OpLoadLocalMat3:   {"LoadLocalMat3", SlotOperand, 0, 9},
	OpStoreLocalFixed: {"StoreLocalFixed", SlotOperand, 1, 0},
	OpStoreLocalInt32: {"StoreLocalInt32", SlotOperand, 1, 0},
	OpStoreLocalVec2:  {"StoreLocalVec2", SlotOperand, 2, 0},
	OpStoreLocalVec3:  {"StoreLocalVec3", SlotOperand, 3, 0},
	OpStoreLocalVec4:  {"StoreLocalVec4", SlotOperand, 4, 0},
	OpStoreLocalMat3:  {"StoreLocalMat3", SlotOperand, 9, 0},

	OpAddInt32:       {"AddInt32", NoOperand, 2, 1},
	OpSubInt32:       {"SubInt32", NoOperand, 2, 1},
	OpMulInt32:       {"MulInt32", NoOperand, 2, 1},
	OpDivInt32:       {"DivInt32", NoOperand, 2, 1},
	OpModInt32:       {"ModInt32", NoOperand, 2, 1},
	OpNegInt32:       {"NegInt32", NoOperand, 1, 1},
	OpAbsInt32:       {"AbsInt32", NoOperand, 1, 1},
	OpMinInt32:       {"MinInt32", NoOperand, 2, 1},
	OpMaxInt32:       {"MaxInt32", NoOperand, 2, 1},
	OpBitAndInt32:    {"BitAndInt32", NoOperand, 2, 1},
	OpBitOrInt32:     {"BitOrInt32", NoOperand, 2, 1},
	OpBitXorInt32:    {"BitXorInt32", NoOperand, 2, 1},
	OpBitNotInt32:    {"BitNotInt32", NoOperand, 1, 1},
	OpShlInt32:       {"ShlInt32", NoOperand, 2, 1},
	OpShrInt32:       {"ShrInt32", NoOperand, 2, 1},
	OpLessInt32:      {"LessInt32", NoOperand, 2, 1},
	OpGreaterInt32:   {"GreaterInt32", NoOperand, 2, 1},
	OpLessEqInt32:    {"LessEqInt32", NoOperand, 2, 1},
	OpGreaterEqInt32: {"GreaterEqInt32", NoOperand, 2, 1},
	OpEqInt32:        {"EqInt32", NoOperand, 2, 1},
	OpNotEqInt32:     {"NotEqInt32", NoOperand, 2, 1},
	OpInt32ToFixed:   {"Int32ToFixed", NoOperand, 1, 1},
	OpFixedToInt32:   {"FixedToInt32", NoOperand, 1, 1},

	OpAddFixed:       {"AddFixed", NoOperand, 2, 1},
	OpSubFixed:       {"SubFixed", NoOperand, 2, 1},
	OpMulFixed:       {"MulFixed", NoOperand, 2, 1},
	OpDivFixed:       {"DivFixed", NoOperand, 2, 1},
	OpModFixed:       {"ModFixed", NoOperand, 2, 1},
	OpNegFixed:       {"NegFixed", NoOperand, 1, 1},
	OpAbsFixed:       {"AbsFixed", NoOperand, 1, 1},
	OpMinFixed:       {"MinFixed", NoOperand, 2, 1},
	OpMaxFixed:       {"MaxFixed", NoOperand, 2, 1},
	OpLessFixed:      {"LessFixed", NoOperand, 2, 1},
	OpGreaterFixed:   {"GreaterFixed", NoOperand, 2, 1},
	OpLessEqFixed:    {"LessEqFixed", NoOperand, 2, 1},
	OpGreaterEqFixed: {"GreaterEqFixed", NoOperand, 2, 1},
	OpEqFixed:        {"EqFixed", NoOperand, 2, 1},
	OpNotEqFixed:     {"NotEqFixed", NoOperand, 2, 1},
	OpAnd:            {"And", NoOperand, 2, 1},
	OpOr:             {"Or", NoOperand, 2, 1},
	OpNot:            {"Not", NoOperand, 1, 1},
	OpSelect:         {"Select", NoOperand, 3, 1},

	OpSin:        {"Sin", NoOperand, 1, 1},
	OpCos:        {"Cos", NoOperand, 1, 1},
	OpTan:        {"Tan", NoOperand, 1, 1},
	OpAtan:       {"Atan", NoOperand, 1, 1},
	OpAtan2:      {"Atan2", NoOperand, 2, 1},
	OpFloor:      {"Floor", NoOperand, 1, 1},
	OpCeil:       {"Ceil", NoOperand, 1, 1},
	OpSqrt:       {"Sqrt", NoOperand, 1, 1},
	OpSign:       {"Sign", NoOperand, 1, 1},
	OpFract:      {"Fract", NoOperand, 1, 1},
	OpSaturate:   {"Saturate", NoOperand, 1, 1},
	OpExp2:       {"Exp2", NoOperand, 1, 1},
	OpLog2:       {"Log2", NoOperand, 1, 1},
	OpPow:        {"Pow", NoOperand, 2, 1},
	OpStep:       {"Step", NoOperand, 2, 1},
	OpClamp:      {"Clamp", NoOperand, 3, 1},
	OpLerp:       {"Lerp", NoOperand, 3, 1},
	OpSmoothstep: {"Smoothstep", NoOperand, 3, 1},

	OpAddVec2:       {"AddVec2", NoOperand, 4, 2},
	OpAddVec3:       {"AddVec3", NoOperand, 6, 3},
	OpAddVec4:       {"AddVec4", NoOperand, 8, 4},
	OpSubVec2:       {"SubVec2", NoOperand, 4, 2},
	OpSubVec3:       {"SubVec3", NoOperand, 6, 3},
	OpSubVec4:       {"SubVec4", NoOperand, 8, 4},
	OpMulVec2:       {"MulVec2", NoOperand, 4, 2},
	OpMulVec3:       {"MulVec3", NoOperand, 6, 3},
	OpMulVec4:       {"MulVec4", NoOperand, 8, 4},
	OpDivVec2:       {"DivVec2", NoOperand, 4, 2},
	OpDivVec3:       {"DivVec3", NoOperand, 6, 3},
	OpDivVec4:       {"DivVec4", NoOperand, 8, 4},
	OpModVec2:       {"ModVec2", NoOperand, 4, 2},
	OpModVec3:       {"ModVec3", NoOperand, 6, 3},
	OpModVec4:       {"ModVec4", NoOperand, 8, 4},
	OpNegVec2:       {"NegVec2", NoOperand, 2, 2},
	OpNegVec3:       {"NegVec3", NoOperand, 3, 3},
	OpNegVec4:       {"NegVec4", NoOperand, 4, 4},
	OpMulVec2Scalar: {"MulVec2Scalar", NoOperand, 3, 2},
	OpMulVec3Scalar: {"MulVec3Scalar", NoOperand, 4, 3},
	OpMulVec4Scalar: {"MulVec4Scalar", NoOperand, 5, 4},
	OpDivVec2Scalar: {"DivVec2Scalar", NoOperand, 3, 2},
	OpDivVec3Scalar: {"DivVec3Scalar", NoOperand, 4, 3},
	OpDivVec4Scalar: {"DivVec4Scalar", NoOperand, 5, 4},
	OpDotVec2:       {"DotVec2", NoOperand, 4, 1},
	OpDotVec3:       {"DotVec3", NoOperand, 6, 1},
	OpDotVec4:       {"DotVec4", NoOperand, 8, 1},
	OpLengthVec2:    {"LengthVec2", NoOperand, 2, 1},
	OpLengthVec3:    {"LengthVec3", NoOperand, 3, 1},
	OpLengthVec4:    {"LengthVec4", NoOperand, 4, 1},
	OpNormalizeVec2: {"NormalizeVec2", NoOperand, 2, 2},
	OpNormalizeVec3: {"NormalizeVec3", NoOperand, 3, 3},
	OpNormalizeVec4: {"NormalizeVec4", NoOperand, 4, 4},
	OpDistanceVec2:  {"DistanceVec2", NoOperand, 4, 1},
	OpDistanceVec3:  {"DistanceVec3", NoOperand, 6, 1},
	OpDistanceVec4:  {"DistanceVec4", NoOperand, 8, 1},
	OpCrossVec3:     {"CrossVec3", NoOperand, 6, 3},

	OpAddMat3:         {"AddMat3", NoOperand, 18, 9},
	OpSubMat3:         {"SubMat3", NoOperand, 18, 9},
	OpMulMat3:         {"MulMat3", NoOperand, 18, 9},
	OpNegMat3:         {"NegMat3", NoOperand, 9, 9},
	OpMulMat3Scalar:   {"MulMat3Scalar", NoOperand, 10, 9},
	OpDivMat3Scalar:   {"DivMat3Scalar", NoOperand, 10, 9},
	OpMulMat3Vec3:     {"MulMat3Vec3", NoOperand, 12, 3},
	OpTransposeMat3:   {"TransposeMat3", NoOperand, 9, 9},
	OpDeterminantMat3: {"DeterminantMat3", NoOperand, 9, 1},
	OpInverseMat3:     {"InverseMat3", NoOperand, 9, 9},

	OpPerlin3: {"Perlin3", OctavesOperand, 3, 1},

	OpJump:          {"Jump", OffsetOperand, 0, 0},
	OpJumpIfZero:    {"JumpIfZero", OffsetOperand, 1, 0},
	OpJumpIfNonZero: {"JumpIfNonZero", OffsetOperand, 1, 0},
	OpCall:          {"Call", FuncOperand, Variable, Variable},
	OpReturn:        {"Return", NoOperand, Variable, Variable},
}

// NumOpcodes is one past the highest defined opcode.
const NumOpcodes = int(OpReturn) + 1

func Lookup(op Opcode) (*Definition, error) {
	if int(op) >= len(definitions) || definitions[op].Name == "" {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return &definitions[op], nil
}

func Make(op Opcode, arg ...int32) Instruction {
	ins := Instruction{Op: op}
	if len(arg) > 0 {
		ins.Arg = arg[0]
	}
	return ins
}

func (op Opcode) String() string {
	def, err := Lookup(op)
	if err != nil {
		return fmt.Sprintf("Opcode(%d)", op)
	}
	return def.Name
}

// IsJump reports whether Arg is a relative jump offset.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfZero || op == OpJumpIfNonZero
}

// Target is the absolute index a jump at pc lands on.
func (ins Instruction) Target(pc int) int {
	return pc + 1 + int(ins.Arg)
}

// PackSwizzle packs component indices two bits each, first component lowest.
func PackSwizzle(indices []int) int32 {
	var packed int32
	for i, idx := range indices {
		packed |= int32(idx&3) << (2 * i)
	}
	return packed
}

// SwizzleIndex extracts the i-th packed component index.
func SwizzleIndex(packed int32, i int) int {
	return int(packed>>(2*i)) & 3
}

const swizzleChars = "xyzw"

func (ins Instruction) String() string {
	def, err := Lookup(ins.Op)
	if err != nil {
		return fmt.Sprintf("ERROR: %s", err)
	}
	switch def.Operand {
	case FixedOperand:
		return fmt.Sprintf("%s %s", def.Name, fixed.Fixed(ins.Arg))
	case IntOperand, SlotOperand, OctavesOperand, FuncOperand:
		return fmt.Sprintf("%s %d", def.Name, ins.Arg)
	case InputOperand:
		return fmt.Sprintf("%s %s", def.Name, builtin.Input(ins.Arg))
	case OffsetOperand:
		return fmt.Sprintf("%s %+d", def.Name, ins.Arg)
	case SwizzleOperand:
		n := def.Pushes
		var b bytes.Buffer
		for i := 0; i < n; i++ {
			b.WriteByte(swizzleChars[SwizzleIndex(ins.Arg, i)])
		}
		return fmt.Sprintf("%s %s", def.Name, b.String())
	}
	return def.Name
}

// String renders a disassembly listing, one instruction per line.
func (ins Instructions) String() string {
	var out bytes.Buffer
	for i, in := range ins {
		fmt.Fprintf(&out, "%04d %s", i, in)
		if in.Op.IsJump() {
			fmt.Fprintf(&out, " (-> %04d)", in.Target(i))
		}
		out.WriteString("\n")
	}
	return out.String()
}
