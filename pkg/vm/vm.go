package vm

import (
	"lps/pkg/alloc"
	"lps/pkg/builtin"
	"lps/pkg/compiler"
	"lps/pkg/fixed"
	"lps/pkg/opcode"
	"unsafe"
)

type Limits struct {
	MaxCallDepth    int
	StackSize       int
	LocalsPerFrame  int
	MaxInstructions int // 0 disables the check
}

func DefaultLimits() Limits {
	return Limits{MaxCallDepth: 64, StackSize: 256, LocalsPerFrame: 32, MaxInstructions: 1_000_000}
}

// Frame is one active call. Locals are packed: a callee's slots start where
// its caller's end.
type Frame struct {
	fn        int
	returnPC  int
	base      int
	stackBase int
}

// effect is the fixed stack effect of an opcode, cached from its definition.
type effect struct {
	pops, pushes int
}

// VM executes one compiled program. It is built once and run once per
// sample; every buffer is sized in New and reused.
type VM struct {
	prog   *compiler.Program
	limits Limits
	alloc  alloc.Context

	stack []fixed.Fixed
	sp    int // Always points to the next value. Top of stack is stack[sp-1]

	locals []fixed.Fixed

	frames      []Frame
	framesIndex int

	inputs  [builtin.NumInputs]fixed.Fixed
	effects [opcode.NumOpcodes]effect
	steps   int

	reserved int
}

func slotBytes(n int) int  { return n * int(unsafe.Sizeof(fixed.Fixed(0))) }
func frameBytes(n int) int { return n * int(unsafe.Sizeof(Frame{})) }

// New sizes the VM for prog. The buffers are reserved against ctx up front
// so a run never allocates.
func New(prog *compiler.Program, limits Limits, ctx alloc.Context) (*VM, error) {
	vm := &VM{limits: limits, alloc: alloc.Or(ctx)}
	for op := range vm.effects {
		def, err := opcode.Lookup(opcode.Opcode(op))
		if err != nil {
			return nil, &RuntimeError{Kind: InvalidOpcode, PC: -1, Err: err}
		}
		vm.effects[op] = effect{def.Pops, def.Pushes}
	}

	need := slotBytes(limits.StackSize) + slotBytes(limits.MaxCallDepth*limits.LocalsPerFrame) +
		frameBytes(limits.MaxCallDepth)
	if err := vm.alloc.Reserve(need); err != nil {
		return nil, &RuntimeError{Kind: AllocationFailed, PC: -1, Err: err}
	}
	vm.reserved = need
	vm.stack = make([]fixed.Fixed, limits.StackSize)
	vm.locals = make([]fixed.Fixed, limits.MaxCallDepth*limits.LocalsPerFrame)
	vm.frames = make([]Frame, limits.MaxCallDepth)

	if err := vm.bind(prog); err != nil {
		vm.Close()
		return nil, err
	}
	return vm, nil
}

func (vm *VM) bind(prog *compiler.Program) error {
	if prog == nil || len(prog.Functions) == 0 {
		return &RuntimeError{Kind: InvalidFunctionIndex, PC: -1}
	}
	if prog.Main().NumSlots > len(vm.locals) {
		return &RuntimeError{Kind: LocalOutOfBounds, PC: -1}
	}
	if len(vm.frames) == 0 {
		return &RuntimeError{Kind: CallStackOverflow, PC: -1}
	}
	vm.prog = prog
	return nil
}

// Close returns the VM's buffers to its allocation context.
func (vm *VM) Close() {
	vm.alloc.Release(vm.reserved)
	vm.reserved = 0
}

func (vm *VM) Program() *compiler.Program { return vm.prog }

// Steps is the number of instructions the last run executed.
func (vm *VM) Steps() int { return vm.steps }

func (vm *VM) currentFrame() *Frame {
	return &vm.frames[vm.framesIndex-1]
}

// Run executes the entry point once. The returned slots alias the VM's
// stack and stay valid until the next run.
func (vm *VM) Run(in builtin.Inputs) ([]fixed.Fixed, error) {
	vm.reset(in)
	return vm.run()
}

func (vm *VM) fail(kind ErrorKind, pc int, op opcode.Opcode) error {
	return &RuntimeError{Kind: kind, Func: vm.currentFrame().fn, PC: pc, Op: op}
}

func (vm *VM) run() ([]fixed.Fixed, error) {
	frame := vm.currentFrame()
	fn := &vm.prog.Functions[frame.fn]
	ins := fn.Code
	pc := 0

	stack := vm.stack
	sp := vm.sp
	locals := vm.locals

	for {
		if pc < 0 || pc >= len(ins) {
			vm.sp = sp
			return nil, vm.fail(ProgramCounterOutOfBounds, pc, 0)
		}
		vm.steps++
		if vm.limits.MaxInstructions > 0 && vm.steps > vm.limits.MaxInstructions {
			return nil, vm.fail(InstructionLimitExceeded, pc, ins[pc].Op)
		}
		in := ins[pc]
		op := in.Op
		if int(op) >= len(vm.effects) {
			return nil, vm.fail(InvalidOpcode, pc, op)
		}
		if eff := vm.effects[op]; eff.pops != opcode.Variable {
			if sp < eff.pops {
				return nil, vm.fail(StackUnderflow, pc, op)
			}
			if sp-eff.pops+eff.pushes > len(stack) {
				return nil, vm.fail(StackOverflow, pc, op)
			}
		}

		switch op {
		case opcode.OpPushFixed, opcode.OpPushInt32:
			stack[sp] = fixed.Fixed(in.Arg)
			sp++

		case opcode.OpLoad:
			if in.Arg < 0 || int(in.Arg) >= builtin.NumInputs {
				return nil, vm.fail(InvalidOperand, pc, op)
			}
			stack[sp] = vm.inputs[in.Arg]
			sp++

		case opcode.OpDup1, opcode.OpDup2, opcode.OpDup3, opcode.OpDup4, opcode.OpDup9:
			n := vm.effects[op].pops
			copy(stack[sp:sp+n], stack[sp-n:sp])
			sp += n

		case opcode.OpDrop1, opcode.OpDrop2, opcode.OpDrop3, opcode.OpDrop4, opcode.OpDrop9:
			sp -= vm.effects[op].pops

		case opcode.OpSwap:
			stack[sp-1], stack[sp-2] = stack[sp-2], stack[sp-1]

		case opcode.OpSwizzle2to3, opcode.OpSwizzle2to4, opcode.OpSwizzle3to2, opcode.OpSwizzle3to3,
			opcode.OpSwizzle3to4, opcode.OpSwizzle4to2, opcode.OpSwizzle4to3, opcode.OpSwizzle4to4:
			eff := vm.effects[op]
			var src [4]fixed.Fixed
			copy(src[:], stack[sp-eff.pops:sp])
			sp -= eff.pops
			for i := 0; i < eff.pushes; i++ {
				idx := opcode.SwizzleIndex(in.Arg, i)
				if idx >= eff.pops {
					return nil, vm.fail(InvalidOperand, pc, op)
				}
				stack[sp] = src[idx]
				sp++
			}

		case opcode.OpLoadLocalFixed, opcode.OpLoadLocalInt32, opcode.OpLoadLocalVec2,
			opcode.OpLoadLocalVec3, opcode.OpLoadLocalVec4, opcode.OpLoadLocalMat3:
			n := vm.effects[op].pushes
			if in.Arg < 0 || int(in.Arg)+n > fn.NumSlots {
				return nil, vm.fail(LocalOutOfBounds, pc, op)
			}
			base := frame.base + int(in.Arg)
			copy(stack[sp:sp+n], locals[base:base+n])
			sp += n

		case opcode.OpStoreLocalFixed, opcode.OpStoreLocalInt32, opcode.OpStoreLocalVec2,
			opcode.OpStoreLocalVec3, opcode.OpStoreLocalVec4, opcode.OpStoreLocalMat3:
			n := vm.effects[op].pops
			if in.Arg < 0 || int(in.Arg)+n > fn.NumSlots {
				return nil, vm.fail(LocalOutOfBounds, pc, op)
			}
			base := frame.base + int(in.Arg)
			copy(locals[base:base+n], stack[sp-n:sp])
			sp -= n

		case opcode.OpJump:
			pc += 1 + int(in.Arg)
			continue

		case opcode.OpJumpIfZero, opcode.OpJumpIfNonZero:
			sp--
			if (stack[sp] == 0) == (op == opcode.OpJumpIfZero) {
				pc += 1 + int(in.Arg)
				continue
			}

		case opcode.OpCall:
			idx := int(in.Arg)
			if idx < 0 || idx >= len(vm.prog.Functions) {
				return nil, vm.fail(InvalidFunctionIndex, pc, op)
			}
			callee := &vm.prog.Functions[idx]
			base := frame.base + fn.NumSlots
			if vm.framesIndex >= len(vm.frames) || base+callee.NumSlots > len(locals) {
				return nil, vm.fail(CallStackOverflow, pc, op)
			}
			if sp < callee.ParamSlots {
				return nil, vm.fail(StackUnderflow, pc, op)
			}
			sp -= callee.ParamSlots
			copy(locals[base:base+callee.ParamSlots], stack[sp:sp+callee.ParamSlots])
			clear(locals[base+callee.ParamSlots : base+callee.NumSlots])

			vm.frames[vm.framesIndex] = Frame{fn: idx, returnPC: pc + 1, base: base, stackBase: sp}
			vm.framesIndex++
			frame = vm.currentFrame()
			fn = callee
			ins = fn.Code
			pc = 0
			continue

		case opcode.OpReturn:
			n := fn.ReturnType.Size()
			if sp-n < frame.stackBase {
				return nil, vm.fail(StackUnderflow, pc, op)
			}
			copy(stack[frame.stackBase:], stack[sp-n:sp])
			sp = frame.stackBase + n
			if vm.framesIndex == 1 {
				vm.sp = sp
				return stack[sp-n : sp], nil
			}
			pc = frame.returnPC
			vm.framesIndex--
			frame = vm.currentFrame()
			fn = &vm.prog.Functions[frame.fn]
			ins = fn.Code
			continue

		default:
			var err error
			sp, err = vm.execute(in, stack, sp)
			if err != nil {
				vm.sp = sp
				if re, ok := err.(*RuntimeError); ok {
					re.Func, re.PC, re.Op = frame.fn, pc, op
				}
				return nil, err
			}
		}
		pc++
	}
}

func (vm *VM) reset(in builtin.Inputs) {
	vm.inputs = in.Values()
	vm.sp = 0
	vm.steps = 0
	vm.frames[0] = Frame{fn: compiler.MainFunction, returnPC: -1}
	vm.framesIndex = 1
	clear(vm.locals[:vm.prog.Main().NumSlots])
}
