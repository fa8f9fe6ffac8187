package compiler

import (
	"lps/pkg/opcode"
	"lps/pkg/types"
	"testing"
)

func TestFunctions(t *testing.T) {
	prog := compileScript(t, `
float sq(float v) {
    return v * v;
}
return sq(3.0);
`)
	if len(prog.Functions) != 2 {
		t.Fatalf("wrong number of functions. want=%d, got=%d", 2, len(prog.Functions))
	}

	main := []opcode.Instruction{
		opcode.Make(opcode.OpPushFixed, num(3)),
		opcode.Make(opcode.OpCall, 1),
		opcode.Make(opcode.OpReturn),
	}
	if err := testInstructions(main, prog.Functions[0].Code); err != nil {
		t.Fatalf("main: %s", err)
	}

	sq := []opcode.Instruction{
		opcode.Make(opcode.OpLoadLocalFixed, 0),
		opcode.Make(opcode.OpLoadLocalFixed, 0),
		opcode.Make(opcode.OpMulFixed),
		opcode.Make(opcode.OpReturn),
	}
	fn := prog.Functions[1]
	if err := testInstructions(sq, fn.Code); err != nil {
		t.Fatalf("sq: %s", err)
	}
	if fn.Name != "sq" || fn.ReturnType != types.Fixed {
		t.Fatalf("wrong signature. got=%s %s", fn.ReturnType, fn.Name)
	}
	if fn.ParamSlots != 1 || fn.NumSlots != 1 {
		t.Fatalf("wrong slots. want=1/1, got=%d/%d", fn.ParamSlots, fn.NumSlots)
	}
	if prog.ReturnType() != types.Fixed {
		t.Fatalf("wrong program type. want=%s, got=%s", types.Fixed, prog.ReturnType())
	}
}

func TestFunctionParameters(t *testing.T) {
	prog := compileScript(t, `
float pick(vec3 v, int i, float s) {
    float r = v.y * s;
    return r;
}
return pick(vec3(1.0, 2.0, 3.0), 1, 2);
`)
	fn := prog.Functions[1]
	if fn.ParamSlots != 5 {
		t.Fatalf("wrong param slots. want=%d, got=%d", 5, fn.ParamSlots)
	}
	if fn.NumSlots != 6 {
		t.Fatalf("wrong slots. want=%d, got=%d", 6, fn.NumSlots)
	}
	wantSlots := []int{0, 3, 4, 5}
	for i, def := range fn.Locals {
		if def.Slot != wantSlots[i] {
			t.Errorf("local %s slot wrong. want=%d, got=%d", def.Name, wantSlots[i], def.Slot)
		}
	}

	// the int argument 2 is promoted at the call site
	main := prog.Functions[0].Code
	if main[4] != opcode.Make(opcode.OpPushFixed, num(2)) {
		t.Fatalf("argument not promoted: %s", main[4])
	}
}

func TestVoidFunctions(t *testing.T) {
	prog := compileScript(t, `
void nothing() {
}
nothing();
return 1.0;
`)
	main := []opcode.Instruction{
		opcode.Make(opcode.OpCall, 1),
		opcode.Make(opcode.OpPushFixed, num(1)),
		opcode.Make(opcode.OpReturn),
	}
	if err := testInstructions(main, prog.Functions[0].Code); err != nil {
		t.Fatalf("main: %s", err)
	}
	if err := testInstructions([]opcode.Instruction{opcode.Make(opcode.OpReturn)}, prog.Functions[1].Code); err != nil {
		t.Fatalf("nothing: %s", err)
	}
}

func TestRecursiveCall(t *testing.T) {
	prog := compileScript(t, `
int fib(int n) {
    if (n < 2) {
        return n;
    }
    return fib(n - 1) + fib(n - 2);
}
return fib(6);
`)
	calls := 0
	for _, ins := range prog.Functions[1].Code {
		if ins.Op == opcode.OpCall {
			calls++
			if ins.Arg != 1 {
				t.Fatalf("recursive call to wrong function: %d", ins.Arg)
			}
		}
	}
	if calls != 2 {
		t.Fatalf("wrong number of calls. want=%d, got=%d", 2, calls)
	}
	if prog.ReturnType() != types.Int32 {
		t.Fatalf("wrong program type. want=%s, got=%s", types.Int32, prog.ReturnType())
	}
}
