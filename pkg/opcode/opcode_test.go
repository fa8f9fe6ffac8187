package opcode

import (
	"lps/pkg/fixed"
	"testing"
)

func TestEveryOpcodeDefined(t *testing.T) {
	for op := 0; op < NumOpcodes; op++ {
		def, err := Lookup(Opcode(op))
		if err != nil {
			t.Fatalf("opcode %d: %s", op, err)
		}
		if def.Pops < Variable || def.Pushes < Variable {
			t.Fatalf("%s: bad stack effect %d/%d", def.Name, def.Pops, def.Pushes)
		}
	}
	if _, err := Lookup(Opcode(NumOpcodes)); err == nil {
		t.Fatalf("opcode past the table should be undefined")
	}
}

func TestPerlinConsumesOneVector(t *testing.T) {
	def, _ := Lookup(OpPerlin3)
	if def.Pops != 3 || def.Pushes != 1 {
		t.Fatalf("perlin3 stack effect wrong. want=3/1, got=%d/%d", def.Pops, def.Pushes)
	}
}

func TestSwizzlePacking(t *testing.T) {
	packed := PackSwizzle([]int{3, 0, 2, 1})
	want := []int{3, 0, 2, 1}
	for i, w := range want {
		if got := SwizzleIndex(packed, i); got != w {
			t.Fatalf("index %d wrong. want=%d, got=%d", i, w, got)
		}
	}
}

func TestInstructionsString(t *testing.T) {
	instructions := Instructions{
		Make(OpPushFixed, int32(fixed.FromFloat(1.5))),
		Make(OpLoad, 1),
		Make(OpJumpIfZero, 2),
		Make(OpSwizzle4to2, PackSwizzle([]int{3, 1})),
		Make(OpStoreLocalVec3, 4),
		Make(OpReturn),
	}

	expected := `0000 PushFixed 1.5
0001 Load yNorm
0002 JumpIfZero +2 (-> 0005)
0003 Swizzle4to2 wy
0004 StoreLocalVec3 4
0005 Return
`

	if instructions.String() != expected {
		t.Errorf("instructions wrongly formatted.\nwant=%q\ngot=%q",
			expected, instructions.String())
	}
}
