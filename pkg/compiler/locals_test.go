package compiler

import (
	"errors"
	"lps/pkg/types"
	"testing"
)

func TestLocalAllocatorShadowing(t *testing.T) {
	a := NewLocalAllocator(0)
	outer, _ := a.Declare("x", types.Fixed)

	a.PushScope()
	mid, _ := a.Declare("x", types.Vec3)
	a.PushScope()
	inner, _ := a.Declare("x", types.Int32)

	if def, _ := a.Resolve("x"); def != inner {
		t.Fatalf("innermost binding wrong. want=%+v, got=%+v", inner, def)
	}
	a.PopScope()
	if def, _ := a.Resolve("x"); def != mid {
		t.Fatalf("middle binding not restored. want=%+v, got=%+v", mid, def)
	}
	a.PopScope()
	if def, _ := a.Resolve("x"); def != outer {
		t.Fatalf("outer binding not restored. want=%+v, got=%+v", outer, def)
	}

	slots := []int{outer.Slot, mid.Slot, inner.Slot}
	want := []int{0, 1, 4}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot %d wrong. want=%d, got=%d", i, want[i], slots[i])
		}
	}
	if a.NumSlots() != 5 {
		t.Fatalf("wrong slot count. want=%d, got=%d", 5, a.NumSlots())
	}
}

func TestLocalAllocatorRemovesScopedNames(t *testing.T) {
	a := NewLocalAllocator(0)
	a.PushScope()
	a.Declare("tmp", types.Fixed)
	// same-scope redeclaration gets its own slots
	second, _ := a.Declare("tmp", types.Fixed)
	if second.Slot != 1 {
		t.Fatalf("redeclaration reused a slot: %d", second.Slot)
	}
	a.PopScope()

	if _, ok := a.Resolve("tmp"); ok {
		t.Fatalf("tmp still visible after its scope closed")
	}
	if a.Depth() != 1 {
		t.Fatalf("wrong depth. want=%d, got=%d", 1, a.Depth())
	}
}

func TestLocalAllocatorLimit(t *testing.T) {
	a := NewLocalAllocator(9)
	if _, err := a.Declare("m", types.Mat3); err != nil {
		t.Fatalf("mat3 should fit: %s", err)
	}
	_, err := a.Declare("f", types.Fixed)
	var ce *CodegenError
	if !errors.As(err, &ce) || ce.Kind != TooManyLocals {
		t.Fatalf("want TooManyLocals, got=%v", err)
	}
}
