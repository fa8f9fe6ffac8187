package compiler

import (
	"fmt"
	"lps/pkg/types"
)

// LocalDef is one declared local. Slot is the index of its first 32-bit
// slot in the frame; wider types occupy Slot..Slot+Type.Size()-1.
type LocalDef struct {
	Name string
	Type types.Type
	Slot int
}

type shadowed struct {
	name    string
	prev    int
	hadPrev bool
}

// LocalAllocator hands out frame slots for a function and tracks lexical
// scopes. Every declaration gets fresh slots, even when it reuses a name, so
// two live bindings never alias. Popping a scope restores exactly the
// bindings its declarations shadowed.
type LocalAllocator struct {
	locals   []LocalDef
	bindings map[string]int
	scopes   [][]shadowed
	slots    int
	maxSlots int
}

func NewLocalAllocator(maxSlots int) *LocalAllocator {
	return &LocalAllocator{
		bindings: make(map[string]int),
		scopes:   [][]shadowed{nil},
		maxSlots: maxSlots,
	}
}

func (a *LocalAllocator) PushScope() {
	a.scopes = append(a.scopes, nil)
}

func (a *LocalAllocator) PopScope() {
	top := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]
	// reverse order, so a name declared twice in one scope unwinds to the
	// binding that was live before the scope opened
	for i := len(top) - 1; i >= 0; i-- {
		s := top[i]
		if s.hadPrev {
			a.bindings[s.name] = s.prev
		} else {
			delete(a.bindings, s.name)
		}
	}
}

// Depth is the number of open scopes, the function scope included.
func (a *LocalAllocator) Depth() int {
	return len(a.scopes)
}

// Declare binds name in the innermost scope to freshly allocated slots.
func (a *LocalAllocator) Declare(name string, ty types.Type) (LocalDef, error) {
	size := ty.Size()
	if a.maxSlots > 0 && a.slots+size > a.maxSlots {
		return LocalDef{}, &CodegenError{Kind: TooManyLocals, Name: name,
			Msg: fmt.Sprintf("local %q needs %d slots, %d of %d in use", name, size, a.slots, a.maxSlots)}
	}
	def := LocalDef{Name: name, Type: ty, Slot: a.slots}
	a.slots += size

	prev, had := a.bindings[name]
	top := len(a.scopes) - 1
	a.scopes[top] = append(a.scopes[top], shadowed{name: name, prev: prev, hadPrev: had})
	a.bindings[name] = len(a.locals)
	a.locals = append(a.locals, def)
	return def, nil
}

func (a *LocalAllocator) Resolve(name string) (LocalDef, bool) {
	idx, ok := a.bindings[name]
	if !ok {
		return LocalDef{}, false
	}
	return a.locals[idx], true
}

// Locals lists every declaration in allocation order.
func (a *LocalAllocator) Locals() []LocalDef {
	return a.locals
}

func (a *LocalAllocator) NumSlots() int {
	return a.slots
}
