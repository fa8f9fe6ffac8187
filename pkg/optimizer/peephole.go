package optimizer

import (
	"lps/pkg/compiler"
	"lps/pkg/opcode"
)

// Code runs the peephole passes over every function of prog when enabled.
func (o *Optimizer) Code(prog *compiler.Program) {
	if !o.opts.Peephole {
		return
	}
	for i := range prog.Functions {
		prog.Functions[i].Code = Peephole(prog.Functions[i].Code)
	}
}

// Peephole removes instruction pairs that cancel out, then code no path can
// reach, and returns the rewritten sequence. Jumps are repaired after each
// deletion round.
func Peephole(code opcode.Instructions) opcode.Instructions {
	for {
		out, changed := eliminatePairs(code)
		code = out
		if !changed {
			break
		}
	}
	return pruneUnreachable(code)
}

// jumpTargets marks every index some jump lands on. The slice has one extra
// entry for jumps to the end of the code.
func jumpTargets(code opcode.Instructions) []bool {
	targets := make([]bool, len(code)+1)
	for pc, ins := range code {
		if ins.Op.IsJump() {
			if t := ins.Target(pc); t >= 0 && t <= len(code) {
				targets[t] = true
			}
		}
	}
	return targets
}

func width(op opcode.Opcode) (pops, pushes int) {
	def, err := opcode.Lookup(op)
	if err != nil {
		return opcode.Variable, opcode.Variable
	}
	return def.Pops, def.Pushes
}

// isPush covers the instructions that only push: constants, inputs and
// local loads.
func isPush(op opcode.Opcode) bool {
	pops, pushes := width(op)
	return pops == 0 && pushes > 0
}

func isDrop(op opcode.Opcode) bool {
	return op >= opcode.OpDrop1 && op <= opcode.OpDrop9
}

func isDup(op opcode.Opcode) bool {
	return op >= opcode.OpDup1 && op <= opcode.OpDup9
}

// cancels reports whether b undoes a.
func cancels(a, b opcode.Instruction) bool {
	_, pushed := width(a.Op)
	dropped, _ := width(b.Op)
	switch {
	case isPush(a.Op) && isDrop(b.Op):
		return pushed == dropped
	case isDup(a.Op) && isDrop(b.Op):
		return pushed-dropped == dropped
	case a.Op >= opcode.OpLoadLocalFixed && a.Op <= opcode.OpLoadLocalMat3:
		return b.Op == a.Op+(opcode.OpStoreLocalFixed-opcode.OpLoadLocalFixed) && a.Arg == b.Arg
	}
	return false
}

func eliminatePairs(code opcode.Instructions) (opcode.Instructions, bool) {
	targets := jumpTargets(code)
	deleted := make([]bool, len(code))
	changed := false
	for i := 0; i+1 < len(code); i++ {
		// a jump into the middle of the pair needs the second half
		if targets[i+1] || !cancels(code[i], code[i+1]) {
			continue
		}
		deleted[i], deleted[i+1] = true, true
		changed = true
		i++
	}
	if !changed {
		return code, false
	}
	return compact(code, deleted), true
}

// pruneUnreachable deletes everything between an unconditional transfer and
// the next jump target.
func pruneUnreachable(code opcode.Instructions) opcode.Instructions {
	targets := jumpTargets(code)
	deleted := make([]bool, len(code))
	changed := false
	for i := 0; i < len(code); i++ {
		if code[i].Op != opcode.OpJump && code[i].Op != opcode.OpReturn {
			continue
		}
		j := i + 1
		for ; j < len(code) && !targets[j]; j++ {
			deleted[j] = true
			changed = true
		}
		i = j - 1
	}
	if !changed {
		return code
	}
	return compact(code, deleted)
}

// compact drops the deleted instructions and rewrites every surviving
// jump. A deleted index maps to the next survivor, so a jump to a removed
// pair lands where execution would have continued.
func compact(code opcode.Instructions, deleted []bool) opcode.Instructions {
	remap := make([]int, len(code)+1)
	n := 0
	for i := range code {
		remap[i] = n
		if !deleted[i] {
			n++
		}
	}
	remap[len(code)] = n

	out := make(opcode.Instructions, 0, n)
	for i, ins := range code {
		if deleted[i] {
			continue
		}
		if ins.Op.IsJump() {
			target := ins.Target(i)
			if target >= 0 && target <= len(code) {
				ins.Arg = int32(remap[target] - remap[i] - 1)
			}
		}
		out = append(out, ins)
	}
	return out
}
