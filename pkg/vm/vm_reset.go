package vm

import (
	"lps/pkg/compiler"
)

// Reset rebinds the VM to another program, keeping its buffers. The new
// program must fit the limits the VM was built with.
func (vm *VM) Reset(prog *compiler.Program) error {
	if err := vm.bind(prog); err != nil {
		return err
	}
	vm.sp = 0
	vm.framesIndex = 0
	vm.steps = 0
	clear(vm.stack)
	clear(vm.locals)
	return nil
}
