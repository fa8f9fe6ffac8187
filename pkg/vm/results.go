package vm

import (
	"fmt"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/types"
)

func (vm *VM) runTyped(in builtin.Inputs, want types.Type) ([]fixed.Fixed, error) {
	if got := vm.prog.ReturnType(); got != want {
		return nil, fmt.Errorf("vm: program returns %s, not %s", got, want)
	}
	return vm.Run(in)
}

func (vm *VM) RunScalar(in builtin.Inputs) (fixed.Fixed, error) {
	v, err := vm.runTyped(in, types.Fixed)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (vm *VM) RunInt32(in builtin.Inputs) (int32, error) {
	v, err := vm.runTyped(in, types.Int32)
	if err != nil {
		return 0, err
	}
	return int32(v[0]), nil
}

func (vm *VM) RunBool(in builtin.Inputs) (bool, error) {
	v, err := vm.runTyped(in, types.Bool)
	if err != nil {
		return false, err
	}
	return v[0] != 0, nil
}

func (vm *VM) RunVec2(in builtin.Inputs) ([2]fixed.Fixed, error) {
	var out [2]fixed.Fixed
	v, err := vm.runTyped(in, types.Vec2)
	if err == nil {
		copy(out[:], v)
	}
	return out, err
}

func (vm *VM) RunVec3(in builtin.Inputs) ([3]fixed.Fixed, error) {
	var out [3]fixed.Fixed
	v, err := vm.runTyped(in, types.Vec3)
	if err == nil {
		copy(out[:], v)
	}
	return out, err
}

func (vm *VM) RunVec4(in builtin.Inputs) ([4]fixed.Fixed, error) {
	var out [4]fixed.Fixed
	v, err := vm.runTyped(in, types.Vec4)
	if err == nil {
		copy(out[:], v)
	}
	return out, err
}

func (vm *VM) RunMat3(in builtin.Inputs) ([9]fixed.Fixed, error) {
	var out [9]fixed.Fixed
	v, err := vm.runTyped(in, types.Mat3)
	if err == nil {
		copy(out[:], v)
	}
	return out, err
}
