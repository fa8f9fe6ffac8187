package vm

import (
	"fmt"
	"lps/pkg/opcode"
)

type ErrorKind int

const (
	StackUnderflow ErrorKind = iota
	StackOverflow
	CallStackOverflow
	LocalOutOfBounds
	DivisionByZero
	InstructionLimitExceeded
	InvalidFunctionIndex
	ProgramCounterOutOfBounds
	InvalidOperand
	InvalidOpcode
	AllocationFailed
)

var kindNames = [...]string{
	StackUnderflow:            "stack underflow",
	StackOverflow:             "stack overflow",
	CallStackOverflow:         "call stack overflow",
	LocalOutOfBounds:          "local out of bounds",
	DivisionByZero:            "division by zero",
	InstructionLimitExceeded:  "instruction limit exceeded",
	InvalidFunctionIndex:      "invalid function index",
	ProgramCounterOutOfBounds: "program counter out of bounds",
	InvalidOperand:            "invalid operand",
	InvalidOpcode:             "invalid opcode",
	AllocationFailed:          "allocation failed",
}

func (k ErrorKind) String() string { return kindNames[k] }

// RuntimeError reports where execution stopped. The VM state after an error
// is discarded by the next Run.
type RuntimeError struct {
	Kind ErrorKind
	Func int
	PC   int
	Op   opcode.Opcode
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.PC < 0 {
		return fmt.Sprintf("runtime: %s", e.Kind)
	}
	return fmt.Sprintf("runtime: %s at fn %d pc %04d (%s)", e.Kind, e.Func, e.PC, e.Op)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Is matches another RuntimeError of the same kind, so callers can test
// with errors.Is(err, &vm.RuntimeError{Kind: vm.DivisionByZero}).
func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	return ok && t.Kind == e.Kind
}
