package compiler

import (
	"bytes"
	"fmt"
	"lps/pkg/opcode"
	"lps/pkg/types"
)

type Param struct {
	Name string
	Type types.Type
}

// FunctionDef is one compiled function. Parameters occupy the first
// ParamSlots slots of the frame in declaration order.
type FunctionDef struct {
	Name       string
	ReturnType types.Type
	Params     []Param
	Locals     []LocalDef
	NumSlots   int
	ParamSlots int
	Code       opcode.Instructions
}

// Program is the compiled artifact. Functions[0] is the entry point; user
// functions follow in declaration order.
type Program struct {
	Functions []FunctionDef
}

const MainFunction = 0

func (p *Program) Main() *FunctionDef {
	return &p.Functions[MainFunction]
}

// ReturnType is the type of the value a run yields.
func (p *Program) ReturnType() types.Type {
	return p.Main().ReturnType
}

// OpcodeCount sums the instructions of every function.
func (p *Program) OpcodeCount() int {
	n := 0
	for i := range p.Functions {
		n += len(p.Functions[i].Code)
	}
	return n
}

// String disassembles every function.
func (p *Program) String() string {
	var out bytes.Buffer
	for i := range p.Functions {
		fn := &p.Functions[i]
		fmt.Fprintf(&out, "fn %d %s(", i, fn.Name)
		for j, param := range fn.Params {
			if j > 0 {
				out.WriteString(", ")
			}
			fmt.Fprintf(&out, "%s %s", param.Type, param.Name)
		}
		fmt.Fprintf(&out, ") %s, %d slots\n", fn.ReturnType, fn.NumSlots)
		out.WriteString(fn.Code.String())
	}
	return out.String()
}
