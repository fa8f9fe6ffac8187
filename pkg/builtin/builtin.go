// Package builtin lists the host-provided input variables and the built-in
// functions every LPS program can use without declaring them.
package builtin

import "lps/pkg/types"

// Input is a per-sample value the host supplies to the VM.
type Input uint8

const (
	XNorm Input = iota
	YNorm
	XInt
	YInt
	Time
	TimeNorm
	CenterDist
	CenterAngle
)

var inputNames = [...]string{
	XNorm:       "xNorm",
	YNorm:       "yNorm",
	XInt:        "xInt",
	YInt:        "yInt",
	Time:        "time",
	TimeNorm:    "timeNorm",
	CenterDist:  "centerDist",
	CenterAngle: "centerAngle",
}

func (i Input) String() string {
	if int(i) < len(inputNames) {
		return inputNames[i]
	}
	return "input?"
}

// Variable is a read-only name bound to one or more inputs.
type Variable struct {
	Type    types.Type
	Sources []Input
}

var variables = map[string]Variable{
	"uv":          {types.Vec2, []Input{XNorm, YNorm}},
	"coord":       {types.Vec2, []Input{XInt, YInt}},
	"x":           {types.Fixed, []Input{XNorm}},
	"xNorm":       {types.Fixed, []Input{XNorm}},
	"y":           {types.Fixed, []Input{YNorm}},
	"yNorm":       {types.Fixed, []Input{YNorm}},
	"time":        {types.Fixed, []Input{Time}},
	"t":           {types.Fixed, []Input{Time}},
	"timeNorm":    {types.Fixed, []Input{TimeNorm}},
	"centerDist":  {types.Fixed, []Input{CenterDist}},
	"dist":        {types.Fixed, []Input{CenterDist}},
	"centerAngle": {types.Fixed, []Input{CenterAngle}},
	"angle":       {types.Fixed, []Input{CenterAngle}},
}

// LookupVariable resolves a built-in input name. Locals shadow these.
func LookupVariable(name string) (Variable, bool) {
	v, ok := variables[name]
	return v, ok
}

// Func identifies a built-in function.
type Func uint8

const (
	NoFunc Func = iota
	Sin
	Cos
	Tan
	Atan
	Abs
	Floor
	Ceil
	Sqrt
	Sign
	Fract
	Saturate
	Exp2
	Log2
	Pow
	Mod
	Min
	Max
	Step
	Clamp
	Lerp
	Smoothstep
	Length
	Normalize
	Dot
	Distance
	Cross
	Transpose
	Determinant
	Inverse
	Perlin3
)

var funcs = map[string]Func{
	"sin":         Sin,
	"cos":         Cos,
	"tan":         Tan,
	"atan":        Atan,
	"abs":         Abs,
	"floor":       Floor,
	"ceil":        Ceil,
	"sqrt":        Sqrt,
	"sign":        Sign,
	"fract":       Fract,
	"frac":        Fract,
	"saturate":    Saturate,
	"exp2":        Exp2,
	"log2":        Log2,
	"pow":         Pow,
	"mod":         Mod,
	"min":         Min,
	"max":         Max,
	"step":        Step,
	"clamp":       Clamp,
	"lerp":        Lerp,
	"mix":         Lerp,
	"smoothstep":  Smoothstep,
	"length":      Length,
	"normalize":   Normalize,
	"dot":         Dot,
	"distance":    Distance,
	"cross":       Cross,
	"transpose":   Transpose,
	"determinant": Determinant,
	"inverse":     Inverse,
	"perlin3":     Perlin3,
}

func LookupFunc(name string) (Func, bool) {
	f, ok := funcs[name]
	return f, ok
}

// Arity is the number of scalar arguments of a componentwise function, or 0
// for functions with a fixed vector or matrix signature. atan takes one or
// two and reports 1.
func (f Func) Arity() int {
	switch f {
	case Sin, Cos, Tan, Atan, Abs, Floor, Ceil, Sqrt, Sign, Fract, Saturate, Exp2, Log2:
		return 1
	case Pow, Mod, Min, Max, Step:
		return 2
	case Clamp, Lerp, Smoothstep:
		return 3
	}
	return 0
}

// Componentwise reports whether vector arguments expand into one scalar call
// per component.
func (f Func) Componentwise() bool {
	return f.Arity() > 0
}

// DefaultOctaves is used by perlin3 without an explicit octave count.
const DefaultOctaves = 3
