package benchmarks

import (
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/compiler"
	"lps/pkg/eval"
	"lps/pkg/fixed"
	"lps/pkg/lexer"
	"lps/pkg/lps"
	"lps/pkg/optimizer"
	"lps/pkg/parser"
	"lps/pkg/typecheck"
	"lps/pkg/vm"
	"testing"
)

var (
	result    []fixed.Fixed
	evaluated eval.Value
)

const additions = "1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + xNorm + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0"

const shader = `
float ring(vec2 p, float r) {
    return smoothstep(0.02, 0.0, abs(length(p) - r));
}

vec2 p = vec2(xNorm, yNorm) - vec2(0.5, 0.5);
float n = perlin3(vec3(p * 4.0, timeNorm), 3);
float c = ring(p, 0.3 + n * 0.05);
return vec3(c, c * 0.5, 1.0 - c);
`

var inputs = builtin.PixelInputs(7, 9, 32, 32, fixed.FromInt(2))

func compileExpr(b *testing.B, input string) *compiler.Program {
	opts := lps.DefaultOptions()
	opts.Optimizer = optimizer.None()
	prog, err := lps.CompileExpr(input, opts)
	if err != nil {
		b.Fatal(err)
	}
	return prog
}

func compileScript(b *testing.B, input string, opt optimizer.Options) *compiler.Program {
	opts := lps.DefaultOptions()
	opts.Optimizer = opt
	prog, err := lps.CompileScript(input, opts)
	if err != nil {
		b.Fatal(err)
	}
	return prog
}

func newVM(b *testing.B, prog *compiler.Program) *vm.VM {
	machine, err := vm.New(prog, vm.DefaultLimits(), nil)
	if err != nil {
		b.Fatal(err)
	}
	return machine
}

func BenchmarkVMAddition(b *testing.B) {
	prog := compileExpr(b, additions)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		machine, _ := vm.New(prog, vm.DefaultLimits(), nil)
		result, _ = machine.Run(inputs)
		machine.Close()
	}
}

func BenchmarkTreeWalkAddition(b *testing.B) {
	pool := ast.NewPool(ast.DefaultLimits(), nil)
	id, err := parser.New(lexer.Tokenize(additions), pool, parser.DefaultConfig()).Parse()
	if err != nil {
		b.Fatal(err)
	}
	if _, err := typecheck.New(pool).CheckExpr(id); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		evaluated, _ = eval.EvalExpr(pool, id, inputs)
	}
}

func BenchmarkVMComparison(b *testing.B) {
	prog := compileExpr(b, "xNorm < yNorm")
	machine := newVM(b, prog)
	defer machine.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, _ = machine.Run(inputs)
	}
}

func BenchmarkVMShader(b *testing.B) {
	machine := newVM(b, compileScript(b, shader, optimizer.None()))
	defer machine.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, _ = machine.Run(inputs)
	}
}

func BenchmarkVMShaderOptimized(b *testing.B) {
	machine := newVM(b, compileScript(b, shader, optimizer.All()))
	defer machine.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, _ = machine.Run(inputs)
	}
}

func BenchmarkTreeWalkShader(b *testing.B) {
	pool := ast.NewPool(ast.DefaultLimits(), nil)
	prog, err := parser.New(lexer.Tokenize(shader), pool, parser.DefaultConfig()).ParseProgram()
	if err != nil {
		b.Fatal(err)
	}
	if err := typecheck.New(pool).CheckProgram(prog); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		evaluated, _ = eval.EvalProgram(pool, prog, inputs)
	}
}

func BenchmarkCompileShader(b *testing.B) {
	opts := lps.DefaultOptions()
	for i := 0; i < b.N; i++ {
		if _, err := lps.CompileScript(shader, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRenderFrame(b *testing.B) {
	prog := compileScript(b, shader, optimizer.All())
	machine := newVM(b, prog)
	defer machine.Close()
	img := vm.NewImage(32, 32, prog.ReturnType())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := machine.Render(img, fixed.FromInt(int32(i)), nil); err != nil {
			b.Fatal(err)
		}
	}
}
