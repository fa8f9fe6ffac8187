package lps

import (
	"errors"
	"lps/pkg/alloc"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/optimizer"
	"lps/pkg/typecheck"
	"lps/pkg/types"
	"lps/pkg/vm"
	"strings"
	"testing"
)

func TestCompileExpr(t *testing.T) {
	tests := []struct {
		input    string
		ty       types.Type
		expected []float64
	}{
		{"1 + 2.0", types.Fixed, []float64{3}},
		{"2.0 + 1", types.Fixed, []float64{3}},
		{"1.0 + 2.0 * 3.0", types.Fixed, []float64{7}},
		{"(1.0 + 2.0) * 3.0", types.Fixed, []float64{9}},
		{"vec3(1, 2, 3) + vec3(4, 5, 6)", types.Vec3, []float64{5, 7, 9}},
		{"vec2(1, 2) * 3.0", types.Vec2, []float64{3, 6}},
		{"vec3(1.0, 2.0, 3.0).xy", types.Vec2, []float64{1, 2}},
	}
	for _, tt := range tests {
		for _, opts := range []optimizer.Options{optimizer.None(), optimizer.All()} {
			o := DefaultOptions()
			o.Optimizer = opts
			prog, err := CompileExpr(tt.input, o)
			if err != nil {
				t.Fatalf("%q: %s", tt.input, err)
			}
			if prog.ReturnType() != tt.ty {
				t.Fatalf("%q wrong type. want=%s, got=%s", tt.input, tt.ty, prog.ReturnType())
			}
			machine, err := vm.New(prog, vm.DefaultLimits(), nil)
			if err != nil {
				t.Fatalf("vm setup error: %s", err)
			}
			got, err := machine.Run(builtin.Inputs{})
			if err != nil {
				t.Fatalf("%q: %s", tt.input, err)
			}
			for i, want := range tt.expected {
				if got[i] != fixed.FromFloat(want) {
					t.Errorf("%q component %d wrong. want=%v, got=%s", tt.input, i, want, got[i])
				}
			}
		}
	}
}

func TestCompileScriptShadowing(t *testing.T) {
	prog, err := CompileScript(`
float x = 1.0;
{
    float x = 2.0;
    x = x + 10.0;
    {
        float x = 3.0;
    }
}
return x;
`, DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	machine, err := vm.New(prog, vm.DefaultLimits(), nil)
	if err != nil {
		t.Fatalf("vm setup error: %s", err)
	}
	v, err := machine.RunScalar(builtin.Inputs{})
	if err != nil {
		t.Fatalf("run error: %s", err)
	}
	if v != fixed.One {
		t.Fatalf("outer x changed. want=1.0, got=%s", v)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input  string
		script bool
		stage  Stage
	}{
		{"1.0 + @", false, StageLex},
		{"1.0 +", false, StageParse},
		{"vec2(1, 2) + vec3(1, 2, 3)", false, StageType},
		{"float f() { float x = 1.0; } return f();", true, StageType},
		{"return undefinedThing;", true, StageType},
	}
	for _, tt := range tests {
		var err error
		if tt.script {
			_, err = CompileScript(tt.input, DefaultOptions())
		} else {
			_, err = CompileExpr(tt.input, DefaultOptions())
		}
		var ce *CompileError
		if !errors.As(err, &ce) {
			t.Fatalf("%q: want CompileError, got=%v", tt.input, err)
		}
		if ce.Stage != tt.stage {
			t.Errorf("%q wrong stage. want=%s, got=%s (%s)", tt.input, tt.stage, ce.Stage, err)
		}
	}
}

func TestTypeErrorDetails(t *testing.T) {
	_, err := CompileExpr("vec2(1, 2) + vec3(1, 2, 3)", DefaultOptions())
	var te *typecheck.TypeError
	if !errors.As(err, &te) || te.Kind != typecheck.Mismatch {
		t.Fatalf("want a type mismatch, got=%v", err)
	}
}

func TestFormat(t *testing.T) {
	src := "float a = 1.0;\nreturn a + b;\n"
	_, err := CompileScript(src, DefaultOptions())
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("want CompileError, got=%v", err)
	}
	out := ce.Format(src)
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "type error at 2:12:") {
		t.Errorf("wrong header. got=%q", lines[0])
	}
	if lines[2] != "   2 | return a + b;" {
		t.Errorf("wrong source line. got=%q", lines[2])
	}
	if lines[3] != "     |            ^" {
		t.Errorf("wrong caret. got=%q", lines[3])
	}
}

func TestAllocationBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.Alloc = alloc.NewBudget(16)
	_, err := CompileExpr("1.0 + 2.0", opts)
	if !errors.Is(err, alloc.ErrAllocationFailed) {
		t.Fatalf("want allocation failure, got=%v", err)
	}
}
