package typecheck

import (
	"errors"
	"lps/pkg/ast"
	"lps/pkg/lexer"
	"lps/pkg/parser"
	"lps/pkg/types"
	"testing"
)

func checkExpr(input string) (*ast.Pool, ast.ExprId, types.Type, error) {
	pool := ast.NewPool(ast.DefaultLimits(), nil)
	id, err := parser.New(lexer.Tokenize(input), pool, parser.DefaultConfig()).Parse()
	if err != nil {
		return nil, ast.NoExpr, types.Unknown, err
	}
	ty, err := New(pool).CheckExpr(id)
	return pool, id, ty, err
}

func checkProgram(input string) (*ast.Pool, *ast.Program, error) {
	pool := ast.NewPool(ast.DefaultLimits(), nil)
	prog, err := parser.New(lexer.Tokenize(input), pool, parser.DefaultConfig()).ParseProgram()
	if err != nil {
		return nil, nil, err
	}
	return pool, prog, New(pool).CheckProgram(prog)
}

func TestExpressionTypes(t *testing.T) {
	tests := []struct {
		input    string
		expected types.Type
	}{
		{"1", types.Int32},
		{"1.5", types.Fixed},
		{"true", types.Bool},
		{"1 + 2", types.Int32},
		{"1 + 2.0", types.Fixed},
		{"2.0 + 1", types.Fixed},
		{"7 % 3", types.Int32},
		{"vec3(1, 2, 3) + vec3(4, 5, 6)", types.Vec3},
		{"vec2(1, 2) * 3.0", types.Vec2},
		{"3 * vec2(1, 2)", types.Vec2},
		{"1.0 - vec4(1.0, 2.0, 3.0, 4.0)", types.Vec4},
		{"vec3(1.0, 2.0, 3.0) % 2.0", types.Vec3},
		{"mat3(1, 0, 0, 0, 1, 0, 0, 0, 1) * vec3(1, 2, 3)", types.Vec3},
		{"mat3(1, 0, 0, 0, 1, 0, 0, 0, 1) * 2.0", types.Mat3},
		{"-mat3(1, 0, 0, 0, 1, 0, 0, 0, 1)", types.Mat3},
		{"1 < 2.0", types.Bool},
		{"true == false", types.Bool},
		{"1.0 < 2.0 && 3 > 2", types.Bool},
		{"!(1 == 2)", types.Bool},
		{"5 & 3 | 1 << 2", types.Int32},
		{"~5", types.Int32},
		{"1.0 > 0.5 ? 1 : 2.0", types.Fixed},
		{"uv", types.Vec2},
		{"coord.x", types.Fixed},
		{"time + timeNorm + centerDist + centerAngle", types.Fixed},
		{"vec3(uv, 1.0)", types.Vec3},
		{"vec4(uv, uv)", types.Vec4},
		{"vec4(1.0, 2.0, 3.0, 4.0).wzyx", types.Vec4},
		{"vec4(1.0, 2.0, 3.0, 4.0).rgb", types.Vec3},
		{"vec3(1.0, 2.0, 3.0).st", types.Vec2},
		{"vec2(1.0, 2.0).y", types.Fixed},
		{"sin(1.0)", types.Fixed},
		{"sin(1)", types.Fixed},
		{"abs(-3)", types.Int32},
		{"min(1, 2)", types.Int32},
		{"max(1, 2.0)", types.Fixed},
		{"atan(1.0, 2.0)", types.Fixed},
		{"clamp(2.0, 0.0, 1.0)", types.Fixed},
		{"mix(0.0, 1.0, 0.5)", types.Fixed},
		{"sin(vec3(1.0, 2.0, 3.0))", types.Vec3},
		{"mix(vec2(0.0, 0.0), vec2(1.0, 1.0), 0.5)", types.Vec2},
		{"length(vec3(2, 3, 6))", types.Fixed},
		{"normalize(vec2(3.0, 4.0))", types.Vec2},
		{"dot(vec3(1, 2, 3), vec3(4, 5, 6))", types.Fixed},
		{"distance(uv, vec2(0.5, 0.5))", types.Fixed},
		{"cross(vec3(1, 0, 0), vec3(0, 1, 0))", types.Vec3},
		{"transpose(mat3(1, 2, 3, 4, 5, 6, 7, 8, 9))", types.Mat3},
		{"determinant(mat3(1, 2, 3, 4, 5, 6, 7, 8, 9))", types.Fixed},
		{"perlin3(vec3(uv, time))", types.Fixed},
		{"perlin3(vec3(uv, time), 4)", types.Fixed},
		{"float(3)", types.Fixed},
		{"int(2.5)", types.Int32},
	}

	for _, tt := range tests {
		_, _, ty, err := checkExpr(tt.input)
		if err != nil {
			t.Errorf("input %q: unexpected error: %v", tt.input, err)
			continue
		}
		if ty != tt.expected {
			t.Errorf("input %q: type wrong. want=%s, got=%s", tt.input, tt.expected, ty)
		}
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"vec2(1, 2) + vec3(1, 2, 3)", Mismatch},
		{"true + 1", Mismatch},
		{"vec3(1, 2, 3) * mat3(1, 0, 0, 0, 1, 0, 0, 0, 1)", Mismatch},
		{"mat3(1, 0, 0, 0, 1, 0, 0, 0, 1) % mat3(1, 0, 0, 0, 1, 0, 0, 0, 1)", InvalidOperation},
		{"1.0 && true", Mismatch},
		{"!1.0", Mismatch},
		{"1.5 & 3", InvalidOperation},
		{"~1.5", Mismatch},
		{"uv < 1.0", InvalidOperation},
		{"nope + 1", UndefinedVariable},
		{"nope(1)", UndefinedFunction},
		{"vec2(1.0, 2.0).z", InvalidSwizzle},
		{"vec4(1.0, 2.0, 3.0, 4.0).xg", InvalidSwizzle},
		{"vec4(1.0, 2.0, 3.0, 4.0).xyzwx", InvalidSwizzle},
		{"time.x", InvalidSwizzle},
		{"vec3(1.0, 2.0)", WrongArgCount},
		{"vec2(uv, 1.0)", WrongArgCount},
		{"vec3(true, 1.0, 2.0)", Mismatch},
		{"sin(1.0, 2.0)", WrongArgCount},
		{"length(vec2(1.0, 2.0), vec2(3.0, 4.0))", WrongArgCount},
		{"normalize(5.0)", InvalidOperation},
		{"dot(vec2(1.0, 2.0), vec3(3.0, 4.0, 5.0))", Mismatch},
		{"distance(vec3(1.0, 2.0, 3.0), vec2(4.0, 5.0))", Mismatch},
		{"cross(vec2(1.0, 2.0), vec2(3.0, 4.0))", InvalidOperation},
		{"min(vec2(1.0, 2.0), vec3(1.0, 2.0, 3.0))", Mismatch},
		{"perlin3(vec2(1.0, 2.0))", Mismatch},
		{"perlin3(vec3(uv, 1.0), time)", InvalidOperation},
		{"perlin3(vec3(uv, 1.0), 9)", InvalidOperation},
		{"determinant(vec3(1, 2, 3))", Mismatch},
		{"time = 1.0", InvalidLValue},
		{"uv.x = 1.0", InvalidLValue},
		{"3 = 4", InvalidLValue},
		{"1.0 > 0.5 ? uv : 1.0", Mismatch},
		{"float(uv)", InvalidOperation},
	}

	for _, tt := range tests {
		_, _, _, err := checkExpr(tt.input)
		var terr *TypeError
		if !errors.As(err, &terr) {
			t.Errorf("input %q: expected *TypeError, got=%v", tt.input, err)
			continue
		}
		if terr.Kind != tt.kind {
			t.Errorf("input %q: kind wrong. want=%s, got=%s (%v)", tt.input, tt.kind, terr.Kind, terr)
		}
	}
}

func TestMismatchReportsTypes(t *testing.T) {
	_, _, _, err := checkExpr("vec2(1, 2) + vec3(1, 2, 3)")
	var terr *TypeError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TypeError, got=%v", err)
	}
	if terr.Expected != types.Vec2 || terr.Found != types.Vec3 {
		t.Errorf("mismatch types wrong. got expected=%s found=%s", terr.Expected, terr.Found)
	}
	if terr.Span.Start != 13 {
		t.Errorf("mismatch span wrong. want start=13, got=%d", terr.Span.Start)
	}
}

func TestIntegerPromotion(t *testing.T) {
	pool, id, _, err := checkExpr("1 + 2.0")
	if err != nil {
		t.Fatal(err)
	}
	left := pool.Expr(pool.Expr(id).Left)
	if left.Kind != ast.NumberLit || left.Ty != types.Fixed || left.Num != 65536 {
		t.Errorf("int literal not promoted in place. got=%s %s %d", left.Kind, left.Ty, left.Num)
	}

	_, prog, err := checkProgram("int i = 2; float f = i * 1.5; return f;")
	if err != nil {
		t.Fatal(err)
	}
	if prog.MainReturn != types.Fixed {
		t.Errorf("main return wrong. got=%s", prog.MainReturn)
	}

	pool, prog, err = checkProgram("int i = 2; return i + 0.5;")
	if err != nil {
		t.Fatal(err)
	}
	ret := pool.Stmt(prog.Main[1])
	sum := pool.Expr(ret.Value)
	conv := pool.Expr(sum.Left)
	if conv.Kind != ast.Convert || conv.Target != types.Fixed {
		t.Errorf("int variable not wrapped in Convert. got=%s", conv.Kind)
	}
}

func TestMainReturnWidening(t *testing.T) {
	tests := []string{
		"if (xNorm > 0.5) { return 1; } return 2.0;",
		"if (xNorm > 0.5) { return 2.0; } return 1;",
		"if (xNorm > 0.5) { return 1; } if (yNorm > 0.5) { return 2; } return 0.5;",
	}

	for _, input := range tests {
		pool, prog, err := checkProgram(input)
		if err != nil {
			t.Errorf("input %q: unexpected error: %v", input, err)
			continue
		}
		if prog.MainReturn != types.Fixed {
			t.Errorf("input %q: main return wrong. want=%s, got=%s", input, types.Fixed, prog.MainReturn)
		}
		var check func(ids []ast.StmtId)
		check = func(ids []ast.StmtId) {
			for _, id := range ids {
				s := pool.Stmt(id)
				switch s.Kind {
				case ast.Return:
					if ty := pool.Expr(s.Value).Ty; ty != types.Fixed {
						t.Errorf("input %q: return %s not widened. got=%s", input, pool.ExprString(s.Value), ty)
					}
				case ast.If:
					check([]ast.StmtId{s.Then})
				case ast.Block:
					check(s.Body)
				}
			}
		}
		check(prog.Main)
	}

	_, prog, err := checkProgram("if (xNorm > 0.5) { return 1; } return 2;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prog.MainReturn != types.Int32 {
		t.Errorf("int returns widened needlessly. want=%s, got=%s", types.Int32, prog.MainReturn)
	}
}

func TestComponentwiseExpansion(t *testing.T) {
	pool, id, _, err := checkExpr("sin(vec2(1.0, 2.0))")
	if err != nil {
		t.Fatal(err)
	}
	e := pool.Expr(id)
	if e.Kind != ast.Constructor || e.Target != types.Vec2 || len(e.Args) != 2 {
		t.Fatalf("call not expanded. got=%s", pool.ExprString(id))
	}
	for i, want := range []string{"x", "y"} {
		call := pool.Expr(e.Args[i])
		if call.Kind != ast.Call || call.Name != "sin" || call.Ty != types.Fixed {
			t.Errorf("component %d not a scalar sin call. got=%s", i, pool.ExprString(e.Args[i]))
			continue
		}
		sw := pool.Expr(call.Args[0])
		if sw.Kind != ast.Swizzle || sw.Swizzle != want {
			t.Errorf("component %d argument wrong. got=%s", i, pool.ExprString(call.Args[0]))
		}
	}
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		input    string
		expected types.Type
	}{
		{"float x = 1.0; { float x = 2.0; x = x + 10.0; } return x;", types.Fixed},
		{"float x = 1; return x;", types.Fixed},
		{"vec3 c = vec3(uv, 0.0); c = c * 0.5; return c;", types.Vec3},
		{"int n = 0; for (int i = 0; i < 10; i++) { n += i; } return n;", types.Int32},
		{"float a = 0.0; while (a < 3.0) a += 1.0; return a;", types.Fixed},
		{"float x = 1.0; float x = x + 1.0; return x;", types.Fixed},
		{"if (time > 1.0) { return 1.0; } else { return 0.0; }", types.Fixed},
		{"float x = 2.0;", types.Void},
		{"return;", types.Void},
		{`int fib(int n) {
    if (n < 2) { return n; }
    return fib(n - 1) + fib(n - 2);
}
return fib(6);`, types.Int32},
		{`float sin(float x) { return x; }
return sin(2);`, types.Fixed},
		{`vec2 flip(vec2 v) { return v.yx; }
return flip(uv);`, types.Vec2},
		{`float pick(float a) {
    if (a > 0.5) return 1.0; else return 0.0;
}
return pick(time);`, types.Fixed},
		{`void noop() { return; }
noop();
return 1.0;`, types.Fixed},
	}

	for _, tt := range tests {
		_, prog, err := checkProgram(tt.input)
		if err != nil {
			t.Errorf("input %q: unexpected error: %v", tt.input, err)
			continue
		}
		if prog.MainReturn != tt.expected {
			t.Errorf("input %q: main return wrong. want=%s, got=%s", tt.input, tt.expected, prog.MainReturn)
		}
	}
}

func TestProgramErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"int x = 1.5;", Mismatch},
		{"vec2 v = 1.0;", Mismatch},
		{"void v;", InvalidOperation},
		{"{ float a = 1.0; } return a;", UndefinedVariable},
		{"if (true) float b = 1.0; return b;", UndefinedVariable},
		{"for (int i = 0; i < 3; i++) {} return i;", UndefinedVariable},
		{"while (uv) {}", Mismatch},
		{"float f(float a) { if (a > 0.0) { return 1.0; } }", MissingReturn},
		{"float f(float a) { while (a > 0.0) { return 1.0; } }", MissingReturn},
		{"if (time > 0.5) { return 1.0; }", MissingReturn},
		{"return 1.0; return uv;", Mismatch},
		{"float f(float a) { return a; } return f(1.0, 2.0);", WrongArgCount},
		{"float f(vec2 a) { return a.x; } return f(1.0);", Mismatch},
		{"void f() { return 1.0; }", Mismatch},
		{"float f() { return; }", Mismatch},
		{"float f(float a, float a) { return a; }", Redefinition},
		{"float f(void a) { return 1.0; }", InvalidOperation},
		{"vec3 v = vec3(1.0, 2.0, 3.0); v++;", InvalidOperation},
		{"float x = 1.0; x = uv;", Mismatch},
		{"undefinedVar = 1.0;", UndefinedVariable},
	}

	for _, tt := range tests {
		_, _, err := checkProgram(tt.input)
		var terr *TypeError
		if !errors.As(err, &terr) {
			t.Errorf("input %q: expected *TypeError, got=%v", tt.input, err)
			continue
		}
		if terr.Kind != tt.kind {
			t.Errorf("input %q: kind wrong. want=%s, got=%s (%v)", tt.input, tt.kind, terr.Kind, terr)
		}
	}
}

func TestAlwaysReturns(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"return 1.0;", true},
		{"{ return 1.0; }", true},
		{"if (true) return 1.0;", false},
		{"if (true) return 1.0; else return 2.0;", true},
		{"if (true) { return 1.0; } else if (false) { return 2.0; } else { return 3.0; }", true},
		{"while (true) return 1.0;", false},
		{"float x = 1.0;", false},
	}

	for _, tt := range tests {
		pool := ast.NewPool(ast.DefaultLimits(), nil)
		prog, err := parser.New(lexer.Tokenize(tt.input), pool, parser.DefaultConfig()).ParseProgram()
		if err != nil {
			t.Fatalf("input %q: %v", tt.input, err)
		}
		if got := pool.BodyAlwaysReturns(prog.Main); got != tt.expected {
			t.Errorf("input %q: want=%t, got=%t", tt.input, tt.expected, got)
		}
	}
}
