package optimizer

import (
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/eval"
	"lps/pkg/fixed"
	"testing"
)

func TestTruncateAfterReturn(t *testing.T) {
	pool, prog := parseScript(t, `
float f(float x) {
    return x;
    return 2.0;
}
return f(1.0);
float y = 3.0;
`)
	New(pool, only(Options{DeadCode: true})).Program(prog)
	if len(prog.Main) != 1 {
		t.Fatalf("main not truncated. want=1, got=%d", len(prog.Main))
	}
	if n := len(prog.Functions[0].Body); n != 1 {
		t.Fatalf("function not truncated. want=1, got=%d", n)
	}
}

func TestConstantBranches(t *testing.T) {
	pool, prog := parseScript(t, `
float v = 0.0;
if (false) {
    v = 1.0;
} else {
    v = 2.0;
}
while (false) {
    v = 9.0;
}
for (int i = 0; 1 > 2; i++) {
    v = 8.0;
}
if (true) {
    return v;
}
return 5.0;
`)
	New(pool, only(Options{DeadCode: true, ConstantFolding: true})).Program(prog)
	if len(prog.Main) != 5 {
		t.Fatalf("wrong statement count. want=5, got=%d\n%s", len(prog.Main), pool.ProgramString(prog))
	}

	ifElse := pool.Stmt(prog.Main[1])
	// the else branch keeps its own block
	if ifElse.Kind != ast.Block || len(ifElse.Body) != 1 || pool.Stmt(ifElse.Body[0]).Kind != ast.Block {
		t.Errorf("if not replaced by its else branch: %s", pool.StmtString(prog.Main[1]))
	}
	if loop := pool.Stmt(prog.Main[2]); loop.Kind != ast.Block || len(loop.Body) != 0 {
		t.Errorf("while not removed: %s", pool.StmtString(prog.Main[2]))
	}
	forLoop := pool.Stmt(prog.Main[3])
	if forLoop.Kind != ast.Block || len(forLoop.Body) != 1 || pool.Stmt(forLoop.Body[0]).Kind != ast.VarDecl {
		t.Errorf("for not reduced to its init: %s", pool.StmtString(prog.Main[3]))
	}

	v, err := eval.EvalProgram(pool, prog, builtin.Inputs{})
	if err != nil {
		t.Fatalf("eval error: %s", err)
	}
	if v.Scalar() != fixed.FromInt(2) {
		t.Fatalf("wrong result. want=2.0, got=%s", v.Scalar())
	}
}

func TestNonConstantBranchesKept(t *testing.T) {
	pool, prog := parseScript(t, `
float v = 0.0;
if (xNorm > 0.5) {
    v = 1.0;
}
while (v > 10.0) {
    v = v - 1.0;
}
return v;
`)
	New(pool, All()).Program(prog)
	if k := pool.Stmt(prog.Main[1]).Kind; k != ast.If {
		t.Errorf("if rewritten. got=%s", k)
	}
	if k := pool.Stmt(prog.Main[2]).Kind; k != ast.While {
		t.Errorf("while rewritten. got=%s", k)
	}
}
