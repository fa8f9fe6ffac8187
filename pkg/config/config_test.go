package config

import (
	"os"
	"path/filepath"
	"testing"

	"lps/pkg/optimizer"
	"lps/pkg/vm"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.VMLimits() != vm.DefaultLimits() {
		t.Fatalf("vm limits wrong. got=%+v", cfg.VMLimits())
	}
	if cfg.OptimizerOptions() != optimizer.All() {
		t.Fatalf("optimizer options wrong. got=%+v", cfg.OptimizerOptions())
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("got %q", cfg.Log.Level)
	}
}

func TestLoadCueFile(t *testing.T) {
	path := writeFile(t, "lps.cue", `
log: level: "debug"
vm: maxCallDepth: 16
optimizer: {
	peephole:  false
	maxPasses: 3
}
preview: addr: ":9000"
`)
	cfg, err := Load([]string{path}, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("got %q", cfg.Log.Level)
	}
	if cfg.VM.MaxCallDepth != 16 || cfg.VM.StackSize != vm.DefaultLimits().StackSize {
		t.Fatalf("vm wrong. got=%+v", cfg.VM)
	}
	if cfg.Optimizer.Peephole || !cfg.Optimizer.ConstantFolding || cfg.Optimizer.MaxPasses != 3 {
		t.Fatalf("optimizer wrong. got=%+v", cfg.Optimizer)
	}
	if cfg.Preview.Addr != ":9000" || cfg.Preview.Width != 32 {
		t.Fatalf("preview wrong. got=%+v", cfg.Preview)
	}
}

func TestLoadLaterFileWins(t *testing.T) {
	first := writeFile(t, "a.cue", `vm: maxCallDepth: 16`)
	second := writeFile(t, "b.cue", `vm: maxCallDepth: 8`)
	cfg, err := Load([]string{first, second}, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VM.MaxCallDepth != 8 {
		t.Fatalf("got %d", cfg.VM.MaxCallDepth)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []string{
		`bogus: 1`,
		`vm: stackSize: 4`,
		`log: level: "loud"`,
		`vm: unknownField: 1`,
		`preview: width: "wide"`,
	}
	for _, content := range tests {
		path := writeFile(t, "bad.cue", content)
		if _, err := Load([]string{path}, ""); err == nil {
			t.Errorf("%q should fail", content)
		} else {
			t.Logf("%v", err)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LPS_VM_MAX_CALL_DEPTH", "12")
	t.Setenv("LPS_LOG_LEVEL", "warn")
	t.Setenv("LPS_OPTIMIZE", "false")
	t.Setenv("LPS_LOG_JSON", "true")

	path := writeFile(t, "lps.cue", `vm: maxCallDepth: 16`)
	cfg, err := Load([]string{path}, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VM.MaxCallDepth != 12 {
		t.Fatalf("env should win over files. got=%d", cfg.VM.MaxCallDepth)
	}
	if cfg.Log.Level != "warn" || !cfg.Log.JSON {
		t.Fatalf("log wrong. got=%+v", cfg.Log)
	}
	opts := cfg.OptimizerOptions()
	if opts.ConstantFolding || opts.Algebraic || opts.DeadCode || opts.Peephole {
		t.Fatalf("optimizer still on. got=%+v", opts)
	}
}

func TestEnvFile(t *testing.T) {
	t.Cleanup(func() { os.Unsetenv("LPS_PREVIEW_FPS") })
	path := writeFile(t, ".env", "LPS_PREVIEW_FPS=12\n")
	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Preview.FPS != 12 {
		t.Fatalf("got %d", cfg.Preview.FPS)
	}

	if _, err := Load(nil, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("LPS_VM_STACK_SIZE", "lots")
	if _, err := Load(nil, ""); err == nil {
		t.Fatal("should error")
	}
}

func TestCompileOptions(t *testing.T) {
	cfg := Default()
	cfg.Limits.MaxRecursion = 7
	opts := cfg.CompileOptions()
	if opts.Parser.MaxRecursion != 7 {
		t.Fatalf("got %d", opts.Parser.MaxRecursion)
	}
	if opts.Pool.MaxExprs != cfg.Limits.MaxExprs || opts.Compiler.MaxFunctions != cfg.Limits.MaxFunctions {
		t.Fatalf("limits not carried. got=%+v", opts)
	}
}
