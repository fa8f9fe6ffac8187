package main

import (
	"errors"
	"lps/pkg/builtin"
	"lps/pkg/compiler"
	"lps/pkg/fixed"
	"lps/pkg/lps"
	"lps/pkg/vm"
	"strings"
	"testing"
)

func newTestSession() *Session {
	in := builtin.PixelInputs(0, 0, 1, 1, fixed.FromInt(0))
	return NewSession(lps.DefaultOptions(), func(prog *compiler.Program) (string, error) {
		return execute(prog, vm.DefaultLimits(), in)
	})
}

func TestSessionEval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.0 + 2.0", "3.0"},
		{"float q = 2.0;", ""},
		{"q * 3.0", "6.0"},
		{"q = 5.0;", ""},
		{"q", "5.0"},
		{"float twice(float v) { return v * 2.0; }", ""},
		{"twice(q)", "10.0"},
		{"return q + 1.0;", "6.0"},
		{"q", "5.0"},
		{"q += 1.0", ""},
		{"twice(q);", "12.0"},
		{"", ""},
	}

	s := newTestSession()
	for i, tt := range tests {
		got, err := s.Eval(tt.input)
		if err != nil {
			t.Fatalf("tests[%d] %q: unexpected error: %v", i, tt.input, err)
		}
		if got != tt.expected {
			t.Fatalf("tests[%d] %q: wrong result. want=%q, got=%q", i, tt.input, tt.expected, got)
		}
	}
}

func TestSessionErrorsDoNotPersist(t *testing.T) {
	s := newTestSession()
	if _, err := s.Eval("float q = 1.0;"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := s.Eval("float k = true;")
	var ce *lps.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected a compile error, got %v", err)
	}
	if ce.Stage != lps.StageType {
		t.Fatalf("wrong stage. want=%s, got=%s", lps.StageType, ce.Stage)
	}
	if !strings.Contains(s.Source(), "float k = true;") {
		t.Fatalf("source does not hold the failed input: %q", s.Source())
	}

	if _, err := s.Eval("k"); err == nil {
		t.Fatalf("failed declaration was kept")
	}
	got, err := s.Eval("q")
	if err != nil || got != "1.0" {
		t.Fatalf("prelude damaged. want=%q, got=%q (%v)", "1.0", got, err)
	}
}

func TestSessionReset(t *testing.T) {
	s := newTestSession()
	for _, input := range []string{"float q = 1.0;", "float one() { return 1.0; }"} {
		if _, err := s.Eval(input); err != nil {
			t.Fatalf("%q: unexpected error: %v", input, err)
		}
	}
	s.Reset()
	if _, err := s.Eval("q"); err == nil {
		t.Fatalf("q survived a reset")
	}
	if _, err := s.Eval("one()"); err == nil {
		t.Fatalf("one survived a reset")
	}
}

func TestSessionShadowsInputs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x", "0.5"},
		{"float x = 3.0;", ""},
		{"x", "3.0"},
		{"x = 4.0;", ""},
		{"x + xNorm", "4.5"},
	}

	s := newTestSession()
	for i, tt := range tests {
		got, err := s.Eval(tt.input)
		if err != nil {
			t.Fatalf("tests[%d] %q: unexpected error: %v", i, tt.input, err)
		}
		if got != tt.expected {
			t.Fatalf("tests[%d] %q: wrong result. want=%q, got=%q", i, tt.input, tt.expected, got)
		}
	}
}

func TestSessionRuntimeError(t *testing.T) {
	s := newTestSession()
	if _, err := s.Eval("float zero = 0.0;"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := s.Eval("1.0 / zero")
	if !errors.Is(err, &vm.RuntimeError{Kind: vm.DivisionByZero}) {
		t.Fatalf("expected division by zero, got %v", err)
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1.0 + 2.0", false},
		{"float f(float a) {", true},
		{"float f(float a) {\n return a;\n}", false},
		{"vec2(1.0,", true},
		{"{ }", false},
	}

	for _, tt := range tests {
		if got := incomplete(tt.input); got != tt.expected {
			t.Fatalf("incomplete(%q) wrong. want=%t, got=%t", tt.input, tt.expected, got)
		}
	}
}
