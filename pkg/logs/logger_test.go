package logs

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})
	logger.Info("test", "hello", "world!")
	if !strings.Contains(buf.String(), `hello=world!`) {
		t.Fatalf("got %q", buf.String())
	}
}

func TestProgramAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf}).With("component", "vm")
	logger.InfoContext(WithProgram(context.Background(), "plasma"), "run")
	out := buf.String()
	if !strings.Contains(out, "lps.program=plasma") || !strings.Contains(out, "component=vm") {
		t.Fatalf("got %q", out)
	}
}

func TestLevel(t *testing.T) {
	defer SetLevel(Level())

	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})
	SetLevel(slog.LevelWarn)
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	SetLevel(slog.LevelDebug)
	logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug not logged: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		l, err := ParseLevel(tt.input)
		if err != nil || l != tt.expected {
			t.Errorf("%q wrong. want=%s, got=%s (%v)", tt.input, tt.expected, l, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("want error for unknown level")
	}
}

func TestJournalKey(t *testing.T) {
	if got := toJournalKey("lps.program-name"); got != "LPS_PROGRAM_NAME" {
		t.Fatalf("got %q", got)
	}
}
