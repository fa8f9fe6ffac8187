package main

import (
	"errors"
	"fmt"
	"io"
	"lps/pkg/compiler"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

const (
	historyFile = ".lps_history"
	promptMain  = "lps> "
	promptCont  = "...  "
)

var colorOutput = term.IsTerminal(int(os.Stdout.Fd()))

func red(s string) string {
	if !colorOutput {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}

func cyan(s string) string {
	if !colorOutput {
		return s
	}
	return "\x1b[36m" + s + "\x1b[0m"
}

func cmdRepl(args []string) int {
	c, _, ok := parseFlags("repl", args, true)
	if !ok {
		return 2
	}
	session := NewSession(c.compileOptions(), func(prog *compiler.Program) (string, error) {
		return execute(prog, c.cfg.VMLimits(), c.inputs())
	})

	fmt.Printf("LPS %s. Type :help for commands.\n", Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return 0
			case ":reset":
				session.Reset()
			case ":source":
				fmt.Println(session.prelude())
			case ":help":
				fmt.Println("  :source  show the accumulated definitions")
				fmt.Println("  :reset   forget every definition")
				fmt.Println("  :quit    leave the REPL")
			default:
				fmt.Println("unknown command. Type :help for commands.")
			}
			continue
		}

		out, err := session.Eval(input)
		if err != nil {
			var buf strings.Builder
			printCompileError(&buf, err, session.Source())
			fmt.Fprint(os.Stderr, red(buf.String()))
			if !strings.HasSuffix(buf.String(), "\n") {
				fmt.Fprintln(os.Stderr)
			}
			continue
		}
		if out != "" {
			fmt.Println(cyan(out))
		}
	}
}

// readInput keeps prompting while braces or parentheses are open.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}
