package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "--version", "-v", "version":
		printVersion()
		return
	case "--help", "-h", "help":
		printUsage()
		return
	}

	// a bare .lps file runs as a script
	if strings.HasSuffix(command, ".lps") {
		os.Exit(cmdRun(os.Args[1:]))
	}

	var code int
	switch command {
	case "run":
		code = cmdRun(args)
	case "eval":
		code = cmdEval(args)
	case "repl":
		code = cmdRepl(args)
	case "tokens":
		code = cmdTokens(args)
	case "ast":
		code = cmdAST(args)
	case "disasm":
		code = cmdDisasm(args)
	case "render":
		code = cmdRender(args)
	case "serve":
		code = cmdServe(args)
	case "hash-password":
		code = cmdHashPassword(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		code = 1
	}
	os.Exit(code)
}

func printUsage() {
	fmt.Println("LPS pixel shader language v" + Version)
	fmt.Println("\nUsage:")
	fmt.Println("  lps <file.lps>                 Run a script for one pixel")
	fmt.Println("  lps run [flags] <file>         Run a script for one pixel")
	fmt.Println("  lps eval [flags] '<expr>'      Evaluate an expression")
	fmt.Println("  lps repl [flags]               Start interactive REPL")
	fmt.Println("  lps tokens <file>              Print the token stream")
	fmt.Println("  lps ast [flags] <file>         Print the checked (and optimized) tree")
	fmt.Println("  lps disasm [flags] <file>      Print the compiled bytecode")
	fmt.Println("  lps render [flags] <file>      Render a frame to a PNG file")
	fmt.Println("  lps serve [flags]              Start the preview server")
	fmt.Println("  lps hash-password <password>   Hash a password for the preview config")
	fmt.Println("  lps version                    Show version information")
	fmt.Println("  lps help                       Show this help message")
	fmt.Println("\nCommon flags:")
	fmt.Println("  -config <file.cue>   Load settings (repeatable)")
	fmt.Println("  -env <file>          Load LPS_* variables from an env file (default .env)")
	fmt.Println("  -O0                  Disable every optimizer pass")
	fmt.Println("  -log <level>         Log level: debug, info, warn or error")
	fmt.Println("  -x, -y, -w, -h, -t   Pixel, frame size and time for run, eval and repl")
}

func printVersion() {
	fmt.Printf("LPS %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
