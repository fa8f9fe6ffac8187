package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"lps/pkg/ast"
	"lps/pkg/builtin"
	"lps/pkg/compiler"
	"lps/pkg/config"
	"lps/pkg/eval"
	"lps/pkg/fixed"
	"lps/pkg/lexer"
	"lps/pkg/logs"
	"lps/pkg/lps"
	"lps/pkg/optimizer"
	"lps/pkg/parser"
	"lps/pkg/preview"
	"lps/pkg/token"
	"lps/pkg/typecheck"
	"lps/pkg/vm"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

// common holds the flags every command shares.
type common struct {
	configs  multiFlag
	envFile  string
	noOpt    bool
	logLevel string

	x, y, w, h int
	t          float64

	cfg    config.Config
	logger *slog.Logger
}

func (c *common) register(fs *flag.FlagSet, pixel bool) {
	fs.Var(&c.configs, "config", "CUE config file (repeatable)")
	fs.StringVar(&c.envFile, "env", ".env", "env file with LPS_* variables")
	fs.BoolVar(&c.noOpt, "O0", false, "disable every optimizer pass")
	fs.StringVar(&c.logLevel, "log", "", "log level: debug, info, warn or error")
	if pixel {
		fs.IntVar(&c.x, "x", 0, "pixel x")
		fs.IntVar(&c.y, "y", 0, "pixel y")
		fs.IntVar(&c.w, "w", 1, "frame width")
		fs.IntVar(&c.h, "h", 1, "frame height")
		fs.Float64Var(&c.t, "t", 0, "time in seconds")
	}
}

// setup loads the config and installs the default logger.
func (c *common) setup() error {
	cfg, err := config.Load(c.configs, c.envFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	level, err := logs.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logs.SetLevel(level)
	c.logger = logs.New(logs.Options{Writer: os.Stderr, Journal: cfg.Log.Journal, JSON: cfg.Log.JSON})
	slog.SetDefault(c.logger)

	if c.noOpt {
		cfg.Optimizer = config.Optimizer{MaxPasses: cfg.Optimizer.MaxPasses}
	}
	c.cfg = cfg
	return nil
}

func (c *common) compileOptions() lps.Options {
	opts := c.cfg.CompileOptions()
	opts.Logger = c.logger
	return opts
}

func (c *common) inputs() builtin.Inputs {
	return builtin.PixelInputs(c.x, c.y, c.w, c.h, fixed.FromFloat(c.t))
}

func parseFlags(name string, args []string, pixel bool) (*common, *flag.FlagSet, bool) {
	c := &common{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c.register(fs, pixel)
	if err := fs.Parse(args); err != nil {
		return nil, nil, false
	}
	if err := c.setup(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return nil, nil, false
	}
	return c, fs, true
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// sourceArg reads the single file argument of a command.
func sourceArg(fs *flag.FlagSet, usage string) (string, bool) {
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		return "", false
	}
	src, err := readSource(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		return "", false
	}
	return src, true
}

func printCompileError(w io.Writer, err error, src string) {
	var ce *lps.CompileError
	if errors.As(err, &ce) {
		fmt.Fprint(w, ce.Format(src))
		return
	}
	fmt.Fprintln(w, err)
}

// execute runs prog once and formats the result.
func execute(prog *compiler.Program, limits vm.Limits, in builtin.Inputs) (string, error) {
	machine, err := vm.New(prog, limits, nil)
	if err != nil {
		return "", err
	}
	defer machine.Close()
	v, err := machine.Run(in)
	if err != nil {
		return "", err
	}
	return eval.Value(v).Format(prog.ReturnType()), nil
}

func compileAndRun(c *common, src string, compile func(string, lps.Options) (*compiler.Program, error)) int {
	prog, err := compile(src, c.compileOptions())
	if err != nil {
		printCompileError(os.Stderr, err, src)
		return 1
	}
	out, err := execute(prog, c.cfg.VMLimits(), c.inputs())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(out)
	return 0
}

func cmdRun(args []string) int {
	c, fs, ok := parseFlags("run", args, true)
	if !ok {
		return 2
	}
	src, ok := sourceArg(fs, "lps run [flags] <file>")
	if !ok {
		return 1
	}
	return compileAndRun(c, src, lps.CompileScript)
}

func cmdEval(args []string) int {
	c, fs, ok := parseFlags("eval", args, true)
	if !ok {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: lps eval [flags] '<expr>'")
		return 1
	}
	return compileAndRun(c, fs.Arg(0), lps.CompileExpr)
}

func cmdTokens(args []string) int {
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	src, ok := sourceArg(fs, "lps tokens <file>")
	if !ok {
		return 1
	}
	for _, tok := range lexer.Tokenize(src) {
		line, col := token.NewSpan(tok.Pos, tok.End()).LineCol(src)
		desc := fmt.Sprintf("%-12s %-16q (line %d, col %d)", tok.Type, tok.Literal, line, col)
		if tok.Type == token.ILLEGAL {
			desc += " " + tok.Err.String()
		}
		fmt.Println(desc)
	}
	return 0
}

func cmdAST(args []string) int {
	c, fs, ok := parseFlags("ast", args, false)
	if !ok {
		return 2
	}
	src, ok := sourceArg(fs, "lps ast [flags] <file>")
	if !ok {
		return 1
	}
	opts := c.compileOptions()
	pool := ast.NewPool(opts.Pool, nil)
	tree, err := parser.New(lexer.Tokenize(src), pool, opts.Parser).ParseProgram()
	if err == nil {
		err = typecheck.New(pool).CheckProgram(tree)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	passes := optimizer.New(pool, opts.Optimizer).Program(tree)
	fmt.Print(pool.ProgramString(tree))
	c.logger.Debug("optimized tree", "passes", passes, "exprs", pool.NumExprs(), "stmts", pool.NumStmts())
	return 0
}

func cmdDisasm(args []string) int {
	c, fs, ok := parseFlags("disasm", args, false)
	if !ok {
		return 2
	}
	src, ok := sourceArg(fs, "lps disasm [flags] <file>")
	if !ok {
		return 1
	}
	prog, err := lps.CompileScript(src, c.compileOptions())
	if err != nil {
		printCompileError(os.Stderr, err, src)
		return 1
	}
	fmt.Print(prog.String())
	return 0
}

func cmdRender(args []string) int {
	c := &common{}
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	c.register(fs, false)
	width := fs.Int("w", 64, "frame width")
	height := fs.Int("h", 64, "frame height")
	at := fs.Float64("t", 0, "time in seconds")
	out := fs.String("o", "frame.png", "output PNG file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := c.setup(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 2
	}
	src, ok := sourceArg(fs, "lps render [flags] <file>")
	if !ok {
		return 1
	}
	prog, err := lps.CompileScript(src, c.compileOptions())
	if err != nil {
		printCompileError(os.Stderr, err, src)
		return 1
	}
	machine, err := vm.New(prog, c.cfg.VMLimits(), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer machine.Close()

	img := vm.NewImage(*width, *height, prog.ReturnType())
	start := time.Now()
	failed, err := machine.Render(img, fixed.FromFloat(*at), nil)
	if err != nil {
		c.logger.Warn("render", "failed_pixels", failed, "error", err)
	}
	c.logger.Info("rendered", "width", *width, "height", *height, "elapsed", time.Since(start))

	rgba := image.NewRGBA(image.Rect(0, 0, *width, *height))
	copy(rgba.Pix, img.RGBA8())
	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer f.Close()
	if err := png.Encode(f, rgba); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func cmdServe(args []string) int {
	c := &common{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	c.register(fs, false)
	addr := fs.String("addr", "", "listen address (overrides the config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := c.setup(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 2
	}
	p := c.cfg.Preview
	if *addr != "" {
		p.Addr = *addr
	}
	ttl, err := time.ParseDuration(p.TokenTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid token TTL: %v\n", err)
		return 2
	}
	if p.PasswordHash != "" && p.Secret == "" {
		fmt.Fprintln(os.Stderr, "preview.secret is required when a password is set")
		return 2
	}

	opts := preview.DefaultOptions()
	opts.Width, opts.Height, opts.FPS = p.Width, p.Height, p.FPS
	opts.Secret, opts.PasswordHash, opts.TokenTTL = p.Secret, p.PasswordHash, ttl
	opts.Compile = c.compileOptions()
	opts.Limits = c.cfg.VMLimits()
	opts.Logger = c.logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := preview.New(opts).ListenAndServe(ctx, p.Addr); err != nil {
		c.logger.Error("serve", "error", err)
		return 1
	}
	return 0
}

func cmdHashPassword(args []string) int {
	var password string
	switch {
	case len(args) == 1:
		password = args[0]
	case term.IsTerminal(int(os.Stdin.Fd())):
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		password = string(b)
	default:
		fmt.Fprintln(os.Stderr, "Usage: lps hash-password <password>")
		return 1
	}
	hash, err := preview.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(hash)
	return 0
}
