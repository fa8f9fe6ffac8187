// Package config loads settings from CUE files, a .env file and LPS_*
// environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"lps/pkg/ast"
	"lps/pkg/compiler"
	"lps/pkg/lps"
	"lps/pkg/optimizer"
	"lps/pkg/parser"
	"lps/pkg/vm"
	"os"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
)

type Log struct {
	Level   string `json:"level"`
	JSON    bool   `json:"json"`
	Journal bool   `json:"journal"`
}

type Optimizer struct {
	ConstantFolding bool `json:"constantFolding"`
	Algebraic       bool `json:"algebraic"`
	DeadCode        bool `json:"deadCode"`
	Peephole        bool `json:"peephole"`
	MaxPasses       int  `json:"maxPasses"`
}

type Limits struct {
	MaxExprs        int `json:"maxExprs"`
	MaxStmts        int `json:"maxStmts"`
	MaxRecursion    int `json:"maxRecursion"`
	MaxLocalSlots   int `json:"maxLocalSlots"`
	MaxInstructions int `json:"maxInstructions"`
	MaxFunctions    int `json:"maxFunctions"`
}

type VM struct {
	MaxCallDepth    int `json:"maxCallDepth"`
	StackSize       int `json:"stackSize"`
	LocalsPerFrame  int `json:"localsPerFrame"`
	MaxInstructions int `json:"maxInstructions"`
}

type Preview struct {
	Addr         string `json:"addr"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FPS          int    `json:"fps"`
	Secret       string `json:"secret"`
	PasswordHash string `json:"passwordHash"`
	TokenTTL     string `json:"tokenTTL"`
}

type Config struct {
	Log       Log       `json:"log"`
	Optimizer Optimizer `json:"optimizer"`
	Limits    Limits    `json:"limits"`
	VM        VM        `json:"vm"`
	Preview   Preview   `json:"preview"`
}

func Default() Config {
	opt := optimizer.All()
	pool := ast.DefaultLimits()
	gen := compiler.DefaultConfig()
	limits := vm.DefaultLimits()
	return Config{
		Log: Log{Level: "info"},
		Optimizer: Optimizer{
			ConstantFolding: opt.ConstantFolding,
			Algebraic:       opt.Algebraic,
			DeadCode:        opt.DeadCode,
			Peephole:        opt.Peephole,
			MaxPasses:       opt.MaxPasses,
		},
		Limits: Limits{
			MaxExprs:        pool.MaxExprs,
			MaxStmts:        pool.MaxStmts,
			MaxRecursion:    parser.DefaultConfig().MaxRecursion,
			MaxLocalSlots:   gen.MaxLocalSlots,
			MaxInstructions: gen.MaxInstructions,
			MaxFunctions:    gen.MaxFunctions,
		},
		VM: VM{
			MaxCallDepth:    limits.MaxCallDepth,
			StackSize:       limits.StackSize,
			LocalsPerFrame:  limits.LocalsPerFrame,
			MaxInstructions: limits.MaxInstructions,
		},
		Preview: Preview{Addr: "127.0.0.1:8420", Width: 32, Height: 32, FPS: 30, TokenTTL: "12h"},
	}
}

// Load starts from Default, applies each CUE file in order, then the
// optional env file and finally the process environment.
func Load(files []string, envFile string) (Config, error) {
	cfg := Default()

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString("close({" + schema + "})")
	if err := schemaValue.Err(); err != nil {
		return cfg, err
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		value := ctx.CompileBytes(content, cue.Filename(path))
		if err := value.Err(); err != nil {
			return cfg, err
		}
		value = schemaValue.Unify(value)
		if err := value.Validate(cue.Concrete(true)); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		if err := value.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config %s: %w", envFile, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"LPS_LOG_LEVEL":             &cfg.Log.Level,
		"LPS_PREVIEW_ADDR":          &cfg.Preview.Addr,
		"LPS_PREVIEW_SECRET":        &cfg.Preview.Secret,
		"LPS_PREVIEW_PASSWORD_HASH": &cfg.Preview.PasswordHash,
		"LPS_PREVIEW_TOKEN_TTL":     &cfg.Preview.TokenTTL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"LPS_OPT_MAX_PASSES":        &cfg.Optimizer.MaxPasses,
		"LPS_VM_MAX_CALL_DEPTH":     &cfg.VM.MaxCallDepth,
		"LPS_VM_STACK_SIZE":         &cfg.VM.StackSize,
		"LPS_VM_LOCALS_PER_FRAME":   &cfg.VM.LocalsPerFrame,
		"LPS_VM_MAX_INSTRUCTIONS":   &cfg.VM.MaxInstructions,
		"LPS_PREVIEW_WIDTH":         &cfg.Preview.Width,
		"LPS_PREVIEW_HEIGHT":        &cfg.Preview.Height,
		"LPS_PREVIEW_FPS":           &cfg.Preview.FPS,
		"LPS_LIMIT_MAX_EXPRS":       &cfg.Limits.MaxExprs,
		"LPS_LIMIT_MAX_STMTS":       &cfg.Limits.MaxStmts,
		"LPS_LIMIT_MAX_RECURSION":   &cfg.Limits.MaxRecursion,
		"LPS_LIMIT_MAX_LOCAL_SLOTS": &cfg.Limits.MaxLocalSlots,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"LPS_LOG_JSON":    &cfg.Log.JSON,
		"LPS_LOG_JOURNAL": &cfg.Log.Journal,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		*dst = b
	}

	// LPS_OPTIMIZE switches every optimizer pass at once
	if v, ok := lookup("LPS_OPTIMIZE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config LPS_OPTIMIZE: %w", err)
		}
		cfg.Optimizer.ConstantFolding = b
		cfg.Optimizer.Algebraic = b
		cfg.Optimizer.DeadCode = b
		cfg.Optimizer.Peephole = b
	}
	return nil
}

func (c Config) OptimizerOptions() optimizer.Options {
	return optimizer.Options{
		ConstantFolding: c.Optimizer.ConstantFolding,
		Algebraic:       c.Optimizer.Algebraic,
		DeadCode:        c.Optimizer.DeadCode,
		Peephole:        c.Optimizer.Peephole,
		MaxPasses:       c.Optimizer.MaxPasses,
	}
}

func (c Config) CompileOptions() lps.Options {
	opts := lps.DefaultOptions()
	opts.Optimizer = c.OptimizerOptions()
	opts.Pool = ast.Limits{MaxExprs: c.Limits.MaxExprs, MaxStmts: c.Limits.MaxStmts}
	opts.Parser = parser.Config{MaxRecursion: c.Limits.MaxRecursion}
	opts.Compiler = compiler.Config{
		MaxLocalSlots:   c.Limits.MaxLocalSlots,
		MaxInstructions: c.Limits.MaxInstructions,
		MaxFunctions:    c.Limits.MaxFunctions,
	}
	return opts
}

func (c Config) VMLimits() vm.Limits {
	return vm.Limits{
		MaxCallDepth:    c.VM.MaxCallDepth,
		StackSize:       c.VM.StackSize,
		LocalsPerFrame:  c.VM.LocalsPerFrame,
		MaxInstructions: c.VM.MaxInstructions,
	}
}
