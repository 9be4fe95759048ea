package query

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"sync"

	"github.com/zeebo/blake3"
)

// Config controls engine limits and where output goes.
type Config struct {
	// Output receives the rendering of print arguments and returned values.
	Output            io.Writer
	RecursionLimit    int
	MaxCachedPrograms int

	// TokenTrace, when set, receives one line per token as it is lexed.
	TokenTrace io.Writer
}

const defaultMaxCachedPrograms = 256

// Engine compiles and evaluates programs. An Engine is safe for concurrent
// use; each evaluation gets its own environment.
type Engine struct {
	config   Config
	builtins map[string]Value

	cacheMu    sync.Mutex
	cache      map[[32]byte]*Program
	cacheOrder [][32]byte
}

// NewEngine constructs an Engine with defaults applied and registers print.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.RecursionLimit < 0 {
		return nil, fmt.Errorf("query: recursion limit must not be negative (got %d)", cfg.RecursionLimit)
	}
	if cfg.RecursionLimit == 0 {
		cfg.RecursionLimit = defaultRecursionLimit
	}
	if cfg.MaxCachedPrograms == 0 {
		cfg.MaxCachedPrograms = defaultMaxCachedPrograms
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	engine := &Engine{
		config:   cfg,
		builtins: make(map[string]Value),
		cache:    make(map[[32]byte]*Program),
	}
	engine.RegisterBuiltin("print", builtinPrint)
	return engine, nil
}

// MustNewEngine constructs an Engine or panics if the config is invalid.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

// RegisterBuiltin registers a native function available to scripts by name.
// Registration must happen before evaluations that should see it start.
func (e *Engine) RegisterBuiltin(name string, fn BuiltinFunc) {
	e.builtins[name] = NewBuiltin(name, fn)
}

// Builtins returns a copy of the registered builtin map.
func (e *Engine) Builtins() map[string]Value {
	out := make(map[string]Value, len(e.builtins))
	maps.Copy(out, e.builtins)
	return out
}

// Compile tokenizes and parses source. Results are cached by content digest,
// so compiling the same text twice returns the same immutable *Program.
func (e *Engine) Compile(source string) (*Program, error) {
	if e.config.TokenTrace != nil {
		return e.parse(source)
	}

	key := blake3.Sum256([]byte(source))
	if e.config.MaxCachedPrograms > 0 {
		e.cacheMu.Lock()
		cached, ok := e.cache[key]
		e.cacheMu.Unlock()
		if ok {
			return cached, nil
		}
	}

	program, err := e.parse(source)
	if err != nil {
		return nil, err
	}
	if e.config.MaxCachedPrograms > 0 {
		e.storeProgram(key, program)
	}
	return program, nil
}

func (e *Engine) parse(source string) (*Program, error) {
	lex := newLexer(source)
	lex.trace = e.config.TokenTrace
	return newParser(source, lex, e.config.RecursionLimit).parseProgram()
}

func (e *Engine) storeProgram(key [32]byte, program *Program) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if _, ok := e.cache[key]; ok {
		return
	}
	for len(e.cacheOrder) >= e.config.MaxCachedPrograms {
		oldest := e.cacheOrder[0]
		e.cacheOrder = e.cacheOrder[1:]
		delete(e.cache, oldest)
	}
	e.cache[key] = program
	e.cacheOrder = append(e.cacheOrder, key)
}

// CachedPrograms reports how many compiled programs are cached.
func (e *Engine) CachedPrograms() int {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	return len(e.cache)
}

// ClearProgramCache drops all cached programs and returns the number of
// entries removed.
func (e *Engine) ClearProgramCache() int {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	count := len(e.cache)
	clear(e.cache)
	e.cacheOrder = nil
	return count
}

// Evaluate compiles and runs source in a fresh environment and returns the
// value of its last statement. Lexing and parsing failures are reported
// before any statement runs.
func (e *Engine) Evaluate(ctx context.Context, source string) (Value, error) {
	return e.EvaluateWith(ctx, source, CallOptions{})
}

// EvaluateWith is Evaluate with per-run options.
func (e *Engine) EvaluateWith(ctx context.Context, source string, opts CallOptions) (Value, error) {
	program, err := e.Compile(source)
	if err != nil {
		return NewNone(), err
	}
	return e.NewExecution(opts).Run(ctx, program)
}

// ConfigSummary provides a human-readable description of the engine limits.
func (e *Engine) ConfigSummary() string {
	return fmt.Sprintf("recursion=%d cache=%d builtins=%d", e.config.RecursionLimit, e.config.MaxCachedPrograms, len(e.builtins))
}

// Evaluate runs source on a default engine writing to standard output.
func Evaluate(source string) (Value, error) {
	return MustNewEngine(Config{}).Evaluate(context.Background(), source)
}
