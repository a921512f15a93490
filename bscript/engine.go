package bscript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"os"
)

// Config controls how tables created by an Engine behave.
type Config struct {
	// RecursionLimit bounds nested function calls. Defaults to 256.
	RecursionLimit int
	// LogHandler receives runtime warnings and script log output. Nil selects
	// a text handler on stderr grouped under "bscript".
	LogHandler slog.Handler
	// Stdout receives print() output. Defaults to os.Stdout.
	Stdout io.Writer
	// RandomSource returns values in [0, 1) for random(). Defaults to math/rand/v2.
	RandomSource func() float64
	// Builtins registers the standard library in every new table.
	Builtins bool
}

// Engine compiles scripts and hands out symbol tables configured for them.
type Engine struct {
	config  Config
	logger  *slog.Logger
	natives map[string]NativeFunc
}

// NewEngine fills in defaults for any zero Config fields.
func NewEngine(cfg Config) *Engine {
	if cfg.RecursionLimit <= 0 {
		cfg.RecursionLimit = defaultRecursionLimit
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.RandomSource == nil {
		cfg.RandomSource = rand.Float64
	}

	e := &Engine{
		config:  cfg,
		logger:  setupLogger(cfg.LogHandler, "bscript"),
		natives: make(map[string]NativeFunc),
	}
	if cfg.Builtins {
		maps.Copy(e.natives, builtinFuncs())
	}
	return e
}

// RegisterBuiltin exposes fn to every table created after the call.
func (e *Engine) RegisterBuiltin(name string, fn NativeFunc) {
	e.natives[name] = fn
}

func (e *Engine) Logger() *slog.Logger { return e.logger }

// NewTable returns a table with the engine's limits, output and natives.
func (e *Engine) NewTable() *SymbolTable {
	t := NewSymbolTable()
	t.SetRecursionLimit(e.config.RecursionLimit)
	t.SetLogger(e.logger)
	t.SetOutput(e.config.Stdout)
	t.random = e.config.RandomSource
	for name, fn := range e.natives {
		t.Register(name, fn)
	}
	return t
}

// Script is a parsed program or expression ready to run against any table.
type Script struct {
	engine *Engine
	source string
	root   *Node
	expr   bool
}

// Compile parses a program.
func (e *Engine) Compile(source string) (*Script, error) {
	root, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return &Script{engine: e, source: source, root: root}, nil
}

// CompileExpression parses a single expression. Running it yields the
// expression's value.
func (e *Engine) CompileExpression(source string) (*Script, error) {
	root, err := ParseExpression(source)
	if err != nil {
		return nil, err
	}
	return &Script{engine: e, source: source, root: root, expr: true}, nil
}

func (s *Script) Root() *Node { return s.root }

func (s *Script) Source() string { return s.source }

// Run executes the script against t, or a fresh table when t is nil.
// Cancelling ctx kills the table. The bool result reports whether the value
// came from a top-level return (always true for expressions).
func (s *Script) Run(ctx context.Context, t *SymbolTable) (Value, bool, error) {
	if t == nil {
		t = s.engine.NewTable()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		t.Kill()
	}
	stop := context.AfterFunc(ctx, t.Kill)
	defer stop()

	logger := t.Logger()
	logger.Debug("script start", "expression", s.expr)

	var (
		v        Value
		returned bool
		err      error
	)
	if s.expr {
		v, err = ComputeValue(s.root, t)
		returned = err == nil
		if errors.Is(err, errExit) {
			v, returned, err = NewVoid(), false, nil
		}
	} else {
		v, returned, err = Run(s.root, t)
	}

	if err != nil {
		logger.Debug("script failed", "error", err)
		return NewVoid(), false, s.decorate(ctx, err)
	}
	logger.Debug("script finished", "returned", returned)
	return v, returned, nil
}

func (s *Script) decorate(ctx context.Context, err error) error {
	if errors.Is(err, ErrKilled) {
		if cause := context.Cause(ctx); cause != nil {
			return fmt.Errorf("%w (%w)", ErrKilled, cause)
		}
		return err
	}
	if se, ok := err.(*Error); ok {
		se.Source = s.source
	}
	return err
}

// setupLogger builds the engine logger. A nil handler gets a text handler on
// stderr grouped under group.
func setupLogger(handler slog.Handler, group string) *slog.Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}).WithGroup(group)
	}
	return slog.New(handler)
}
