package bscript

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(cfg Config) *Engine {
	cfg.Builtins = true
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.LogHandler == nil {
		cfg.LogHandler = slog.DiscardHandler
	}
	return NewEngine(cfg)
}

// runOn compiles and runs src against table.
func runOn(t *testing.T, engine *Engine, table *SymbolTable, src string) (Value, error) {
	t.Helper()
	script, err := engine.Compile(src)
	require.NoError(t, err)
	v, _, err := script.Run(context.Background(), table)
	return v, err
}

func runScript(t *testing.T, src string) (Value, *SymbolTable) {
	t.Helper()
	engine := newTestEngine(Config{})
	table := engine.NewTable()
	v, err := runOn(t, engine, table, src)
	require.NoError(t, err)
	return v, table
}

func runScriptErr(t *testing.T, src string) error {
	t.Helper()
	engine := newTestEngine(Config{})
	_, err := runOn(t, engine, engine.NewTable(), src)
	require.Error(t, err)
	return err
}

func evalExpr(t *testing.T, src string) (Value, error) {
	t.Helper()
	engine := newTestEngine(Config{})
	script, err := engine.CompileExpression(src)
	require.NoError(t, err)
	v, _, err := script.Run(context.Background(), nil)
	return v, err
}

// rootError asserts err is a script error and returns the innermost link.
func rootError(t *testing.T, err error) *Error {
	t.Helper()
	se, ok := err.(*Error)
	require.True(t, ok, "expected *Error, got %T: %v", err, err)
	return se.Root()
}
