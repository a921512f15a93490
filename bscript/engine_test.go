package bscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineCompileSyntaxError(t *testing.T) {
	engine := newTestEngine(Config{})
	_, err := engine.Compile("x = (1 + 2;")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "syntax error at 1:11: expected ')', found ';'", err.Error())
}

func TestEngineScriptReuse(t *testing.T) {
	engine := newTestEngine(Config{})
	script, err := engine.Compile("n = n + 1; return n;")
	require.NoError(t, err)
	assert.Equal(t, "n = n + 1; return n;", script.Source())
	assert.Equal(t, KindProgram, script.Root().Kind)

	table := engine.NewTable()
	require.NoError(t, table.Set("n", NewNumeric(0), false))
	for want := 1.0; want <= 3; want++ {
		v, returned, err := script.Run(t.Context(), table)
		require.NoError(t, err)
		assert.True(t, returned)
		assert.Equal(t, want, v.Number())
	}
}

func TestEngineExpressionSeesTable(t *testing.T) {
	engine := newTestEngine(Config{})
	table := engine.NewTable()
	require.NoError(t, table.Set("base", NewNumeric(40), false))

	script, err := engine.CompileExpression("base + 2")
	require.NoError(t, err)
	v, returned, err := script.Run(t.Context(), table)
	require.NoError(t, err)
	assert.True(t, returned)
	assert.Equal(t, 42.0, v.Number())
}

func TestEngineRegisterBuiltinIsPerTable(t *testing.T) {
	engine := newTestEngine(Config{})
	before := engine.NewTable()
	engine.RegisterBuiltin("answer", func(*SymbolTable, []Value) (Value, error) {
		return NewNumeric(42), nil
	})
	after := engine.NewTable()

	_, ok := before.Get("answer", false)
	assert.False(t, ok)
	v, err := runOn(t, engine, after, "return answer();")
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.Number())
}

func TestEngineDefaults(t *testing.T) {
	engine := NewEngine(Config{})
	assert.Equal(t, defaultRecursionLimit, engine.config.RecursionLimit)
	assert.NotNil(t, engine.Logger())
	assert.NotNil(t, engine.config.Stdout)
	assert.NotNil(t, engine.config.RandomSource)
}
