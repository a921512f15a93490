package bscript

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolTableLookupCreatesInInnermostFrame(t *testing.T) {
	table := NewSymbolTable()
	require.NoError(t, table.Set("g", NewNumeric(1), false))

	table.PushFrame()
	_, ok := table.Get("local", false)
	assert.False(t, ok)

	c, ok := table.Get("local", true)
	require.True(t, ok)
	assert.True(t, c.Load().IsVoid())

	g, ok := table.Get("g", false)
	require.True(t, ok)
	assert.Equal(t, 1.0, g.Load().Number())

	table.PopFrame()
	_, ok = table.Get("local", false)
	assert.False(t, ok)
}

func TestSymbolTableSetShadowsOnlyWhenFresh(t *testing.T) {
	table := NewSymbolTable()
	require.NoError(t, table.Set("x", NewNumeric(1), false))

	table.PushFrame()
	require.NoError(t, table.Set("x", NewNumeric(2), false))
	require.NoError(t, table.Set("y", NewNumeric(3), true))
	require.NoError(t, table.Set("x", NewNumeric(4), true))
	c, _ := table.Get("x", false)
	assert.Equal(t, 4.0, c.Load().Number())
	table.PopFrame()

	c, _ = table.Get("x", false)
	assert.Equal(t, 2.0, c.Load().Number())
	_, ok := table.Get("y", false)
	assert.False(t, ok)
}

func TestSymbolTableGlobalFrameSurvivesPop(t *testing.T) {
	table := NewSymbolTable()
	require.NoError(t, table.Set("x", NewNumeric(1), false))
	table.PopFrame()
	table.PopFrame()
	assert.Equal(t, 1, table.Depth())
	_, ok := table.Get("x", false)
	assert.True(t, ok)
}

func TestSymbolTableWithFramePopsOnError(t *testing.T) {
	table := NewSymbolTable()
	boom := errors.New("boom")
	err := table.WithFrame(func() error {
		assert.Equal(t, 2, table.Depth())
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, table.Depth())
}

func TestSymbolTableBindAliases(t *testing.T) {
	table := NewSymbolTable()
	cell := NewCell(NewNumeric(1))
	table.Bind("a", cell)
	require.NoError(t, table.Set("a", NewNumeric(2), false))
	assert.Equal(t, 2.0, cell.Load().Number())
}

func TestSymbolTableNames(t *testing.T) {
	table := NewSymbolTable()
	table.Register("zz", func(*SymbolTable, []Value) (Value, error) { return NewVoid(), nil })
	require.NoError(t, table.Set("b", NewVoid(), false))
	table.PushFrame()
	require.NoError(t, table.Set("a", NewVoid(), true))
	require.NoError(t, table.Set("b", NewVoid(), true))
	assert.Equal(t, []string{"a", "b", "zz"}, table.Names())
}

func TestSymbolTableKillAndRevive(t *testing.T) {
	table := NewSymbolTable()
	require.NoError(t, table.check())

	table.Kill()
	table.Kill()
	assert.True(t, table.Killed())
	require.ErrorIs(t, table.check(), ErrKilled)
	require.ErrorIs(t, table.waitFor(time.Hour), ErrKilled)

	table.Revive()
	assert.False(t, table.Killed())
	require.NoError(t, table.waitFor(time.Millisecond))
}

func TestSymbolTableKillWakesSleeper(t *testing.T) {
	table := NewSymbolTable()
	done := make(chan error, 1)
	go func() { done <- table.waitFor(time.Hour) }()

	time.Sleep(10 * time.Millisecond)
	table.Kill()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrKilled)
	case <-time.After(5 * time.Second):
		t.Fatal("sleeper was not woken by Kill")
	}
}

func TestSymbolTableReset(t *testing.T) {
	table := NewSymbolTable()
	require.NoError(t, table.Set("x", NewNumeric(1), false))
	table.PushFrame()
	table.Kill()

	table.Reset()
	assert.Equal(t, 1, table.Depth())
	assert.False(t, table.Killed())
	assert.Empty(t, table.Names())
}

func TestSymbolTableRecursionLimit(t *testing.T) {
	table := NewSymbolTable()
	table.SetRecursionLimit(2)
	require.NoError(t, table.enterCall(nil))
	require.NoError(t, table.enterCall(nil))

	err := table.enterCall(nil)
	require.ErrorIs(t, err, ErrRecursionDepth)
	assert.Contains(t, err.Error(), "recursion depth exceeded (limit 2)")

	table.exitCall()
	require.NoError(t, table.enterCall(nil))
}
