package bscript

import (
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueTruthy(t *testing.T) {
	fn := NewFunction(NewNative("f", nil))
	cases := []struct {
		v    Value
		want bool
	}{
		{NewVoid(), false},
		{NewBool(true), true},
		{NewBool(false), false},
		{NewNumeric(0), false},
		{NewNumeric(-0.5), true},
		{NewString(""), false},
		{NewString("x"), true},
		{NewArray(nil), false},
		{NewArray([]Value{NewVoid()}), true},
		{fn, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.v.Truthy(), tc.v.String())
	}
}

func TestValueCopyIsDeep(t *testing.T) {
	inner := NewArray([]Value{NewNumeric(1)})
	outer := NewArray([]Value{inner, NewString("s")})

	dup := outer.Copy()
	dup.Cells()[0].Load().Cells()[0].Store(NewNumeric(99))
	dup.Cells()[1].Store(NewString("changed"))

	assert.Equal(t, "[[1], s]", outer.String())
	assert.Equal(t, "[[99], changed]", dup.String())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, NewVoid().Equal(NewVoid()))
	assert.True(t, NewNumeric(2).Equal(NewNumeric(2)))
	assert.False(t, NewNumeric(1).Equal(NewString("1")))
	assert.False(t, NewNumeric(math.NaN()).Equal(NewNumeric(math.NaN())))

	a := NewArray([]Value{NewNumeric(1), NewString("x")})
	b := NewArray([]Value{NewNumeric(1), NewString("x")})
	c := NewArray([]Value{NewNumeric(1)})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	f := NewNative("f", nil)
	g := NewNative("f", nil)
	assert.True(t, NewFunction(f).Equal(NewFunction(f)))
	assert.False(t, NewFunction(f).Equal(NewFunction(g)))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "<void>", NewVoid().String())
	assert.Equal(t, "true", NewBool(true).String())
	assert.Equal(t, "2.5", NewNumeric(2.5).String())
	assert.Equal(t, "[]", NewArray(nil).String())
	assert.Equal(t, "[1, [a]]", NewArray([]Value{
		NewNumeric(1), NewArray([]Value{NewString("a")}),
	}).String())
	assert.Equal(t, "<function>", NewFunction(NewNative("f", nil)).String())

	target := NewCell(NewString("seen"))
	assert.Equal(t, "seen", NewRef(target).String())
	runtime.KeepAlive(target)
}

func TestValueStringCyclicReference(t *testing.T) {
	self := NewCell(NewVoid())
	self.Store(NewArrayCells([]*Cell{NewCell(NewRef(self))}))
	assert.Equal(t, "[[...]]", NewRef(self).String())
	assert.Equal(t, "[[[...]]]", self.Load().String())

	a := NewCell(NewVoid())
	b := NewCell(NewRef(a))
	a.Store(NewRef(b))
	assert.Equal(t, "<expired>", a.Load().String())
	runtime.KeepAlive(b)
}

func TestDetachResolvesReferences(t *testing.T) {
	shared := NewCell(NewNumeric(4))
	self := NewCell(NewVoid())
	self.Store(NewArrayCells([]*Cell{NewCell(NewRef(shared)), NewCell(NewRef(self))}))

	out := detach(self.Load(), []*Cell{self})
	require.Equal(t, ValueArray, out.Kind())
	assert.Equal(t, "[4, <void>]", out.String())
	assert.NotSame(t, shared, out.Cells()[0])
	runtime.KeepAlive(shared)
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:            "0",
		-3:           "-3",
		1e6:          "1000000",
		0.1:          "0.1",
		-2.25:        "-2.25",
		1e20:         "100000000000000000000",
		math.Inf(1):  "inf",
		math.Inf(-1): "-inf",
	}
	for f, want := range cases {
		assert.Equal(t, want, FormatNumber(f))
	}
	assert.Equal(t, "nan", FormatNumber(math.NaN()))
}

func TestWholeCount(t *testing.T) {
	n, ok := wholeCount(3)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	for _, bad := range []float64{-1, 0.5, math.NaN(), math.Inf(1), 1e12} {
		_, ok := wholeCount(bad)
		assert.False(t, ok, FormatNumber(bad))
	}
}

func TestValueKindString(t *testing.T) {
	assert.Equal(t, "Numeric", ValueNumeric.String())
	assert.Equal(t, "Ref", ValueRef.String())
	assert.Equal(t, "ValueKind(42)", ValueKind(42).String())
}
