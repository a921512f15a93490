package bscript

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"weak"
)

type ValueKind int

const (
	ValueVoid ValueKind = iota
	ValueBool
	ValueNumeric
	ValueString
	ValueArray
	ValueFunction
	ValueRef
)

func (k ValueKind) String() string {
	switch k {
	case ValueVoid:
		return "Void"
	case ValueBool:
		return "Bool"
	case ValueNumeric:
		return "Numeric"
	case ValueString:
		return "String"
	case ValueArray:
		return "Array"
	case ValueFunction:
		return "Function"
	case ValueRef:
		return "Ref"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a tagged runtime value. Arrays hold shared cells, so copying a
// Value copies the slice header only; use Copy for an independent array.
type Value struct {
	kind ValueKind
	data any
}

func NewVoid() Value                 { return Value{kind: ValueVoid} }
func NewBool(b bool) Value           { return Value{kind: ValueBool, data: b} }
func NewNumeric(f float64) Value     { return Value{kind: ValueNumeric, data: f} }
func NewString(s string) Value       { return Value{kind: ValueString, data: s} }
func NewFunction(fn *Function) Value { return Value{kind: ValueFunction, data: fn} }

// NewArray wraps each element in a fresh cell.
func NewArray(elems []Value) Value {
	cells := make([]*Cell, len(elems))
	for i, e := range elems {
		cells[i] = NewCell(e)
	}
	return Value{kind: ValueArray, data: cells}
}

// NewArrayCells builds an array over existing cells without copying them.
func NewArrayCells(cells []*Cell) Value {
	if cells == nil {
		cells = []*Cell{}
	}
	return Value{kind: ValueArray, data: cells}
}

// NewRef builds a weak alias to target. The reference does not keep target
// alive.
func NewRef(target *Cell) Value {
	return Value{kind: ValueRef, data: weak.Make(target)}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsVoid() bool { return v.kind == ValueVoid }

func (v Value) Bool() bool {
	if v.kind == ValueBool {
		return v.data.(bool)
	}
	return false
}

func (v Value) Number() float64 {
	if v.kind == ValueNumeric {
		return v.data.(float64)
	}
	return 0
}

func (v Value) Str() string {
	if v.kind == ValueString {
		return v.data.(string)
	}
	return ""
}

func (v Value) Cells() []*Cell {
	if v.kind != ValueArray {
		return nil
	}
	return v.data.([]*Cell)
}

func (v Value) Function() *Function {
	if v.kind != ValueFunction {
		return nil
	}
	return v.data.(*Function)
}

func (v Value) refTarget() weak.Pointer[Cell] {
	if v.kind != ValueRef {
		return weak.Pointer[Cell]{}
	}
	return v.data.(weak.Pointer[Cell])
}

// Truthy implements the language's condition semantics. Functions are
// never truthy; references defer to their target and are false once expired.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueBool:
		return v.Bool()
	case ValueNumeric:
		return v.Number() != 0
	case ValueString:
		return v.Str() != ""
	case ValueArray:
		return len(v.Cells()) > 0
	case ValueRef:
		target, err := derefValue(v)
		if err != nil {
			return false
		}
		return target.Truthy()
	default:
		return false
	}
}

// Copy returns a value that shares no array cells with v. References are
// copied as references.
func (v Value) Copy() Value {
	if v.kind != ValueArray {
		return v
	}
	src := v.Cells()
	cells := make([]*Cell, len(src))
	for i, c := range src {
		cells[i] = NewCell(c.Load().Copy())
	}
	return NewArrayCells(cells)
}

// Equal compares by kind first, then structurally. Functions compare by
// identity of their definition.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueVoid:
		return true
	case ValueBool:
		return v.Bool() == other.Bool()
	case ValueNumeric:
		return v.Number() == other.Number()
	case ValueString:
		return v.Str() == other.Str()
	case ValueArray:
		a, b := v.Cells(), other.Cells()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Load().Equal(b[i].Load()) {
				return false
			}
		}
		return true
	case ValueFunction:
		return v.Function().same(other.Function())
	case ValueRef:
		return v.refTarget() == other.refTarget()
	default:
		return false
	}
}

// String renders the canonical text used by string concatenation and str().
// A reference back into a value already being rendered prints as [...].
func (v Value) String() string {
	var b strings.Builder
	v.render(&b, nil)
	return b.String()
}

func (v Value) render(b *strings.Builder, visiting []*Cell) {
	switch v.kind {
	case ValueVoid:
		b.WriteString("<void>")
	case ValueBool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case ValueNumeric:
		b.WriteString(FormatNumber(v.Number()))
	case ValueString:
		b.WriteString(v.Str())
	case ValueArray:
		b.WriteByte('[')
		for i, c := range v.Cells() {
			if i > 0 {
				b.WriteString(", ")
			}
			c.Load().render(b, visiting)
		}
		b.WriteByte(']')
	case ValueFunction:
		b.WriteString("<function>")
	case ValueRef:
		target, ok := liveTarget(v)
		switch {
		case !ok:
			b.WriteString("<expired>")
		case slices.Contains(visiting, target):
			b.WriteString("[...]")
		default:
			target.value.render(b, append(visiting, target))
		}
	default:
		fmt.Fprintf(b, "<%s>", v.kind)
	}
}

// liveTarget resolves the reference v to its concrete cell.
func liveTarget(v Value) (*Cell, bool) {
	next := v.refTarget().Value()
	if next == nil || next.released {
		return nil, false
	}
	target, err := next.Target()
	if err != nil {
		return nil, false
	}
	return target, true
}

// detach returns a copy of v that shares no cells with anything else.
// References are replaced by a copy of what they point at; expired or
// cyclic ones become Void.
func detach(v Value, visiting []*Cell) Value {
	switch v.kind {
	case ValueArray:
		src := v.Cells()
		cells := make([]*Cell, len(src))
		for i, c := range src {
			cells[i] = NewCell(detach(c.Load(), visiting))
		}
		return NewArrayCells(cells)
	case ValueRef:
		target, ok := liveTarget(v)
		if !ok || slices.Contains(visiting, target) {
			return NewVoid()
		}
		return detach(target.value, append(visiting, target))
	default:
		return v
	}
}

// FormatNumber renders integral values without a fractional part.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// wholeCount converts a repeat count or index to int. It reports false for
// negative or fractional values.
func wholeCount(f float64) (int, bool) {
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
