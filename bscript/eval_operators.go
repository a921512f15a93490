package bscript

import (
	"math"
	"strings"
)

func add(lhs, rhs Value) (Value, error) {
	switch lhs.Kind() {
	case ValueNumeric:
		if rhs.Kind() != ValueNumeric {
			return NewVoid(), newError("Only a Numeric type may be added to a Numeric type")
		}
		return NewNumeric(lhs.Number() + rhs.Number()), nil
	case ValueString:
		switch rhs.Kind() {
		case ValueString:
			return NewString(lhs.Str() + rhs.Str()), nil
		case ValueNumeric:
			return NewString(lhs.Str() + FormatNumber(rhs.Number())), nil
		default:
			return NewVoid(), newError("Only Numeric and String types may be added to Strings")
		}
	case ValueArray:
		src := lhs.Cells()
		cells := make([]*Cell, 0, len(src)+1)
		for _, c := range src {
			cells = append(cells, NewCell(c.Load().Copy()))
		}
		cells = append(cells, NewCell(rhs.Copy()))
		return NewArrayCells(cells), nil
	default:
		return NewVoid(), newError("Valid left operand types for '+' are Array, String, and Numeric only")
	}
}

func subtract(lhs, rhs Value) (Value, error) {
	if lhs.Kind() != ValueNumeric || rhs.Kind() != ValueNumeric {
		return NewVoid(), newError("Subtraction may only be done between Numeric types")
	}
	return NewNumeric(lhs.Number() - rhs.Number()), nil
}

func multiply(lhs, rhs Value) (Value, error) {
	switch lhs.Kind() {
	case ValueNumeric:
		if rhs.Kind() != ValueNumeric {
			return NewVoid(), newError("A Numeric type can only be multiplied by a Numeric type")
		}
		return NewNumeric(lhs.Number() * rhs.Number()), nil
	case ValueString:
		if rhs.Kind() != ValueNumeric {
			return NewVoid(), newError("A String type can only be multiplied by a Numeric type")
		}
		n, ok := wholeCount(rhs.Number())
		if !ok {
			return NewVoid(), newError("Multiplier must be a positive integer or 0")
		}
		return NewString(strings.Repeat(lhs.Str(), n)), nil
	case ValueArray:
		if rhs.Kind() != ValueNumeric {
			return NewVoid(), newError("An Array type can only be multiplied by a Numeric type")
		}
		n, ok := wholeCount(rhs.Number())
		if !ok {
			return NewVoid(), newError("Multiplier must be a positive integer or 0")
		}
		src := lhs.Cells()
		cells := make([]*Cell, 0, len(src)*n)
		for range n {
			for _, c := range src {
				cells = append(cells, NewCell(c.Load().Copy()))
			}
		}
		return NewArrayCells(cells), nil
	default:
		return NewVoid(), newError("Valid left operand types for '*' are Array, String, and Numeric only")
	}
}

// divide follows IEEE 754: x/0 yields an infinity or NaN.
func divide(lhs, rhs Value) (Value, error) {
	if lhs.Kind() != ValueNumeric || rhs.Kind() != ValueNumeric {
		return NewVoid(), newError("Division may only be done between Numeric types")
	}
	return NewNumeric(lhs.Number() / rhs.Number()), nil
}

func power(lhs, rhs Value) (Value, error) {
	if lhs.Kind() != ValueNumeric || rhs.Kind() != ValueNumeric {
		return NewVoid(), newError("Exponentiation may only be done between Numeric types")
	}
	return NewNumeric(math.Pow(lhs.Number(), rhs.Number())), nil
}

func isComparison(k Kind) bool {
	switch k {
	case KindEq, KindNe, KindGt, KindGe, KindLt, KindLe:
		return true
	default:
		return false
	}
}

// compare never fails. Mismatched kinds are unequal and unordered; arrays
// order by length only.
func compare(op Kind, lhs, rhs Value) bool {
	switch op {
	case KindEq:
		return lhs.Equal(rhs)
	case KindNe:
		return !lhs.Equal(rhs)
	}

	c, ok := order(lhs, rhs)
	if !ok {
		return false
	}
	switch op {
	case KindGt:
		return c > 0
	case KindGe:
		return c >= 0
	case KindLt:
		return c < 0
	case KindLe:
		return c <= 0
	default:
		return false
	}
}

func order(lhs, rhs Value) (int, bool) {
	if lhs.Kind() != rhs.Kind() {
		return 0, false
	}
	switch lhs.Kind() {
	case ValueBool:
		return boolRank(lhs.Bool()) - boolRank(rhs.Bool()), true
	case ValueNumeric:
		a, b := lhs.Number(), rhs.Number()
		if math.IsNaN(a) || math.IsNaN(b) {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		default:
			return 0, true
		}
	case ValueString:
		return strings.Compare(lhs.Str(), rhs.Str()), true
	case ValueArray:
		return len(lhs.Cells()) - len(rhs.Cells()), true
	default:
		return 0, false
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
