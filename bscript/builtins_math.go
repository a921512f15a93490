package bscript

import "math"

const degToRad = math.Pi / 180

func unaryMath(name string, fn func(float64) float64) NativeFunc {
	return func(_ *SymbolTable, args []Value) (Value, error) {
		if err := expectArgs(name, args, ValueNumeric); err != nil {
			return NewVoid(), err
		}
		return NewNumeric(fn(args[0].Number())), nil
	}
}

func degreesSin(f float64) float64 { return math.Sin(f * degToRad) }
func degreesCos(f float64) float64 { return math.Cos(f * degToRad) }
func degreesTan(f float64) float64 { return math.Tan(f * degToRad) }

func builtinSqrt(_ *SymbolTable, args []Value) (Value, error) {
	if err := expectArgs("sqrt", args, ValueNumeric); err != nil {
		return NewVoid(), err
	}
	n := args[0].Number()
	if n < 0 {
		return NewVoid(), newError("Cannot take sqrt of negative value")
	}
	return NewNumeric(math.Sqrt(n)), nil
}

// builtinAtan2 returns the angle of (x, y) = (args[1], args[0]) in degrees.
func builtinAtan2(_ *SymbolTable, args []Value) (Value, error) {
	if err := expectArgs("atan2", args, ValueNumeric, ValueNumeric); err != nil {
		return NewVoid(), err
	}
	return NewNumeric(math.Atan2(args[0].Number(), args[1].Number()) / degToRad), nil
}

// reduceNumeric folds either its arguments or, when given a single array,
// the array's elements.
func reduceNumeric(name string, step func(acc, v float64) float64) NativeFunc {
	return func(_ *SymbolTable, args []Value) (Value, error) {
		nums := args
		if len(args) == 1 && args[0].Kind() == ValueArray {
			cells := args[0].Cells()
			nums = make([]Value, len(cells))
			for i, c := range cells {
				v, err := c.Get()
				if err != nil {
					return NewVoid(), newError("%s", err.Error())
				}
				nums[i] = v
			}
		}
		if len(nums) == 0 {
			if name == "sum" {
				return NewNumeric(0), nil
			}
			return NewVoid(), newError("%s() requires at least one value", name)
		}

		var acc float64
		for i, v := range nums {
			if v.Kind() != ValueNumeric {
				return NewVoid(), newError("Arguments to %s() must all be Numeric", name)
			}
			if i == 0 {
				acc = v.Number()
				continue
			}
			acc = step(acc, v.Number())
		}
		return NewNumeric(acc), nil
	}
}

func addNumbers(acc, v float64) float64 { return acc + v }
