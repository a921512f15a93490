package bscript

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// AddBuiltins registers the standard library in t's global frame.
func AddBuiltins(t *SymbolTable) {
	for name, fn := range builtinFuncs() {
		t.Register(name, fn)
	}
}

func builtinFuncs() map[string]NativeFunc {
	return map[string]NativeFunc{
		"print":    builtinPrint,
		"loginfo":  logAt("info"),
		"logdebug": logAt("debug"),
		"logerror": logAt("error"),
		"random":   builtinRandom,
		"sleep":    builtinSleep,
		"time":     builtinTime,
		"run":      builtinRun,
		"exit":     builtinExit,
		"error":    builtinError,
		"str":      builtinStr,
		"num":      builtinNum,
		"sqrt":     builtinSqrt,
		"abs":      unaryMath("abs", math.Abs),
		"round":    unaryMath("round", math.Round),
		"floor":    unaryMath("floor", math.Floor),
		"ceil":     unaryMath("ceil", math.Ceil),
		"sin":      unaryMath("sin", degreesSin),
		"cos":      unaryMath("cos", degreesCos),
		"tan":      unaryMath("tan", degreesTan),
		"atan2":    builtinAtan2,
		"min":      reduceNumeric("min", math.Min),
		"max":      reduceNumeric("max", math.Max),
		"sum":      reduceNumeric("sum", addNumbers),
	}
}

// expectArgs checks arity and argument kinds for a fixed-signature builtin.
func expectArgs(name string, args []Value, kinds ...ValueKind) error {
	if len(args) != len(kinds) {
		return newError("%s() expects %d arguments, %d passed", name, len(kinds), len(args))
	}
	for i, k := range kinds {
		if args[i].Kind() != k {
			return newError("Argument %d of %s() must be %s, got %s", i+1, name, k, args[i].Kind())
		}
	}
	return nil
}

func joinArgs(args []Value) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.String())
	}
	return b.String()
}

func builtinPrint(t *SymbolTable, args []Value) (Value, error) {
	if _, err := fmt.Fprintln(t.out, joinArgs(args)); err != nil {
		return NewVoid(), err
	}
	return NewVoid(), nil
}

func logAt(level string) NativeFunc {
	return func(t *SymbolTable, args []Value) (Value, error) {
		msg := joinArgs(args)
		switch level {
		case "debug":
			t.logger.Debug(msg, "source", "script")
		case "error":
			t.logger.Error(msg, "source", "script")
		default:
			t.logger.Info(msg, "source", "script")
		}
		return NewVoid(), nil
	}
}

// builtinRandom returns a uniform value between its two bounds in either
// order.
func builtinRandom(t *SymbolTable, args []Value) (Value, error) {
	if err := expectArgs("random", args, ValueNumeric, ValueNumeric); err != nil {
		return NewVoid(), err
	}
	lo, hi := args[0].Number(), args[1].Number()
	if lo > hi {
		lo, hi = hi, lo
	}
	return NewNumeric(lo + t.random()*(hi-lo)), nil
}

func builtinSleep(t *SymbolTable, args []Value) (Value, error) {
	if err := expectArgs("sleep", args, ValueNumeric); err != nil {
		return NewVoid(), err
	}
	ms := args[0].Number()
	if ms <= 0 {
		return NewVoid(), newError("sleep() must be given a positive value")
	}
	if err := t.waitFor(time.Duration(ms * float64(time.Millisecond))); err != nil {
		return NewVoid(), err
	}
	return NewVoid(), nil
}

// builtinTime reports milliseconds since the table was created.
func builtinTime(t *SymbolTable, args []Value) (Value, error) {
	if len(args) != 0 {
		return NewVoid(), newError("time() takes 0 arguments")
	}
	return NewNumeric(float64(time.Since(t.start).Milliseconds())), nil
}

// builtinRun compiles and runs another script against a copy of the
// caller's globals. In the background it runs on its own goroutine, dies
// with the caller and reports true at once; otherwise its return value is
// passed back.
func builtinRun(t *SymbolTable, args []Value) (Value, error) {
	if err := expectArgs("run", args, ValueString, ValueBool); err != nil {
		return NewVoid(), err
	}
	root, err := Parse(args[0].Str())
	if err != nil {
		return NewVoid(), &Error{Message: "Syntax error in script passed to run()", err: err}
	}

	if args[1].Bool() {
		host := t.host()
		child := t.spawn(true)
		undo := host.adopt(child)
		host.running.Add(1)
		go func() {
			defer host.running.Done()
			defer undo()
			_, _, err := Run(root, child)
			child.Wait()
			switch {
			case errors.Is(err, ErrKilled):
				t.logger.Debug("background script killed")
			case err != nil:
				t.logger.Error("background script failed", "error", err)
			}
		}()
		return NewBool(true), nil
	}

	child := t.spawn(false)
	undo := t.adopt(child)
	defer undo()
	v, _, err := Run(root, child)
	var se *Error
	switch {
	case err == nil:
		return v, nil
	case isControlSignal(err):
		return NewVoid(), err
	case errors.As(err, &se):
		msg := "Error in script passed to run(): " + se.Root().Message
		if pos := se.Root().Pos(); pos.Line > 0 {
			msg += fmt.Sprintf(" (%s)", pos)
		}
		return NewVoid(), &Error{Message: msg, err: err}
	default:
		return NewVoid(), err
	}
}

func builtinExit(_ *SymbolTable, args []Value) (Value, error) {
	if len(args) != 0 {
		return NewVoid(), newError("exit() takes 0 arguments")
	}
	return NewVoid(), errExit
}

func builtinError(_ *SymbolTable, args []Value) (Value, error) {
	if err := expectArgs("error", args, ValueString); err != nil {
		return NewVoid(), err
	}
	return NewVoid(), newError("%s", args[0].Str())
}

func builtinStr(_ *SymbolTable, args []Value) (Value, error) {
	if len(args) != 1 {
		return NewVoid(), newError("str() takes 1 argument")
	}
	return NewString(args[0].String()), nil
}

func builtinNum(_ *SymbolTable, args []Value) (Value, error) {
	if err := expectArgs("num", args, ValueString); err != nil {
		return NewVoid(), err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(args[0].Str()), 64)
	if err != nil {
		return NewVoid(), newError("num() cannot convert '%s' to a number", args[0].Str())
	}
	return NewNumeric(f), nil
}
