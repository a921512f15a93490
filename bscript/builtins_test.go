package bscript

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinStr(t *testing.T) {
	v, _ := runScript(t, `
def f() { return 1; }
return str(true) + str(5) + str("cat") + str([1, 2]) + str(2 + 3) + str(f);
`)
	assert.Equal(t, "true5cat[1, 2]5<function>", v.Str())
}

func TestBuiltinMath(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{`num(" 12.5 ")`, 12.5},
		{"sqrt(16)", 4},
		{"abs(-3)", 3},
		{"round(2.5)", 3},
		{"round(-2.5)", -3},
		{"floor(-1.5)", -2},
		{"ceil(1.2)", 2},
		{"min(3, 1, 2)", 1},
		{"max([4, 9, 2])", 9},
		{"sum(1, 2, 3)", 6},
		{"sum([])", 0},
		{"sin(90)", 1},
		{"cos(0)", 1},
		{"atan2(1, 1)", 45},
	}
	for _, tc := range cases {
		v, err := evalExpr(t, tc.src)
		require.NoError(t, err, tc.src)
		assert.InDelta(t, tc.want, v.Number(), 1e-9, tc.src)
	}

	v, err := evalExpr(t, "tan(45)")
	require.NoError(t, err)
	assert.InDelta(t, 1, v.Number(), 1e-9)
}

func TestBuiltinErrors(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`num("abc")`, "num() cannot convert 'abc' to a number"},
		{"num(1)", "Argument 1 of num() must be String, got Numeric"},
		{"sqrt(-1)", "Cannot take sqrt of negative value"},
		{"abs()", "abs() expects 1 arguments, 0 passed"},
		{"min()", "min() requires at least one value"},
		{`max(1, "2")`, "Arguments to max() must all be Numeric"},
		{"str(1, 2)", "str() takes 1 argument"},
		{"random(1)", "random() expects 2 arguments, 1 passed"},
		{"sleep(0)", "sleep() must be given a positive value"},
		{`error("custom " + 7)`, "custom 7"},
	}
	for _, tc := range cases {
		_, err := evalExpr(t, tc.src)
		require.Error(t, err, tc.src)
		assert.Equal(t, tc.want, rootError(t, err).Message, tc.src)
	}
}

func TestBuiltinRandom(t *testing.T) {
	engine := newTestEngine(Config{RandomSource: func() float64 { return 0.25 }})
	v, err := runOn(t, engine, engine.NewTable(), "return [random(0, 8), random(10, 2)];")
	require.NoError(t, err)
	assert.Equal(t, "[2, 4]", v.String())
}

func TestBuiltinPrint(t *testing.T) {
	var out bytes.Buffer
	engine := newTestEngine(Config{Stdout: &out})
	_, err := runOn(t, engine, engine.NewTable(), `print("a", 1, [true]); print();`)
	require.NoError(t, err)
	assert.Equal(t, "a1[true]\n\n", out.String())
}

func TestBuiltinLogging(t *testing.T) {
	var logs bytes.Buffer
	handler := slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})
	engine := newTestEngine(Config{LogHandler: handler})
	_, err := runOn(t, engine, engine.NewTable(), `loginfo("hello ", 3); logdebug("dbg"); logerror("bad");`)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	var scriptLines []string
	for _, line := range lines {
		if strings.Contains(line, "source=script") {
			scriptLines = append(scriptLines, line)
		}
	}
	require.Len(t, scriptLines, 3)
	assert.Contains(t, scriptLines[0], `level=INFO msg="hello 3"`)
	assert.Contains(t, scriptLines[1], "level=DEBUG msg=dbg")
	assert.Contains(t, scriptLines[2], "level=ERROR msg=bad")
}

func TestExpiredReferenceLogsWarning(t *testing.T) {
	var logs bytes.Buffer
	engine := newTestEngine(Config{LogHandler: slog.NewTextHandler(&logs, nil)})
	_, err := runOn(t, engine, engine.NewTable(), "r = 0; if (true) { t = 5; r = &t; } x = r;")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "read of expired reference")
	assert.Contains(t, logs.String(), "name=r")
}

func TestBuiltinTime(t *testing.T) {
	v, err := evalExpr(t, "time()")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v.Number(), 0.0)
	assert.False(t, math.IsNaN(v.Number()))
}

func TestBuiltinSleep(t *testing.T) {
	v, _ := runScript(t, "sleep(1); return 1;")
	assert.Equal(t, 1.0, v.Number())
}

func TestAddBuiltinsOnBareTable(t *testing.T) {
	table := NewSymbolTable()
	AddBuiltins(table)
	var out bytes.Buffer
	table.SetOutput(&out)

	root, err := Parse(`print("hi");`)
	require.NoError(t, err)
	_, _, err = Run(root, table)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.String())
	assert.Contains(t, table.Names(), "sqrt")
}

func TestEngineWithoutBuiltins(t *testing.T) {
	engine := NewEngine(Config{LogHandler: slog.DiscardHandler})
	_, err := runOn(t, engine, engine.NewTable(), "print(1);")
	require.Error(t, err)
	assert.Equal(t, "Cannot access undefined identifier: 'print'", rootError(t, err).Message)
}

func TestBuiltinRun(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"returns value", `return run("return 1 + 2;", false);`, "3"},
		{"no return", `return run("x = 1;", false);`, "<void>"},
		{"sees globals", `g = 4; return run("return g * 2;", false);`, "8"},
		{"calls caller functions", `def f() { return 7; } return run("return f();", false);`, "7"},
		{"globals are copies", `x = [1]; run("x[0] = 5; y = 2;", false); return x;`, "[1]"},
		{"exit ends only the child", `run("exit();", false); return 2;`, "2"},
		{"background reports true", `return run("x = 1;", true);`, "true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, table := runScript(t, tc.src)
			table.Wait()
			assert.Equal(t, tc.want, v.String())
		})
	}
}

func TestBuiltinRunErrors(t *testing.T) {
	err := runScriptErr(t, `run("x = ;", false);`)
	assert.Equal(t, "Syntax error in script passed to run()", rootError(t, err).Message)
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)

	err = runScriptErr(t, `run("error(\"bad\");", false);`)
	assert.Equal(t, "Error in script passed to run(): bad (1:1)", rootError(t, err).Message)

	err = runScriptErr(t, `run(1, false);`)
	assert.Equal(t, "Argument 1 of run() must be String, got Numeric", rootError(t, err).Message)

	engine := newTestEngine(Config{RecursionLimit: 20})
	_, err = runOn(t, engine, engine.NewTable(), `def again() { return run("return again();", false); } again();`)
	require.ErrorIs(t, err, ErrRecursionDepth)
}

func TestBuiltinRunBackground(t *testing.T) {
	var out bytes.Buffer
	engine := newTestEngine(Config{Stdout: &out})
	table := engine.NewTable()

	_, err := runOn(t, engine, table, `
x = [1];
r = &x;
run("x[0] = 9; r = 3; print(\"bg \", x, \" \", r);", true);
print("fg");
`)
	require.NoError(t, err)
	table.Wait()
	assert.Contains(t, out.String(), "fg\n")
	assert.Contains(t, out.String(), "bg [9] 3\n")

	v, err := runOn(t, engine, table, "return x;")
	require.NoError(t, err)
	assert.Equal(t, "[1]", v.String())
}

func TestBuiltinRunBackgroundLogsFailure(t *testing.T) {
	var logs bytes.Buffer
	engine := newTestEngine(Config{LogHandler: slog.NewTextHandler(&logs, nil)})
	table := engine.NewTable()
	_, err := runOn(t, engine, table, `run("error(\"late\");", true);`)
	require.NoError(t, err)
	table.Wait()
	assert.Contains(t, logs.String(), "background script failed")
	assert.Contains(t, logs.String(), "late")
}

func TestBuiltinRunBackgroundDiesWithCaller(t *testing.T) {
	engine := newTestEngine(Config{})
	table := engine.NewTable()
	_, err := runOn(t, engine, table, `
def spin() { run("while (true) { sleep(5); }", true); return 0; }
spin();
run("run(\"while (true) { sleep(5); }\", true);", false);
`)
	require.NoError(t, err)

	table.Kill()
	done := make(chan struct{})
	go func() {
		table.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("background scripts survived kill")
	}
}
