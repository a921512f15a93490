package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	s, err := newSession(&runOptions{}, io.Discard)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func newTestModel(t *testing.T) replModel {
	t.Helper()
	return newREPLModel(t.Context(), newTestSession(t))
}

func TestUpdateQuitCommandReturnsQuit(t *testing.T) {
	m := newTestModel(t)
	m.textInput.SetValue(":quit")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}

	if !rm.quitting {
		t.Fatalf("quitting flag not set")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after quit command")
	}
	if cmd == nil {
		t.Fatalf("expected tea.Quit command")
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(tea.QuitMsg); !ok {
			t.Fatalf("expected QuitMsg, got %T", msg)
		}
	}
}

func TestUpdateNonQuitCommandDoesNotReturnCmd(t *testing.T) {
	m := newTestModel(t)
	m.textInput.SetValue(":help")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}

	if cmd != nil {
		t.Fatalf("expected no command for non-quit input")
	}
	if rm.quitting {
		t.Fatalf("quitting should remain false")
	}
	if !rm.showHelp {
		t.Fatalf("help toggle should be enabled")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after command")
	}
}

func TestUpdateEnterRunsAsynchronously(t *testing.T) {
	m := newTestModel(t)
	m.textInput.SetValue("1 + 2")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm := model.(replModel)
	if !rm.running {
		t.Fatalf("model should be running after enter")
	}
	if cmd == nil {
		t.Fatalf("expected evaluation command")
	}

	msg, ok := cmd().(evalResultMsg)
	if !ok {
		t.Fatalf("expected evalResultMsg")
	}
	model, _ = rm.Update(msg)
	rm = model.(replModel)
	if rm.running {
		t.Fatalf("running flag not cleared")
	}
	if len(rm.history) != 1 || rm.history[0].output != "3" || rm.history[0].isErr {
		t.Fatalf("unexpected history: %+v", rm.history)
	}
}

func TestUpdateCtrlCWhileRunningKills(t *testing.T) {
	m := newTestModel(t)
	m.running = true

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	rm := model.(replModel)
	if cmd != nil {
		t.Fatalf("ctrl+c while running should not quit")
	}
	if rm.quitting {
		t.Fatalf("quitting should remain false")
	}
	if !rm.session.table.Killed() {
		t.Fatalf("table should be killed")
	}
}

func TestEvaluateAssignmentStoresVariable(t *testing.T) {
	s := newTestSession(t)

	output, isErr := s.evaluate(t.Context(), "score = 42")
	if isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}

	c, ok := s.table.Get("score", false)
	if !ok {
		t.Fatalf("expected score to be stored in the session table")
	}
	if got := c.Load().Number(); got != 42 {
		t.Fatalf("unexpected score value: %v", got)
	}
}

func TestEvaluateEqualityDoesNotOverwriteVariable(t *testing.T) {
	s := newTestSession(t)
	if _, isErr := s.evaluate(t.Context(), "a = 5;"); isErr {
		t.Fatalf("assignment failed")
	}

	output, isErr := s.evaluate(t.Context(), "a == 5")
	if isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}
	if output != "true" {
		t.Fatalf("unexpected output: %q", output)
	}
	if got := s.describe("a"); got != "5" {
		t.Fatalf("variable a was clobbered by equality expression: %s", got)
	}
}

func TestEvaluateFunctionsPersist(t *testing.T) {
	s := newTestSession(t)
	if output, isErr := s.evaluate(t.Context(), "def twice(n) { return n * 2; }"); isErr {
		t.Fatalf("definition failed: %s", output)
	}

	output, isErr := s.evaluate(t.Context(), "twice(21)")
	if isErr || output != "42" {
		t.Fatalf("unexpected result %q (err=%v)", output, isErr)
	}
}

func TestEvaluateJoinsPrintedOutput(t *testing.T) {
	s := newTestSession(t)

	output, isErr := s.evaluate(t.Context(), `print("hi"); return 7;`)
	if isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}
	if output != "hi\n7" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEvaluateReportsErrorsAndRecovers(t *testing.T) {
	s := newTestSession(t)

	output, isErr := s.evaluate(t.Context(), "missing + 1")
	if !isErr {
		t.Fatalf("expected error for undefined identifier")
	}
	if !strings.Contains(output, "missing") {
		t.Fatalf("unexpected error text: %q", output)
	}

	s.table.Kill()
	output, isErr = s.evaluate(t.Context(), "1 + 1")
	if isErr || output != "2" {
		t.Fatalf("session did not revive after kill: %q", output)
	}
}

func TestSessionCommands(t *testing.T) {
	s := newTestSession(t)

	if output, _, _ := runSessionCommand(s, ":vars"); output != "No variables defined" {
		t.Fatalf("fresh session should have no variables, got %q", output)
	}

	s.evaluate(t.Context(), "x = [1, 2];")
	output, isErr, quit := runSessionCommand(s, ":vars")
	if isErr || quit || output != "x = [1, 2]" {
		t.Fatalf("unexpected :vars output %q", output)
	}

	if output, _, _ := runSessionCommand(s, ":reset"); output != "Environment reset" {
		t.Fatalf("unexpected :reset output %q", output)
	}
	if _, ok := s.table.Get("x", false); ok {
		t.Fatalf("reset should drop user bindings")
	}
	if _, ok := s.table.Get("print", false); !ok {
		t.Fatalf("reset should keep builtins")
	}

	if _, isErr, _ := runSessionCommand(s, ":bogus"); !isErr {
		t.Fatalf("unknown command should be an error")
	}
}

func TestEvaluateShowsBackgroundOutputLater(t *testing.T) {
	s := newTestSession(t)

	first, isErr := s.evaluate(t.Context(), `run("print(\"bg\");", true)`)
	if isErr || !strings.HasSuffix(first, "true") {
		t.Fatalf("unexpected result %q (err=%v)", first, isErr)
	}
	s.table.Wait()

	second, isErr := s.evaluate(t.Context(), "1")
	if isErr || !strings.HasSuffix(second, "1") {
		t.Fatalf("unexpected result %q (err=%v)", second, isErr)
	}
	if got := strings.Count(first+"\n"+second, "bg"); got != 1 {
		t.Fatalf("background output shown %d times: %q / %q", got, first, second)
	}
}

func TestCompletionsIncludeKeywordsAndBindings(t *testing.T) {
	s := newTestSession(t)
	s.evaluate(t.Context(), "width = 3;")

	got := s.completions("w")
	if strings.Join(got, ",") != "while,width" {
		t.Fatalf("unexpected completions: %v", got)
	}
}

func TestLineREPL(t *testing.T) {
	s := newTestSession(t)
	in := strings.NewReader("x = 2;\nx * 21\n\nnope(\n:quit\nx\n")
	var out bytes.Buffer

	if err := runLineREPL(t.Context(), s, in, &out); err != nil {
		t.Fatalf("line repl failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "bscript> 42\n") {
		t.Fatalf("missing result in output: %q", text)
	}
	if !strings.Contains(text, "error: syntax error") {
		t.Fatalf("missing syntax error in output: %q", text)
	}
	if strings.Count(text, "bscript> ") != 5 {
		t.Fatalf("input after :quit should not be read: %q", text)
	}
}

func TestREPLCommandUsesLineModeForPipes(t *testing.T) {
	out, _, err := runApp(t, "y = 5;\ny + 1\n", "repl")
	if err != nil {
		t.Fatalf("repl failed: %v", err)
	}
	if !strings.Contains(out, "6\n") {
		t.Fatalf("unexpected repl output: %q", out)
	}
}
