package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/mgomes/bscript/bscript"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

var languageKeywords = []string{
	"def", "if", "elif", "else", "while", "for", "in", "return",
	"and", "or", "not", "true", "false",
}

// session is one interactive symbol table plus the engine that feeds it.
// Every input runs against the same table so definitions persist.
type session struct {
	opts     *runOptions
	engine   *bscript.Engine
	table    *bscript.SymbolTable
	out      *outputBuffer
	builtins map[string]struct{}
}

// outputBuffer collects print() output, including output from background
// scripts still running after an input finished.
type outputBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// take returns everything written so far and empties the buffer.
func (b *outputBuffer) take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

func newSession(opts *runOptions, logs io.Writer) (*session, error) {
	out := &outputBuffer{}
	s := &session{opts: opts, out: out, engine: opts.newEngine(out, logs)}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// reset replaces the table with a fresh one holding only builtins and the
// configured globals. Background scripts of the old table are killed.
func (s *session) reset() error {
	table, err := s.opts.newTable(s.engine)
	if err != nil {
		return err
	}
	if s.table != nil {
		s.table.Kill()
	}
	s.table = table
	s.builtins = make(map[string]struct{})
	for _, name := range s.engine.NewTable().Names() {
		s.builtins[name] = struct{}{}
	}
	return nil
}

// compile tries the input as statements, then as a bare expression, then as
// a statement missing its trailing semicolon.
func (s *session) compile(input string) (*bscript.Script, error) {
	script, err := s.engine.Compile(input)
	if err == nil {
		return script, nil
	}
	if expr, exprErr := s.engine.CompileExpression(input); exprErr == nil {
		return expr, nil
	}
	if !strings.HasSuffix(input, ";") && !strings.HasSuffix(input, "}") {
		if fixed, fixErr := s.engine.Compile(input + ";"); fixErr == nil {
			return fixed, nil
		}
	}
	return nil, err
}

// evaluate runs one input and returns what to show: printed output followed
// by the resulting value, or the error text.
func (s *session) evaluate(ctx context.Context, input string) (string, bool) {
	s.table.Revive()

	script, err := s.compile(input)
	if err != nil {
		return err.Error(), true
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	result, returned, err := script.Run(ctx, s.table)

	var parts []string
	if printed := strings.TrimRight(s.out.take(), "\n"); printed != "" {
		parts = append(parts, printed)
	}
	if err != nil {
		parts = append(parts, err.Error())
		return strings.Join(parts, "\n"), true
	}
	if returned && !result.IsVoid() {
		parts = append(parts, result.String())
	}
	return strings.Join(parts, "\n"), false
}

// variables lists user bindings, skipping untouched builtins.
func (s *session) variables() []string {
	var names []string
	for _, name := range s.table.Names() {
		if _, ok := s.builtins[name]; ok {
			if c, found := s.table.Get(name, false); found && c.Load().Kind() == bscript.ValueFunction && c.Load().Function().IsNative() {
				continue
			}
		}
		names = append(names, name)
	}
	return names
}

func (s *session) describe(name string) string {
	c, ok := s.table.Get(name, false)
	if !ok {
		return "<undefined>"
	}
	v, err := c.Get()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return v.String()
}

func (s *session) completions(prefix string) []string {
	var out []string
	add := func(candidates []string) {
		for _, c := range candidates {
			if strings.HasPrefix(c, prefix) && !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	add(languageKeywords)
	add(s.table.Names())
	sort.Strings(out)
	return out
}

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

// evalResultMsg carries a finished evaluation back to the model.
type evalResultMsg struct {
	input  string
	output string
	isErr  bool
}

type replModel struct {
	textInput   textinput.Model
	session     *session
	ctx         context.Context
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	showVars    bool
	running     bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	Tab   key.Binding
	CtrlV key.Binding
	CtrlK key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous input"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next input"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "kill script or quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlV: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "toggle vars"),
	),
	CtrlK: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

func newREPLModel(ctx context.Context, s *session) replModel {
	ti := textinput.New()
	ti.Placeholder = "statement or expression..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "bscript> "

	return replModel{
		textInput:  ti,
		session:    s,
		ctx:        ctx,
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 12
		m.initialized = true
		return m, nil

	case evalResultMsg:
		m.running = false
		m.history = append(m.history, historyEntry(msg))
		return m, nil

	case tea.KeyMsg:
		if m.running {
			// only cancellation is accepted while a script runs
			if key.Matches(msg, keys.CtrlC) {
				m.session.table.Kill()
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = nil
			return m, nil

		case key.Matches(msg, keys.CtrlV):
			m.showVars = !m.showVars
			return m, nil

		case key.Matches(msg, keys.CtrlK):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.textInput.SetValue("")
			m.historyIdx = -1

			if strings.HasPrefix(input, ":") {
				return m.handleCommand(input)
			}

			m.cmdHistory = append(m.cmdHistory, input)
			m.running = true
			return m, m.evalCmd(input)
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// evalCmd runs the input off the UI goroutine so ctrl+c can kill it.
func (m replModel) evalCmd(input string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		output, isErr := s.evaluate(ctx, input)
		return evalResultMsg{input: input, output: output, isErr: isErr}
	}
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	output, isErr, quit := runSessionCommand(m.session, input)
	switch {
	case quit:
		m.quitting = true
		return m, tea.Quit
	case input == ":help" || input == ":h":
		m.showHelp = !m.showHelp
	case input == ":vars" || input == ":v":
		m.showVars = !m.showVars
	case input == ":clear" || input == ":c":
		m.history = nil
	default:
		m.history = append(m.history, historyEntry{input: input, output: output, isErr: isErr})
	}
	return m, nil
}

// runSessionCommand executes a colon command shared by both REPL modes.
func runSessionCommand(s *session, input string) (output string, isErr, quit bool) {
	switch strings.Fields(input)[0] {
	case ":quit", ":q":
		return "", false, true
	case ":reset", ":r":
		if err := s.reset(); err != nil {
			return err.Error(), true, false
		}
		return "Environment reset", false, false
	case ":help", ":h":
		return helpText(), false, false
	case ":vars", ":v":
		var lines []string
		for _, name := range s.variables() {
			lines = append(lines, fmt.Sprintf("%s = %s", name, s.describe(name)))
		}
		if len(lines) == 0 {
			return "No variables defined", false, false
		}
		return strings.Join(lines, "\n"), false, false
	case ":clear", ":c":
		return "", false, false
	default:
		return fmt.Sprintf("Unknown command: %s", input), true, false
	}
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	words := strings.FieldsFunc(input, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if len(words) == 0 || !strings.HasSuffix(input, words[len(words)-1]) {
		return m
	}
	lastWord := words[len(words)-1]

	completions := m.session.completions(lastWord)
	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}
	return m
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("bscript REPL") + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8
	if m.showHelp {
		reservedLines += 12
	}
	vars := m.session.variables()
	if m.showVars {
		reservedLines += len(vars) + 3
	}
	availableHeight := max(m.height-reservedLines, 1)

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = len(m.history) - availableHeight
	}

	for _, entry := range m.history[historyStart:] {
		if entry.input != "" {
			b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
		}
		switch {
		case entry.isErr:
			b.WriteString("  " + errorStyle.Render("✗ "+entry.output) + "\n")
		case entry.output != "":
			b.WriteString("  " + resultStyle.Render("→ "+entry.output) + "\n")
		}
		b.WriteString("\n")
	}

	if m.showVars {
		b.WriteString(renderVarsPanel(m.session, vars))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	if m.running {
		b.WriteString(mutedStyle.Render("running... (ctrl+c to kill)") + "\n\n")
	} else {
		b.WriteString(m.textInput.View() + "\n\n")
	}

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+v") + helpDescStyle.Render(" vars  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderVarsPanel(s *session, names []string) string {
	if len(names) == 0 {
		return borderStyle.Render(mutedStyle.Render("No variables defined"))
	}

	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Variables")}
	varNameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s = %s", varNameStyle.Render(name), s.describe(name)))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

var helpEntries = []struct {
	key  string
	desc string
}{
	{"↑/↓", "Navigate input history"},
	{"Tab", "Autocomplete"},
	{"Enter", "Run statements or an expression"},
	{"ctrl+c", "Kill a running script"},
	{":help", "Toggle this help"},
	{":vars", "Toggle variables panel"},
	{":clear", "Clear history"},
	{":reset", "Reset environment"},
	{":quit", "Exit REPL"},
}

func renderHelpPanel() string {
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help")}
	for _, h := range helpEntries {
		lines = append(lines, fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-8s", h.key)),
			helpDescStyle.Render(h.desc)))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func helpText() string {
	lines := make([]string, 0, len(helpEntries))
	for _, h := range helpEntries {
		lines = append(lines, fmt.Sprintf("%-8s %s", h.key, h.desc))
	}
	return strings.Join(lines, "\n")
}

func (a *app) replAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(opts, a.stderr)
	if err != nil {
		return err
	}

	if f, ok := a.stdin.(*os.File); ok && isTerminal(f) {
		p := tea.NewProgram(newREPLModel(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		return err
	}
	return runLineREPL(ctx, s, a.stdin, a.stdout)
}

// runLineREPL serves piped input one line at a time.
func runLineREPL(ctx context.Context, s *session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "bscript> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		var (
			output string
			isErr  bool
		)
		if strings.HasPrefix(input, ":") {
			var quit bool
			output, isErr, quit = runSessionCommand(s, input)
			if quit {
				return nil
			}
		} else {
			output, isErr = s.evaluate(ctx, input)
		}

		switch {
		case isErr:
			fmt.Fprintln(out, "error: "+output)
		case output != "":
			fmt.Fprintln(out, output)
		}
	}
}
