package bscript

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultRecursionLimit = 256
	// maxNodeDepth bounds how deeply evaluation may nest, counting
	// expressions, statements and lvalue chains across all active calls.
	maxNodeDepth = 10000
)

// SymbolTable is the scope stack of one script run. Frame 0 holds globals.
// The kill flag may be set from any goroutine; everything else belongs to the
// goroutine evaluating the script.
type SymbolTable struct {
	frames []map[string]*Cell

	killed   atomic.Bool
	wakeMu   sync.Mutex
	wake     chan struct{}
	children map[*SymbolTable]struct{}
	running  sync.WaitGroup
	// parent is set on tables of synchronous run() calls; background
	// scripts they start belong to the parent.
	parent *SymbolTable

	depth          int
	nodeDepth      int
	recursionLimit int

	logger *slog.Logger
	out    *syncWriter
	random func() float64
	start  time.Time
}

// syncWriter serializes print() output from a table and the background
// tables it starts.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		frames:         []map[string]*Cell{{}},
		recursionLimit: defaultRecursionLimit,
		logger:         slog.New(slog.DiscardHandler),
		out:            &syncWriter{w: os.Stdout},
		random:         rand.Float64,
		start:          time.Now(),
		wake:           make(chan struct{}),
	}
}

func (t *SymbolTable) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

func (t *SymbolTable) Logger() *slog.Logger { return t.logger }

// SetOutput redirects print().
func (t *SymbolTable) SetOutput(w io.Writer) {
	if w != nil {
		t.out = &syncWriter{w: w}
	}
}

// SetRecursionLimit bounds nested function calls. Zero or less disables the
// limit.
func (t *SymbolTable) SetRecursionLimit(n int) { t.recursionLimit = n }

func (t *SymbolTable) PushFrame() {
	t.frames = append(t.frames, map[string]*Cell{})
}

// PopFrame drops the innermost frame, releasing its bindings. The global
// frame is never popped.
func (t *SymbolTable) PopFrame() {
	if len(t.frames) <= 1 {
		return
	}
	top := t.frames[len(t.frames)-1]
	for _, c := range top {
		c.release()
	}
	t.frames[len(t.frames)-1] = nil
	t.frames = t.frames[:len(t.frames)-1]
}

// bind makes name in frame refer to c, releasing any cell it replaces.
func bind(frame map[string]*Cell, name string, c *Cell) {
	c.retain()
	if old, ok := frame[name]; ok {
		old.release()
	}
	frame[name] = c
}

// WithFrame runs fn inside a new frame and pops it however fn returns.
func (t *SymbolTable) WithFrame(fn func() error) error {
	t.PushFrame()
	defer t.PopFrame()
	return fn()
}

// Depth reports the number of frames, including the global frame.
func (t *SymbolTable) Depth() int { return len(t.frames) }

// Get searches frames innermost first. When the name is missing and create
// is set, a Void binding is made in the innermost frame.
func (t *SymbolTable) Get(name string, create bool) (*Cell, bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if c, ok := t.frames[i][name]; ok {
			return c, true
		}
	}
	if !create {
		return nil, false
	}
	c := NewCell(NewVoid())
	bind(t.frames[len(t.frames)-1], name, c)
	return c, true
}

// Set binds name to v. A fresh binding always lands in the innermost frame
// and shadows outer ones; otherwise an existing binding is written through.
func (t *SymbolTable) Set(name string, v Value, fresh bool) error {
	if !fresh {
		if c, ok := t.Get(name, false); ok {
			return c.Set(v)
		}
	}
	bind(t.frames[len(t.frames)-1], name, NewCell(v))
	return nil
}

// Bind makes name in the innermost frame an alias of cell.
func (t *SymbolTable) Bind(name string, cell *Cell) {
	bind(t.frames[len(t.frames)-1], name, cell)
}

// Register binds a native function in the global frame.
func (t *SymbolTable) Register(name string, fn NativeFunc) {
	bind(t.frames[0], name, NewCell(NewFunction(NewNative(name, fn))))
}

// Names lists every visible binding, sorted.
func (t *SymbolTable) Names() []string {
	seen := map[string]struct{}{}
	for _, frame := range t.frames {
		for name := range frame {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kill requests cooperative cancellation. The next evaluation step fails
// with ErrKilled.
func (t *SymbolTable) Kill() {
	t.wakeMu.Lock()
	defer t.wakeMu.Unlock()
	if t.killed.CompareAndSwap(false, true) {
		close(t.wake)
		t.logger.Info("script kill requested")
		for child := range t.children {
			child.Kill()
		}
	}
}

func (t *SymbolTable) Killed() bool { return t.killed.Load() }

// Revive clears the kill flag so the table can run another script.
func (t *SymbolTable) Revive() {
	t.wakeMu.Lock()
	defer t.wakeMu.Unlock()
	if t.killed.CompareAndSwap(true, false) {
		t.wake = make(chan struct{})
	}
}

// waitFor sleeps for d or until the table is killed.
func (t *SymbolTable) waitFor(d time.Duration) error {
	t.wakeMu.Lock()
	wake := t.wake
	t.wakeMu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return t.check()
	case <-wake:
		return ErrKilled
	}
}

// Reset drops every frame except a fresh global frame and clears the kill
// flag.
func (t *SymbolTable) Reset() {
	for len(t.frames) > 1 {
		t.PopFrame()
	}
	for _, c := range t.frames[0] {
		c.release()
	}
	t.frames = []map[string]*Cell{{}}
	t.depth = 0
	t.nodeDepth = 0
	t.Revive()
}

func (t *SymbolTable) check() error {
	if t.killed.Load() {
		return ErrKilled
	}
	return nil
}

func (t *SymbolTable) enterCall(call *Node) error {
	if t.recursionLimit > 0 && t.depth >= t.recursionLimit {
		return &Error{
			Message: fmt.Sprintf("recursion depth exceeded (limit %d)", t.recursionLimit),
			Node:    call,
			err:     ErrRecursionDepth,
		}
	}
	t.depth++
	return nil
}

// enterNode counts one level of evaluation nesting at n.
func (t *SymbolTable) enterNode(n *Node) error {
	if t.nodeDepth >= maxNodeDepth {
		return &Error{
			Message: fmt.Sprintf("nesting too deep (limit %d)", maxNodeDepth),
			Node:    n,
			err:     ErrRecursionDepth,
		}
	}
	t.nodeDepth++
	return nil
}

func (t *SymbolTable) exitNode() {
	if t.nodeDepth > 0 {
		t.nodeDepth--
	}
}

// spawn builds the table for a script started by run(). Globals are copied
// into fresh cells. A background table also resolves references so it
// shares no cells with t; a synchronous one continues t's depth counters.
func (t *SymbolTable) spawn(background bool) *SymbolTable {
	child := NewSymbolTable()
	child.recursionLimit = t.recursionLimit
	child.logger = t.logger
	child.out = t.out
	child.random = t.random
	child.start = t.start
	if !background {
		child.parent = t.host()
		child.depth = t.depth
		child.nodeDepth = t.nodeDepth
	}
	for name, c := range t.frames[0] {
		v := c.Load()
		if background {
			v = detach(v, nil)
		} else {
			v = v.Copy()
		}
		bind(child.frames[0], name, NewCell(v))
	}
	return child
}

// adopt makes child die with t. The returned func undoes it.
func (t *SymbolTable) adopt(child *SymbolTable) func() {
	t.wakeMu.Lock()
	if t.killed.Load() {
		t.wakeMu.Unlock()
		child.Kill()
		return func() {}
	}
	if t.children == nil {
		t.children = make(map[*SymbolTable]struct{})
	}
	t.children[child] = struct{}{}
	t.wakeMu.Unlock()

	return func() {
		t.wakeMu.Lock()
		delete(t.children, child)
		t.wakeMu.Unlock()
	}
}

// host returns the table that tracks background scripts started from t.
func (t *SymbolTable) host() *SymbolTable {
	if t.parent != nil {
		return t.parent
	}
	return t
}

// Wait blocks until every background script started from t by run() has
// finished.
func (t *SymbolTable) Wait() {
	t.running.Wait()
}

func (t *SymbolTable) exitCall() {
	if t.depth > 0 {
		t.depth--
	}
}
