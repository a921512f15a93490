package bscript

import (
	"errors"
	"fmt"
	"strings"
)

const (
	errorFrameHead = 8
	errorFrameTail = 8

	calledFromHere = "Called from here"
)

var (
	// ErrKilled is returned once the symbol table's kill flag is observed.
	ErrKilled = errors.New("Script killed")
	// ErrRecursionDepth is the cause of the error raised when nested calls
	// exceed the configured recursion limit.
	ErrRecursionDepth = errors.New("recursion depth exceeded")

	errExit = errors.New("exit")
)

// Error is a script runtime error. Errors raised inside a function call are
// wrapped by one "Called from here" link per call site while unwinding, so
// Cause leads from the outermost call site to the root failure.
type Error struct {
	Message string
	Node    *Node
	Cause   *Error
	// Function names the callee for call-site links.
	Function string
	// Source, when set on the outermost link, enables a code frame.
	Source string

	err error
}

func newError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

func errorAt(n *Node, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Node: n}
}

// Pos returns the position of the node this link points at.
func (e *Error) Pos() Position {
	if e.Node == nil {
		return Position{}
	}
	return e.Node.Pos
}

// Root returns the innermost link: the error that started the unwind.
func (e *Error) Root() *Error {
	cur := e
	for cur.Cause != nil {
		cur = cur.Cause
	}
	return cur
}

// Chain lists links from outermost to innermost.
func (e *Error) Chain() []*Error {
	var out []*Error
	for cur := e; cur != nil; cur = cur.Cause {
		out = append(out, cur)
	}
	return out
}

func (e *Error) Error() string {
	root := e.Root()

	var b strings.Builder
	b.WriteString(root.Message)
	if pos := root.Pos(); pos.Line > 0 {
		fmt.Fprintf(&b, " (%s)", pos)
	}
	if frame := formatCodeFrame(e.Source, root.Pos()); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}

	// call sites, innermost first
	chain := e.Chain()
	sites := make([]*Error, 0, len(chain)-1)
	for i := len(chain) - 2; i >= 0; i-- {
		sites = append(sites, chain[i])
	}

	render := func(site *Error) {
		name := site.Function
		if name == "" {
			name = "<anonymous>"
		}
		if pos := site.Pos(); pos.Line > 0 {
			fmt.Fprintf(&b, "\n  at %s (%d:%d)", name, pos.Line, pos.Column)
		} else {
			fmt.Fprintf(&b, "\n  at %s", name)
		}
	}

	if len(sites) <= errorFrameHead+errorFrameTail {
		for _, s := range sites {
			render(s)
		}
		return b.String()
	}
	for _, s := range sites[:errorFrameHead] {
		render(s)
	}
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", len(sites)-errorFrameHead-errorFrameTail)
	for _, s := range sites[len(sites)-errorFrameTail:] {
		render(s)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.err
}

// InternalError reports a tree that does not match the grammar's shape. It
// indicates a parser and evaluator mismatch and is never wrapped.
type InternalError struct {
	Message string
	Node    *Node
}

func (e *InternalError) Error() string {
	if e.Node == nil {
		return "internal error: " + e.Message
	}
	return fmt.Sprintf("internal error: %s at %s", e.Message, e.Node.Pos)
}

func internalf(n *Node, format string, args ...any) error {
	return &InternalError{Message: fmt.Sprintf(format, args...), Node: n}
}

// shape checks n's kind and, when counts is non-empty, that its child count
// is one of counts.
func shape(n *Node, kind Kind, counts ...int) error {
	if n == nil {
		return internalf(nil, "missing %s node", kind)
	}
	if n.Kind != kind {
		return internalf(n, "expected %s, got %s", kind, n.Kind)
	}
	if len(counts) == 0 {
		return nil
	}
	for _, c := range counts {
		if len(n.Children) == c {
			for _, child := range n.Children {
				if child == nil {
					return internalf(n, "nil child in %s", kind)
				}
			}
			return nil
		}
	}
	return internalf(n, "invalid %s children (%d)", kind, len(n.Children))
}

// attach gives err a location when it does not have one yet. Cancellation,
// exit and internal errors pass through untouched; any other Go error becomes
// a script error at n.
func attach(err error, n *Node) error {
	if err == nil || isControlSignal(err) {
		return err
	}
	var internal *InternalError
	if errors.As(err, &internal) {
		return err
	}
	var se *Error
	if errors.As(err, &se) {
		if se.Node != nil {
			return se
		}
		located := *se
		located.Node = n
		return &located
	}
	return &Error{Message: err.Error(), Node: n, err: err}
}

// wrapCall adds a call-site link to script errors.
func wrapCall(err error, call *Node, fn string) error {
	var se *Error
	if err == nil || !errors.As(err, &se) || isControlSignal(err) {
		return err
	}
	if se.Node == nil {
		located := *se
		located.Node = call
		se = &located
	}
	return &Error{Message: calledFromHere, Node: call, Cause: se, Function: fn}
}

func isControlSignal(err error) bool {
	return errors.Is(err, ErrKilled) || errors.Is(err, errExit)
}
