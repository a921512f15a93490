package bscript

import (
	"fmt"
	"strconv"
	"strings"
)

func formatCodeFrame(source string, pos Position) string {
	if source == "" || pos.Line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return ""
	}

	lineText := strings.TrimRight(lines[pos.Line-1], "\r")
	width := len([]rune(lineText))

	column := min(max(pos.Column, 1), width+1)

	lineLabel := strconv.Itoa(pos.Line)
	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s^",
		pos.Line,
		column,
		lineLabel,
		lineText,
		strings.Repeat(" ", len(lineLabel)),
		strings.Repeat(" ", column-1),
	)
}

// CodeFrame renders the source line of the error's origin with a caret under
// the failing column. It returns "" when no position is known.
func (e *Error) CodeFrame(source string) string {
	return formatCodeFrame(source, e.Root().Pos())
}

// Trace renders one line per chain link, outermost first, for hosts that
// want the raw chain rather than the formatted Error string.
func (e *Error) Trace() []string {
	chain := e.Chain()
	out := make([]string, len(chain))
	for i, link := range chain {
		out[i] = fmt.Sprintf("%s: %s", link.Pos(), link.Message)
	}
	return out
}
