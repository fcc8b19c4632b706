// Package blocks discovers test blocks in parsed Starlark files.
//
// A test block is an independently runnable unit of test code (a test
// function, a standalone check call). Each discovered block carries the
// ordered preamble of setup statements that lexically precede it, so it
// can be compiled and executed on its own.
package blocks

import (
	"strings"

	"github.com/bazelbuild/buildtools/build"
)

// Children returns the ordered child nodes of a CST node that the walker
// descends into: statement bodies and call arguments. A node with no
// children is a leaf.
func Children(node build.Expr) []build.Expr {
	switch n := node.(type) {
	case *build.DefStmt:
		return n.Body
	case *build.IfStmt:
		children := make([]build.Expr, 0, len(n.True)+len(n.False))
		children = append(children, n.True...)
		return append(children, n.False...)
	case *build.ForStmt:
		return n.Body
	case *build.CallExpr:
		return n.List
	case *build.ParenExpr:
		return []build.Expr{n.X}
	}
	return nil
}

// LineSpan returns the 1-based inclusive line range of node as reported
// by the parser.
func LineSpan(node build.Expr) (start, end int) {
	s, e := node.Span()
	return s.Line, e.Line
}

// Text returns the node's original source text: the full lines of src
// spanned by the node, without a trailing newline. Line ranges reported
// for a block are derived from this text, not from the tree.
func Text(src string, node build.Expr) string {
	start, end := LineSpan(node)
	lines := strings.Split(src, "\n")
	if start < 1 || start > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n")
}

// CountLines returns the number of newline-delimited lines in text.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}

// IsPreamble reports whether a statement qualifies as setup code to be
// replayed before a test block. The set is an allow-list: call
// statements, load statements, assignments, and function definitions.
// Other statement shapes (literals, control flow) are not replayed; a
// block that depends on them will fail standalone even though it passes
// in full-suite order.
func IsPreamble(node build.Expr) bool {
	switch node.(type) {
	case *build.CallExpr, *build.LoadStmt, *build.AssignExpr, *build.DefStmt:
		return true
	}
	return false
}
