package blocks

import (
	"fmt"
	"strings"

	"github.com/bazelbuild/buildtools/build"
)

// DefaultCheckHead is the callee name that marks a standalone check call.
const DefaultCheckHead = "check"

// CheckCall recognizes standalone test items written as call statements:
//
//	check("adds small ints", add(1, 2) == 3)
//
// The first argument is the label; the remaining arguments are the
// conditions. Transform redirects the call into the bundled assert
// module so check items run on the same path as test functions.
type CheckCall struct {
	// Head overrides DefaultCheckHead when non-empty.
	Head string
}

// Name implements Interface.
func (CheckCall) Name() string { return "checkcall" }

func (c CheckCall) head() string {
	if c.Head != "" {
		return c.Head
	}
	return DefaultCheckHead
}

// IsTestBlock implements Interface.
func (c CheckCall) IsTestBlock(node build.Expr) bool {
	call, ok := node.(*build.CallExpr)
	if !ok {
		return false
	}
	ident, ok := call.X.(*build.Ident)
	return ok && ident.Name == c.head() && len(call.List) > 0
}

// Label implements Interface. A check call whose first argument is not a
// string literal is malformed.
func (c CheckCall) Label(node build.Expr) (string, error) {
	call, ok := node.(*build.CallExpr)
	if !ok || len(call.List) == 0 {
		return "", fmt.Errorf("checkcall: not a %s(...) call: %T", c.head(), node)
	}
	lit, ok := call.List[0].(*build.StringExpr)
	if !ok {
		start, _ := call.Span()
		return "", fmt.Errorf("checkcall: %s(...) at line %d: first argument must be a string literal", c.head(), start.Line)
	}
	return lit.Value, nil
}

// SetupPreamble implements Interface.
func (CheckCall) SetupPreamble() string { return AssertLoad }

// Transform implements Interface. check("label", cond...) becomes
// assert.true(cond..., "label"); a bare check("label") asserts the
// label itself, which is truthy, so it always passes.
func (c CheckCall) Transform(node build.Expr) string {
	call, ok := node.(*build.CallExpr)
	if !ok || len(call.List) == 0 {
		return build.FormatString(node)
	}
	args := make([]build.Expr, 0, len(call.List))
	args = append(args, call.List[1:]...)
	args = append(args, call.List[0])
	rewritten := &build.CallExpr{
		X:    &build.DotExpr{X: &build.Ident{Name: "assert"}, Name: "true"},
		List: args,
	}
	return strings.TrimRight(build.FormatString(rewritten), "\n")
}
