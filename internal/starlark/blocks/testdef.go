package blocks

import (
	"fmt"
	"strings"

	"github.com/bazelbuild/buildtools/build"
)

// DefaultTestPrefix is the function name prefix that marks a test definition.
const DefaultTestPrefix = "test_"

// AssertLoad imports the bundled assertion module. It is the setup
// preamble of both built-in kinds and must render exactly as the
// formatter would, so a matching load in a file's own preamble
// deduplicates against it.
const AssertLoad = `load("assert.star", "assert")`

// TestDef recognizes test grouping functions: def statements whose name
// starts with a test prefix. The label is the function's docstring when
// it has one, otherwise the function name.
type TestDef struct {
	// Prefix overrides DefaultTestPrefix when non-empty.
	Prefix string
}

// Name implements Interface.
func (TestDef) Name() string { return "testdef" }

func (d TestDef) prefix() string {
	if d.Prefix != "" {
		return d.Prefix
	}
	return DefaultTestPrefix
}

// IsTestBlock implements Interface.
func (d TestDef) IsTestBlock(node build.Expr) bool {
	def, ok := node.(*build.DefStmt)
	return ok && strings.HasPrefix(def.Name, d.prefix())
}

// Label implements Interface.
func (d TestDef) Label(node build.Expr) (string, error) {
	def, ok := node.(*build.DefStmt)
	if !ok {
		return "", fmt.Errorf("testdef: not a def statement: %T", node)
	}
	if len(def.Body) > 0 {
		if doc, ok := def.Body[0].(*build.StringExpr); ok && doc.Value != "" {
			return doc.Value, nil
		}
	}
	return def.Name, nil
}

// SetupPreamble implements Interface.
func (TestDef) SetupPreamble() string { return AssertLoad }

// Transform implements Interface. Defining a function does not run it,
// so the invocation is appended after the definition.
func (d TestDef) Transform(node build.Expr) string {
	def, ok := node.(*build.DefStmt)
	if !ok {
		return build.FormatString(node)
	}
	src := strings.TrimRight(build.FormatString(def), "\n")
	return fmt.Sprintf("%s\n\n%s()", src, def.Name)
}
