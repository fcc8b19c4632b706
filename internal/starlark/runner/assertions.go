package runner

import (
	"fmt"
	"regexp"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// AssertionError is a test-failure-class error raised by the assert
// module. The runner records failures of this class and keeps running
// the batch; any other error aborts it.
type AssertionError struct {
	Msg string

	// Expected and Actual hold the rendered operands of an equality
	// check when available, for diff output in reports.
	Expected string
	Actual   string
}

// Error implements error.
func (e *AssertionError) Error() string { return e.Msg }

// NewAssertModule creates the assert module predeclared in every
// compiled test block and served to load("assert.star", "assert").
//
// Available functions:
//   - assert.eq(a, b, msg=None), assert.ne(a, b, msg=None)
//   - assert.true(cond, msg=None), assert.false(cond, msg=None)
//   - assert.lt / le / gt / ge (a, b, msg=None)
//   - assert.contains(container, item, msg=None)
//   - assert.len(container, n, msg=None)
//   - assert.empty(container, msg=None), assert.not_empty(container, msg=None)
//   - assert.fails(fn, pattern=None)
func NewAssertModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "assert",
		Members: starlark.StringDict{
			"eq":        starlark.NewBuiltin("assert.eq", assertEq),
			"ne":        starlark.NewBuiltin("assert.ne", assertNe),
			"true":      starlark.NewBuiltin("assert.true", assertTrue),
			"false":     starlark.NewBuiltin("assert.false", assertFalse),
			"lt":        starlark.NewBuiltin("assert.lt", assertCompare("assert.lt", syntaxLT)),
			"le":        starlark.NewBuiltin("assert.le", assertCompare("assert.le", syntaxLE)),
			"gt":        starlark.NewBuiltin("assert.gt", assertCompare("assert.gt", syntaxGT)),
			"ge":        starlark.NewBuiltin("assert.ge", assertCompare("assert.ge", syntaxGE)),
			"contains":  starlark.NewBuiltin("assert.contains", assertContains),
			"len":       starlark.NewBuiltin("assert.len", assertLen),
			"empty":     starlark.NewBuiltin("assert.empty", assertEmpty),
			"not_empty": starlark.NewBuiltin("assert.not_empty", assertNotEmpty),
			"fails":     starlark.NewBuiltin("assert.fails", assertFails),
		},
	}
}

// NewCheckBuiltin creates the check builtin available inside compiled
// programs: check("label", cond...) asserts every condition is truthy.
// Standalone check statements are rewritten into assert.true before
// execution; this builtin covers check calls inside test function
// bodies, which run as written.
func NewCheckBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("check", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: missing label argument", b.Name())
		}
		label, ok := args[0].(starlark.String)
		if !ok {
			return nil, fmt.Errorf("%s: label must be a string, got %s", b.Name(), args[0].Type())
		}
		for _, cond := range args[1:] {
			if !cond.Truth() {
				return nil, assertionError(label, "")
			}
		}
		return starlark.None, nil
	})
}

func assertEq(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var a, expected starlark.Value
	var msg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "a", &a, "b", &expected, "msg?", &msg); err != nil {
		return nil, err
	}
	eq, err := starlark.Equal(a, expected)
	if err != nil {
		return nil, err
	}
	if !eq {
		aerr := assertionError(msg, "expected %s == %s", a, expected)
		aerr.Expected = displayValue(expected)
		aerr.Actual = displayValue(a)
		return nil, aerr
	}
	return starlark.None, nil
}

func assertNe(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var a, unexpected starlark.Value
	var msg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "a", &a, "b", &unexpected, "msg?", &msg); err != nil {
		return nil, err
	}
	eq, err := starlark.Equal(a, unexpected)
	if err != nil {
		return nil, err
	}
	if eq {
		return nil, assertionError(msg, "expected %s != %s", a, unexpected)
	}
	return starlark.None, nil
}

func assertTrue(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var cond starlark.Value
	var msg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "cond", &cond, "msg?", &msg); err != nil {
		return nil, err
	}
	if !cond.Truth() {
		return nil, assertionError(msg, "expected %s to be true", cond)
	}
	return starlark.None, nil
}

func assertFalse(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var cond starlark.Value
	var msg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "cond", &cond, "msg?", &msg); err != nil {
		return nil, err
	}
	if cond.Truth() {
		return nil, assertionError(msg, "expected %s to be false", cond)
	}
	return starlark.None, nil
}

// comparison tokens for assertCompare
const (
	syntaxLT = "<"
	syntaxLE = "<="
	syntaxGT = ">"
	syntaxGE = ">="
)

func assertCompare(name, op string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var a, expected starlark.Value
		var msg starlark.Value = starlark.None
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "a", &a, "b", &expected, "msg?", &msg); err != nil {
			return nil, err
		}
		cmp, err := starlark.Compare(compareOp(op), a, expected)
		if err != nil {
			return nil, err
		}
		if !cmp {
			return nil, assertionError(msg, "expected %s %s %s", a, op, expected)
		}
		return starlark.None, nil
	}
}

func compareOp(op string) syntax.Token {
	switch op {
	case syntaxLT:
		return syntax.LT
	case syntaxLE:
		return syntax.LE
	case syntaxGT:
		return syntax.GT
	default:
		return syntax.GE
	}
}

func assertContains(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var container, item starlark.Value
	var msg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "container", &container, "item", &item, "msg?", &msg); err != nil {
		return nil, err
	}

	switch c := container.(type) {
	case starlark.String:
		if s, ok := item.(starlark.String); ok {
			if containsSubstring(string(c), string(s)) {
				return starlark.None, nil
			}
			return nil, assertionError(msg, "expected %s to contain %s", container, item)
		}
		return nil, fmt.Errorf("%s: item must be a string when container is a string", b.Name())
	case starlark.Indexable:
		n := c.Len()
		for i := 0; i < n; i++ {
			eq, err := starlark.Equal(c.Index(i), item)
			if err != nil {
				return nil, err
			}
			if eq {
				return starlark.None, nil
			}
		}
		return nil, assertionError(msg, "expected %s to contain %s", container, item)
	case *starlark.Dict:
		if _, found, err := c.Get(item); err != nil {
			return nil, err
		} else if found {
			return starlark.None, nil
		}
		return nil, assertionError(msg, "expected %s to contain key %s", container, item)
	}
	return nil, fmt.Errorf("%s: unsupported container type %s", b.Name(), container.Type())
}

func assertLen(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var container starlark.Value
	var n int
	var msg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "container", &container, "n", &n, "msg?", &msg); err != nil {
		return nil, err
	}
	got := starlark.Len(container)
	if got < 0 {
		return nil, fmt.Errorf("%s: %s has no length", b.Name(), container.Type())
	}
	if got != n {
		return nil, assertionError(msg, "expected length %d, got %d in %s", n, got, container)
	}
	return starlark.None, nil
}

func assertEmpty(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var container starlark.Value
	var msg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "container", &container, "msg?", &msg); err != nil {
		return nil, err
	}
	got := starlark.Len(container)
	if got < 0 {
		return nil, fmt.Errorf("%s: %s has no length", b.Name(), container.Type())
	}
	if got != 0 {
		return nil, assertionError(msg, "expected %s to be empty", container)
	}
	return starlark.None, nil
}

func assertNotEmpty(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var container starlark.Value
	var msg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "container", &container, "msg?", &msg); err != nil {
		return nil, err
	}
	got := starlark.Len(container)
	if got < 0 {
		return nil, fmt.Errorf("%s: %s has no length", b.Name(), container.Type())
	}
	if got == 0 {
		return nil, assertionError(msg, "expected %s to be non-empty", container)
	}
	return starlark.None, nil
}

func assertFails(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	var pattern string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn", &fn, "pattern?", &pattern); err != nil {
		return nil, err
	}

	_, err := starlark.Call(thread, fn, nil, nil)
	if err == nil {
		return nil, assertionError(starlark.None, "expected %s to fail", fn.Name())
	}
	if pattern != "" {
		re, reErr := regexp.Compile(pattern)
		if reErr != nil {
			return nil, fmt.Errorf("%s: bad pattern %q: %w", b.Name(), pattern, reErr)
		}
		if !re.MatchString(err.Error()) {
			return nil, assertionError(starlark.None, "error %q does not match %q", err.Error(), pattern)
		}
	}
	return starlark.None, nil
}

func assertionError(customMsg starlark.Value, format string, args ...any) *AssertionError {
	if s, ok := customMsg.(starlark.String); ok && s != "" {
		return &AssertionError{Msg: fmt.Sprintf("assertion failed: %s", string(s))}
	}
	return &AssertionError{Msg: fmt.Sprintf("assertion failed: "+format, args...)}
}

// displayValue renders a value for diff output: strings unquoted so
// multiline content diffs line by line, everything else via String.
func displayValue(v starlark.Value) string {
	if s, ok := v.(starlark.String); ok {
		return string(s)
	}
	return v.String()
}

func containsSubstring(s, substr string) bool {
	if substr == "" {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
