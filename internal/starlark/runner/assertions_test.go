package runner

import (
	"errors"
	"strings"
	"testing"

	"github.com/albertocavalcante/skypick/internal/starlark/evalunit"
)

// runProgram executes one program and returns its result.
func runProgram(t *testing.T, program string) Result {
	t.Helper()
	r := New(Options{Root: t.TempDir()})
	rr, err := r.Run([]evalunit.Unit{unit("prog", program)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return rr.Results[0]
}

func TestAssertFunctions(t *testing.T) {
	tests := []struct {
		name    string
		program string
		pass    bool
	}{
		{"eq pass", `assert.eq([1, 2], [1, 2])`, true},
		{"eq fail", `assert.eq(1, 2)`, false},
		{"ne pass", `assert.ne("a", "b")`, true},
		{"ne fail", `assert.ne(3, 3)`, false},
		{"true fail", `assert.true([])`, false},
		{"false pass", `assert.false(0)`, true},
		{"lt pass", `assert.lt(1, 2)`, true},
		{"lt fail", `assert.lt(2, 2)`, false},
		{"le pass", `assert.le(2, 2)`, true},
		{"gt fail", `assert.gt(1, 2)`, false},
		{"ge pass", `assert.ge(3, 2)`, true},
		{"contains string", `assert.contains("starlark", "lark")`, true},
		{"contains list", `assert.contains([1, 2, 3], 2)`, true},
		{"contains list fail", `assert.contains([1, 2, 3], 9)`, false},
		{"contains dict key", `assert.contains({"k": 1}, "k")`, true},
		{"len pass", `assert.len([1, 2, 3], 3)`, true},
		{"len fail", `assert.len("ab", 3)`, false},
		{"empty pass", `assert.empty([])`, true},
		{"empty fail", `assert.empty({"k": 1})`, false},
		{"not_empty pass", `assert.not_empty("x")`, true},
		{"not_empty fail", `assert.not_empty([])`, false},
		{"fails pass", `assert.fails(lambda: 1 // 0)`, true},
		{"fails with pattern", `assert.fails(lambda: 1 // 0, "division by zero")`, true},
		{"fails when fn succeeds", `assert.fails(lambda: 1)`, false},
		{"fails pattern mismatch", `assert.fails(lambda: 1 // 0, "no such attribute")`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runProgram(t, tt.program+"\n")
			if res.Passed != tt.pass {
				t.Errorf("passed = %v, want %v (failure: %v)", res.Passed, tt.pass, res.Failure)
			}
		})
	}
}

func TestAssertCustomMessage(t *testing.T) {
	res := runProgram(t, `assert.true(False, "flag must be set")`+"\n")
	if res.Passed {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Failure.Error(), "flag must be set") {
		t.Errorf("custom message lost: %v", res.Failure)
	}
}

func TestAssertEqCarriesOperands(t *testing.T) {
	res := runProgram(t, `assert.eq("one\ntwo", "one\nTWO")`+"\n")
	if res.Passed {
		t.Fatalf("expected failure")
	}
	var aerr *AssertionError
	if !errors.As(res.Failure, &aerr) {
		t.Fatalf("failure is not an assertion error: %v", res.Failure)
	}
	if aerr.Actual != "one\ntwo" || aerr.Expected != "one\nTWO" {
		t.Errorf("operands = (%q, %q), want raw string contents", aerr.Actual, aerr.Expected)
	}
}

func TestAssertContainsBadItemType(t *testing.T) {
	r := New(Options{Root: t.TempDir()})
	_, err := r.Run([]evalunit.Unit{
		unit("prog", `assert.contains("text", 42)`+"\n"),
	})
	if err == nil {
		t.Fatalf("type misuse must abort as a harness error, not a test failure")
	}
}
