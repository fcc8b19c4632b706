// Package runner executes compiled test blocks.
//
// Each unit runs on a fresh Starlark thread with the assert module
// predeclared. An assertion failure is recorded and the batch keeps
// going; any other execution error means the harness itself broke and
// aborts the remaining units.
package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.starlark.net/starlark"

	"github.com/albertocavalcante/skypick/internal/starlark/evalunit"
)

// Result is the outcome of one unit.
type Result struct {
	// Label is the block's display label.
	Label string

	// File is the block's source path relative to the test root.
	File string

	// Line is the block's starting line.
	Line int

	// Passed indicates the unit ran without an assertion failure.
	Passed bool

	// Failure holds the assertion error for a failed unit.
	Failure error

	// Duration is how long the unit took.
	Duration time.Duration
}

// RunResult collects results across a batch, in execution order.
type RunResult struct {
	Results  []Result
	Duration time.Duration
}

// Summary returns counts of passed and failed units.
func (rr *RunResult) Summary() (passed, failed int) {
	for _, r := range rr.Results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// HasFailures reports whether any unit failed.
func (rr *RunResult) HasFailures() bool {
	_, failed := rr.Summary()
	return failed > 0
}

// FailureSink receives test-failure records as they happen.
type FailureSink interface {
	RecordFailure(unit evalunit.Unit, failure error) error
}

// Options configures the runner.
type Options struct {
	// Root is the test root; unit file paths are relative to it.
	// load() paths in compiled programs resolve against the loading
	// file's directory.
	Root string

	// Predeclared contains additional predeclared values. The assert
	// module is always available.
	Predeclared starlark.StringDict

	// Sink, when set, receives each assertion failure as it is caught.
	Sink FailureSink
}

// Runner executes compiled units.
type Runner struct {
	opts   Options
	loader *loader
}

// New creates a runner.
func New(opts Options) *Runner {
	return &Runner{
		opts:   opts,
		loader: newLoader(opts.Root),
	}
}

// Run executes units in order. It returns the collected results and a
// non-nil error only when a unit broke the harness (any error that is
// not an assertion failure); results up to that unit are still returned.
func (r *Runner) Run(units []evalunit.Unit) (*RunResult, error) {
	rr := &RunResult{}
	start := time.Now()
	for _, u := range units {
		res, err := r.runUnit(u)
		rr.Results = append(rr.Results, res)
		if err != nil {
			rr.Duration = time.Since(start)
			return rr, fmt.Errorf("running %s (%s:%d): %w", u.Label, u.File, u.Line, err)
		}
		if !res.Passed && r.opts.Sink != nil {
			if serr := r.opts.Sink.RecordFailure(u, res.Failure); serr != nil {
				rr.Duration = time.Since(start)
				return rr, fmt.Errorf("recording failure for %s: %w", u.Label, serr)
			}
		}
	}
	rr.Duration = time.Since(start)
	return rr, nil
}

// runUnit executes one unit and classifies its outcome.
func (r *Runner) runUnit(u evalunit.Unit) (Result, error) {
	res := Result{Label: u.Label, File: u.File, Line: u.Line}
	start := time.Now()

	thread := &starlark.Thread{Name: u.Label, Load: r.loader.load}
	thread.SetLocal(loadDirKey, filepath.Dir(filepath.Join(r.opts.Root, u.File)))
	_, err := starlark.ExecFile(thread, u.File, u.Program, r.predeclared())
	res.Duration = time.Since(start)

	if err == nil {
		res.Passed = true
		return res, nil
	}

	var aerr *AssertionError
	if errors.As(err, &aerr) {
		// Keep the EvalError so reports show the failing call stack.
		res.Failure = err
		return res, nil
	}
	return res, err
}

func (r *Runner) predeclared() starlark.StringDict {
	predeclared := make(starlark.StringDict, len(r.opts.Predeclared)+2)
	for k, v := range r.opts.Predeclared {
		predeclared[k] = v
	}
	predeclared["assert"] = NewAssertModule()
	predeclared["check"] = NewCheckBuiltin()
	return predeclared
}

// AssertModuleName is the module path compiled programs load the
// assertion library from.
const AssertModuleName = "assert.star"

// loadDirKey is the thread-local carrying the directory of the file
// currently executing, so load() paths resolve relative to it.
const loadDirKey = "loadDir"

// loader resolves load() calls inside compiled programs: the bundled
// assert module by name, everything else as a file relative to the
// loading file's directory (the same resolution the watcher applies
// when tracking dependencies). Loaded modules are cached per runner by
// resolved path, matching Starlark's once-per-program load semantics
// across a batch.
type loader struct {
	root  string
	cache map[string]starlark.StringDict
	busy  map[string]bool
}

func newLoader(root string) *loader {
	return &loader{
		root:  root,
		cache: make(map[string]starlark.StringDict),
		busy:  make(map[string]bool),
	}
}

func (l *loader) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	if module == AssertModuleName {
		return starlark.StringDict{"assert": NewAssertModule()}, nil
	}
	dir, _ := thread.Local(loadDirKey).(string)
	if dir == "" {
		dir = l.root
	}
	path := filepath.Join(dir, module)

	if globals, ok := l.cache[path]; ok {
		return globals, nil
	}
	if l.busy[path] {
		return nil, fmt.Errorf("cycle in load graph at %s", module)
	}
	l.busy[path] = true
	defer delete(l.busy, path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", module, err)
	}
	sub := &starlark.Thread{Name: module, Load: l.load}
	sub.SetLocal(loadDirKey, filepath.Dir(path))
	globals, err := starlark.ExecFile(sub, path, src, starlark.StringDict{
		"assert": NewAssertModule(),
		"check":  NewCheckBuiltin(),
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", module, err)
	}
	l.cache[path] = globals
	return globals, nil
}
