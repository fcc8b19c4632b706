// Package skypick implements the skypick command: fuzzy-pick test
// blocks from a Starlark test suite and run exactly those.
package skypick

import (
	"errors"
	"flag"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/albertocavalcante/skypick/internal/cli"
	"github.com/albertocavalcante/skypick/internal/finder"
	"github.com/albertocavalcante/skypick/internal/pickconfig"
	"github.com/albertocavalcante/skypick/internal/results"
	"github.com/albertocavalcante/skypick/internal/starlark/blockindex"
	"github.com/albertocavalcante/skypick/internal/starlark/blocks"
	"github.com/albertocavalcante/skypick/internal/starlark/evalunit"
	"github.com/albertocavalcante/skypick/internal/starlark/runner"
	"github.com/albertocavalcante/skypick/internal/starlark/testfiles"
	"github.com/albertocavalcante/skypick/internal/version"
)

// options holds the parsed flag values.
type options struct {
	root     string
	config   string
	query    string
	match    string
	list     bool
	last     bool
	failures bool
	watch    bool
	duration bool
}

// Run executes skypick with the given arguments and returns the exit code.
func Run(args []string) int {
	return RunWithIO(args, os.Stdin, os.Stdout, os.Stderr)
}

// RunWithIO allows custom IO for embedding and testing.
func RunWithIO(args []string, _ io.Reader, stdout, stderr io.Writer) int {
	var opts options
	var versionFlag bool

	fs := flag.NewFlagSet("skypick", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.root, "root", "", "test root directory (default from config, then \"tests\")")
	fs.StringVar(&opts.config, "config", "", "config file path (default: discover skypick.toml)")
	fs.StringVar(&opts.query, "q", "", "initial query for the interactive picker")
	fs.StringVar(&opts.match, "m", "", "filter test files by fuzzy query and skip the interactive picker")
	fs.BoolVar(&opts.list, "list", false, "print the block index instead of running")
	fs.BoolVar(&opts.last, "last", false, "re-run the last executed selection")
	fs.BoolVar(&opts.failures, "failures", false, "print the failures recorded by the last run")
	fs.BoolVar(&opts.watch, "watch", false, "after running, re-run the selection when its files change")
	fs.BoolVar(&opts.duration, "duration", false, "show per-block durations")
	fs.BoolVar(&versionFlag, "version", false, "print version and exit")

	fs.Usage = func() {
		cli.Writeln(stderr, "Usage: skypick [flags]")
		cli.Writeln(stderr)
		cli.Writeln(stderr, "Interactive test selection for Starlark suites.")
		cli.Writeln(stderr)
		cli.Writeln(stderr, "skypick indexes test blocks (test_* functions and check(...) calls)")
		cli.Writeln(stderr, "in *_test.star / test_*.star files, offers them to fzf, and runs")
		cli.Writeln(stderr, "exactly the blocks you pick, each with the setup statements it")
		cli.Writeln(stderr, "needs to run standalone.")
		cli.Writeln(stderr)
		cli.Writeln(stderr, "Flags:")
		fs.PrintDefaults()
		cli.Writeln(stderr)
		cli.Writeln(stderr, "Examples:")
		cli.Writeln(stderr, "  skypick                     # pick interactively, run the picks")
		cli.Writeln(stderr, "  skypick -q parser           # pick, starting from a query")
		cli.Writeln(stderr, "  skypick -m parser           # run all blocks in files matching \"parser\"")
		cli.Writeln(stderr, "  skypick -m parser -list     # show what -m parser would run")
		cli.Writeln(stderr, "  skypick -last               # re-run the previous selection")
		cli.Writeln(stderr, "  skypick -last -watch        # and keep re-running it on changes")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return cli.ExitOK
		}
		return cli.ExitError
	}

	if versionFlag {
		cli.Writef(stdout, "skypick %s\n", version.String())
		return cli.ExitOK
	}

	cfg, _, err := pickconfig.Discover(opts.config, "")
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	if opts.root == "" {
		opts.root = cfg.Root
	}

	stateDir, err := results.DefaultDir()
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	store, err := results.Open(stateDir)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}

	if opts.failures {
		return printFailures(store, stdout, stderr)
	}

	if opts.last {
		return runLast(opts, cfg, store, stdout, stderr)
	}

	files, err := testfiles.Discover(opts.root, cfg.Patterns)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	if opts.match != "" {
		files = finder.Filter(files, opts.match)
	}
	if len(files) == 0 {
		cli.Writeln(stdout, "skypick: no matching test files")
		return cli.ExitOK
	}

	idx, err := blockindex.Build(blocks.DefaultRegistry(), opts.root, files)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	if idx.Empty() {
		cli.Writeln(stdout, "skypick: no test blocks found")
		return cli.ExitOK
	}
	candidates := displayKeys(idx)

	if opts.list {
		for _, key := range candidates {
			cli.Writeln(stdout, visible(key))
		}
		return cli.ExitOK
	}

	var chosen []string
	if opts.match != "" {
		// Non-interactive: run every block in the matched files.
		chosen = candidates
	} else {
		fzf := &finder.Fzf{Path: cfg.Finder, Root: opts.root, Pager: pagerPath(cfg), Multi: cfg.Multi}
		chosen, err = fzf.Pick(candidates, opts.query)
		if err != nil {
			cli.Writef(stderr, "skypick: %v\n", err)
			return cli.ExitError
		}
	}
	if len(chosen) == 0 {
		// Nothing picked: no execution, and the last selection stays as it was.
		cli.Writeln(stdout, "skypick: no selection")
		return cli.ExitOK
	}

	return runSelection(opts, store, idx, chosen, stdout, stderr)
}

// runSelection compiles, caches, runs, reports, and records a selection.
func runSelection(opts options, store *results.Store, idx *blockindex.Index, chosen []string, stdout, stderr io.Writer) int {
	units, err := evalunit.Compile(chosen, idx)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	if err := store.SaveSelection(opts.root, chosen); err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}

	code := runUnits(opts, store, units, stdout, stderr)
	if opts.watch {
		return watchLoop(opts, store, units, stdout, stderr)
	}
	return code
}

// runUnits executes the units and reports the outcome.
func runUnits(opts options, store *results.Store, units []evalunit.Unit, stdout, stderr io.Writer) int {
	recorder := results.NewRecorder(store)
	r := runner.New(runner.Options{Root: opts.root, Sink: recorder})
	rr, runErr := r.Run(units)

	rep := &runner.Reporter{ShowDuration: opts.duration}
	rep.Report(stdout, rr)

	if err := recorder.Flush(); err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	if runErr != nil {
		cli.Writef(stderr, "skypick: %v\n", runErr)
		return cli.ExitError
	}
	if rr.HasFailures() {
		return cli.ExitFailed
	}
	return cli.ExitOK
}

// runLast re-runs the cached selection.
func runLast(opts options, cfg *pickconfig.Config, store *results.Store, stdout, stderr io.Writer) int {
	sel, err := store.LoadSelection()
	if errors.Is(err, results.ErrNoSelection) {
		cli.Writeln(stdout, "skypick: nothing to re-run")
		return cli.ExitOK
	}
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	opts.root = sel.Root

	files, err := testfiles.Discover(opts.root, cfg.Patterns)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	idx, err := blockindex.Build(blocks.DefaultRegistry(), opts.root, files)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}

	// Display keys embed line numbers and batch padding, so resolve the
	// cached keys against the fresh index before compiling.
	chosen := refreshKeys(idx, sel.Keys)
	if len(chosen) == 0 {
		cli.Writeln(stdout, "skypick: previous selection no longer matches any block")
		return cli.ExitOK
	}
	return runSelection(opts, store, idx, chosen, stdout, stderr)
}

// printFailures summarizes the failures recorded by the last run.
func printFailures(store *results.Store, stdout, stderr io.Writer) int {
	failures, err := store.ReadFailures()
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	if len(failures) == 0 {
		cli.Writeln(stdout, "skypick: no recorded failures")
		return cli.ExitOK
	}
	for _, f := range failures {
		cli.Writef(stdout, "%s  %s:%d\n", f.Label, f.File, f.Line)
		for _, line := range strings.Split(f.Message, "\n") {
			cli.Writef(stdout, "    %s\n", line)
		}
	}
	return cli.ExitOK
}

// displayKeys returns the index's candidate lines in a stable order.
func displayKeys(idx *blockindex.Index) []string {
	keys := make([]string, 0, len(idx.Display))
	for key := range idx.Display {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := idx.Display[keys[i]], idx.Display[keys[j]]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.LineStart != b.LineStart {
			return a.LineStart < b.LineStart
		}
		return a.Label < b.Label
	})
	return keys
}

// refreshKeys maps cached display keys onto the fresh index by label
// and file; blocks that disappeared are skipped.
func refreshKeys(idx *blockindex.Index, cached []string) []string {
	byIdentity := make(map[[2]string]string, len(idx.Display))
	for key, info := range idx.Display {
		byIdentity[[2]string{info.Label, info.File}] = key
	}
	var chosen []string
	seen := make(map[string]bool)
	for _, old := range cached {
		file, _, _, err := blockindex.ParseDisplay(old)
		if err != nil {
			continue
		}
		label := strings.TrimRight(labelPart(old), " ")
		if key, ok := byIdentity[[2]string{label, file}]; ok && !seen[key] {
			seen[key] = true
			chosen = append(chosen, key)
		}
	}
	return chosen
}

// labelPart extracts the unpadded label column from a display line.
func labelPart(key string) string {
	vis := visible(key)
	if i := strings.LastIndex(vis, " | "); i >= 0 {
		return vis[:i]
	}
	return vis
}

// visible strips the hidden preview fields from a display line.
func visible(key string) string {
	if i := strings.Index(key, blockindex.HiddenSep); i >= 0 {
		return key[:i]
	}
	return key
}

// pagerPath returns the configured preview pager when it is installed.
func pagerPath(cfg *pickconfig.Config) string {
	if cfg.Pager == "" {
		return ""
	}
	if _, err := exec.LookPath(cfg.Pager); err != nil {
		return ""
	}
	return cfg.Pager
}
