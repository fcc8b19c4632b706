package skypick

import (
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/albertocavalcante/skypick/internal/cli"
	"github.com/albertocavalcante/skypick/internal/results"
	"github.com/albertocavalcante/skypick/internal/starlark/blockindex"
	"github.com/albertocavalcante/skypick/internal/starlark/blocks"
	"github.com/albertocavalcante/skypick/internal/starlark/evalunit"
	"github.com/albertocavalcante/skypick/internal/starlark/runner"
	"github.com/albertocavalcante/skypick/internal/starlark/testfiles"
)

// watchLoop re-runs the selection whenever one of its files, or a file
// they load, changes. It returns when interrupted.
func watchLoop(opts options, store *results.Store, units []evalunit.Unit, stdout, stderr io.Writer) int {
	w, err := runner.NewWatcher()
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return cli.ExitError
	}
	defer func() { _ = w.Close() }()

	for _, file := range unitFiles(units) {
		if err := w.Add(filepath.Join(opts.root, file)); err != nil {
			cli.Writef(stderr, "skypick: %v\n", err)
			return cli.ExitError
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	cli.Writeln(stdout, "skypick: watching for changes (interrupt to stop)")
	for {
		select {
		case <-interrupt:
			return cli.ExitOK
		case err := <-w.Errors:
			cli.Writef(stderr, "skypick: watch: %v\n", err)
		case ev := <-w.Events:
			cli.Writef(stdout, "\nskypick: %s changed\n", ev.File)
			units = rerun(opts, store, units, stdout, stderr)
		}
	}
}

// rerun rebuilds the index and runs the current selection against it.
// The refreshed units are returned so later events track renames of
// line ranges.
func rerun(opts options, store *results.Store, units []evalunit.Unit, stdout, stderr io.Writer) []evalunit.Unit {
	files, err := testfiles.Discover(opts.root, nil)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return units
	}
	idx, err := blockindex.Build(blocks.DefaultRegistry(), opts.root, files)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return units
	}

	chosen := keysForUnits(idx, units)
	if len(chosen) == 0 {
		cli.Writeln(stdout, "skypick: selection no longer matches any block")
		return units
	}
	fresh, err := evalunit.Compile(chosen, idx)
	if err != nil {
		cli.Writef(stderr, "skypick: %v\n", err)
		return units
	}
	runUnits(opts, store, fresh, stdout, stderr)
	return fresh
}

// keysForUnits finds the display keys matching the units' label+file
// identity in a fresh index, preserving unit order.
func keysForUnits(idx *blockindex.Index, units []evalunit.Unit) []string {
	byIdentity := make(map[[2]string]string, len(idx.Display))
	for key, info := range idx.Display {
		byIdentity[[2]string{info.Label, info.File}] = key
	}
	var chosen []string
	for _, u := range units {
		if key, ok := byIdentity[[2]string{u.Label, u.File}]; ok {
			chosen = append(chosen, key)
		}
	}
	return chosen
}

// unitFiles returns the units' distinct files, preserving order.
func unitFiles(units []evalunit.Unit) []string {
	var files []string
	seen := make(map[string]bool)
	for _, u := range units {
		if !seen[u.File] {
			seen[u.File] = true
			files = append(files, u.File)
		}
	}
	return files
}
