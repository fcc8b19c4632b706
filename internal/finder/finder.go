// Package finder integrates the external fuzzy picker.
//
// The real picker is an fzf subprocess; the in-process subsequence
// filter covers the non-interactive paths (the -m flag and tests).
package finder

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"github.com/albertocavalcante/skypick/internal/starlark/blockindex"
)

// Finder selects candidate lines, interactively or by query.
type Finder interface {
	// Pick interactively returns zero or more selected lines. An empty
	// result means the user dismissed the picker; it is not an error.
	Pick(candidates []string, query string) ([]string, error)

	// Filter returns the candidates matching query, non-interactively,
	// preserving candidate order.
	Filter(candidates []string, query string) []string
}

// Fzf drives an external fzf process.
type Fzf struct {
	// Path is the fzf binary; "fzf" when empty.
	Path string

	// Root is the directory the picker runs in. The hidden preview
	// fields carry root-relative paths, so the preview command can only
	// open them from here.
	Root string

	// Pager is the preview pager binary (bat). When empty the preview
	// falls back to sed line excerpting.
	Pager string

	// Multi enables multi-select.
	Multi bool
}

// Pick implements Finder by running fzf with the candidates on stdin.
// The hidden display fields ride along as extra delimiter-separated
// columns feeding the preview command; only the first column is shown
// or matched.
func (f *Fzf) Pick(candidates []string, query string) ([]string, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, errors.New("interactive picking needs a terminal; use -m to filter non-interactively")
	}

	path := f.Path
	if path == "" {
		path = "fzf"
	}
	if _, err := exec.LookPath(path); err != nil {
		return nil, fmt.Errorf("fuzzy finder: %w", err)
	}

	cmd := f.command(path, query)
	cmd.Stdin = strings.NewReader(strings.Join(candidates, "\n"))
	out, err := cmd.Output()
	if err != nil {
		// fzf exits 1 on no match and 130 on abort; both mean an
		// empty selection, not a failure.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && (exitErr.ExitCode() == 1 || exitErr.ExitCode() == 130) {
			return nil, nil
		}
		return nil, fmt.Errorf("running %s: %w", path, err)
	}

	var selected []string
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			selected = append(selected, line)
		}
	}
	return selected, nil
}

// Filter implements Finder with the in-process subsequence matcher.
func (f *Fzf) Filter(candidates []string, query string) []string {
	return Filter(candidates, query)
}

// command builds the fzf invocation. It runs in Root so the preview
// command resolves the root-relative file in the hidden fields.
func (f *Fzf) command(path, query string) *exec.Cmd {
	cmd := exec.Command(path, f.args(query)...)
	cmd.Dir = f.Root
	cmd.Stderr = os.Stderr
	return cmd
}

func (f *Fzf) args(query string) []string {
	args := []string{
		"--ansi",
		"--delimiter", blockindex.HiddenSep,
		"--with-nth", "1",
		"--nth", "1",
		"--preview", f.previewCommand(),
	}
	if f.Multi {
		args = append(args, "--multi")
	}
	if query != "" {
		args = append(args, "--query", query)
	}
	return args
}

// previewCommand excerpts the selected block's source lines using the
// hidden fields: {2} file, {3} start line, {4} end line.
func (f *Fzf) previewCommand() string {
	if f.Pager != "" {
		return fmt.Sprintf("%s --color=always --line-range {3}:{4} --highlight-line {3} {2}", f.Pager)
	}
	return "sed -n {3},{4}p {2}"
}
