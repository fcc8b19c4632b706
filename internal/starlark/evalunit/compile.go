// Package evalunit compiles selected test blocks into runnable programs.
package evalunit

import (
	"fmt"
	"strings"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/skypick/internal/starlark/blockindex"
	"github.com/albertocavalcante/skypick/internal/starlark/blocks"
)

// Unit is one compiled, runnable test block.
type Unit struct {
	// Label identifies the block in reports.
	Label string

	// File is the source path relative to the test root.
	File string

	// Line is the block's starting line in File.
	Line int

	// Program is the composed source: setup preamble, captured preamble
	// statements, then the transformed block body.
	Program string
}

// Compile builds one unit per chosen display key. Units come back in
// selection order, not discovery order: re-selecting in a different
// order reruns in that order.
func Compile(keys []string, idx *blockindex.Index) ([]Unit, error) {
	units := make([]Unit, 0, len(keys))
	for _, key := range keys {
		info, ok := idx.Display[key]
		if !ok {
			return nil, fmt.Errorf("selection %q is not in the index", strings.TrimSpace(visible(key)))
		}
		block, ok := idx.Blocks[info]
		if !ok {
			return nil, fmt.Errorf("index is missing block for %s (%s:%d)", info.Label, info.File, info.LineStart)
		}
		units = append(units, Unit{
			Label:   info.Label,
			File:    info.File,
			Line:    info.LineStart,
			Program: program(block),
		})
	}
	return units, nil
}

// program composes the executable source for a block: the kind's setup
// preamble once, then the captured preamble statements in original
// order with duplicates removed, then the transformed block body.
// Statements are deduplicated on their formatted source, so a load
// already present in the file's preamble is not replayed twice.
func program(b blocks.Block) string {
	var stmts []string
	seen := make(map[string]bool)
	add := func(src string) {
		src = strings.TrimRight(src, "\n")
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		stmts = append(stmts, src)
	}

	add(b.Kind.SetupPreamble())
	for _, p := range b.Preamble {
		add(build.FormatString(p))
	}
	body := strings.TrimRight(b.Kind.Transform(b.Node), "\n")
	return strings.Join(append(stmts, body), "\n\n") + "\n"
}

// visible strips the hidden preview fields from a display key for
// error messages.
func visible(key string) string {
	if i := strings.Index(key, blockindex.HiddenSep); i >= 0 {
		return key[:i]
	}
	return key
}
