// Package blockindex builds the selectable index of discovered test blocks.
//
// The index maps display strings, formatted for an external fuzzy
// picker, back to the blocks they stand for. It is rebuilt from scratch
// on every invocation; nothing is cached between runs.
package blockindex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/skypick/internal/starlark/blocks"
)

// Info is the display and lookup metadata for one discovered block.
// It is a comparable value type and serves as the index key.
type Info struct {
	// Label is the kind-specific display label.
	Label string

	// File is the source path relative to the test root.
	File string

	// LineStart and LineEnd are the 1-based inclusive line range of the
	// whole block. LineEnd is derived from the line count of the
	// block's own source text.
	LineStart int
	LineEnd   int
}

// Index is the result of building: blocks keyed by Info, and picker
// display strings keyed back to Info.
type Index struct {
	// Blocks is the source of truth.
	Blocks map[Info]blocks.Block

	// Display maps each formatted candidate line to its Info. Column
	// widths are computed over the whole batch, so rebuilding with a
	// different file set changes the padding.
	Display map[string]Info
}

// Empty reports whether the index holds no blocks.
func (idx *Index) Empty() bool {
	return len(idx.Blocks) == 0
}

type entry struct {
	info  Info
	block blocks.Block
}

// Build parses each matched file and collects blocks for every
// registered kind. Paths in matched are relative to testRoot. A file
// that cannot be read or parsed fails the whole build: a silently
// dropped file's tests would never be offered to the user.
func Build(reg *blocks.Registry, testRoot string, matched []string) (*Index, error) {
	var entries []entry
	for _, rel := range matched {
		data, err := os.ReadFile(filepath.Join(testRoot, rel))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		f, err := build.ParseDefault(rel, data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", rel, err)
		}
		src := string(data)
		for _, b := range blocks.Collect(f, reg) {
			label, err := b.Kind.Label(b.Node)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", rel, err)
			}
			start, _ := blocks.LineSpan(b.Node)
			text := blocks.Text(src, b.Node)
			entries = append(entries, entry{
				info: Info{
					Label:     label,
					File:      rel,
					LineStart: start,
					LineEnd:   start + blocks.CountLines(text) - 1,
				},
				block: b,
			})
		}
	}

	idx := &Index{
		Blocks:  make(map[Info]blocks.Block, len(entries)),
		Display: make(map[string]Info, len(entries)),
	}
	labelWidth, fileWidth := columnWidths(entries)
	for _, e := range entries {
		// Identical Info from two kinds is possible only with
		// overlapping predicates; the later registration wins.
		idx.Blocks[e.info] = e.block
		idx.Display[FormatDisplay(e.info, labelWidth, fileWidth)] = e.info
	}
	return idx, nil
}
