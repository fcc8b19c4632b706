package blocks

import (
	"slices"

	"github.com/bazelbuild/buildtools/build"
)

// Block is one discovered test block: the node itself, the kind that
// claimed it, and a private snapshot of the setup statements that
// lexically precede it in its enclosing scopes.
type Block struct {
	// Preamble holds the accumulated setup statements, in source order.
	// It is owned by this block; the walker never aliases it with
	// another block's preamble.
	Preamble []build.Expr

	// Node is the recognized block.
	Node build.Expr

	// Kind is the interface that classified the block.
	Kind Interface
}

// Collect walks a parsed file once per registered kind and returns every
// discovered block, kinds in registration order, blocks in source order
// within a kind.
func Collect(f *build.File, reg *Registry) []Block {
	var out []Block
	for _, kind := range reg.Kinds() {
		out = append(out, collectKind(f, kind)...)
	}
	return out
}

// collectKind runs one preamble-aware walk for a single kind.
//
// The preamble grows as setup statements are passed at the current
// nesting level. Every branch into a subtree, and every emitted block,
// gets its own snapshot: a statement appended after a block is emitted
// must never show up in that block's preamble, and a statement inside
// one block's body must never leak into a sibling's.
//
// A recognized block is not itself preamble, so the statements inside
// it see everything accumulated before the block but not its header.
func collectKind(f *build.File, kind Interface) []Block {
	var out []Block

	var walk func(children []build.Expr, preamble []build.Expr)
	walk = func(children []build.Expr, preamble []build.Expr) {
		for _, child := range children {
			if kind.IsTestBlock(child) {
				out = append(out, Block{
					Preamble: slices.Clone(preamble),
					Node:     child,
					Kind:     kind,
				})
				walk(Children(child), slices.Clone(preamble))
				continue
			}
			walk(Children(child), slices.Clone(preamble))
			if IsPreamble(child) {
				preamble = append(preamble, child)
			}
		}
	}
	walk(f.Stmt, nil)

	return out
}
