package blocks

import (
	"github.com/bazelbuild/buildtools/build"
)

// Interface classifies one family of test-block syntax and knows how to
// label and rewrite blocks of that family.
//
// Kinds are independent: the walker runs one full pass per registered
// kind, so a node claimed by two kinds yields two separate blocks.
type Interface interface {
	// Name identifies the kind. The registry deduplicates by name.
	Name() string

	// IsTestBlock reports whether node is a test block of this kind.
	// It must be total over all node shapes and must not panic.
	IsTestBlock(node build.Expr) bool

	// Label returns the display label for a block. It is called only on
	// nodes for which IsTestBlock returned true; a node that passes the
	// predicate but is structurally malformed is an error, not a skip.
	Label(node build.Expr) (string, error)

	// SetupPreamble returns source that must execute once before any
	// block of this kind runs, or "" when none is needed.
	SetupPreamble() string

	// Transform renders the block into the source the compiled unit
	// executes. It must not mutate node.
	Transform(node build.Expr) string
}

// Registry holds the ordered set of active block kinds.
type Registry struct {
	kinds []Interface
}

// NewRegistry creates a registry with the given kinds, in order.
// A kind whose name is already registered is ignored.
func NewRegistry(kinds ...Interface) *Registry {
	r := &Registry{}
	for _, k := range kinds {
		r.Register(k)
	}
	return r
}

// DefaultRegistry returns the built-in kinds: test functions and check calls.
func DefaultRegistry() *Registry {
	return NewRegistry(TestDef{}, CheckCall{})
}

// Register appends a kind unless one with the same name is present.
func (r *Registry) Register(kind Interface) {
	for _, k := range r.kinds {
		if k.Name() == kind.Name() {
			return
		}
	}
	r.kinds = append(r.kinds, kind)
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []Interface {
	return r.kinds
}
