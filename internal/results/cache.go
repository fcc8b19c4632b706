package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Increment when the Selection layout changes.
const selectionSchemaVersion uint16 = 1

// ErrNoSelection indicates no usable last selection is cached.
var ErrNoSelection = errors.New("no cached selection")

// Selection is the last executed selection, cached so -last and watch
// mode can re-run it without re-picking.
type Selection struct {
	Schema  uint16
	Root    string
	Keys    []string
	SavedAt time.Time
}

func (s *Store) selectionPath() string { return filepath.Join(s.dir, "lastrun.mp") }

// SaveSelection replaces the cached selection.
func (s *Store) SaveSelection(root string, keys []string) error {
	sel := Selection{
		Schema:  selectionSchemaVersion,
		Root:    root,
		Keys:    keys,
		SavedAt: time.Now(),
	}
	data, err := msgpack.Marshal(&sel)
	if err != nil {
		return fmt.Errorf("encoding selection: %w", err)
	}
	if err := os.WriteFile(s.selectionPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing selection cache: %w", err)
	}
	return nil
}

// LoadSelection returns the cached selection. A missing cache or a
// stale schema yields ErrNoSelection.
func (s *Store) LoadSelection() (*Selection, error) {
	data, err := os.ReadFile(s.selectionPath())
	if os.IsNotExist(err) {
		return nil, ErrNoSelection
	}
	if err != nil {
		return nil, fmt.Errorf("reading selection cache: %w", err)
	}
	var sel Selection
	if err := msgpack.Unmarshal(data, &sel); err != nil {
		return nil, ErrNoSelection
	}
	if sel.Schema != selectionSchemaVersion || len(sel.Keys) == 0 {
		return nil, ErrNoSelection
	}
	return &sel, nil
}
