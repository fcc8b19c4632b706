package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bazelbuild/buildtools/build"
	"github.com/fsnotify/fsnotify"
)

// Watcher watches the files behind a selection, plus the files they
// load, and reports which selected files are affected by a change.
type Watcher struct {
	mu sync.RWMutex

	fsWatcher *fsnotify.Watcher

	// selected is the set of watched selection files (absolute paths).
	selected map[string]bool

	// dependents maps a loaded file to the selection files that
	// (transitively) load it.
	dependents map[string]map[string]bool

	// Events receives change notifications.
	Events chan WatchEvent

	// Errors receives watcher errors.
	Errors chan error

	done chan struct{}
}

// WatchEvent is one file change affecting the selection.
type WatchEvent struct {
	// File is the file that changed.
	File string

	// Affected lists the selection files to re-run.
	Affected []string
}

// NewWatcher creates a watcher with no files registered.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fsWatcher:  fsWatcher,
		selected:   make(map[string]bool),
		dependents: make(map[string]map[string]bool),
		Events:     make(chan WatchEvent, 16),
		Errors:     make(chan error, 4),
		done:       make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add registers a selection file and its load() dependencies.
func (w *Watcher) Add(file string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", file, err)
	}
	if w.selected[abs] {
		return nil
	}
	if err := w.fsWatcher.Add(abs); err != nil {
		return fmt.Errorf("watching %s: %w", abs, err)
	}
	w.selected[abs] = true
	w.trackLoads(abs, abs, map[string]bool{abs: true})
	return nil
}

// trackLoads registers file's load() targets as dependencies of root.
func (w *Watcher) trackLoads(file, root string, visiting map[string]bool) {
	for _, dep := range extractLoads(file) {
		depPath := resolveLoadPath(file, dep)
		if depPath == "" || visiting[depPath] {
			continue
		}
		visiting[depPath] = true
		if w.dependents[depPath] == nil {
			w.dependents[depPath] = make(map[string]bool)
		}
		w.dependents[depPath][root] = true
		if err := w.fsWatcher.Add(depPath); err == nil {
			w.trackLoads(depPath, root, visiting)
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.Errors <- err
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	abs, _ := filepath.Abs(event.Name)
	var affected []string
	if w.selected[abs] {
		affected = append(affected, abs)
	}
	for root := range w.dependents[abs] {
		if root != abs {
			affected = append(affected, root)
		}
	}
	if len(affected) > 0 {
		w.Events <- WatchEvent{File: abs, Affected: affected}
	}
}

// extractLoads parses a file and returns its load() module paths.
// Parse errors are ignored: a file being edited is often transiently
// unparseable and will be picked up on the next change.
func extractLoads(file string) []string {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	f, err := build.ParseDefault(file, src)
	if err != nil {
		return nil
	}
	var loads []string
	for _, stmt := range f.Stmt {
		if load, ok := stmt.(*build.LoadStmt); ok && load.Module != nil {
			loads = append(loads, load.Module.Value)
		}
	}
	return loads
}

// resolveLoadPath resolves a load path relative to the loading file.
// Bazel-style labels are skipped.
func resolveLoadPath(fromFile, loadPath string) string {
	if strings.HasPrefix(loadPath, "//") || strings.HasPrefix(loadPath, "@") {
		return ""
	}
	if loadPath == AssertModuleName {
		return ""
	}
	resolved := filepath.Join(filepath.Dir(fromFile), loadPath)
	if _, err := os.Stat(resolved); err != nil {
		return ""
	}
	abs, _ := filepath.Abs(resolved)
	return abs
}
