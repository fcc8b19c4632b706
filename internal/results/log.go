// Package results persists failure records and the last-executed
// selection between skypick invocations.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/albertocavalcante/skypick/internal/starlark/evalunit"
)

// Failure is one recorded test-block failure.
type Failure struct {
	Label   string `json:"label"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Store owns the on-disk state under a single directory.
type Store struct {
	dir string
}

// DefaultDir returns the standard state directory under the user cache.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	return filepath.Join(base, "skypick"), nil
}

// Open creates the store directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) failuresPath() string { return filepath.Join(s.dir, "failures.json") }
func (s *Store) lockPath() string     { return filepath.Join(s.dir, "failures.lock") }

// WriteFailures replaces the failure log with the given set. The write
// is flock-guarded: a watch-mode run and a manual run may share the log.
func (s *Store) WriteFailures(failures []Failure) error {
	return s.withLock(func() error {
		if failures == nil {
			failures = []Failure{}
		}
		data, err := json.MarshalIndent(failures, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding failures: %w", err)
		}
		if err := os.WriteFile(s.failuresPath(), append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing failure log: %w", err)
		}
		return nil
	})
}

// ReadFailures returns the recorded failures from the last run, or an
// empty set when nothing has been recorded yet.
func (s *Store) ReadFailures() ([]Failure, error) {
	var failures []Failure
	err := s.withLock(func() error {
		data, err := os.ReadFile(s.failuresPath())
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading failure log: %w", err)
		}
		if err := json.Unmarshal(data, &failures); err != nil {
			return fmt.Errorf("decoding failure log: %w", err)
		}
		return nil
	})
	return failures, err
}

func (s *Store) withLock(fn func() error) error {
	fileLock := flock.New(s.lockPath())
	if err := fileLock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fileLock.Unlock() }()
	return fn()
}

// Recorder buffers failures during a run and implements the runner's
// failure sink. Flush writes them out, replacing the previous log.
type Recorder struct {
	store    *Store
	failures []Failure
}

// NewRecorder creates a recorder backed by store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// RecordFailure implements runner.FailureSink.
func (r *Recorder) RecordFailure(unit evalunit.Unit, failure error) error {
	msg := ""
	if failure != nil {
		msg = failure.Error()
	}
	r.failures = append(r.failures, Failure{
		Label:   unit.Label,
		File:    unit.File,
		Line:    unit.Line,
		Message: msg,
	})
	return nil
}

// Failures returns the buffered failures.
func (r *Recorder) Failures() []Failure {
	return r.failures
}

// Flush writes the buffered failures as the new failure log.
func (r *Recorder) Flush() error {
	return r.store.WriteFailures(r.failures)
}
