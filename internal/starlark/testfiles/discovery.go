// Package testfiles lists candidate Starlark test files under a test root.
package testfiles

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPatterns are the default file patterns for test discovery.
var DefaultPatterns = []string{
	"*_test.star",
	"test_*.star",
}

// Discover recursively lists test files under root and returns their
// paths relative to root, in walk order. If patterns is empty,
// DefaultPatterns is used. The root must exist and be a directory.
func Discover(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test root %s is not a directory", root)
	}

	var files []string
	seen := make(map[string]bool)

	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		for _, pattern := range patterns {
			matched, err := filepath.Match(pattern, base)
			if err != nil {
				return err
			}
			if matched {
				rel, err := filepath.Rel(root, path)
				if err != nil {
					return err
				}
				if !seen[rel] {
					files = append(files, rel)
					seen[rel] = true
				}
				break
			}
		}
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, err
	}

	return files, nil
}

// IsTestFile checks whether a filename matches the test file patterns.
func IsTestFile(filename string, patterns []string) bool {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	base := filepath.Base(filename)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
