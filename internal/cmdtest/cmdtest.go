// Package cmdtest provides a testscript-based test harness for the
// skypick CLI.
//
// Test files use txtar format: script commands up top, input files
// below. Example:
//
//	exec skypick -root tests -list
//	stdout 'test_parse'
//
//	-- tests/parse_test.star --
//	def test_parse():
//	    """test_parse"""
//	    pass
package cmdtest

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/albertocavalcante/skypick/internal/cmd/skypick"
)

// Run executes the testscript tests in the given directory.
func Run(t *testing.T, dir string) {
	testscript.Run(t, testscript.Params{
		Dir: dir,
		Setup: func(env *testscript.Env) error {
			// Keep each script's state dir inside its own work dir so
			// failure logs and selection caches never leak between runs.
			env.Setenv("XDG_CACHE_HOME", env.WorkDir)
			env.Setenv("SKYPICK_CONFIG", "")
			return nil
		},
	})
}

// Main registers the skypick binary as a testscript command. Call it
// from TestMain.
func Main(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"skypick": func() int { return skypick.Run(os.Args[1:]) },
	}))
}
