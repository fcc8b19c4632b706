package skypick

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/albertocavalcante/skypick/internal/pickconfig"
)

const passingSrc = `load("assert.star", "assert")

def test_outer():
    x = 1

    def test_inner():
        check("inner", x == 1)
`

const failingSrc = `check("doomed", 1 == 2)
`

// setupEnv isolates the state dir and config discovery, returning a
// test root prepared with the given files.
func setupEnv(t *testing.T, files map[string]string) string {
	t.Helper()
	color.NoColor = true
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	root := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfgDir := t.TempDir()
	cfg := `root = "` + strings.ReplaceAll(root, `\`, `\\`) + `"` + "\n"
	if err := os.WriteFile(filepath.Join(cfgDir, pickconfig.ConfigTOML), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(pickconfig.EnvConfig, filepath.Join(cfgDir, pickconfig.ConfigTOML))
	return root
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut strings.Builder
	code = RunWithIO(args, strings.NewReader(""), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunVersion(t *testing.T) {
	setupEnv(t, nil)
	code, out, _ := run(t, "-version")
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if !strings.HasPrefix(out, "skypick ") {
		t.Errorf("version output = %q", out)
	}
}

func TestRunList(t *testing.T) {
	setupEnv(t, map[string]string{"nested_test.star": passingSrc})
	code, out, errOut := run(t, "-list")
	if code != 0 {
		t.Fatalf("exit = %d, want 0 (stderr: %s)", code, errOut)
	}
	for _, want := range []string{
		"test_outer",
		"test_inner",
		"inner",
		"nested_test.star:3-7",
		"nested_test.star:6-7",
		"nested_test.star:7-7",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestRunListOrderedByPosition(t *testing.T) {
	setupEnv(t, map[string]string{"nested_test.star": passingSrc})
	_, out, _ := run(t, "-list")

	outer := strings.Index(out, "test_outer")
	inner := strings.Index(out, "test_inner")
	if outer < 0 || inner < 0 || outer > inner {
		t.Errorf("blocks not in line order:\n%s", out)
	}
}

func TestRunMatchExecutesAllBlocksInMatchedFiles(t *testing.T) {
	setupEnv(t, map[string]string{"nested_test.star": passingSrc})
	code, out, errOut := run(t, "-m", "nested")
	if code != 0 {
		t.Fatalf("exit = %d, want 0 (stderr: %s)", code, errOut)
	}
	if !strings.Contains(out, "ok: 3 passed") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestRunMatchWithFailureExitsNonZero(t *testing.T) {
	setupEnv(t, map[string]string{"doomed_test.star": failingSrc})
	code, out, _ := run(t, "-m", "doomed")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(out, "FAIL  doomed") {
		t.Errorf("fail line missing:\n%s", out)
	}
}

func TestRunFailuresReportsLastRun(t *testing.T) {
	setupEnv(t, map[string]string{"doomed_test.star": failingSrc})
	if code, _, _ := run(t, "-m", "doomed"); code != 1 {
		t.Fatalf("expected failing run")
	}

	code, out, _ := run(t, "-failures")
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if !strings.Contains(out, "doomed") || !strings.Contains(out, "doomed_test.star:1") {
		t.Errorf("failure summary missing:\n%s", out)
	}
}

func TestRunFailuresClearedByPassingRun(t *testing.T) {
	root := setupEnv(t, map[string]string{"doomed_test.star": failingSrc})
	if code, _, _ := run(t, "-m", "doomed"); code != 1 {
		t.Fatalf("expected failing run")
	}

	if err := os.WriteFile(filepath.Join(root, "doomed_test.star"), []byte(`check("doomed", 2 == 2)`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := run(t, "-m", "doomed"); code != 0 {
		t.Fatalf("expected passing run after fix")
	}

	_, out, _ := run(t, "-failures")
	if !strings.Contains(out, "no recorded failures") {
		t.Errorf("stale failures survived:\n%s", out)
	}
}

func TestRunLastRerunsSelection(t *testing.T) {
	setupEnv(t, map[string]string{"nested_test.star": passingSrc})
	if code, _, _ := run(t, "-m", "nested"); code != 0 {
		t.Fatalf("expected passing run")
	}

	code, out, errOut := run(t, "-last")
	if code != 0 {
		t.Fatalf("exit = %d, want 0 (stderr: %s)", code, errOut)
	}
	if !strings.Contains(out, "ok: 3 passed") {
		t.Errorf("rerun summary missing:\n%s", out)
	}
}

func TestRunLastWithNoCache(t *testing.T) {
	setupEnv(t, map[string]string{"nested_test.star": passingSrc})
	code, out, _ := run(t, "-last")
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if !strings.Contains(out, "nothing to re-run") {
		t.Errorf("missing no-cache message:\n%s", out)
	}
}

func TestRunNoMatchingFiles(t *testing.T) {
	setupEnv(t, nil)
	code, out, _ := run(t, "-m", "anything")
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if !strings.Contains(out, "no matching test files") {
		t.Errorf("missing message:\n%s", out)
	}
}

func TestRunUnknownFlag(t *testing.T) {
	setupEnv(t, nil)
	code, _, errOut := run(t, "-definitely-not-a-flag")
	if code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
	if errOut == "" {
		t.Errorf("expected usage output on stderr")
	}
}

func TestRunRootFlagOverridesConfig(t *testing.T) {
	setupEnv(t, nil)

	other := t.TempDir()
	if err := os.WriteFile(filepath.Join(other, "alt_test.star"), []byte(`check("alt", True)`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := run(t, "-root", other, "-m", "alt")
	if code != 0 {
		t.Fatalf("exit = %d, want 0 (stderr: %s)", code, errOut)
	}
	if !strings.Contains(out, "PASS  alt") {
		t.Errorf("block from -root root not run:\n%s", out)
	}
}
