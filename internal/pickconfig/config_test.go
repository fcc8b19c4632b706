package pickconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigTOML)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTOMLConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
root = "suite"
patterns = ["*_spec.star"]
finder = "sk"
pager = ""
multi = false
`)
	cfg, err := LoadTOMLConfig(path)
	if err != nil {
		t.Fatalf("LoadTOMLConfig: %v", err)
	}
	want := &Config{
		Root:     "suite",
		Patterns: []string{"*_spec.star"},
		Finder:   "sk",
		Pager:    "",
		Multi:    false,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTOMLConfigPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `root = "checks"`+"\n")
	cfg, err := LoadTOMLConfig(path)
	if err != nil {
		t.Fatalf("LoadTOMLConfig: %v", err)
	}
	if cfg.Root != "checks" {
		t.Errorf("Root = %q, want checks", cfg.Root)
	}
	if cfg.Finder != "fzf" || cfg.Pager != "bat" || !cfg.Multi {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadTOMLConfigBadSyntax(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "root = [unclosed\n")
	if _, err := LoadTOMLConfig(path); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestDiscoverExplicitWins(t *testing.T) {
	t.Setenv(EnvConfig, "")
	explicit := writeConfig(t, t.TempDir(), `root = "explicit"`+"\n")

	cfg, from, err := Discover(explicit, t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Root != "explicit" || from != explicit {
		t.Errorf("got root %q from %q, want explicit config", cfg.Root, from)
	}
}

func TestDiscoverEnvOverridesWalk(t *testing.T) {
	envPath := writeConfig(t, t.TempDir(), `root = "from-env"`+"\n")
	t.Setenv(EnvConfig, envPath)

	startDir := t.TempDir()
	writeConfig(t, startDir, `root = "from-walk"`+"\n")

	cfg, from, err := Discover("", startDir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Root != "from-env" || from != envPath {
		t.Errorf("got root %q from %q, want env config", cfg.Root, from)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	t.Setenv(EnvConfig, "")
	top := t.TempDir()
	writeConfig(t, top, `root = "found-above"`+"\n")

	nested := filepath.Join(top, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, from, err := Discover("", nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Root != "found-above" {
		t.Errorf("Root = %q, want found-above", cfg.Root)
	}
	if from != filepath.Join(top, ConfigTOML) {
		t.Errorf("loaded from %q, want %q", from, filepath.Join(top, ConfigTOML))
	}
}

func TestDiscoverFallsBackToDefaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	cfg, from, err := Discover("", t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if from != "" {
		t.Errorf("loaded from %q, want defaults", from)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverExplicitMissingFile(t *testing.T) {
	t.Setenv(EnvConfig, "")
	if _, _, err := Discover(filepath.Join(t.TempDir(), "nope.toml"), ""); err == nil {
		t.Errorf("expected error for missing explicit config")
	}
}
