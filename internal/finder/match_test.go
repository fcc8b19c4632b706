package finder

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/skypick/internal/starlark/blockindex"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"", "anything", true},
		{"foo", "test_foo.star", true},
		{"foo", "foto.star", true},
		{"foo", "test_bar.star", false},
		{"tfs", "test_foo.star", true},
		{"FOO", "test_foo.star", true},
		{"foo", "TEST_FOO.STAR", true},
		{"oof", "test_foo.star", false},
		{"star", "star", true},
		{"starr", "star", false},
	}
	for _, tt := range tests {
		if got := Match(tt.pattern, tt.s); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	candidates := []string{"test_foo.star", "foto.star", "test_bar.star"}
	got := Filter(candidates, "foo")
	want := []string{"test_foo.star", "foto.star"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterAllTermsMustMatch(t *testing.T) {
	candidates := []string{
		"parse header | codec_test.star:3-9",
		"parse body | codec_test.star:11-20",
		"encode header | writer_test.star:2-8",
	}
	got := Filter(candidates, "parse header")
	if len(got) != 1 || got[0] != candidates[0] {
		t.Errorf("Filter = %v, want only the first candidate", got)
	}
}

func TestFilterEmptyQueryKeepsAll(t *testing.T) {
	candidates := []string{"a", "b", "c"}
	if got := Filter(candidates, "  "); len(got) != 3 {
		t.Errorf("blank query filtered to %v", got)
	}
}

func TestFzfArgs(t *testing.T) {
	f := &Fzf{Multi: true}
	args := f.args("walker")

	joined := strings.Join(args, " ")
	for _, want := range []string{"--ansi", "--multi", "--with-nth 1", "--nth 1", "--query walker"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, args)
		}
	}
	for i, a := range args {
		if a == "--delimiter" && args[i+1] != blockindex.HiddenSep {
			t.Errorf("delimiter = %q, want hidden separator", args[i+1])
		}
	}
}

func TestFzfArgsWithoutQueryOrMulti(t *testing.T) {
	f := &Fzf{}
	joined := strings.Join(f.args(""), " ")
	if strings.Contains(joined, "--multi") || strings.Contains(joined, "--query") {
		t.Errorf("unexpected flags in %q", joined)
	}
}

func TestFzfCommandRunsInRoot(t *testing.T) {
	f := &Fzf{Root: "tests", Multi: true}
	cmd := f.command("fzf", "walker")

	// The hidden fields are root-relative, so the preview command only
	// resolves them when the subprocess runs in the test root.
	if cmd.Dir != "tests" {
		t.Errorf("cmd.Dir = %q, want tests", cmd.Dir)
	}
	if got, want := strings.Join(cmd.Args[1:], " "), strings.Join(f.args("walker"), " "); got != want {
		t.Errorf("cmd args = %q, want %q", got, want)
	}
}

func TestPreviewCommand(t *testing.T) {
	withPager := (&Fzf{Pager: "bat"}).previewCommand()
	if !strings.HasPrefix(withPager, "bat ") || !strings.Contains(withPager, "--line-range {3}:{4}") {
		t.Errorf("pager preview = %q", withPager)
	}

	fallback := (&Fzf{}).previewCommand()
	if fallback != "sed -n {3},{4}p {2}" {
		t.Errorf("fallback preview = %q", fallback)
	}
}
