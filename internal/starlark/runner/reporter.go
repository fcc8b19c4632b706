package runner

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Reporter renders run results as human-readable text.
type Reporter struct {
	// ShowDuration shows per-unit timing.
	ShowDuration bool
}

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

// Report writes one line per unit followed by a summary.
func (rep *Reporter) Report(w io.Writer, rr *RunResult) {
	for _, res := range rr.Results {
		status := passMark("PASS")
		if !res.Passed {
			status = failMark("FAIL")
		}
		if rep.ShowDuration {
			_, _ = fmt.Fprintf(w, "%s  %s  %s:%d  (%s)\n", status, res.Label, res.File, res.Line, res.Duration.Round(time.Millisecond))
		} else {
			_, _ = fmt.Fprintf(w, "%s  %s  %s:%d\n", status, res.Label, res.File, res.Line)
		}
		if !res.Passed && res.Failure != nil {
			for _, line := range strings.Split(failureDetail(res.Failure), "\n") {
				_, _ = fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}

	passed, failed := rr.Summary()
	if failed > 0 {
		_, _ = fmt.Fprintf(w, "\n%s: %d passed, %d failed (%s)\n", failMark("FAIL"), passed, failed, rr.Duration.Round(time.Millisecond))
	} else {
		_, _ = fmt.Fprintf(w, "\n%s: %d passed (%s)\n", passMark("ok"), passed, rr.Duration.Round(time.Millisecond))
	}
}

// failureDetail renders an assertion failure, adding a unified diff
// when a multiline equality mismatch carries both operands.
func failureDetail(err error) string {
	detail := err.Error()

	var aerr *AssertionError
	if !errors.As(err, &aerr) {
		return detail
	}
	if aerr.Expected == "" && aerr.Actual == "" {
		return detail
	}
	if !strings.Contains(aerr.Expected, "\n") && !strings.Contains(aerr.Actual, "\n") {
		return detail
	}

	diff, derr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(aerr.Expected),
		B:        difflib.SplitLines(aerr.Actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	if derr != nil || diff == "" {
		return detail
	}
	return detail + "\n" + strings.TrimRight(diff, "\n")
}
