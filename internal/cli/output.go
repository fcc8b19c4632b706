package cli

import (
	"fmt"
	"io"
)

// Writef writes formatted output to the writer.
//
// Write errors are intentionally ignored: these helpers write to
// stdout/stderr where there is no reasonable recovery, and the exit
// code still reflects the actual operation status.
func Writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// Writeln writes a line to the writer, ignoring write errors.
func Writeln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
