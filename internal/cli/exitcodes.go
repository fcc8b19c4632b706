// Package cli provides shared output utilities for skypick.
package cli

// Standard exit codes.
const (
	// ExitOK indicates successful execution, including an empty
	// selection ("nothing to do").
	ExitOK = 0

	// ExitFailed indicates the run completed but at least one selected
	// test block failed.
	ExitFailed = 1

	// ExitError indicates a fatal error (parse error, I/O error, a
	// unit that broke the harness, etc.).
	ExitError = 2
)
