package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts is returned when interactive validation keeps
	// failing after the configured number of retries.
	ErrTooManyAttempts = errors.New("tui: too many invalid attempts")
)
