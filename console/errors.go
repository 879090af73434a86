package console

import "errors"

var (
	// ErrAlreadyRunning indicates Run was called while a previous Run
	// is still active.
	ErrAlreadyRunning = errors.New("console already running")
)
