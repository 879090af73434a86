package script

import "errors"

var (
	// ErrExecutorClosed is returned when invoking a script after the
	// manager has been closed.
	ErrExecutorClosed = errors.New("script executor is closed")

	// ErrInvalidManifest indicates a manifest.yaml failed validation.
	ErrInvalidManifest = errors.New("invalid script manifest")

	// ErrNoRunFunction indicates a script file does not define run().
	ErrNoRunFunction = errors.New("script does not define a run function")
)
