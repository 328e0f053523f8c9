package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrUnsupportedField is returned for schema entries the prompter cannot
	// ask for.
	ErrUnsupportedField = errors.New("prompt: unsupported field")
)
