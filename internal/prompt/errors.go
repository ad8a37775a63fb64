package prompt

import "errors"

// ErrAborted signals the user aborted input (e.g., Ctrl+C) or chose to stop.
var ErrAborted = errors.New("prompt: aborted")
