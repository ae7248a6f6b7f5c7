package executor

import "errors"

// ErrPanic wraps a panic recovered while running an engine.
var ErrPanic = errors.New("executor: engine panicked")
