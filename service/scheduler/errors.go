package scheduler

import "errors"

var (
	// ErrShutdown is returned by Submit once shutdown has begun, and is the
	// failure reported to jobs still queued when a forced shutdown ends.
	ErrShutdown = errors.New("scheduler: shut down")

	// ErrAlreadyStarted is returned when Start is called twice or after
	// Shutdown.
	ErrAlreadyStarted = errors.New("scheduler: already started")
)
