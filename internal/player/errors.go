package player

import "errors"

var (
	// ErrNoFrame reports an empty channel on a tick. Expected under normal
	// operation and never surfaced to the end user: the caller simply
	// retries next tick.
	ErrNoFrame = errors.New("no frame available")

	// ErrProbePending reports that stream discovery has not settled yet.
	ErrProbePending = errors.New("probe not yet available")

	// ErrStopped reports an operation against a torn-down backend.
	ErrStopped = errors.New("backend stopped")
)
