package errors

import "errors"

var (
	// ErrNotFound is the sentinel for unknown or expired sessions, tasks and suggestions.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is the sentinel for operations not valid in the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrOutOfSequence is the sentinel for a submitted task that is not the current task.
	ErrOutOfSequence = errors.New("out of sequence")
	// ErrConflict is the sentinel for concurrent mutation detected on session or skill state.
	ErrConflict = errors.New("conflict")
	// ErrUpstreamTimeout is the sentinel for a content provider that did not respond in time.
	// It is always recovered locally with fallback content and never surfaced to callers.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrValidation is the sentinel for malformed request payloads.
	ErrValidation = errors.New("validation error")
)

// Is reports whether err wraps target, re-exported so call sites only import this package.
func Is(err, target error) bool { return errors.Is(err, target) }
