// Package apperr defines the sentinel errors shared across the service.
package apperr

import "errors"

var (
	// ErrNotFound reports that a node, path, or parent does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a duplicate name under the same parent.
	ErrConflict = errors.New("conflict")
	// ErrInvalidOperation reports an illegal structural request, such as
	// moving the root node or moving into a non-folder.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrCycleDetected reports a move that would create a cycle.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrInconsistentData reports an import record whose ancestor path
	// cannot be resolved.
	ErrInconsistentData = errors.New("inconsistent data")
	// ErrInvalidInput reports a malformed upload or disallowed payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageUnavailable reports that the graph backend is unreachable.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
