package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrLockHeld indicates another worker holds the requested lock.
	ErrLockHeld = errors.New("lock already held")
)
