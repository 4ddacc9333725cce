package gitrepo

import "errors"

// Errors returned by Reader implementations. Check them with errors.Is.
var (
	// ErrRefNotFound is returned when a revision reference does not resolve.
	ErrRefNotFound = errors.New("reference not found")

	// ErrCommandFailed is returned when the git binary exits non-zero or
	// cannot be started.
	ErrCommandFailed = errors.New("git command failed")

	// ErrTimeout is returned when a git command exceeds its deadline.
	ErrTimeout = errors.New("git command timed out")
)
