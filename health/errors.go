package health

import "errors"

var (
	// ErrCheckTimeout is set on a Result whose checker did not return
	// within the aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrCheckerNotFound is returned by Aggregator.Check for an
	// unregistered name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrCheckFailed is the generic failure cause used by checkers that
	// detect a broken dependency without a more specific error.
	ErrCheckFailed = errors.New("health: check failed")
)
