package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors are shared by stores and services to report domain-specific
// failures to the transport layers.
// -----------------------------------------------------------------------------

// Problem errors
var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrInvalidProblem  = errors.New("invalid problem")
)

// Input errors
var (
	ErrProblemIDRequired     = errors.New("problem ID is required")
	ErrEmptyMessage          = errors.New("current message cannot be empty")
	ErrEmptySourceCode       = errors.New("source code is required")
	ErrInvalidTranscriptTurn = errors.New("invalid transcript entry")
)

// General errors
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal error")
)

// IsNotFound reports whether err is any not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrProblemNotFound)
}
