package domain

import "errors"

// Input validation errors. All three are detected before any draws are made and are
// fatal to the run; callers match them with errors.Is.
var (
	// ErrInvalidParameters marks a malformed PERT triple, threshold or run size
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrInvalidEnvironment marks misaligned trial/year counts or a missing variable
	ErrInvalidEnvironment = errors.New("invalid environment")
	// ErrInvalidDecision marks an undefined action kind or an out-of-range year/funding level
	ErrInvalidDecision = errors.New("invalid decision")
)

// IsValidationError reports whether err wraps one of the input validation errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidParameters) ||
		errors.Is(err, ErrInvalidEnvironment) ||
		errors.Is(err, ErrInvalidDecision)
}
