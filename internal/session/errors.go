package session

import "errors"

var (
	// ErrInvalidDuration rejects arming a countdown with a non-positive length.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrAssessmentUnavailable means the definition is missing or unusable;
	// no session is created.
	ErrAssessmentUnavailable = errors.New("assessment unavailable")

	// ErrAlreadyInProgress rejects a second simultaneous attempt for the same
	// (user, assessment) pair in this process.
	ErrAlreadyInProgress = errors.New("attempt already in progress")

	// ErrInvalidState rejects an operation called outside the state it is
	// allowed in. No side effects.
	ErrInvalidState = errors.New("invalid session state")

	// ErrSubmitPending tells a manual caller that a submission is already
	// in flight; poll state instead of treating the call as completed.
	ErrSubmitPending = errors.New("submission already in flight")
)
