package app

import "errors"

var (
	// ErrUnknownBlock is returned when a session references a block that is
	// not part of the user's latest plan.
	ErrUnknownBlock = errors.New("unknown block")
	// ErrSessionClosed is returned when completing a completed session.
	ErrSessionClosed = errors.New("session already completed")
	// ErrInvalidFocus is returned for focus scores outside [0, 10].
	ErrInvalidFocus = errors.New("focus score must be within [0, 10]")
	// ErrMissingUser is returned when an operation has no user identifier.
	ErrMissingUser = errors.New("user id is required")
	// ErrInvalidRange is returned when a history query ends before it starts.
	ErrInvalidRange = errors.New("query end is before its start")
)
