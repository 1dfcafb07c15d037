package model

import "errors"

var (
	// ErrInvalidParameter is returned for negative durations, non-positive
	// block lengths and other out-of-range planning parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidInterval is returned when an interval starts after it ends.
	ErrInvalidInterval = errors.New("invalid interval")
)
