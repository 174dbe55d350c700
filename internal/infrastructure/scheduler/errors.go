package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when a job is created without a task or interval
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrInvalidHour is returned for a daily trigger hour outside 0..23
	ErrInvalidHour = errors.New("daily trigger hour must be between 0 and 23")
)
