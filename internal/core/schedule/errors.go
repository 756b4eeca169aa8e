package schedule

import "errors"

var (
	// ErrTaskNotFound is returned when an operation names a task that is not
	// part of the current schedule.
	ErrTaskNotFound = errors.New("task not found")
	// ErrPhaseNotFound is returned when a phase number does not exist on a task.
	ErrPhaseNotFound = errors.New("phase not found")
	// ErrInvalidRange is returned when an end date precedes its start date.
	ErrInvalidRange = errors.New("end date is before start date")
	// ErrSpanTooLarge is returned by projections that enumerate every day of
	// the schedule when the span is implausibly long.
	ErrSpanTooLarge = errors.New("schedule span too large")
)
