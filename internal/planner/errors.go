package planner

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Construction errors. Any of these aborts a run; the caller has to fix the
// configuration or the input calendar.
var (
	ErrInvalidRange    = errors.New("planner: range start is after its end")
	ErrInvalidDuration = errors.New("planner: duration must be at least 1 hour")
	ErrInvalidWeekday  = errors.New("planner: weekday must be in range 1-7")
	ErrInvalidTime     = errors.New("planner: time of day must be HH:MM")
	ErrEmptyPattern    = errors.New("planner: assignment pattern is empty")
	ErrNegativeTravel  = errors.New("planner: travel hours cannot be negative")
)

// ErrInternalConsistency marks a violated algorithm invariant. It is never
// caused by bad input alone.
var ErrInternalConsistency = errors.New("planner: internal consistency failure")

// DefectError reports a collision that SubtractCollisions could not resolve
// into a smaller fragment.
type DefectError struct {
	Candidate Range
	Avoid     Range
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("%v: cannot subtract [%s, %s] from [%s, %s]",
		ErrInternalConsistency,
		e.Avoid.Start.Format(time.RFC3339), e.Avoid.End.Format(time.RFC3339),
		e.Candidate.Start.Format(time.RFC3339), e.Candidate.End.Format(time.RFC3339),
	)
}

// Unwrap lets errors.Is(err, ErrInternalConsistency) match.
func (e *DefectError) Unwrap() error {
	return ErrInternalConsistency
}
