package schedule

import (
	"errors"
	"fmt"

	"scheduler/internal/model"
)

var (
	// ErrValidation is returned when a draft is committed without a title,
	// start or end.
	ErrValidation = errors.New("draft is missing title, start or end")
	// ErrConflict is returned when a new event clashes with an existing one.
	ErrConflict = errors.New("event clash detected")
	// ErrNotFound is returned when no event carries the requested ID.
	ErrNotFound = errors.New("event not found")
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current workflow state.
	ErrInvalidTransition = errors.New("invalid workflow transition")
)

// ConflictError carries the existing event a candidate clashed with.
type ConflictError struct {
	Candidate model.Event
	Existing  model.Event
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %q [%s, %s] clashes with %q [%s, %s]",
		ErrConflict.Error(),
		e.Candidate.Title, e.Candidate.Start.Format(timeLayout), e.Candidate.End.Format(timeLayout),
		e.Existing.Title, e.Existing.Start.Format(timeLayout), e.Existing.End.Format(timeLayout),
	)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

const timeLayout = "2006-01-02T15:04"
