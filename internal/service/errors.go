package service

import (
	"errors"
	"fmt"

	"formgate/internal/model"
)

var (
	ErrFlowNotFound     = errors.New("form session not found or superseded")
	ErrInvalidFlowState = errors.New("operation not valid in current state")
	ErrUnknownQuestion  = errors.New("question not part of this form")
)

// AccessDeniedError carries the access decision that blocked the actor.
type AccessDeniedError struct {
	Decision model.AccessDecision
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Decision)
}

// ValidationFailedError carries per-question validation failures. Local and
// pre-submit only; it blocks dispatch without mutating the draft.
type ValidationFailedError struct {
	Fields []model.FieldError
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed for %d question(s)", len(e.Fields))
}
