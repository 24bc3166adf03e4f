package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMap    = errors.New("invalid transition map")
	ErrNilEntity     = errors.New("entity cannot be nil")
	ErrSaverRequired = errors.New("saver is required")
	ErrGuardRejected = errors.New("transition rejected by guard")
	ErrPersistFailed = errors.New("failed to persist transition")
)

// InvalidTransitionError indicates the requested target is not reachable from the current state.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from '%s' to '%s'", e.From, e.To)
}

func NewInvalidTransitionError(from, to State) *InvalidTransitionError {
	return &InvalidTransitionError{
		From: from,
		To:   to,
	}
}

func IsInvalidTransitionError(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsGuardRejectedError(err error) bool {
	return errors.Is(err, ErrGuardRejected)
}
