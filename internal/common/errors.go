// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Journal store errors. A storage failure is fatal to the step that hit
	// it: a mutation that cannot be recorded must not be assumed to have
	// happened.
	ErrStorage  = errors.New("journal storage failed")
	ErrNotFound = errors.New("not found")

	// Filesystem errors. Recovered locally: the operation is marked failed
	// and the run continues.
	ErrFilesystem = errors.New("filesystem operation failed")

	// Session lifecycle errors.
	ErrSessionActive   = errors.New("another session is in progress")
	ErrSessionTerminal = errors.New("session already has a terminal status")

	// Undo errors.
	ErrCannotUndo      = errors.New("operation cannot be undone")
	ErrUnsupportedUndo = errors.New("cannot undo delete: file content is gone")
)

// UserError represents an error whose message is safe to show directly.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsStorage reports whether err originated in the journal store.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
