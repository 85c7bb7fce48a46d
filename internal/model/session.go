// Package model defines the core domain models used throughout the application.
package model

import "time"

// SessionStatus describes the disposition of an organization session.
type SessionStatus string

// Session status constants.
const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionPartial    SessionStatus = "partial"
	SessionRolledBack SessionStatus = "rolled_back"
	SessionFailed     SessionStatus = "failed"
)

// IsValid reports whether the status is a known session status.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionInProgress, SessionCompleted, SessionPartial, SessionRolledBack, SessionFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status is a final disposition. A terminal
// session is immutable apart from rollback bookkeeping on its operations.
func (s SessionStatus) IsTerminal() bool {
	return s.IsValid() && s != SessionInProgress
}

// Session represents one organize-and-log run.
type Session struct {
	StartedAt     time.Time
	CompletedAt   *time.Time
	ID            string
	Status        SessionStatus
	SelectedMode  string
	UserType      string
	Notes         string
	TotalOps      int
	SuccessfulOps int
	FailedOps     int
}

// SessionLog is the full read view of a session: its summary, every
// operation ordered by op_id ascending, and every error record.
type SessionLog struct {
	Session    Session
	Operations []Operation
	Errors     []ErrorRecord
}
