package model

import "time"

// ErrorSeverity ranks how disruptive a recorded failure was.
type ErrorSeverity string

// Error severity constants.
const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityHigh     ErrorSeverity = "high"
	SeverityCritical ErrorSeverity = "critical"
)

// IsValid reports whether the severity is a known level.
func (s ErrorSeverity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ErrorRecord associates a failure with a session and, when the failure
// was operation-level, with a specific op_id. Records are append-only
// except for the resolved/resolution fields.
type ErrorRecord struct {
	Timestamp  time.Time
	SessionID  string
	Code       string
	Message    string
	FilePath   string
	Severity   ErrorSeverity
	Resolution string
	ID         int64
	OpID       *int
	Resolved   bool
}
