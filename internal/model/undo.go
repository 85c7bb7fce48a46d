package model

// UndoResult reports the outcome of reversing a single operation.
type UndoResult struct {
	Message      string
	RevertedPath string
	OpID         int
	Success      bool
	AlreadyDone  bool
}

// SessionUndoResult aggregates a full-session undo sweep. Reverted and
// Failed always carry exact counts; Errors holds one message per failed
// inverse action in the order the sweep hit them.
type SessionUndoResult struct {
	SessionID string
	Errors    []string
	Reverted  int
	Failed    int
}

// Success reports whether every attempted inverse action succeeded.
func (r SessionUndoResult) Success() bool {
	return r.Failed == 0
}

// Disposition returns the session status the sweep leaves behind:
// all reverted -> rolled_back, mixed -> partial, none reverted -> failed.
func (r SessionUndoResult) Disposition() SessionStatus {
	switch {
	case r.Failed == 0:
		return SessionRolledBack
	case r.Reverted > 0:
		return SessionPartial
	default:
		return SessionFailed
	}
}
