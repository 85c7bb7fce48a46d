package model

import "time"

// OperationType identifies the filesystem mutation an operation performed.
type OperationType string

// Operation type constants.
const (
	OpMove         OperationType = "move"
	OpCopy         OperationType = "copy"
	OpCreateFolder OperationType = "create_folder"
	OpRename       OperationType = "rename"
	OpDelete       OperationType = "delete"
)

// IsValid reports whether the type is a known operation type.
func (t OperationType) IsValid() bool {
	switch t {
	case OpMove, OpCopy, OpCreateFolder, OpRename, OpDelete:
		return true
	}
	return false
}

// Reversible reports whether operations of this type can be undone.
// Deleted file content is gone, so delete is never reversible.
func (t OperationType) Reversible() bool {
	return t.IsValid() && t != OpDelete
}

// OperationStatus tracks an operation through its lifecycle:
// pending -> completed | failed | skipped, and completed -> rolled_back.
type OperationStatus string

// Operation status constants.
const (
	OpPending    OperationStatus = "pending"
	OpCompleted  OperationStatus = "completed"
	OpFailed     OperationStatus = "failed"
	OpRolledBack OperationStatus = "rolled_back"
	OpSkipped    OperationStatus = "skipped"
)

// IsValid reports whether the status is a known operation status.
func (s OperationStatus) IsValid() bool {
	switch s {
	case OpPending, OpCompleted, OpFailed, OpRolledBack, OpSkipped:
		return true
	}
	return false
}

// Operation is one logged filesystem mutation within a session. The
// descriptive payload (paths, filename, size) and the classification
// metadata (confidence, suggested folder, document type) are immutable
// once written; only status and rollback bookkeeping change afterwards.
type Operation struct {
	Timestamp       time.Time
	RolledBackAt    *time.Time
	SessionID       string
	Type            OperationType
	Status          OperationStatus
	SourcePath      string
	DestinationPath string
	Filename        string
	Extension       string
	SuggestedFolder string
	DocumentType    string
	ErrorMessage    string
	ID              int64
	OpID            int
	SizeBytes       int64
	Confidence      float64
}

// OperationRequest carries the payload for logging a new operation.
// OpID and status are assigned by the journal store at log time.
type OperationRequest struct {
	Type            OperationType
	SourcePath      string
	DestinationPath string
	Filename        string
	Extension       string
	SuggestedFolder string
	DocumentType    string
	SizeBytes       int64
	Confidence      float64
}
