// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/RCushmaniii/filesense/internal/model"
)

// Storage defines the contract for the journal persistence layer.
type Storage interface {
	// Session lifecycle
	CreateSession(ctx context.Context, mode, userType string) (*model.Session, error)
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	ListRecentSessions(ctx context.Context, limit int) ([]model.Session, error)
	ListIncompleteSessions(ctx context.Context) ([]model.Session, error)
	ListExpiredSessions(ctx context.Context, cutoff time.Time) ([]model.Session, error)
	CountIncompleteSessions(ctx context.Context) (int, error)
	SetSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error
	DeleteSession(ctx context.Context, sessionID string) error

	// Operation journal
	LogOperation(ctx context.Context, sessionID string, req model.OperationRequest) (int, error)
	UpdateOperationStatus(ctx context.Context, sessionID string, opID int, status model.OperationStatus, errMsg string) error
	MarkRolledBack(ctx context.Context, sessionID string, opID int) error
	GetOperation(ctx context.Context, sessionID string, opID int) (*model.Operation, error)
	GetSessionOperations(ctx context.Context, sessionID string) ([]model.Operation, error)
	GetCompletedOperations(ctx context.Context, sessionID string) ([]model.Operation, error)

	// Error records
	LogError(ctx context.Context, rec model.ErrorRecord) (int64, error)
	ResolveError(ctx context.Context, id int64, resolution string) error
	GetSessionErrors(ctx context.Context, sessionID string) ([]model.ErrorRecord, error)

	// Full read view
	GetSessionLog(ctx context.Context, sessionID string) (*model.SessionLog, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Mover performs the actual filesystem mutations. The executor brackets
// every call with journal writes; path resolution and duplicate-name
// policy belong to the implementation, not to this core.
type Mover interface {
	Move(ctx context.Context, source, destination string) error
	Copy(ctx context.Context, source, destination string) error
	CreateFolder(ctx context.Context, path string) error
	Rename(ctx context.Context, source, destination string) error
	Delete(ctx context.Context, path string) error
	// RemoveEmptyFolder removes a directory only when it is empty.
	RemoveEmptyFolder(ctx context.Context, path string) error
}
