// Package engine implements the operation executor and the undo engine
// that sit between the command surface and the journal store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/model"
	"github.com/RCushmaniii/filesense/internal/service"
)

// Executor brackets every filesystem mutation with journal writes:
// record pending, perform, record outcome. Logging happens before acting
// so a crash mid-mutation always leaves a pending row behind rather than
// a silently lost mutation.
type Executor struct {
	storage service.Storage
	mover   service.Mover
}

// NewExecutor creates an executor over the given journal store and mover.
func NewExecutor(storage service.Storage, mover service.Mover) *Executor {
	return &Executor{
		storage: storage,
		mover:   mover,
	}
}

// StartSession opens a new session. Fails with common.ErrSessionActive
// while another session is still in progress.
func (e *Executor) StartSession(ctx context.Context, mode, userType string) (*model.Session, error) {
	session, err := e.storage.CreateSession(ctx, mode, userType)
	if err != nil {
		if errors.Is(err, common.ErrSessionActive) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	slog.Info("Session started",
		"session_id", session.ID,
		"mode", mode,
		"user_type", userType)
	return session, nil
}

// Execute runs the full bracket for one mutation: journal a pending
// operation, invoke the mover, then record the outcome. A journal write
// failure aborts before the filesystem is touched and is returned wrapped
// in common.ErrStorage. A mover failure marks the operation failed,
// records an error, and is returned wrapped in common.ErrFilesystem so
// the caller can continue with the next file.
func (e *Executor) Execute(ctx context.Context, sessionID string, req model.OperationRequest) (int, error) {
	opID, err := e.LogOperation(ctx, sessionID, req)
	if err != nil {
		return 0, err
	}

	if moveErr := e.invokeMover(ctx, req); moveErr != nil {
		if failErr := e.FailOperation(ctx, sessionID, opID, "filesystem_error", moveErr.Error()); failErr != nil {
			return opID, failErr
		}
		return opID, fmt.Errorf("%w: operation %d: %v", common.ErrFilesystem, opID, moveErr)
	}

	if err := e.CompleteOperation(ctx, sessionID, opID); err != nil {
		return opID, err
	}
	return opID, nil
}

// LogOperation journals a pending operation without performing it, for
// callers that drive the mover themselves.
func (e *Executor) LogOperation(ctx context.Context, sessionID string, req model.OperationRequest) (int, error) {
	opID, err := e.storage.LogOperation(ctx, sessionID, req)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrSessionTerminal) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	slog.Debug("Operation journaled",
		"session_id", sessionID,
		"op_id", opID,
		"op_type", req.Type)
	return opID, nil
}

// CompleteOperation marks a journaled operation completed.
func (e *Executor) CompleteOperation(ctx context.Context, sessionID string, opID int) error {
	err := e.storage.UpdateOperationStatus(ctx, sessionID, opID, model.OpCompleted, "")
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return nil
}

// FailOperation marks a journaled operation failed and records the error.
func (e *Executor) FailOperation(ctx context.Context, sessionID string, opID int, code, message string) error {
	err := e.storage.UpdateOperationStatus(ctx, sessionID, opID, model.OpFailed, message)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	rec := model.ErrorRecord{
		SessionID: sessionID,
		OpID:      &opID,
		Code:      code,
		Message:   message,
		Severity:  model.SeverityMedium,
	}
	if _, err := e.storage.LogError(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	slog.Warn("Operation failed",
		"session_id", sessionID,
		"op_id", opID,
		"code", code,
		"error", message)
	return nil
}

// SkipOperation marks a journaled pending operation skipped without
// touching the filesystem.
func (e *Executor) SkipOperation(ctx context.Context, sessionID string, opID int) error {
	err := e.storage.UpdateOperationStatus(ctx, sessionID, opID, model.OpSkipped, "")
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return nil
}

// CompleteSession closes a session with the given terminal status. A
// session reaches a terminal status through this path exactly once.
func (e *Executor) CompleteSession(ctx context.Context, sessionID string, status model.SessionStatus) error {
	if !status.IsTerminal() {
		return fmt.Errorf("cannot complete session with non-terminal status %q", status)
	}

	session, err := e.storage.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if session.Status.IsTerminal() {
		return fmt.Errorf("%w: session %s is %s", common.ErrSessionTerminal, sessionID, session.Status)
	}

	if err := e.storage.SetSessionStatus(ctx, sessionID, status); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	slog.Info("Session completed", "session_id", sessionID, "status", status)
	return nil
}

func (e *Executor) invokeMover(ctx context.Context, req model.OperationRequest) error {
	switch req.Type {
	case model.OpMove:
		return e.mover.Move(ctx, req.SourcePath, req.DestinationPath)
	case model.OpCopy:
		return e.mover.Copy(ctx, req.SourcePath, req.DestinationPath)
	case model.OpCreateFolder:
		return e.mover.CreateFolder(ctx, req.DestinationPath)
	case model.OpRename:
		return e.mover.Rename(ctx, req.SourcePath, req.DestinationPath)
	case model.OpDelete:
		return e.mover.Delete(ctx, req.SourcePath)
	default:
		return fmt.Errorf("unknown operation type %q", req.Type)
	}
}
