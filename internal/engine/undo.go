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

// Undoer reverses completed operations by replaying type-specific inverse
// actions and aggregates full-session sweeps into a session disposition.
type Undoer struct {
	storage service.Storage
	mover   service.Mover

	// OnProgress, when set, is called after each operation in a
	// full-session sweep with the number processed and the total.
	OnProgress func(processed, total int)
}

// NewUndoer creates an undo engine over the given journal store and mover.
func NewUndoer(storage service.Storage, mover service.Mover) *Undoer {
	return &Undoer{
		storage: storage,
		mover:   mover,
	}
}

// UndoOperation reverses a single completed operation.
//
// An operation already rolled back reports success without touching the
// filesystem, making the call idempotent. Operations in pending, failed,
// or skipped status are rejected with common.ErrCannotUndo; delete
// operations are rejected with common.ErrUnsupportedUndo. An inverse
// action that fails on the filesystem is reported in the result, not as
// an error, and is journaled as an error record.
func (u *Undoer) UndoOperation(ctx context.Context, sessionID string, opID int) (model.UndoResult, error) {
	op, err := u.storage.GetOperation(ctx, sessionID, opID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return model.UndoResult{OpID: opID}, err
		}
		return model.UndoResult{OpID: opID}, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	if op.Status == model.OpRolledBack {
		return model.UndoResult{
			OpID:        opID,
			Success:     true,
			AlreadyDone: true,
			Message:     "already undone",
		}, nil
	}

	if op.Type == model.OpDelete {
		return model.UndoResult{OpID: opID},
			fmt.Errorf("%w: operation %d", common.ErrUnsupportedUndo, opID)
	}

	if op.Status != model.OpCompleted {
		return model.UndoResult{OpID: opID},
			fmt.Errorf("%w: operation %d is %s", common.ErrCannotUndo, opID, op.Status)
	}

	revertedPath, invErr := u.invokeInverse(ctx, op)
	if invErr != nil {
		if recErr := u.recordUndoFailure(ctx, op, invErr); recErr != nil {
			return model.UndoResult{OpID: opID}, recErr
		}
		return model.UndoResult{
			OpID:    opID,
			Message: invErr.Error(),
		}, nil
	}

	if err := u.storage.MarkRolledBack(ctx, sessionID, opID); err != nil {
		return model.UndoResult{OpID: opID}, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	slog.Info("Operation undone",
		"session_id", sessionID,
		"op_id", opID,
		"op_type", op.Type,
		"reverted_path", revertedPath)

	return model.UndoResult{
		OpID:         opID,
		Success:      true,
		RevertedPath: revertedPath,
		Message:      "operation undone",
	}, nil
}

// UndoSession reverses every completed operation in a session, walking
// op_ids in strictly descending order so later operations (a file moved
// into a folder created after it) are undone before the ones they depend
// on. The sweep never stops at the first failure; it processes the whole
// list and aggregates exact counts. The session disposition afterwards is
// rolled_back (all reverted), partial (mixed), or failed (none reverted).
func (u *Undoer) UndoSession(ctx context.Context, sessionID string) (model.SessionUndoResult, error) {
	result := model.SessionUndoResult{SessionID: sessionID}

	ops, err := u.storage.GetCompletedOperations(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return result, err
		}
		return result, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	for i, op := range ops {
		opResult, err := u.UndoOperation(ctx, sessionID, op.OpID)
		switch {
		case errors.Is(err, common.ErrUnsupportedUndo) || errors.Is(err, common.ErrCannotUndo):
			// The operation stays as-is; the sweep carries on.
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("op %d: %v", op.OpID, err))
		case err != nil:
			return result, err
		case opResult.Success:
			result.Reverted++
		default:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("op %d: %s", op.OpID, opResult.Message))
		}

		if u.OnProgress != nil {
			u.OnProgress(i+1, len(ops))
		}
	}

	disposition := result.Disposition()
	if err := u.storage.SetSessionStatus(ctx, sessionID, disposition); err != nil {
		return result, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	slog.Info("Session undo finished",
		"session_id", sessionID,
		"reverted", result.Reverted,
		"failed", result.Failed,
		"disposition", disposition)
	return result, nil
}

// invokeInverse dispatches the type-specific inverse action and returns
// the path the file or folder was restored to.
func (u *Undoer) invokeInverse(ctx context.Context, op *model.Operation) (string, error) {
	switch op.Type {
	case model.OpMove:
		// Move the file back from destination to its original source.
		if err := u.mover.Move(ctx, op.DestinationPath, op.SourcePath); err != nil {
			return "", err
		}
		return op.SourcePath, nil
	case model.OpCopy:
		// Remove the duplicate; the original still exists at source.
		if err := u.mover.Delete(ctx, op.DestinationPath); err != nil {
			return "", err
		}
		return op.SourcePath, nil
	case model.OpCreateFolder:
		if err := u.mover.RemoveEmptyFolder(ctx, op.DestinationPath); err != nil {
			return "", err
		}
		return op.DestinationPath, nil
	case model.OpRename:
		if err := u.mover.Rename(ctx, op.DestinationPath, op.SourcePath); err != nil {
			return "", err
		}
		return op.SourcePath, nil
	default:
		return "", fmt.Errorf("no inverse action for operation type %q", op.Type)
	}
}

func (u *Undoer) recordUndoFailure(ctx context.Context, op *model.Operation, invErr error) error {
	opID := op.OpID
	rec := model.ErrorRecord{
		SessionID: op.SessionID,
		OpID:      &opID,
		Code:      "undo_failed",
		Message:   invErr.Error(),
		FilePath:  op.DestinationPath,
		Severity:  model.SeverityMedium,
	}
	if _, err := u.storage.LogError(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	slog.Warn("Undo failed",
		"session_id", op.SessionID,
		"op_id", op.OpID,
		"op_type", op.Type,
		"error", invErr)
	return nil
}
