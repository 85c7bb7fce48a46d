// Package recovery detects sessions left non-terminal by a crash and
// resolves them at process start, before any new session opens.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/engine"
	"github.com/RCushmaniii/filesense/internal/model"
	"github.com/RCushmaniii/filesense/internal/service"
)

// Manager resolves incomplete sessions. The single-active-session
// invariant means at most one in_progress session can exist, so the
// manager deals with one session at a time.
type Manager struct {
	storage service.Storage
	undoer  *engine.Undoer
}

// NewManager creates a recovery manager.
func NewManager(storage service.Storage, undoer *engine.Undoer) *Manager {
	return &Manager{
		storage: storage,
		undoer:  undoer,
	}
}

// CheckIncomplete returns the session left in progress by a previous run,
// or nil when there is none.
func (m *Manager) CheckIncomplete(ctx context.Context) (*model.Session, error) {
	sessions, err := m.storage.ListIncompleteSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	session := sessions[0]
	slog.Info("Found incomplete session",
		"session_id", session.ID,
		"started_at", session.StartedAt,
		"successful_operations", session.SuccessfulOps,
		"failed_operations", session.FailedOps)
	return &session, nil
}

// Resume hands an incomplete session back to the caller to continue
// appending operations. The session stays in_progress; the returned log
// shows where the previous run stopped. Pending rows in the log are
// mutations with unknown outcome - the process died between journaling
// and recording the result - and are surfaced as such, never guessed at.
func (m *Manager) Resume(ctx context.Context, sessionID string) (*model.SessionLog, error) {
	log, err := m.storage.GetSessionLog(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if log.Session.Status != model.SessionInProgress {
		return nil, fmt.Errorf("%w: session %s is %s", common.ErrSessionTerminal, sessionID, log.Session.Status)
	}

	slog.Info("Resuming session", "session_id", sessionID)
	return log, nil
}

// Rollback undoes every completed operation of an incomplete session in
// reverse order and leaves the session with the sweep's disposition.
func (m *Manager) Rollback(ctx context.Context, sessionID string) (model.SessionUndoResult, error) {
	return m.undoer.UndoSession(ctx, sessionID)
}

// Discard marks an incomplete session failed and leaves completed
// mutations where they are: an explicit acknowledgement that the user
// accepts the partial result. The work done so far stays undoable later.
func (m *Manager) Discard(ctx context.Context, sessionID string) error {
	session, err := m.storage.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if session.Status.IsTerminal() {
		return fmt.Errorf("%w: session %s is %s", common.ErrSessionTerminal, sessionID, session.Status)
	}

	if err := m.storage.SetSessionStatus(ctx, sessionID, model.SessionFailed); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	slog.Info("Discarded incomplete session", "session_id", sessionID)
	return nil
}
