package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/model"
)

const sessionColumns = `session_id, started_at, completed_at, status, selected_mode,
	user_type, total_operations, successful_operations, failed_operations, notes`

// CreateSession opens a new organization session. Exactly one session may
// be in progress at a time; the guard query and the insert run in one
// transaction so two concurrent callers cannot both open a session.
func (s *SQLiteStorage) CreateSession(ctx context.Context, mode, userType string) (*model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE status = ?`,
		string(model.SessionInProgress)).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("failed to check active sessions: %w", err)
	}
	if active > 0 {
		return nil, common.ErrSessionActive
	}

	session := &model.Session{
		ID:           uuid.New().String(),
		StartedAt:    time.Now().UTC(),
		Status:       model.SessionInProgress,
		SelectedMode: mode,
		UserType:     userType,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, started_at, status, selected_mode, user_type)
		VALUES (?, ?, ?, ?, ?)
	`,
		session.ID,
		session.StartedAt,
		string(session.Status),
		nullableString(mode),
		nullableString(userType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}

	return session, nil
}

// GetSession returns a session by ID, or common.ErrNotFound.
func (s *SQLiteStorage) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", common.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListRecentSessions returns up to limit sessions, most recent first.
func (s *SQLiteStorage) ListRecentSessions(ctx context.Context, limit int) ([]model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectSessions(rows)
}

// ListIncompleteSessions returns every in_progress session, most recent first.
func (s *SQLiteStorage) ListIncompleteSessions(ctx context.Context) ([]model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY started_at DESC`,
		string(model.SessionInProgress))
	if err != nil {
		return nil, fmt.Errorf("failed to list incomplete sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectSessions(rows)
}

// ListExpiredSessions returns terminal sessions whose completed_at is
// older than the cutoff, oldest first. Sessions still in progress never
// expire.
func (s *SQLiteStorage) ListExpiredSessions(ctx context.Context, cutoff time.Time) ([]model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE completed_at IS NOT NULL AND completed_at < ?
		 ORDER BY completed_at ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectSessions(rows)
}

// CountIncompleteSessions returns the number of in_progress sessions.
func (s *SQLiteStorage) CountIncompleteSessions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE status = ?`,
		string(model.SessionInProgress)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count incomplete sessions: %w", err)
	}
	return count, nil
}

// SetSessionStatus updates a session's status. Terminal statuses stamp
// completed_at; moving back to in_progress (resume) clears it.
func (s *SQLiteStorage) SetSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var result sql.Result
	var err error
	if status.IsTerminal() {
		result, err = s.db.ExecContext(ctx, `
			UPDATE sessions SET status = ?, completed_at = ? WHERE session_id = ?
		`, string(status), time.Now().UTC(), sessionID)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE sessions SET status = ?, completed_at = NULL WHERE session_id = ?
		`, string(status), sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: session %s", common.ErrNotFound, sessionID)
	}
	return nil
}

// DeleteSession removes a session; operations and error records cascade.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, sessionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: session %s", common.ErrNotFound, sessionID)
	}
	return nil
}

// GetSessionLog returns the full read view of a session: summary,
// operations ordered by op_id ascending, and error records.
func (s *SQLiteStorage) GetSessionLog(ctx context.Context, sessionID string) (*model.SessionLog, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	operations, err := s.GetSessionOperations(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	errRecords, err := s.GetSessionErrors(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &model.SessionLog{
		Session:    *session,
		Operations: operations,
		Errors:     errRecords,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var session model.Session
	var completedAt sql.NullTime
	var mode, userType, notes sql.NullString

	err := row.Scan(
		&session.ID,
		&session.StartedAt,
		&completedAt,
		&session.Status,
		&mode,
		&userType,
		&session.TotalOps,
		&session.SuccessfulOps,
		&session.FailedOps,
		&notes,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	session.SelectedMode = mode.String
	session.UserType = userType.String
	session.Notes = notes.String

	return &session, nil
}

func collectSessions(rows *sql.Rows) ([]model.Session, error) {
	var sessions []model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
