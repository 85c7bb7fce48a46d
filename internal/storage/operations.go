package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/model"
)

const operationColumns = `id, session_id, op_id, op_type, status, source_path,
	destination_path, filename, extension, size_bytes, confidence,
	suggested_folder, document_type, timestamp, rolled_back_at, error_message`

// LogOperation journals a new pending operation and returns its op_id.
// The MAX(op_id)+1 read and the insert share one transaction, so op_ids
// within a session are contiguous and never reused even under concurrent
// callers. The session's total_operations counter is bumped in the same
// transaction.
func (s *SQLiteStorage) LogOperation(ctx context.Context, sessionID string, req model.OperationRequest) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return 0, err
	}
	if err := validateOperationRequest(req); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM sessions WHERE session_id = ?`, sessionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: session %s", common.ErrNotFound, sessionID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check session: %w", err)
	}
	if model.SessionStatus(status).IsTerminal() {
		return 0, fmt.Errorf("%w: session %s is %s", common.ErrSessionTerminal, sessionID, status)
	}

	var opID int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(op_id), 0) + 1 FROM operations WHERE session_id = ?`,
		sessionID).Scan(&opID)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate op_id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO operations (
			session_id, op_id, op_type, status, source_path, destination_path,
			filename, extension, size_bytes, confidence, suggested_folder,
			document_type, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sessionID,
		opID,
		string(req.Type),
		string(model.OpPending),
		nullableString(req.SourcePath),
		nullableString(req.DestinationPath),
		nullableString(req.Filename),
		nullableString(req.Extension),
		req.SizeBytes,
		req.Confidence,
		nullableString(req.SuggestedFolder),
		nullableString(req.DocumentType),
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert operation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET total_operations = total_operations + 1 WHERE session_id = ?`,
		sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to update session total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit operation: %w", err)
	}

	return opID, nil
}

// UpdateOperationStatus records the outcome of a journaled operation and
// bumps the matching session counter in the same transaction.
func (s *SQLiteStorage) UpdateOperationStatus(ctx context.Context, sessionID string, opID int, status model.OperationStatus, errMsg string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}
	if opID <= 0 {
		return ErrInvalidOpID
	}
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE operations SET status = ?, error_message = ?
		WHERE session_id = ? AND op_id = ?
	`, string(status), nullableString(errMsg), sessionID, opID)
	if err != nil {
		return fmt.Errorf("failed to update operation status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: operation %d in session %s", common.ErrNotFound, opID, sessionID)
	}

	switch status {
	case model.OpCompleted:
		_, err = tx.ExecContext(ctx,
			`UPDATE sessions SET successful_operations = successful_operations + 1 WHERE session_id = ?`,
			sessionID)
	case model.OpFailed:
		_, err = tx.ExecContext(ctx,
			`UPDATE sessions SET failed_operations = failed_operations + 1 WHERE session_id = ?`,
			sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to update session counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}
	return nil
}

// MarkRolledBack stamps an operation as rolled back.
func (s *SQLiteStorage) MarkRolledBack(ctx context.Context, sessionID string, opID int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}
	if opID <= 0 {
		return ErrInvalidOpID
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE operations SET status = ?, rolled_back_at = ?
		WHERE session_id = ? AND op_id = ?
	`, string(model.OpRolledBack), time.Now().UTC(), sessionID, opID)
	if err != nil {
		return fmt.Errorf("failed to mark operation rolled back: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: operation %d in session %s", common.ErrNotFound, opID, sessionID)
	}
	return nil
}

// GetOperation returns one operation by session and op_id.
func (s *SQLiteStorage) GetOperation(ctx context.Context, sessionID string, opID int) (*model.Operation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}
	if opID <= 0 {
		return nil, ErrInvalidOpID
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+operationColumns+` FROM operations WHERE session_id = ? AND op_id = ?`,
		sessionID, opID)

	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: operation %d in session %s", common.ErrNotFound, opID, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

// GetSessionOperations returns all operations for a session, op_id ascending.
func (s *SQLiteStorage) GetSessionOperations(ctx context.Context, sessionID string) ([]model.Operation, error) {
	return s.queryOperations(ctx, sessionID,
		`SELECT `+operationColumns+` FROM operations WHERE session_id = ? ORDER BY op_id ASC`)
}

// GetCompletedOperations returns the completed operations for a session in
// op_id descending order, the order a full-session undo must process them.
func (s *SQLiteStorage) GetCompletedOperations(ctx context.Context, sessionID string) ([]model.Operation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM operations
		 WHERE session_id = ? AND status = ? ORDER BY op_id DESC`,
		sessionID, string(model.OpCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to query completed operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectOperations(rows)
}

func (s *SQLiteStorage) queryOperations(ctx context.Context, sessionID, query string) ([]model.Operation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectOperations(rows)
}

func scanOperation(row rowScanner) (*model.Operation, error) {
	var op model.Operation
	var source, dest, filename, extension, suggested, docType, errMsg sql.NullString
	var sizeBytes sql.NullInt64
	var confidence sql.NullFloat64
	var rolledBackAt sql.NullTime

	err := row.Scan(
		&op.ID,
		&op.SessionID,
		&op.OpID,
		&op.Type,
		&op.Status,
		&source,
		&dest,
		&filename,
		&extension,
		&sizeBytes,
		&confidence,
		&suggested,
		&docType,
		&op.Timestamp,
		&rolledBackAt,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	op.SourcePath = source.String
	op.DestinationPath = dest.String
	op.Filename = filename.String
	op.Extension = extension.String
	op.SizeBytes = sizeBytes.Int64
	op.Confidence = confidence.Float64
	op.SuggestedFolder = suggested.String
	op.DocumentType = docType.String
	op.ErrorMessage = errMsg.String
	if rolledBackAt.Valid {
		t := rolledBackAt.Time
		op.RolledBackAt = &t
	}

	return &op, nil
}

func collectOperations(rows *sql.Rows) ([]model.Operation, error) {
	var ops []model.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}
	return ops, nil
}
