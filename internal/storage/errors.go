package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/model"
)

// LogError journals an error record for a session. OpID is nil for
// session-level failures.
func (s *SQLiteStorage) LogError(ctx context.Context, rec model.ErrorRecord) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateErrorRecord(rec); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_errors (
			session_id, op_id, error_code, error_message, file_path, severity, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.SessionID,
		rec.OpID,
		rec.Code,
		nullableString(rec.Message),
		nullableString(rec.FilePath),
		nullableString(string(rec.Severity)),
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert error record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get error record id: %w", err)
	}
	return id, nil
}

// ResolveError marks an error record resolved with a free-text resolution.
func (s *SQLiteStorage) ResolveError(ctx context.Context, id int64, resolution string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE activity_errors SET resolved = 1, resolution = ? WHERE id = ?
	`, nullableString(resolution), id)
	if err != nil {
		return fmt.Errorf("failed to resolve error record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: error record %d", common.ErrNotFound, id)
	}
	return nil
}

// GetSessionErrors returns all error records for a session, oldest first.
func (s *SQLiteStorage) GetSessionErrors(ctx context.Context, sessionID string) ([]model.ErrorRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, op_id, error_code, error_message, file_path,
		       severity, timestamp, resolved, resolution
		FROM activity_errors
		WHERE session_id = ?
		ORDER BY timestamp ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query error records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ErrorRecord
	for rows.Next() {
		var rec model.ErrorRecord
		var opID sql.NullInt64
		var message, filePath, severity, resolution sql.NullString

		err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&opID,
			&rec.Code,
			&message,
			&filePath,
			&severity,
			&rec.Timestamp,
			&rec.Resolved,
			&resolution,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan error record: %w", err)
		}

		if opID.Valid {
			v := int(opID.Int64)
			rec.OpID = &v
		}
		rec.Message = message.String
		rec.FilePath = filePath.String
		rec.Severity = model.ErrorSeverity(severity.String)
		rec.Resolution = resolution.String

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate error records: %w", err)
	}
	return records, nil
}
