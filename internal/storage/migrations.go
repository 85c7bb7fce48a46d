package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial journal schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS sessions (
					session_id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					completed_at DATETIME,
					status TEXT NOT NULL DEFAULT 'in_progress'
						CHECK (status IN ('in_progress', 'completed', 'partial', 'rolled_back', 'failed')),
					selected_mode TEXT,
					user_type TEXT,
					total_operations INTEGER DEFAULT 0,
					successful_operations INTEGER DEFAULT 0,
					failed_operations INTEGER DEFAULT 0,
					notes TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS operations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL,
					op_id INTEGER NOT NULL,
					op_type TEXT NOT NULL
						CHECK (op_type IN ('move', 'copy', 'create_folder', 'rename', 'delete')),
					status TEXT NOT NULL DEFAULT 'pending'
						CHECK (status IN ('pending', 'completed', 'failed', 'rolled_back', 'skipped')),
					source_path TEXT,
					destination_path TEXT,
					filename TEXT,
					extension TEXT,
					size_bytes INTEGER,
					confidence REAL,
					suggested_folder TEXT,
					document_type TEXT,
					timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					rolled_back_at DATETIME,
					error_message TEXT,
					UNIQUE(session_id, op_id),
					FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS activity_errors (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL,
					op_id INTEGER,
					error_code TEXT NOT NULL,
					error_message TEXT,
					file_path TEXT,
					severity TEXT CHECK (severity IN ('low', 'medium', 'high', 'critical')),
					timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					resolved INTEGER DEFAULT 0,
					resolution TEXT,
					FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Indexes for recovery and undo queries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status)`,
				`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
				`CREATE INDEX IF NOT EXISTS idx_operations_session_status ON operations(session_id, status)`,
				`CREATE INDEX IF NOT EXISTS idx_activity_errors_session_id ON activity_errors(session_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Track error resolution state",
		Up: func(tx *sql.Tx) error {
			// resolved/resolution existed since v1; this adds a partial
			// index so unresolved-error lookups stay cheap.
			_, err := tx.Exec(
				`CREATE INDEX IF NOT EXISTS idx_activity_errors_unresolved
				 ON activity_errors(session_id) WHERE resolved = 0`)
			if err != nil {
				return fmt.Errorf("failed to create unresolved index: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
