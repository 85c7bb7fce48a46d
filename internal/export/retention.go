package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/model"
	"github.com/RCushmaniii/filesense/internal/service"
)

// Retention archives and deletes sessions past a configured age. A
// session is only deleted after its export has been written to the
// archive directory; if the export or the write fails, the session is
// skipped so no history is lost silently.
type Retention struct {
	storage    service.Storage
	exporter   *Exporter
	archiveDir string
}

// NewRetention creates a retention sweep writing archives to archiveDir.
func NewRetention(storage service.Storage, archiveDir string) *Retention {
	return &Retention{
		storage:    storage,
		exporter:   NewExporter(storage),
		archiveDir: archiveDir,
	}
}

// ListExpired returns the sessions a cleanup with the given retention
// window would archive and delete, without touching anything.
func (r *Retention) ListExpired(ctx context.Context, retentionDays int) ([]model.Session, error) {
	if retentionDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	sessions, err := r.storage.ListExpiredSessions(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return sessions, nil
}

// CleanupOldSessions exports then deletes every session whose
// completed_at is older than retentionDays. It returns the number of
// sessions deleted. Operation and error rows cascade with their session.
func (r *Retention) CleanupOldSessions(ctx context.Context, retentionDays int) (int, error) {
	sessions, err := r.ListExpired(ctx, retentionDays)
	if err != nil {
		return 0, err
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(r.archiveDir, 0750); err != nil {
		return 0, fmt.Errorf("%w: failed to create archive directory: %v", common.ErrFilesystem, err)
	}

	deleted := 0
	for _, session := range sessions {
		text, err := r.exporter.Export(ctx, session.ID)
		if err != nil {
			slog.Warn("Skipping cleanup, export failed",
				"session_id", session.ID, "error", err)
			continue
		}
		if text == "" {
			slog.Warn("Skipping cleanup, empty export", "session_id", session.ID)
			continue
		}

		archivePath := filepath.Join(r.archiveDir, "session-"+session.ID+".txt")
		if err := os.WriteFile(archivePath, []byte(text), 0600); err != nil {
			slog.Warn("Skipping cleanup, archive write failed",
				"session_id", session.ID, "path", archivePath, "error", err)
			continue
		}

		if err := r.storage.DeleteSession(ctx, session.ID); err != nil {
			return deleted, fmt.Errorf("%w: %v", common.ErrStorage, err)
		}
		deleted++

		slog.Info("Archived and deleted session",
			"session_id", session.ID,
			"archive", archivePath,
			"completed_at", session.CompletedAt)
	}

	return deleted, nil
}
