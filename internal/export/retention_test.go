package export

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/model"
	"github.com/RCushmaniii/filesense/internal/storage"
)

// retentionEnv keeps a second connection to the same database file so
// tests can backdate completed_at, which the store never exposes.
type retentionEnv struct {
	store      *storage.SQLiteStorage
	raw        *sql.DB
	archiveDir string
}

func newRetentionEnv(t *testing.T) *retentionEnv {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))

	raw, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	return &retentionEnv{
		store:      store,
		raw:        raw,
		archiveDir: filepath.Join(dir, "archive"),
	}
}

// finishedSession creates a completed session with one logged move and
// backdates its completion to age days ago.
func (e *retentionEnv) finishedSession(t *testing.T, age int) string {
	t.Helper()
	ctx := context.Background()

	session, err := e.store.CreateSession(ctx, "simple", "home")
	require.NoError(t, err)

	opID, err := e.store.LogOperation(ctx, session.ID, model.OperationRequest{
		Type:            model.OpMove,
		SourcePath:      "/inbox/a.txt",
		DestinationPath: "/sorted/a.txt",
		Filename:        "a.txt",
	})
	require.NoError(t, err)
	require.NoError(t, e.store.UpdateOperationStatus(ctx, session.ID, opID, model.OpCompleted, ""))
	require.NoError(t, e.store.SetSessionStatus(ctx, session.ID, model.SessionCompleted))

	if age > 0 {
		completedAt := time.Now().UTC().AddDate(0, 0, -age)
		_, err = e.raw.ExecContext(ctx,
			"UPDATE sessions SET completed_at = ? WHERE session_id = ?", completedAt, session.ID)
		require.NoError(t, err)
	}
	return session.ID
}

func TestCleanupArchivesThenDeletes(t *testing.T) {
	env := newRetentionEnv(t)
	ctx := context.Background()

	oldID := env.finishedSession(t, 45)
	recentID := env.finishedSession(t, 0)

	retention := NewRetention(env.store, env.archiveDir)
	deleted, err := retention.CleanupOldSessions(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	// The expired session is archived before it is deleted.
	archivePath := filepath.Join(env.archiveDir, "session-"+oldID+".txt")
	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Session ID: "+oldID)
	assert.Contains(t, string(data), "[1] move - completed")

	_, err = env.store.GetSession(ctx, oldID)
	require.ErrorIs(t, err, common.ErrNotFound)

	// The recent session survives the sweep.
	_, err = env.store.GetSession(ctx, recentID)
	require.NoError(t, err)
}

func TestCleanupCascadesOperationRows(t *testing.T) {
	env := newRetentionEnv(t)
	ctx := context.Background()

	oldID := env.finishedSession(t, 60)

	retention := NewRetention(env.store, env.archiveDir)
	deleted, err := retention.CleanupOldSessions(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	var count int
	err = env.raw.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM operations WHERE session_id = ?", oldID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCleanupAbortsWhenArchiveDirUnavailable(t *testing.T) {
	env := newRetentionEnv(t)
	ctx := context.Background()

	oldID := env.finishedSession(t, 45)

	// A file where the archive directory should be makes every write fail.
	require.NoError(t, os.WriteFile(env.archiveDir, []byte("in the way"), 0600))

	retention := NewRetention(env.store, env.archiveDir)
	deleted, err := retention.CleanupOldSessions(ctx, 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrFilesystem))
	assert.Equal(t, 0, deleted)

	// Nothing was deleted; the session is still queryable.
	_, err = env.store.GetSession(ctx, oldID)
	require.NoError(t, err)
}

func TestListExpiredTouchesNothing(t *testing.T) {
	env := newRetentionEnv(t)
	ctx := context.Background()

	oldID := env.finishedSession(t, 45)

	retention := NewRetention(env.store, env.archiveDir)
	expired, err := retention.ListExpired(ctx, 30)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, oldID, expired[0].ID)

	// A dry listing never archives or deletes.
	_, statErr := os.Stat(env.archiveDir)
	assert.True(t, os.IsNotExist(statErr))
	_, err = env.store.GetSession(ctx, oldID)
	require.NoError(t, err)
}

func TestCleanupNothingExpired(t *testing.T) {
	env := newRetentionEnv(t)
	env.finishedSession(t, 0)

	retention := NewRetention(env.store, env.archiveDir)
	deleted, err := retention.CleanupOldSessions(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	// No expired sessions means the archive directory is never created.
	_, statErr := os.Stat(env.archiveDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanupRejectsNonPositiveRetention(t *testing.T) {
	env := newRetentionEnv(t)

	retention := NewRetention(env.store, env.archiveDir)
	for _, days := range []int{0, -7} {
		_, err := retention.CleanupOldSessions(context.Background(), days)
		require.Error(t, err)
	}
}
