package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/config"
	"github.com/RCushmaniii/filesense/internal/engine"
	"github.com/RCushmaniii/filesense/internal/fsops"
	"github.com/RCushmaniii/filesense/internal/storage"
)

// initStorage initializes the journal store with proper path expansion
// and auto-migration.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError("failed to open the activity journal at "+dbPath, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func newExecutor(store *storage.SQLiteStorage) *engine.Executor {
	return engine.NewExecutor(store, fsops.NewMover())
}

func newUndoer(store *storage.SQLiteStorage) *engine.Undoer {
	return engine.NewUndoer(store, fsops.NewMover())
}

func archiveDir() string {
	dir := viper.GetString("archive.path")
	if dir == "" {
		dir = config.DefaultArchivePath
	}
	return config.ExpandPath(dir)
}
