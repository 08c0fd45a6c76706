package database

import (
	"fmt"
	"os"
	"path/filepath"

	"picpath/internal/config"
	"picpath/internal/picpath"
)

// NewStoreFromConfig creates a store based on the database config type and
// brings its schema up to date. The image table is a cache of the volumes,
// so migrating on open is always safe.
func NewStoreFromConfig(cfg config.DatabaseConfig, deviceID string, logger picpath.Logger) (*SQLiteStore, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		path = filepath.Join(cfg.DataDir, deviceID+".db")
	case "memory":
		path = memoryPath
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	store, err := NewSQLiteStore(path, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return store, nil
}
