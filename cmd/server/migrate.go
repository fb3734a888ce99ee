package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironpulse/clubsite/internal/api"
	"github.com/ironpulse/clubsite/internal/config"
	dbstore "github.com/ironpulse/clubsite/internal/db"
	"github.com/ironpulse/clubsite/internal/logger"
)

// memoryPath selects the in-memory store, for demos and local frontend work.
const memoryPath = "memory"

// openStore returns the configured store and a func releasing it. The SQLite
// file and its directory are created and migrated on first run.
func openStore(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (api.Store, func(), error) {
	path := strings.TrimSpace(cfg.SQLitePath)
	if path == "" || path == memoryPath {
		log.Warn("using in-memory store; data is lost on restart")
		return api.NewMemoryStore(), func() {}, nil
	}

	_, statErr := os.Stat(path)
	firstRun := os.IsNotExist(statErr)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	st, err := dbstore.Open(ctx, filepath.ToSlash(path), cfg.MigrationsDir, log)
	if err != nil {
		return nil, nil, err
	}
	if firstRun {
		log.Info("created sqlite database", "path", path)
	}
	return st, func() {
		if err := st.Close(); err != nil {
			log.Warn("close sqlite", "error", err)
		}
	}, nil
}
