package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/OCAP2/aoi/internal/config"
	"github.com/OCAP2/aoi/internal/logging"
	"github.com/OCAP2/aoi/internal/storage"
	"github.com/OCAP2/aoi/internal/storage/memory"
	pgstorage "github.com/OCAP2/aoi/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/aoi/internal/storage/sqlite"

	"github.com/rs/zerolog"
)

// createStorageBackend maps storage.type to a journal backend. Unknown types
// fall back to the in-memory journal.
func createStorageBackend(cfg config.StorageConfig, logManager *logging.SlogManager, dbLogger zerolog.Logger, startTime time.Time) (storage.Backend, error) {
	logger := logManager.Logger()

	switch cfg.Type {
	case "postgres":
		logger.Info("Postgres storage backend selected")
		return pgstorage.New(pgstorage.Dependencies{
			LogManager: logManager,
			DBLogger:   dbLogger,
			PostGIS:    config.GetBool("db.postgis"),
		}), nil

	case "sqlite":
		dumpPath := filepath.Join(cfg.Memory.OutputDir, fmt.Sprintf("%s_%s.db", ServiceName, startTime.Format("20060102_150405")))
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, logManager, dbLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend selected", "dumpPath", dumpPath)
		return backend, nil

	case "none":
		logger.Info("Journaling disabled")
		return &storage.Nop{}, nil

	default:
		logger.Info("Memory storage backend selected", "outputDir", cfg.Memory.OutputDir)
		return memory.New(cfg.Memory), nil
	}
}
