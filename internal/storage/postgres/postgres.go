// Package postgres implements the storage.Backend interface on PostgreSQL.
// Queueing and batch writes come from the GORM backend; this package owns
// the connection and the PostGIS extension.
package postgres

import (
	"fmt"

	"github.com/OCAP2/aoi/internal/database"
	"github.com/OCAP2/aoi/internal/logging"
	gormstorage "github.com/OCAP2/aoi/internal/storage/gorm"
	"github.com/rs/zerolog"

	"gorm.io/gorm"
)

const maxOpenConns = 10

// Dependencies holds all dependencies for the PostgreSQL backend.
// If DB is nil, Init connects using the db.* config keys.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
	DBLogger   zerolog.Logger
	PostGIS    bool
}

// Backend implements storage.Backend on PostgreSQL. Init must be called
// before any other method.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new PostgreSQL storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// Init connects if needed, prepares extensions and starts the writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDBStandalone()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(maxOpenConns)
		b.deps.DB = db
	}

	if err := b.setupExtensions(); err != nil {
		return err
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         b.deps.DB,
		LogManager: b.deps.LogManager,
		DBLogger:   b.deps.DBLogger,
	})
	return b.Backend.Init()
}

// Close closes the embedded GORM backend.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}

// setupExtensions enables PostGIS when requested on a postgres dialect.
func (b *Backend) setupExtensions() error {
	db := b.deps.DB
	if !b.deps.PostGIS || db.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
		return fmt.Errorf("failed to create PostGIS extension: %w", err)
	}
	b.deps.LogManager.WriteLog("setupDB", "PostGIS extension created", "INFO")
	return nil
}
