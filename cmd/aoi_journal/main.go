// Command aoi_journal inspects journals written by aoi_sim's database
// backends.
//
//	aoi_journal [-config dir] [-sqlite file.db] sessions
//	aoi_journal [-config dir] [-sqlite file.db] events <uuid>
//	aoi_journal [-config dir] [-sqlite file.db] replay <uuid> [seq]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OCAP2/aoi/internal/config"
	"github.com/OCAP2/aoi/internal/database"
	"github.com/OCAP2/aoi/internal/journal"
	"github.com/OCAP2/aoi/internal/logging"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: aoi_journal [-config dir] [-sqlite file.db] sessions | events <uuid> | replay <uuid> [seq]")

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.ConfigFileName)
	sqlitePath := flag.String("sqlite", "", "read a dumped SQLite journal instead of Postgres")
	flag.Parse()

	logManager := logging.NewSlogManager()
	logManager.Setup(os.Stderr, "info", nil)
	logger := logManager.Logger()

	if err := config.Load(*configDir); err != nil {
		logger.Debug("No config file, using defaults", "error", err)
	}

	db, err := connect(*sqlitePath)
	if err != nil {
		logger.Error("Failed to connect to journal", "error", err)
		os.Exit(1)
	}
	logger.Info("Journal connection established", "dialect", db.Dialector.Name())

	if err := runCommand(context.Background(), journal.NewReader(db), flag.Args(), os.Stdout); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func connect(sqlitePath string) (*gorm.DB, error) {
	if sqlitePath != "" {
		if _, err := os.Stat(sqlitePath); err != nil {
			return nil, fmt.Errorf("sqlite journal: %w", err)
		}
		return database.GetSqliteDBStandalone(sqlitePath)
	}

	db, err := database.GetPostgresDBStandalone()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	return db, nil
}

func runCommand(ctx context.Context, r *journal.Reader, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	switch strings.ToLower(args[0]) {
	case "sessions":
		sessions, err := r.Sessions(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(sessions)

	case "events":
		if len(args) < 2 {
			return errUsage
		}
		s, err := r.SessionByUUID(ctx, args[1])
		if err != nil {
			return err
		}
		events, err := r.Events(ctx, s.ID)
		if err != nil {
			return err
		}
		return enc.Encode(events)

	case "replay":
		if len(args) < 2 {
			return errUsage
		}
		var seq uint64
		if len(args) > 2 {
			v, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seq %q: %w", args[2], err)
			}
			seq = v
		}
		s, err := r.SessionByUUID(ctx, args[1])
		if err != nil {
			return err
		}
		pairs, err := r.VisibleAt(ctx, s.ID, seq)
		if err != nil {
			return err
		}
		return enc.Encode(pairs)

	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}
