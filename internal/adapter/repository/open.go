package repository

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/natpio/nasz-budzet/internal/adapter/repository/memory"
	"github.com/natpio/nasz-budzet/internal/adapter/repository/sqlstore"
	"github.com/natpio/nasz-budzet/internal/config"
	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/log"
)

// Open builds the record store selected by cfg.DataBackend.
// SQL backends are migrated before the store is returned.
func Open(cfg *config.Config, logger zerolog.Logger) (domain.Store, error) {
	logger = log.WithComponent(logger, log.ComponentStorage)

	switch cfg.DataBackend {
	case config.BackendMemory:
		logger.Warn().Str(log.FieldBackend, cfg.DataBackend).Msg("Using in-memory record store, data is lost on exit")
		return memory.New(), nil

	case config.BackendFile:
		store, err := memory.NewFile(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		logger.Info().Str(log.FieldBackend, cfg.DataBackend).Str("path", cfg.SnapshotPath).Msg("Record store ready")
		return store, nil

	case config.BackendSQLite:
		db, err := sqlstore.OpenSQLite(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return migrated(db, logger.With().Str("path", cfg.SQLiteDBPath).Logger())

	case config.BackendPostgres:
		db, err := sqlstore.OpenPostgres(cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return migrated(db, logger.With().Str("host", cfg.DBHost).Logger())
	}

	return nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
}

func migrated(db *sqlstore.DB, logger zerolog.Logger) (domain.Store, error) {
	if err := sqlstore.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info().
		Str(log.FieldBackend, string(db.Dialect())).
		Str(log.FieldOperation, log.OpMigrate).
		Msg("Record store ready")
	return sqlstore.NewStore(db), nil
}
