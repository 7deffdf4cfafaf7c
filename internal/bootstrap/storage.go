// Package bootstrap assembles the storage backend and document stores shared by the
// server and the operator CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/studio/internal/config"
	"github.com/fastygo/studio/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/studio/internal/infrastructure/postgres"
	sqliteInfra "github.com/fastygo/studio/internal/infrastructure/sqlite"
	"github.com/fastygo/studio/repository"
	"github.com/fastygo/studio/repository/postgres"
	"github.com/fastygo/studio/repository/sqlite"
)

// Storage bundles the repositories of the configured driver.
type Storage struct {
	Driver     string
	Documents  repository.DocumentRepository
	Versions   repository.VersionRepository
	Audits     repository.AuditRepository
	Promotions repository.PromotionRepository
	Tx         repository.Transactor
	Ping       monitor.PingFunc

	close func()
}

// OpenStorage connects to the configured driver and brings its schema up to date: Postgres
// through the migration files, SQLite through its embedded schema.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, cfg.AppName, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Storage{
			Driver:     config.DriverPostgres,
			Documents:  postgres.NewDocumentRepository(pool),
			Versions:   postgres.NewVersionRepository(pool),
			Audits:     postgres.NewAuditRepository(pool),
			Promotions: postgres.NewPromotionRepository(pool),
			Tx:         postgres.NewTransactor(pool),
			Ping:       pool.Ping,
			close:      pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqliteInfra.Open(ctx, cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		if err := sqliteInfra.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return newSQLiteStorage(db, logger), nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func newSQLiteStorage(db *sql.DB, logger *zap.Logger) *Storage {
	return &Storage{
		Driver:     config.DriverSQLite,
		Documents:  sqlite.NewDocumentRepository(db),
		Versions:   sqlite.NewVersionRepository(db),
		Audits:     sqlite.NewAuditRepository(db),
		Promotions: sqlite.NewPromotionRepository(db),
		Tx:         sqlite.NewTransactor(db),
		Ping:       db.PingContext,
		close: func() {
			if err := db.Close(); err != nil {
				logger.Warn("sqlite close failed", zap.Error(err))
			}
		},
	}
}

func (s *Storage) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}
