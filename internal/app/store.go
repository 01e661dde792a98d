package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/json-auditor/internal/adapter/memory"
	"github.com/heartmarshall/json-auditor/internal/adapter/postgres"
	"github.com/heartmarshall/json-auditor/internal/adapter/postgres/chain"
	"github.com/heartmarshall/json-auditor/internal/adapter/sqlite"
	"github.com/heartmarshall/json-auditor/internal/config"
	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/migrations"
)

// ChainStore is the full surface of a chain store as used by the server and
// the maintenance commands.
type ChainStore interface {
	Append(ctx context.Context, rec domain.AuditRecord) error
	LatestOverall(ctx context.Context, key domain.PartitionKey) (domain.AuditRecord, error)
	RecordsBefore(ctx context.Context, key domain.PartitionKey, cutoff *time.Time) ([]domain.AuditRecord, error)
	WithPartitionLock(ctx context.Context, key domain.PartitionKey, fn func(ctx context.Context) error) error
	Partitions(ctx context.Context) ([]domain.PartitionKey, error)
	Ping(ctx context.Context) error
}

// OpenStore opens the store selected by cfg.Driver. migrate forces the
// postgres migrations regardless of cfg.AutoMigrate; sqlite always migrates.
// The returned close function releases the store.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger, migrate bool) (ChainStore, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if migrate || cfg.AutoMigrate {
			if err := migratePostgres(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return chain.New(pool), pool.Close, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("close sqlite store", slog.String("error", err.Error()))
			}
		}, nil

	case config.DriverMemory:
		logger.Warn("using the in-memory store; audit history is lost on restart")
		return memory.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	results, err := migrations.Up(ctx, goose.DialectPostgres, db)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("migration applied",
			slog.String("source", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
	return nil
}

// MigrationStatus reports every embedded migration and whether it has been
// applied to the configured database.
func MigrationStatus(ctx context.Context, cfg config.DatabaseConfig) ([]*goose.MigrationStatus, error) {
	var dialect goose.Dialect
	var driverName, dsn string

	switch cfg.Driver {
	case config.DriverPostgres:
		dialect, driverName, dsn = goose.DialectPostgres, "pgx", cfg.DSN
	case config.DriverSQLite:
		dialect, driverName, dsn = goose.DialectSQLite3, "sqlite", cfg.SQLitePath
	default:
		return nil, fmt.Errorf("driver %q has no migrations", cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	defer db.Close()

	provider, err := migrations.NewProvider(dialect, db)
	if err != nil {
		return nil, err
	}
	return provider.Status(ctx)
}
