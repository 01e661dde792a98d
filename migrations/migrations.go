// Package migrations contains the embedded goose migrations for every SQL
// chain store.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// FS returns the migration files for a goose dialect.
func FS(dialect goose.Dialect) (fs.FS, error) {
	switch dialect {
	case goose.DialectPostgres:
		return fs.Sub(postgresFS, "postgres")
	case goose.DialectSQLite3:
		return fs.Sub(sqliteFS, "sqlite")
	}
	return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
}

// NewProvider returns a goose provider over the embedded migrations.
func NewProvider(dialect goose.Dialect, db *sql.DB) (*goose.Provider, error) {
	fsys, err := FS(dialect)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrations: new provider: %w", err)
	}
	return provider, nil
}

// Up applies every pending migration.
func Up(ctx context.Context, dialect goose.Dialect, db *sql.DB) ([]*goose.MigrationResult, error) {
	provider, err := NewProvider(dialect, db)
	if err != nil {
		return nil, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("migrations: up: %w", err)
	}
	return results, nil
}
