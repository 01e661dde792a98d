// Package sqlite implements the audit chain store on an embedded SQLite
// database. The partition lock is an in-process keyed mutex, so a database
// file must be written by one process at a time.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/migrations"
	"github.com/heartmarshall/json-auditor/pkg/keylock"
)

const table = "audit_records"

var columns = []string{
	"audit_id", "parent_audit_id", "entity_id", "entity_type",
	"transaction_time", "audit_time", "auto_resolved", "record",
}

var (
	orderAsc  = []string{"transaction_time ASC", "audit_time ASC", "audit_id ASC"}
	orderDesc = []string{"transaction_time DESC", "audit_time DESC", "audit_id DESC"}
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Store is a SQLite-backed chain store.
type Store struct {
	db    *sql.DB
	locks keylock.Map
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}

	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := migrations.Up(ctx, goose.DialectSQLite3, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append inserts rec. An existing audit_id is reported as domain.ErrAlreadyExists.
func (s *Store) Append(ctx context.Context, rec domain.AuditRecord) error {
	query, args, err := builder.Insert(table).
		Columns(columns...).
		Values(
			rec.AuditID, nullString(rec.ParentAuditID), rec.EntityID, int64(rec.EntityType),
			domain.ToMillis(rec.TransactionTime), domain.ToMillis(rec.AuditTime),
			rec.AutoResolved, rec.Record,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit_record: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "audit_record", rec.AuditID)
	}
	return nil
}

// WithPartitionLock runs fn while holding the in-process lock for key.
func (s *Store) WithPartitionLock(ctx context.Context, key domain.PartitionKey, fn func(ctx context.Context) error) error {
	return s.locks.Do(ctx, key.String(), func() error { return fn(ctx) })
}

// LatestOverall returns the partition head, or domain.ErrNotFound.
func (s *Store) LatestOverall(ctx context.Context, key domain.PartitionKey) (domain.AuditRecord, error) {
	query, args, err := builder.Select(columns...).
		From(table).
		Where(partition(key)).
		OrderBy(orderDesc...).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("build select head: %w", err)
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.AuditRecord{}, mapError(err, "audit_partition", key.String())
	}
	return rec, nil
}

// RecordsBefore returns records with transaction time strictly before cutoff
// in chain order; a nil cutoff returns the whole partition.
func (s *Store) RecordsBefore(ctx context.Context, key domain.PartitionKey, cutoff *time.Time) ([]domain.AuditRecord, error) {
	where := sq.And{partition(key)}
	if cutoff != nil {
		where = append(where, sq.Lt{"transaction_time": domain.CutoffMillis(*cutoff)})
	}

	query, args, err := builder.Select(columns...).
		From(table).
		Where(where).
		OrderBy(orderAsc...).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "audit_partition", key.String())
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, mapError(err, "audit_partition", key.String())
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "audit_partition", key.String())
	}
	return records, nil
}

// Partitions lists every partition that holds at least one record.
func (s *Store) Partitions(ctx context.Context) ([]domain.PartitionKey, error) {
	query, args, err := builder.Select("entity_type", "entity_id").
		Distinct().
		From(table).
		OrderBy("entity_type", "entity_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select partitions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "audit_partitions", "*")
	}
	defer rows.Close()

	var keys []domain.PartitionKey
	for rows.Next() {
		var (
			et int64
			k  domain.PartitionKey
		)
		if err := rows.Scan(&et, &k.EntityID); err != nil {
			return nil, mapError(err, "audit_partitions", "*")
		}
		k.EntityType = domain.EntityType(et)
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "audit_partitions", "*")
	}
	return keys, nil
}

func partition(key domain.PartitionKey) sq.Eq {
	return sq.Eq{"entity_id": key.EntityID, "entity_type": int64(key.EntityType)}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.AuditRecord, error) {
	var (
		rec        domain.AuditRecord
		parent     sql.NullString
		entityType int64
		txMillis   int64
		atMillis   int64
	)
	err := row.Scan(
		&rec.AuditID, &parent, &rec.EntityID, &entityType,
		&txMillis, &atMillis, &rec.AutoResolved, &rec.Record,
	)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	if parent.Valid {
		p := parent.String
		rec.ParentAuditID = &p
	}
	rec.EntityType = domain.EntityType(entityType)
	rec.TransactionTime = domain.FromMillis(txMillis)
	rec.AuditTime = domain.FromMillis(atMillis)
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
