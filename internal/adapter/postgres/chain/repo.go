// Package chain implements the audit chain store using PostgreSQL.
// Rows are append-only; the per-partition write lock is a transaction-scoped
// advisory lock, so writers in separate processes serialize too.
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/json-auditor/internal/adapter/postgres"
	"github.com/heartmarshall/json-auditor/internal/domain"
)

const table = "audit_records"

var columns = []string{
	"audit_id", "parent_audit_id", "entity_id", "entity_type",
	"transaction_time", "audit_time", "auto_resolved", "record",
}

// Byte-wise audit_id ordering, matching domain.AuditRecord.Less.
var (
	orderAsc  = []string{"transaction_time ASC", "audit_time ASC", `audit_id COLLATE "C" ASC`}
	orderDesc = []string{"transaction_time DESC", "audit_time DESC", `audit_id COLLATE "C" DESC`}
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides chain persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new chain repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Append inserts rec. An existing audit_id is reported as domain.ErrAlreadyExists.
func (r *Repo) Append(ctx context.Context, rec domain.AuditRecord) error {
	query, args, err := psql.Insert(table).
		Columns(columns...).
		Values(
			rec.AuditID, rec.ParentAuditID, rec.EntityID, int16(rec.EntityType),
			domain.ToMillis(rec.TransactionTime), domain.ToMillis(rec.AuditTime),
			rec.AutoResolved, rec.Record,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit_record: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "audit_record", rec.AuditID)
	}
	return nil
}

// WithPartitionLock runs fn inside a transaction holding the partition's
// advisory lock. Store calls made with the context passed to fn join that
// transaction, so the read-diff-append sequence commits atomically.
func (r *Repo) WithPartitionLock(ctx context.Context, key domain.PartitionKey, fn func(ctx context.Context) error) error {
	var fnErr error
	err := r.tx.RunLocked(ctx, key.String(), func(ctx context.Context) error {
		fnErr = fn(ctx)
		return fnErr
	})
	if err == nil || (fnErr != nil && errors.Is(err, fnErr)) {
		return err
	}
	return postgres.MapError(err, "audit_partition", key.String())
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// LatestOverall returns the partition head. An empty partition yields
// domain.ErrNotFound.
func (r *Repo) LatestOverall(ctx context.Context, key domain.PartitionKey) (domain.AuditRecord, error) {
	query, args, err := psql.Select(columns...).
		From(table).
		Where(partition(key)).
		OrderBy(orderDesc...).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("build select head: %w", err)
	}

	row := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...)
	rec, err := scanRecord(row)
	if err != nil {
		return domain.AuditRecord{}, postgres.MapError(err, "audit_partition", key.String())
	}
	return rec, nil
}

// RecordsBefore returns the partition's records with transaction time strictly
// before cutoff, in chain order. A nil cutoff returns the whole partition.
func (r *Repo) RecordsBefore(ctx context.Context, key domain.PartitionKey, cutoff *time.Time) ([]domain.AuditRecord, error) {
	where := sq.And{partition(key)}
	if cutoff != nil {
		where = append(where, sq.Lt{"transaction_time": domain.CutoffMillis(*cutoff)})
	}

	query, args, err := psql.Select(columns...).
		From(table).
		Where(where).
		OrderBy(orderAsc...).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select records: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "audit_partition", key.String())
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditRecord, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, postgres.MapError(err, "audit_partition", key.String())
	}
	return records, nil
}

// Partitions lists every partition that holds at least one record.
func (r *Repo) Partitions(ctx context.Context) ([]domain.PartitionKey, error) {
	query, args, err := psql.Select("entity_type", "entity_id").
		Distinct().
		From(table).
		OrderBy("entity_type", `entity_id COLLATE "C"`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select partitions: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "audit_partitions", "*")
	}

	keys, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PartitionKey, error) {
		var (
			et int16
			k  domain.PartitionKey
		)
		if err := row.Scan(&et, &k.EntityID); err != nil {
			return domain.PartitionKey{}, err
		}
		k.EntityType = domain.EntityType(et)
		return k, nil
	})
	if err != nil {
		return nil, postgres.MapError(err, "audit_partitions", "*")
	}
	return keys, nil
}

// Ping checks connectivity for readiness probes.
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func partition(key domain.PartitionKey) sq.Eq {
	return sq.Eq{"entity_id": key.EntityID, "entity_type": int16(key.EntityType)}
}

func scanRecord(row pgx.Row) (domain.AuditRecord, error) {
	var (
		rec        domain.AuditRecord
		entityType int16
		txMillis   int64
		atMillis   int64
	)
	err := row.Scan(
		&rec.AuditID, &rec.ParentAuditID, &rec.EntityID, &entityType,
		&txMillis, &atMillis, &rec.AutoResolved, &rec.Record,
	)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	rec.EntityType = domain.EntityType(entityType)
	rec.TransactionTime = domain.FromMillis(txMillis)
	rec.AuditTime = domain.FromMillis(atMillis)
	return rec, nil
}
