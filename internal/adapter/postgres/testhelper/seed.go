package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

// UniqueEntityID returns an entity id that no other test uses, so tests can
// share the container database without truncating it.
func UniqueEntityID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// SeedAuditRecord inserts a raw row, bypassing every write-path check.
// Tests use it to build chains the service would never produce.
func SeedAuditRecord(t *testing.T, pool *pgxpool.Pool, rec domain.AuditRecord) domain.AuditRecord {
	t.Helper()

	if rec.AuditID == "" {
		rec.AuditID = uuid.New().String()
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO audit_records
		   (audit_id, parent_audit_id, entity_id, entity_type, transaction_time, audit_time, auto_resolved, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.AuditID, rec.ParentAuditID, rec.EntityID, int16(rec.EntityType),
		domain.ToMillis(rec.TransactionTime), domain.ToMillis(rec.AuditTime), rec.AutoResolved, rec.Record,
	)
	if err != nil {
		t.Fatalf("SeedAuditRecord: %v", err)
	}
	return rec
}
