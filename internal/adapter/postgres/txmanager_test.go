package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/json-auditor/internal/adapter/postgres"
	"github.com/heartmarshall/json-auditor/internal/adapter/postgres/testhelper"
)

// recordExists checks whether an audit row with the given ID exists in the database.
func recordExists(t *testing.T, pool *pgxpool.Pool, auditID string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM audit_records WHERE audit_id = $1)`,
		auditID,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("recordExists query: %v", err)
	}
	return exists
}

func insertRecord(ctx context.Context, pool *pgxpool.Pool, auditID string) error {
	q := postgres.QuerierFromCtx(ctx, pool)
	_, err := q.Exec(ctx,
		`INSERT INTO audit_records (audit_id, entity_id, entity_type, transaction_time, audit_time, record)
		 VALUES ($1, $2, 0, 0, 0, '{}')`,
		auditID, "tx-"+auditID,
	)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	auditID := uuid.New().String()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertRecord(ctx, pool, auditID)
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !recordExists(t, pool, auditID) {
		t.Fatal("expected record to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	auditID := uuid.New().String()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if execErr := insertRecord(ctx, pool, auditID); execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if recordExists(t, pool, auditID) {
		t.Fatal("expected record NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	auditID := uuid.New().String()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}

		if recordExists(t, pool, auditID) {
			t.Fatal("expected record NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertRecord(ctx, pool, auditID); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		panic("test panic")
	})
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	inner := uuid.New().String()
	sentinel := errors.New("outer failure")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := tm.RunInTx(ctx, func(ctx context.Context) error {
			return insertRecord(ctx, pool, inner)
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if recordExists(t, pool, inner) {
		t.Fatal("inner write should roll back with the outer transaction")
	}
}

func TestRunLocked_Commits(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	auditID := uuid.New().String()

	err := tm.RunLocked(context.Background(), "0/locked-"+auditID, func(ctx context.Context) error {
		return insertRecord(ctx, pool, auditID)
	})
	if err != nil {
		t.Fatalf("RunLocked returned error: %v", err)
	}

	if !recordExists(t, pool, auditID) {
		t.Fatal("expected record to exist after RunLocked")
	}
}

func TestRunLocked_CarriesTransaction(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	err := tm.RunLocked(context.Background(), "partition:"+uuid.New().String(), func(ctx context.Context) error {
		if !postgres.InTx(ctx) {
			t.Error("expected a transaction inside RunLocked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunLocked returned error: %v", err)
	}
}
