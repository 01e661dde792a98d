// Package storetest holds the behaviour every chain store must share. Each
// adapter runs the suite against its own backend.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

// ChainStore is the store surface under test.
type ChainStore interface {
	Append(ctx context.Context, rec domain.AuditRecord) error
	LatestOverall(ctx context.Context, key domain.PartitionKey) (domain.AuditRecord, error)
	RecordsBefore(ctx context.Context, key domain.PartitionKey, cutoff *time.Time) ([]domain.AuditRecord, error)
	WithPartitionLock(ctx context.Context, key domain.PartitionKey, fn func(ctx context.Context) error) error
	Partitions(ctx context.Context) ([]domain.PartitionKey, error)
}

var base = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func at(offset time.Duration) time.Time { return base.Add(offset) }

func newKey(prefix string) domain.PartitionKey {
	return domain.PartitionKey{EntityID: prefix + "-" + uuid.New().String()[:8], EntityType: domain.EntityTypeGeneric}
}

func record(key domain.PartitionKey, id string, parent *string, tx, audit time.Time, body string) domain.AuditRecord {
	return domain.AuditRecord{
		AuditID:         id,
		ParentAuditID:   parent,
		EntityID:        key.EntityID,
		EntityType:      key.EntityType,
		TransactionTime: tx,
		AuditTime:       audit,
		Record:          body,
	}
}

// localID scopes a readable id to its partition so fixed names never collide
// in a shared database.
func localID(key domain.PartitionKey, name string) string {
	return key.EntityID + ":" + name
}

func localIDs(key domain.PartitionKey, names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = localID(key, n)
	}
	return out
}

func ids(records []domain.AuditRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.AuditID
	}
	return out
}

// Run executes the suite. newStore may return the same store for every
// call; the suite keeps its partitions apart with random entity ids.
func Run(t *testing.T, newStore func(t *testing.T) ChainStore) {
	t.Run("EmptyPartition", func(t *testing.T) { testEmptyPartition(t, newStore(t)) })
	t.Run("OrderingAndHead", func(t *testing.T) { testOrderingAndHead(t, newStore(t)) })
	t.Run("CutoffIsStrict", func(t *testing.T) { testCutoffIsStrict(t, newStore(t)) })
	t.Run("RoundTripsFields", func(t *testing.T) { testRoundTripsFields(t, newStore(t)) })
	t.Run("DuplicateAuditID", func(t *testing.T) { testDuplicateAuditID(t, newStore(t)) })
	t.Run("PartitionsAreIsolated", func(t *testing.T) { testPartitionsAreIsolated(t, newStore(t)) })
	t.Run("LockSerializesWriters", func(t *testing.T) { testLockSerializesWriters(t, newStore(t)) })
	t.Run("LockPropagatesError", func(t *testing.T) { testLockPropagatesError(t, newStore(t)) })
}

func testEmptyPartition(t *testing.T, s ChainStore) {
	ctx := context.Background()
	key := newKey("empty")

	_, err := s.LatestOverall(ctx, key)
	require.ErrorIs(t, err, domain.ErrNotFound)

	records, err := s.RecordsBefore(ctx, key, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testOrderingAndHead(t *testing.T, s ChainStore) {
	ctx := context.Background()
	key := newKey("order")

	// Inserted out of chain order on purpose.
	inserts := []domain.AuditRecord{
		record(key, localID(key, "c"), nil, at(2*time.Hour), at(0), `{}`),
		record(key, localID(key, "a2"), nil, at(time.Hour), at(time.Second), `{}`),
		record(key, localID(key, "b"), nil, at(time.Hour), at(0), `{}`),
		record(key, localID(key, "a"), nil, at(time.Hour), at(0), `{}`),
		record(key, localID(key, "z"), nil, at(0), at(time.Minute), `{}`),
	}
	for _, rec := range inserts {
		require.NoError(t, s.Append(ctx, rec))
	}

	records, err := s.RecordsBefore(ctx, key, nil)
	require.NoError(t, err)
	assert.Equal(t, localIDs(key, "z", "a", "b", "a2", "c"), ids(records))

	head, err := s.LatestOverall(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, localID(key, "c"), head.AuditID)
}

func testCutoffIsStrict(t *testing.T, s ChainStore) {
	ctx := context.Background()
	key := newKey("cutoff")

	r1, r2 := localID(key, "r1"), localID(key, "r2")
	require.NoError(t, s.Append(ctx, record(key, r1, nil, at(0), at(0), `{"v":1}`)))
	require.NoError(t, s.Append(ctx, record(key, r2, &r1, at(time.Hour), at(time.Hour), `[]`)))

	tests := []struct {
		name   string
		cutoff time.Time
		want   []string
	}{
		{"before everything", at(-time.Millisecond), []string{}},
		{"equal to first", at(0), []string{}},
		{"sub-millisecond after first", at(500 * time.Microsecond), []string{r1}},
		{"one nanosecond after first", at(time.Nanosecond), []string{r1}},
		{"sub-millisecond before first", at(-500 * time.Microsecond), []string{}},
		{"just after first", at(time.Millisecond), []string{r1}},
		{"equal to second", at(time.Hour), []string{r1}},
		{"after second", at(time.Hour + time.Millisecond), []string{r1, r2}},
	}
	for _, tt := range tests {
		cutoff := tt.cutoff
		records, err := s.RecordsBefore(ctx, key, &cutoff)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, ids(records), tt.name)
	}
}

func testRoundTripsFields(t *testing.T, s ChainStore) {
	ctx := context.Background()
	key := newKey("fields")

	baseline := record(key, uuid.New().String(), nil, at(0), at(5*time.Millisecond), `{"name":"Ada","tags":["x"]}`)
	parent := baseline.AuditID
	child := record(key, uuid.New().String(), &parent, at(time.Minute), at(time.Minute+7*time.Millisecond), `[{"op":"remove","path":"/tags"}]`)

	require.NoError(t, s.Append(ctx, baseline))
	require.NoError(t, s.Append(ctx, child))

	records, err := s.RecordsBefore(ctx, key, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	got := records[1]
	assert.Equal(t, child.AuditID, got.AuditID)
	require.NotNil(t, got.ParentAuditID)
	assert.Equal(t, parent, *got.ParentAuditID)
	assert.Equal(t, key.EntityID, got.EntityID)
	assert.Equal(t, key.EntityType, got.EntityType)
	assert.True(t, child.TransactionTime.Equal(got.TransactionTime))
	assert.True(t, child.AuditTime.Equal(got.AuditTime))
	assert.False(t, got.AutoResolved)
	assert.Equal(t, child.Record, got.Record)

	assert.Nil(t, records[0].ParentAuditID)
	assert.True(t, records[0].IsBaseline())
}

func testDuplicateAuditID(t *testing.T, s ChainStore) {
	ctx := context.Background()
	key := newKey("dup")
	id := uuid.New().String()

	require.NoError(t, s.Append(ctx, record(key, id, nil, at(0), at(0), `{"v":1}`)))
	err := s.Append(ctx, record(key, id, nil, at(time.Hour), at(time.Hour), `{"v":2}`))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	records, err := s.RecordsBefore(ctx, key, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `{"v":1}`, records[0].Record)
}

func testPartitionsAreIsolated(t *testing.T, s ChainStore) {
	ctx := context.Background()
	a := newKey("iso")
	b := domain.PartitionKey{EntityID: a.EntityID, EntityType: domain.EntityType(7)}
	c := newKey("iso")

	require.NoError(t, s.Append(ctx, record(a, uuid.New().String(), nil, at(0), at(0), `{"k":"a"}`)))
	require.NoError(t, s.Append(ctx, record(b, uuid.New().String(), nil, at(0), at(0), `{"k":"b"}`)))
	require.NoError(t, s.Append(ctx, record(c, uuid.New().String(), nil, at(0), at(0), `{"k":"c"}`)))

	for key, want := range map[domain.PartitionKey]string{a: `{"k":"a"}`, b: `{"k":"b"}`, c: `{"k":"c"}`} {
		records, err := s.RecordsBefore(ctx, key, nil)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, want, records[0].Record)
	}

	keys, err := s.Partitions(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, a)
	assert.Contains(t, keys, b)
	assert.Contains(t, keys, c)
}

func testLockSerializesWriters(t *testing.T, s ChainStore) {
	ctx := context.Background()
	key := newKey("lock")

	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.WithPartitionLock(ctx, key, func(ctx context.Context) error {
				var parent *string
				tx := at(0)
				head, err := s.LatestOverall(ctx, key)
				switch {
				case err == nil:
					parent = &head.AuditID
					tx = head.TransactionTime.Add(time.Second)
				case !errors.Is(err, domain.ErrNotFound):
					return err
				}
				return s.Append(ctx, record(key, uuid.New().String(), parent, tx, at(time.Duration(i)), `{}`))
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := s.RecordsBefore(ctx, key, nil)
	require.NoError(t, err)
	require.Len(t, records, writers)

	assert.Nil(t, records[0].ParentAuditID, "exactly one baseline expected")
	for i := 1; i < len(records); i++ {
		require.NotNil(t, records[i].ParentAuditID, "record %d has no parent", i)
		assert.Equal(t, records[i-1].AuditID, *records[i].ParentAuditID, "record %d forks the chain", i)
	}
}

func testLockPropagatesError(t *testing.T, s ChainStore) {
	ctx := context.Background()
	key := newKey("lockerr")
	sentinel := errors.New("boom")

	err := s.WithPartitionLock(ctx, key, func(ctx context.Context) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// The lock is released after a failure.
	done := make(chan error, 1)
	go func() {
		done <- s.WithPartitionLock(ctx, key, func(context.Context) error { return nil })
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("partition lock was not released after an error")
	}
}
