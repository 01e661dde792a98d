package chaincheck

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

//go:generate go run github.com/matryer/moq@v0.5.3 -out chain_reader_mock_test.go -pkg chaincheck . chainReader

func newTestService(store chainReader) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), store)
}

func TestVerify_CollectsFindingsAcrossPartitions(t *testing.T) {
	t.Parallel()

	good := domain.PartitionKey{EntityID: "good"}
	bad := domain.PartitionKey{EntityID: "bad"}

	healthy := chain(t, `{"v":1}`, `{"v":2}`)
	broken := chain(t, `{"v":1}`, `{"v":2}`)
	broken[1].Record = `[{"op":"replace","path":"/missing","value":0}]`

	store := &chainReaderMock{
		PartitionsFunc: func(context.Context) ([]domain.PartitionKey, error) {
			return []domain.PartitionKey{bad, good}, nil
		},
		RecordsBeforeFunc: func(_ context.Context, k domain.PartitionKey, cutoff *time.Time) ([]domain.AuditRecord, error) {
			assert.Nil(t, cutoff)
			if k == bad {
				return broken, nil
			}
			return healthy, nil
		},
	}

	report, err := newTestService(store).Verify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Partitions)
	assert.Equal(t, 4, report.Records)
	assert.False(t, report.OK())
	require.Len(t, report.Findings, 1)
	assert.Equal(t, bad, report.Findings[0].Partition)
	assert.Equal(t, KindApplyFailed, report.Findings[0].Kind)
	assert.Len(t, store.RecordsBeforeCalls(), 2)
}

func TestVerify_PropagatesStorageErrors(t *testing.T) {
	t.Parallel()

	store := &chainReaderMock{
		PartitionsFunc: func(context.Context) ([]domain.PartitionKey, error) {
			return nil, domain.ErrStorage
		},
	}
	_, err := newTestService(store).Verify(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)

	store = &chainReaderMock{
		PartitionsFunc: func(context.Context) ([]domain.PartitionKey, error) {
			return []domain.PartitionKey{{EntityID: "x"}}, nil
		},
		RecordsBeforeFunc: func(context.Context, domain.PartitionKey, *time.Time) ([]domain.AuditRecord, error) {
			return nil, domain.ErrStorage
		},
	}
	_, err = newTestService(store).Verify(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestVerify_EmptyStoreIsOK(t *testing.T) {
	t.Parallel()

	store := &chainReaderMock{
		PartitionsFunc: func(context.Context) ([]domain.PartitionKey, error) { return nil, nil },
	}
	report, err := newTestService(store).Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Zero(t, report.Partitions)
}
