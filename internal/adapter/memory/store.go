// Package memory implements the audit chain store in process memory. It
// backs tests and the "memory" driver; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/pkg/keylock"
)

// Store keeps every partition as a slice sorted in chain order.
type Store struct {
	mu         sync.RWMutex
	partitions map[domain.PartitionKey][]domain.AuditRecord
	ids        map[string]struct{}
	locks      keylock.Map
}

// New creates an empty store.
func New() *Store {
	return &Store{
		partitions: make(map[domain.PartitionKey][]domain.AuditRecord),
		ids:        make(map[string]struct{}),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Append inserts rec at its chain position.
func (s *Store) Append(ctx context.Context, rec domain.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("audit_record %s: %w", rec.AuditID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[rec.AuditID]; dup {
		return fmt.Errorf("audit_record %s: %w", rec.AuditID, domain.ErrAlreadyExists)
	}

	rec = normalize(rec)
	key := rec.Key()
	chain := s.partitions[key]
	i := sort.Search(len(chain), func(i int) bool { return rec.Less(chain[i]) })
	chain = append(chain, domain.AuditRecord{})
	copy(chain[i+1:], chain[i:])
	chain[i] = rec

	s.partitions[key] = chain
	s.ids[rec.AuditID] = struct{}{}
	return nil
}

// WithPartitionLock runs fn while holding the lock for key.
func (s *Store) WithPartitionLock(ctx context.Context, key domain.PartitionKey, fn func(ctx context.Context) error) error {
	return s.locks.Do(ctx, key.String(), func() error { return fn(ctx) })
}

// LatestOverall returns the partition head, or domain.ErrNotFound.
func (s *Store) LatestOverall(ctx context.Context, key domain.PartitionKey) (domain.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("audit_partition %s: %w", key, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.partitions[key]
	if len(chain) == 0 {
		return domain.AuditRecord{}, fmt.Errorf("audit_partition %s: %w", key, domain.ErrNotFound)
	}
	return clone(chain[len(chain)-1]), nil
}

// RecordsBefore returns records with transaction time strictly before cutoff;
// nil returns the whole partition.
func (s *Store) RecordsBefore(ctx context.Context, key domain.PartitionKey, cutoff *time.Time) ([]domain.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("audit_partition %s: %w", key, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.partitions[key]
	n := len(chain)
	if cutoff != nil {
		limit := domain.FromMillis(domain.CutoffMillis(*cutoff))
		n = sort.Search(len(chain), func(i int) bool { return !chain[i].TransactionTime.Before(limit) })
	}

	out := make([]domain.AuditRecord, n)
	for i := 0; i < n; i++ {
		out[i] = clone(chain[i])
	}
	return out, nil
}

// Partitions lists the non-empty partitions ordered by type, then id.
func (s *Store) Partitions(ctx context.Context) ([]domain.PartitionKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	keys := make([]domain.PartitionKey, 0, len(s.partitions))
	for k := range s.partitions {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].EntityType != keys[j].EntityType {
			return keys[i].EntityType < keys[j].EntityType
		}
		return keys[i].EntityID < keys[j].EntityID
	})
	return keys, nil
}

// normalize truncates timestamps to the millisecond precision the SQL stores
// persist, so every driver orders and filters identically.
func normalize(rec domain.AuditRecord) domain.AuditRecord {
	rec.TransactionTime = domain.FromMillis(domain.ToMillis(rec.TransactionTime))
	rec.AuditTime = domain.FromMillis(domain.ToMillis(rec.AuditTime))
	return clone(rec)
}

func clone(rec domain.AuditRecord) domain.AuditRecord {
	if rec.ParentAuditID != nil {
		p := *rec.ParentAuditID
		rec.ParentAuditID = &p
	}
	return rec
}
