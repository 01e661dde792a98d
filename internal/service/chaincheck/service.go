// Package chaincheck audits stored chains for structural damage and replays
// every patch through two independent RFC 6902 engines.
package chaincheck

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

type chainReader interface {
	Partitions(ctx context.Context) ([]domain.PartitionKey, error)
	RecordsBefore(ctx context.Context, key domain.PartitionKey, cutoff *time.Time) ([]domain.AuditRecord, error)
}

// Service walks partitions and collects findings.
type Service struct {
	store chainReader
	log   *slog.Logger
}

// NewService creates a new chain verifier.
func NewService(log *slog.Logger, store chainReader) *Service {
	return &Service{
		store: store,
		log:   log.With("service", "chaincheck"),
	}
}

// Report summarizes one verification run.
type Report struct {
	Partitions int
	Records    int
	Findings   []Finding
}

// OK reports whether no finding was recorded.
func (r Report) OK() bool { return len(r.Findings) == 0 }

// Verify checks every partition in the store.
func (s *Service) Verify(ctx context.Context) (Report, error) {
	keys, err := s.store.Partitions(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list partitions: %w", err)
	}

	var report Report
	for _, key := range keys {
		n, findings, err := s.VerifyPartition(ctx, key)
		if err != nil {
			return report, err
		}
		report.Partitions++
		report.Records += n
		report.Findings = append(report.Findings, findings...)
	}

	s.log.InfoContext(ctx, "chain verification finished",
		slog.Int("partitions", report.Partitions),
		slog.Int("records", report.Records),
		slog.Int("findings", len(report.Findings)),
	)
	return report, nil
}

// VerifyPartition checks one chain and returns its record count and findings.
func (s *Service) VerifyPartition(ctx context.Context, key domain.PartitionKey) (int, []Finding, error) {
	records, err := s.store.RecordsBefore(ctx, key, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("load partition %s: %w", key, err)
	}

	findings := Check(key, records)
	for _, f := range findings {
		s.log.WarnContext(ctx, "chain finding",
			slog.String("partition", key.String()),
			slog.String("audit_id", f.AuditID),
			slog.String("kind", string(f.Kind)),
		)
	}
	return len(records), findings, nil
}
