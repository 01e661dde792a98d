package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
	"github.com/heartmarshall/json-auditor/internal/patch"
	"github.com/heartmarshall/json-auditor/pkg/ctxutil"
)

// Submit stores a snapshot and returns the new audit id. The first snapshot
// of a partition is stored verbatim as its baseline; later ones are stored as
// the patch from the current state, chained to the partition head.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (_ string, err error) {
	key := input.Key()
	ctx, span := s.tracer.Start(ctx, "audit.Submit", partitionAttrs(key))
	defer func() { _ = endSpan(span, err) }()

	if err := input.Validate(s.settings.MaxDocumentBytes); err != nil {
		return "", err
	}

	doc, err := jsonvalue.Parse(input.Document)
	if err != nil {
		return "", malformed(err)
	}

	ctx = ctxutil.WithPartition(ctx, key.String())
	txTime := domain.FromMillis(domain.ToMillis(input.TransactionTime))

	var rec domain.AuditRecord
	err = s.store.WithPartitionLock(ctx, key, func(ctx context.Context) error {
		var buildErr error
		rec, buildErr = s.buildRecord(ctx, key, txTime, input.Document, doc)
		if buildErr != nil {
			return buildErr
		}
		if err := s.store.Append(ctx, rec); err != nil {
			return fmt.Errorf("append audit record: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	span.SetAttributes(
		attribute.String("audit.audit_id", rec.AuditID),
		attribute.Bool("audit.baseline", rec.IsBaseline()),
	)
	s.log.InfoContext(ctx, "audit record stored",
		slog.String("audit_id", rec.AuditID),
		slog.Bool("baseline", rec.IsBaseline()),
		slog.Time("transaction_time", rec.TransactionTime),
	)

	return rec.AuditID, nil
}

// buildRecord runs under the partition lock.
func (s *Service) buildRecord(ctx context.Context, key domain.PartitionKey, txTime time.Time, raw []byte, doc jsonvalue.Value) (domain.AuditRecord, error) {
	rec := domain.AuditRecord{
		AuditID:         s.newID(),
		EntityID:        key.EntityID,
		EntityType:      key.EntityType,
		TransactionTime: txTime,
		AuditTime:       s.now(),
	}

	head, err := s.store.LatestOverall(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rec.Record = string(raw)
		return rec, nil
	case err != nil:
		return domain.AuditRecord{}, fmt.Errorf("load partition head: %w", err)
	}

	if txTime.Before(head.TransactionTime) {
		if s.settings.OrderPolicy == domain.OrderPolicyReject {
			return domain.AuditRecord{}, fmt.Errorf("transaction time %s precedes head %s at %s: %w",
				txTime.Format(time.RFC3339Nano), head.AuditID, head.TransactionTime.Format(time.RFC3339Nano), domain.ErrOutOfOrder)
		}
		s.log.WarnContext(ctx, "out-of-order write chained to head",
			slog.String("head_audit_id", head.AuditID),
			slog.Time("head_transaction_time", head.TransactionTime),
			slog.Time("transaction_time", txTime),
		)
	}

	// Same transaction time as the head: keep the new record after it in
	// chain order even when the clock has not advanced a millisecond.
	if txTime.Equal(head.TransactionTime) && domain.ToMillis(rec.AuditTime) <= domain.ToMillis(head.AuditTime) {
		rec.AuditTime = domain.FromMillis(domain.ToMillis(head.AuditTime) + 1)
	}

	current, err := s.rebuild.Reconstruct(ctx, key, nil)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("reconstruct latest state: %w", err)
	}

	parent := head.AuditID
	rec.ParentAuditID = &parent
	rec.Record = string(patch.Encode(patch.Diff(current, doc)))
	return rec, nil
}

func malformed(err error) error {
	var se *jsonvalue.SyntaxError
	if errors.As(err, &se) {
		return &domain.MalformedInputError{Offset: se.Offset, Reason: se.Msg}
	}
	return &domain.MalformedInputError{Offset: -1, Reason: err.Error()}
}
