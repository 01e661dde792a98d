package audit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
)

// Query returns the entity's state as of input.AsOf, or now when AsOf is nil.
func (s *Service) Query(ctx context.Context, input QueryInput) (_ jsonvalue.Value, err error) {
	key := input.Key()
	ctx, span := s.tracer.Start(ctx, "audit.Query", partitionAttrs(key))
	defer func() { _ = endSpan(span, err) }()

	if input.AsOf != nil {
		span.SetAttributes(attribute.String("audit.as_of", input.AsOf.UTC().String()))
	}

	if err := input.Validate(); err != nil {
		return jsonvalue.Value{}, err
	}

	return s.rebuild.Reconstruct(ctx, key, input.AsOf)
}

// QueryAll returns the raw chain of a partition in chain order: the baseline
// document and every serialized patch, verbatim. An unknown partition yields
// an empty list.
func (s *Service) QueryAll(ctx context.Context, key domain.PartitionKey) (_ []domain.AuditRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "audit.QueryAll", partitionAttrs(key))
	defer func() { _ = endSpan(span, err) }()

	if errs := validateKey(key.EntityID, key.EntityType); len(errs) > 0 {
		return nil, &domain.ValidationError{Errors: errs}
	}

	records, err := s.store.RecordsBefore(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("load audit chain: %w", err)
	}
	return records, nil
}
