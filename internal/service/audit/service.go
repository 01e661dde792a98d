// Package audit records JSON snapshots of external entities as patch chains
// and reconstructs their state at any instant.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

const tracerName = "github.com/heartmarshall/json-auditor/internal/service/audit"

type recordSource interface {
	RecordsBefore(ctx context.Context, key domain.PartitionKey, cutoff *time.Time) ([]domain.AuditRecord, error)
}

type chainStore interface {
	recordSource
	Append(ctx context.Context, rec domain.AuditRecord) error
	LatestOverall(ctx context.Context, key domain.PartitionKey) (domain.AuditRecord, error)
	WithPartitionLock(ctx context.Context, key domain.PartitionKey, fn func(ctx context.Context) error) error
}

// Settings holds the write-path rules.
type Settings struct {
	OrderPolicy      domain.OrderPolicy
	MaxDocumentBytes int
}

// Service is the entry point for submitting and querying audit chains.
type Service struct {
	store    chainStore
	rebuild  *Reconstructor
	settings Settings
	log      *slog.Logger
	tracer   trace.Tracer

	now   func() time.Time
	newID func() string
}

// NewService creates a new audit service.
func NewService(log *slog.Logger, store chainStore, settings Settings) (*Service, error) {
	if !settings.OrderPolicy.IsValid() {
		return nil, fmt.Errorf("invalid order policy %q", settings.OrderPolicy)
	}
	if settings.MaxDocumentBytes <= 0 {
		return nil, fmt.Errorf("max document bytes must be > 0 (got %d)", settings.MaxDocumentBytes)
	}

	return &Service{
		store:    store,
		rebuild:  NewReconstructor(store),
		settings: settings,
		log:      log.With("service", "audit"),
		tracer:   otel.Tracer(tracerName),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}, nil
}

func partitionAttrs(key domain.PartitionKey) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("audit.entity_id", key.EntityID),
		attribute.Int("audit.entity_type", int(key.EntityType)),
	)
}

// endSpan records err on span, if any, and returns it unchanged.
func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}
