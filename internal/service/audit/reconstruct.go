package audit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
	"github.com/heartmarshall/json-auditor/internal/patch"
)

// Reconstructor rebuilds entity state by folding a chain's patches over its
// baseline. It holds no cache; every call reads the window afresh.
type Reconstructor struct {
	store  recordSource
	tracer trace.Tracer
}

// NewReconstructor creates a Reconstructor reading from store.
func NewReconstructor(store recordSource) *Reconstructor {
	return &Reconstructor{store: store, tracer: otel.Tracer(tracerName)}
}

// Reconstruct returns the state of key built from every record whose
// transaction time is strictly before cutoff. A nil cutoff means now.
//
// An empty window, or one that does not start with a baseline, yields
// domain.ErrNotFound. A record that cannot be applied aborts with a
// *patch.ApplyError; no partial state is returned.
func (r *Reconstructor) Reconstruct(ctx context.Context, key domain.PartitionKey, cutoff *time.Time) (_ jsonvalue.Value, err error) {
	ctx, span := r.tracer.Start(ctx, "audit.Reconstruct", partitionAttrs(key))
	defer func() { _ = endSpan(span, err) }()

	records, err := r.store.RecordsBefore(ctx, key, cutoff)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("load audit window: %w", err)
	}
	span.SetAttributes(attribute.Int("audit.window_size", len(records)))

	return Fold(key, records)
}

// Fold replays records, which must be in chain order, into a document.
func Fold(key domain.PartitionKey, records []domain.AuditRecord) (jsonvalue.Value, error) {
	if len(records) == 0 {
		return jsonvalue.Value{}, fmt.Errorf("audit_partition %s: no records in window: %w", key, domain.ErrNotFound)
	}

	first := records[0]
	if !first.IsBaseline() {
		return jsonvalue.Value{}, fmt.Errorf("audit_partition %s: window starts at patch %s: %w", key, first.AuditID, domain.ErrNotFound)
	}

	state, err := jsonvalue.Parse([]byte(first.Record))
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("baseline %s: %w", first.AuditID, &patch.ApplyError{Index: -1, Reason: err.Error()})
	}

	for _, rec := range records[1:] {
		if rec.IsBaseline() {
			return jsonvalue.Value{}, fmt.Errorf("record %s: %w", rec.AuditID,
				&patch.ApplyError{Index: -1, Reason: "second baseline inside one window"})
		}
		state, err = patch.ApplyEncoded(state, []byte(rec.Record))
		if err != nil {
			return jsonvalue.Value{}, fmt.Errorf("record %s: %w", rec.AuditID, err)
		}
	}
	return state, nil
}
