package ctxutil

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	partitionKey ctxKey = "partition"
)

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithPartition records the audit partition a request is working on so that
// log lines emitted deeper in the stack can be correlated.
func WithPartition(ctx context.Context, partition string) context.Context {
	return context.WithValue(ctx, partitionKey, partition)
}

// PartitionFromCtx returns the partition stored by WithPartition, or "".
func PartitionFromCtx(ctx context.Context) string {
	p, _ := ctx.Value(partitionKey).(string)
	return p
}
