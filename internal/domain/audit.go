package domain

import (
	"fmt"
	"time"
)

// PartitionKey identifies one chain of audit records.
type PartitionKey struct {
	EntityID   string
	EntityType EntityType
}

// String returns a stable textual form used for lock keys and logs.
func (k PartitionKey) String() string {
	return fmt.Sprintf("%d/%s", int(k.EntityType), k.EntityID)
}

// AuditRecord is one immutable row of an entity's history.
// Record holds the full JSON document when ParentAuditID is nil (a baseline),
// and a serialized JSON patch otherwise.
type AuditRecord struct {
	AuditID         string
	ParentAuditID   *string
	EntityID        string
	EntityType      EntityType
	TransactionTime time.Time
	AuditTime       time.Time
	AutoResolved    bool
	Record          string
}

// Key returns the partition the record belongs to.
func (r AuditRecord) Key() PartitionKey {
	return PartitionKey{EntityID: r.EntityID, EntityType: r.EntityType}
}

// IsBaseline reports whether the record holds a full document.
func (r AuditRecord) IsBaseline() bool {
	return r.ParentAuditID == nil
}

// Less orders records by transaction time, then audit time, then audit id.
// Every chain store returns records in this order.
func (r AuditRecord) Less(o AuditRecord) bool {
	if !r.TransactionTime.Equal(o.TransactionTime) {
		return r.TransactionTime.Before(o.TransactionTime)
	}
	if !r.AuditTime.Equal(o.AuditTime) {
		return r.AuditTime.Before(o.AuditTime)
	}
	return r.AuditID < o.AuditID
}

// ToMillis converts a timestamp to the persisted epoch-millisecond form.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// CutoffMillis converts an exclusive upper bound to epoch milliseconds,
// rounding up so that every stored millisecond strictly before t stays
// inside the window.
func CutoffMillis(t time.Time) int64 {
	ms := ToMillis(t)
	if t.After(FromMillis(ms)) {
		ms++
	}
	return ms
}

// FromMillis converts a persisted epoch-millisecond value back to UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
