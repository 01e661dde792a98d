package chaincheck

import (
	"fmt"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

// Kind classifies a finding.
type Kind string

const (
	KindNoBaseline        Kind = "no_baseline"
	KindMultipleBaselines Kind = "multiple_baselines"
	KindFirstNotBaseline  Kind = "first_not_baseline"
	KindDanglingParent    Kind = "dangling_parent"
	KindFork              Kind = "fork"
	KindNotPredecessor    Kind = "parent_not_predecessor"
	KindApplyFailed       Kind = "apply_failed"
	KindReplayMismatch    Kind = "replay_mismatch"
)

// Finding is one problem found in a chain. AuditID is empty for findings
// about the partition as a whole.
type Finding struct {
	Partition domain.PartitionKey
	AuditID   string
	Kind      Kind
	Detail    string
}

func (f Finding) String() string {
	if f.AuditID == "" {
		return fmt.Sprintf("%s: %s: %s", f.Partition, f.Kind, f.Detail)
	}
	return fmt.Sprintf("%s %s: %s: %s", f.Partition, f.AuditID, f.Kind, f.Detail)
}

// Check inspects records, which must be one partition in chain order.
// Structural findings come first, then replay findings.
func Check(key domain.PartitionKey, records []domain.AuditRecord) []Finding {
	if len(records) == 0 {
		return nil
	}

	var findings []Finding
	add := func(auditID string, kind Kind, format string, args ...any) {
		findings = append(findings, Finding{Partition: key, AuditID: auditID, Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.AuditID] = struct{}{}
	}

	var baselines []string
	children := make(map[string][]string)
	for i, r := range records {
		if r.IsBaseline() {
			baselines = append(baselines, r.AuditID)
			continue
		}

		parent := *r.ParentAuditID
		children[parent] = append(children[parent], r.AuditID)

		if _, ok := known[parent]; !ok {
			add(r.AuditID, KindDanglingParent, "parent %s is not in the partition", parent)
			continue
		}
		if i == 0 || records[i-1].AuditID != parent {
			add(r.AuditID, KindNotPredecessor, "parent %s is not the preceding record", parent)
		}
	}

	switch {
	case len(baselines) == 0:
		add("", KindNoBaseline, "%d records and no baseline", len(records))
	case len(baselines) > 1:
		add("", KindMultipleBaselines, "baselines %v", baselines)
	}
	if !records[0].IsBaseline() {
		add(records[0].AuditID, KindFirstNotBaseline, "chain starts with a patch")
	}

	for _, r := range records {
		if kids := children[r.AuditID]; len(kids) > 1 {
			add(r.AuditID, KindFork, "children %v", kids)
		}
	}

	if records[0].IsBaseline() {
		findings = append(findings, replay(key, records)...)
	}
	return findings
}
