package chaincheck

import (
	"bytes"
	"encoding/json"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
	"github.com/heartmarshall/json-auditor/internal/patch"
)

// replay folds the chain with the codec and with evanphx/json-patch side by
// side. It stops at the first record either engine cannot apply; a mismatch
// is reported and the codec's state carries on.
func replay(key domain.PartitionKey, records []domain.AuditRecord) []Finding {
	base := records[0]
	state, err := jsonvalue.Parse([]byte(base.Record))
	if err != nil {
		return []Finding{{Partition: key, AuditID: base.AuditID, Kind: KindApplyFailed, Detail: "baseline: " + err.Error()}}
	}
	oracle := jsonvalue.Marshal(state)

	var findings []Finding
	for _, r := range records[1:] {
		if r.IsBaseline() {
			continue
		}

		next, err := patch.ApplyEncoded(state, []byte(r.Record))
		if err != nil {
			return append(findings, Finding{Partition: key, AuditID: r.AuditID, Kind: KindApplyFailed, Detail: err.Error()})
		}

		theirs, err := applyOracle(oracle, r.Record)
		if err != nil {
			return append(findings, Finding{Partition: key, AuditID: r.AuditID, Kind: KindApplyFailed, Detail: "json-patch: " + err.Error()})
		}

		theirsValue, err := jsonvalue.Parse(theirs)
		switch {
		case err != nil:
			findings = append(findings, mismatch(key, r.AuditID, next, string(theirs)))
		case !jsonvalue.Equal(next, theirsValue):
			findings = append(findings, mismatch(key, r.AuditID, next, jsonvalue.Canonical(theirsValue)))
		}

		state = next
		oracle = jsonvalue.Marshal(next)
	}
	return findings
}

func mismatch(key domain.PartitionKey, auditID string, ours jsonvalue.Value, theirs string) Finding {
	return Finding{
		Partition: key,
		AuditID:   auditID,
		Kind:      KindReplayMismatch,
		Detail:    TextDiff(jsonvalue.Canonical(ours), theirs),
	}
}

func applyOracle(doc []byte, encoded string) ([]byte, error) {
	ops, err := jsonpatch.DecodePatch([]byte(encoded))
	if err != nil {
		return nil, err
	}
	return ops.Apply(doc)
}

// TextDiff renders a line diff of two JSON texts, indented first so that
// each member sits on its own line. Removed lines start with "-", added
// lines with "+".
func TextDiff(want, got string) string {
	a, b := indent(want), indent(got)

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

func indent(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s + "\n"
	}
	buf.WriteByte('\n')
	return buf.String()
}
