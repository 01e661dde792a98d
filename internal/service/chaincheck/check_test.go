package chaincheck

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
	"github.com/heartmarshall/json-auditor/internal/patch"
)

var key = domain.PartitionKey{EntityID: "acct-1"}

// chain builds records from documents: the first is the baseline, each next
// one is the codec's diff from its predecessor.
func chain(t *testing.T, docs ...string) []domain.AuditRecord {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var (
		out  []domain.AuditRecord
		prev jsonvalue.Value
	)
	for i, d := range docs {
		doc := jsonvalue.MustParse(d)
		r := domain.AuditRecord{
			AuditID:         string(rune('a' + i)),
			EntityID:        key.EntityID,
			TransactionTime: start.Add(time.Duration(i) * time.Minute),
			AuditTime:       start,
		}
		if i == 0 {
			r.Record = d
		} else {
			parent := out[i-1].AuditID
			r.ParentAuditID = &parent
			r.Record = string(patch.Encode(patch.Diff(prev, doc)))
		}
		out = append(out, r)
		prev = doc
	}
	return out
}

func kinds(findings []Finding) []Kind {
	var out []Kind
	for _, f := range findings {
		out = append(out, f.Kind)
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestCheck_HealthyChain(t *testing.T) {
	t.Parallel()

	records := chain(t,
		`{"owner":"ada","tags":["x"],"limits":{"daily":100}}`,
		`{"owner":"ada","tags":["x","y"],"limits":{"daily":250}}`,
		`{"owner":"bob","tags":["y"],"limits":{"daily":250,"monthly":null}}`,
		`{"owner":"bob","tags":[],"limits":{"monthly":{"cap":1e3}}}`,
	)
	assert.Empty(t, Check(key, records))
}

func TestCheck_EmptyPartition(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Check(key, nil))
}

func TestCheck_StructuralFindings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func([]domain.AuditRecord) []domain.AuditRecord
		want   []Kind
	}{
		{
			name: "dangling parent",
			mutate: func(rs []domain.AuditRecord) []domain.AuditRecord {
				rs[2].ParentAuditID = strPtr("zz")
				return rs
			},
			want: []Kind{KindDanglingParent},
		},
		{
			name: "fork",
			mutate: func(rs []domain.AuditRecord) []domain.AuditRecord {
				rs[2].ParentAuditID = strPtr("a")
				rs[2].Record = `[]`
				return rs
			},
			want: []Kind{KindNotPredecessor, KindFork},
		},
		{
			name: "second baseline",
			mutate: func(rs []domain.AuditRecord) []domain.AuditRecord {
				rs[2].ParentAuditID = nil
				rs[2].Record = `{"v":3}`
				return rs
			},
			want: []Kind{KindMultipleBaselines},
		},
		{
			name: "chain starts with a patch",
			mutate: func(rs []domain.AuditRecord) []domain.AuditRecord {
				return rs[1:]
			},
			want: []Kind{KindDanglingParent, KindNoBaseline, KindFirstNotBaseline},
		},
		{
			name: "unappliable patch",
			mutate: func(rs []domain.AuditRecord) []domain.AuditRecord {
				rs[1].Record = `[{"op":"remove","path":"/nope"}]`
				return rs
			},
			want: []Kind{KindApplyFailed},
		},
		{
			name: "corrupt baseline",
			mutate: func(rs []domain.AuditRecord) []domain.AuditRecord {
				rs[0].Record = `{"v":`
				return rs
			},
			want: []Kind{KindApplyFailed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			records := tt.mutate(chain(t, `{"v":1}`, `{"v":2}`, `{"v":3}`))
			assert.Equal(t, tt.want, kinds(Check(key, records)))
		})
	}
}

func TestCheck_OutOfOrderChain(t *testing.T) {
	t.Parallel()

	// Written with the latest policy: the late record sorts first but points
	// at the record that was the head when it arrived.
	records := chain(t, `{"v":1}`, `{"v":0}`)
	records[0], records[1] = records[1], records[0]

	findings := Check(key, records)
	assert.Equal(t, []Kind{KindNotPredecessor, KindFirstNotBaseline}, kinds(findings))
	assert.Equal(t, "b", findings[0].AuditID)
}

func TestFinding_String(t *testing.T) {
	t.Parallel()

	f := Finding{Partition: key, AuditID: "r1", Kind: KindFork, Detail: "children [r2 r3]"}
	assert.Equal(t, "0/acct-1 r1: fork: children [r2 r3]", f.String())

	f.AuditID = ""
	assert.Equal(t, "0/acct-1: fork: children [r2 r3]", f.String())
}

func TestTextDiff(t *testing.T) {
	t.Parallel()

	out := TextDiff(`{"a":1,"b":[1,2]}`, `{"a":1,"b":[1,3]}`)
	require.NotEmpty(t, out)
	assert.Contains(t, out, "-     2\n")
	assert.Contains(t, out, "+     3\n")
	assert.Contains(t, out, `    "a": 1,`)
}
