// Package patch computes and applies edit scripts between JSON documents.
//
// A Patch is an ordered list of RFC 6902 add, remove and replace operations
// addressed by RFC 6901 pointers. Its serialized form is a plain RFC 6902
// document, so stored patches can be read by any JSON Patch implementation.
package patch

import (
	"fmt"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
)

// OpType names a patch operation.
type OpType string

const (
	OpAdd     OpType = "add"
	OpRemove  OpType = "remove"
	OpReplace OpType = "replace"
)

func (o OpType) String() string { return string(o) }

func (o OpType) IsValid() bool {
	switch o {
	case OpAdd, OpRemove, OpReplace:
		return true
	}
	return false
}

// Operation is one edit. Value is ignored for OpRemove.
type Operation struct {
	Op    OpType
	Path  string
	Value jsonvalue.Value
}

// Patch is an ordered edit script.
type Patch []Operation

// ApplyError reports a patch that cannot be decoded or applied.
// Index is the position of the failing operation, or -1 when the patch
// as a whole is malformed.
type ApplyError struct {
	Index  int
	Op     string
	Path   string
	Reason string
}

func (e *ApplyError) Error() string {
	if e.Index < 0 {
		return "patch: " + e.Reason
	}
	return fmt.Sprintf("patch op %d (%s %q): %s", e.Index, e.Op, e.Path, e.Reason)
}

func (e *ApplyError) Unwrap() error { return domain.ErrPatchApply }

// Encode serializes p as an RFC 6902 JSON array.
func Encode(p Patch) []byte {
	items := make([]jsonvalue.Value, 0, len(p))
	for _, op := range p {
		members := []jsonvalue.Member{
			{Key: "op", Value: jsonvalue.String(string(op.Op))},
			{Key: "path", Value: jsonvalue.String(op.Path)},
		}
		if op.Op != OpRemove {
			members = append(members, jsonvalue.Member{Key: "value", Value: op.Value})
		}
		items = append(items, jsonvalue.Object(members...))
	}
	return jsonvalue.Marshal(jsonvalue.Array(items...))
}

// Decode parses a serialized patch and checks its structure.
func Decode(data []byte) (Patch, error) {
	doc, err := jsonvalue.Parse(data)
	if err != nil {
		return nil, &ApplyError{Index: -1, Reason: err.Error()}
	}
	if doc.Kind() != jsonvalue.KindArray {
		return nil, &ApplyError{Index: -1, Reason: "patch must be a JSON array, got " + doc.Kind().String()}
	}

	p := make(Patch, 0, doc.Len())
	for i, item := range doc.Items() {
		op, err := decodeOperation(i, item)
		if err != nil {
			return nil, err
		}
		p = append(p, op)
	}
	return p, nil
}

func decodeOperation(i int, item jsonvalue.Value) (Operation, error) {
	if item.Kind() != jsonvalue.KindObject {
		return Operation{}, &ApplyError{Index: i, Reason: "operation must be an object"}
	}

	opField, ok := item.Get("op")
	if !ok || opField.Kind() != jsonvalue.KindString {
		return Operation{}, &ApplyError{Index: i, Reason: "missing op field"}
	}
	op := OpType(opField.StringValue())
	if !op.IsValid() {
		return Operation{}, &ApplyError{Index: i, Op: string(op), Reason: "unknown operation"}
	}

	pathField, ok := item.Get("path")
	if !ok || pathField.Kind() != jsonvalue.KindString {
		return Operation{}, &ApplyError{Index: i, Op: string(op), Reason: "missing path field"}
	}
	path := pathField.StringValue()
	if _, err := parsePointer(path); err != nil {
		return Operation{}, &ApplyError{Index: i, Op: string(op), Path: path, Reason: err.Error()}
	}

	result := Operation{Op: op, Path: path}
	if op != OpRemove {
		value, ok := item.Get("value")
		if !ok {
			return Operation{}, &ApplyError{Index: i, Op: string(op), Path: path, Reason: "missing value field"}
		}
		result.Value = value
	}
	return result, nil
}
