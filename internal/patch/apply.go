package patch

import (
	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
)

// Apply runs the operations of p against base in stored order and returns
// the resulting document. base is not modified. The first failing operation
// aborts the whole apply with an *ApplyError.
func Apply(base jsonvalue.Value, p Patch) (jsonvalue.Value, error) {
	doc := base.Clone()
	for i, op := range p {
		var err error
		doc, err = applyOp(doc, op)
		if err != nil {
			return jsonvalue.Value{}, &ApplyError{Index: i, Op: string(op.Op), Path: op.Path, Reason: err.Error()}
		}
	}
	return doc, nil
}

// ApplyEncoded decodes a serialized patch and applies it.
func ApplyEncoded(base jsonvalue.Value, data []byte) (jsonvalue.Value, error) {
	p, err := Decode(data)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	return Apply(base, p)
}

type applyFailure string

func (f applyFailure) Error() string { return string(f) }

const (
	errPathNotFound = applyFailure("path does not exist")
	errRemoveRoot   = applyFailure("cannot remove the document root")
	errNotContainer = applyFailure("path traverses a scalar value")
	errIndexRange   = applyFailure("array index out of range")
)

func applyOp(doc jsonvalue.Value, op Operation) (jsonvalue.Value, error) {
	if !op.Op.IsValid() {
		return doc, applyFailure("unknown operation")
	}

	tokens, err := parsePointer(op.Path)
	if err != nil {
		return doc, err
	}

	if len(tokens) == 0 {
		switch op.Op {
		case OpAdd, OpReplace:
			return op.Value.Clone(), nil
		}
		return doc, errRemoveRoot
	}

	parent := &doc
	for _, tok := range tokens[:len(tokens)-1] {
		parent, err = step(parent, tok)
		if err != nil {
			return doc, err
		}
	}

	last := tokens[len(tokens)-1]
	switch parent.Kind() {
	case jsonvalue.KindObject:
		err = applyToObject(parent, last, op)
	case jsonvalue.KindArray:
		err = applyToArray(parent, last, op)
	default:
		err = errNotContainer
	}
	return doc, err
}

func step(v *jsonvalue.Value, tok string) (*jsonvalue.Value, error) {
	switch v.Kind() {
	case jsonvalue.KindObject:
		if child := v.MemberRef(tok); child != nil {
			return child, nil
		}
		return nil, errPathNotFound
	case jsonvalue.KindArray:
		i, err := parseIndex(tok)
		if err != nil {
			return nil, err
		}
		if child := v.ItemRef(i); child != nil {
			return child, nil
		}
		return nil, errPathNotFound
	}
	return nil, errNotContainer
}

func applyToObject(obj *jsonvalue.Value, key string, op Operation) error {
	switch op.Op {
	case OpAdd:
		obj.Set(key, op.Value.Clone())
	case OpReplace:
		if !obj.Has(key) {
			return errPathNotFound
		}
		obj.Set(key, op.Value.Clone())
	case OpRemove:
		if !obj.Delete(key) {
			return errPathNotFound
		}
	}
	return nil
}

func applyToArray(arr *jsonvalue.Value, tok string, op Operation) error {
	if op.Op == OpAdd && tok == "-" {
		arr.Insert(arr.Len(), op.Value.Clone())
		return nil
	}

	i, err := parseIndex(tok)
	if err != nil {
		return err
	}

	switch op.Op {
	case OpAdd:
		if !arr.Insert(i, op.Value.Clone()) {
			return errIndexRange
		}
	case OpReplace:
		if !arr.SetIndex(i, op.Value.Clone()) {
			return errPathNotFound
		}
	case OpRemove:
		if !arr.RemoveIndex(i) {
			return errPathNotFound
		}
	}
	return nil
}
