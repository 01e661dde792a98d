package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxDepth bounds nesting so hostile documents cannot exhaust the stack.
const maxDepth = 1000

// SyntaxError reports input that is not a single well-formed JSON value.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Parse decodes exactly one JSON value from data. Trailing non-whitespace
// input is an error.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec, 0)
	if err != nil {
		return Value{}, syntaxError(dec, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return Value{}, &SyntaxError{Offset: dec.InputOffset(), Msg: "unexpected data after top-level value"}
		}
		return Value{}, syntaxError(dec, err)
	}

	return v, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s string) Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

func parseValue(dec *json.Decoder, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, fmt.Errorf("nesting deeper than %d", maxDepth)
	}

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Value{kind: KindNumber, text: t.String()}, nil
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec, depth)
		case '[':
			return parseArray(dec, depth)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder, depth int) (Value, error) {
	obj := Value{kind: KindObject, members: []Member{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key must be a string, got %v", keyTok)
		}
		val, err := parseValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		obj.setMember(key, val)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Value{}, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder, depth int) (Value, error) {
	arr := Value{kind: KindArray, items: []Value{}}
	for dec.More() {
		val, err := parseValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		arr.items = append(arr.items, val)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return Value{}, err
	}
	return arr, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", rune(want), tok)
	}
	return nil
}

func syntaxError(dec *json.Decoder, err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Offset: se.Offset, Msg: se.Error()}
	}
	return &SyntaxError{Offset: dec.InputOffset(), Msg: err.Error()}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
