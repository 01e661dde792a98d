// Package jsonvalue is an explicit tagged representation of JSON documents.
// Objects keep their members in document order with unique keys; numbers keep
// their literal text and compare by numeric value.
package jsonvalue

import (
	"fmt"
	"strconv"
)

// Kind is the JSON type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. The zero Value is null.
type Value struct {
	kind    Kind
	boolean bool
	text    string // number literal or string contents
	items   []Value
	members []Member
	index   map[string]int // key -> position in members, for wide objects
}

// indexThreshold is the member count from which objects keep a key index.
const indexThreshold = 16

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// String returns a JSON string.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Int returns a JSON number holding an integer.
func Int(i int64) Value { return Value{kind: KindNumber, text: strconv.FormatInt(i, 10)} }

// Number returns a JSON number from its literal text.
func Number(literal string) (Value, error) {
	if !validNumberLiteral(literal) {
		return Value{}, fmt.Errorf("invalid number literal %q", literal)
	}
	return Value{kind: KindNumber, text: literal}, nil
}

// Array returns a JSON array holding items in order.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Object returns a JSON object. A repeated key keeps its first position and
// its last value.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, members: make([]Member, 0, len(members))}
	for _, m := range members {
		v.setMember(m.Key, m.Value)
	}
	return v
}

// Kind returns the type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue returns the boolean payload; false for other kinds.
func (v Value) BoolValue() bool { return v.boolean }

// StringValue returns the string payload; empty for other kinds.
func (v Value) StringValue() string {
	if v.kind != KindString {
		return ""
	}
	return v.text
}

// NumberLiteral returns the number's literal text; empty for other kinds.
func (v Value) NumberLiteral() string {
	if v.kind != KindNumber {
		return ""
	}
	return v.text
}

// Len returns the number of array items or object members.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.members)
	}
	return 0
}

// Items returns the array items. The slice must not be modified.
func (v Value) Items() []Value { return v.items }

// Members returns the object members in order. The slice must not be modified.
func (v Value) Members() []Member { return v.members }

// Index returns the i-th array item.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Get returns the member value stored under key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	if i := v.memberIndex(key); i >= 0 {
		return v.members[i].Value, true
	}
	return Value{}, false
}

// Has reports whether an object has a member named key, even a null one.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Clone returns a deep copy that shares no containers with v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.items))
		for i, it := range v.items {
			items[i] = it.Clone()
		}
		return Value{kind: KindArray, items: items}
	case KindObject:
		members := make([]Member, len(v.members))
		for i, m := range v.members {
			members[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
		c := Value{kind: KindObject, members: members}
		c.reindex()
		return c
	}
	return v
}

// Set stores value under key, replacing an existing member in place or
// appending a new one. It mutates v and must only be used on values the
// caller owns.
func (v *Value) Set(key string, value Value) {
	v.setMember(key, value)
}

// Delete removes the member named key and reports whether it existed.
func (v *Value) Delete(key string) bool {
	i := v.memberIndex(key)
	if i < 0 {
		return false
	}
	v.members = append(v.members[:i:i], v.members[i+1:]...)
	v.reindex()
	return true
}

// Insert places item at index i, shifting later items right.
// i == Len() appends.
func (v *Value) Insert(i int, item Value) bool {
	if i < 0 || i > len(v.items) {
		return false
	}
	items := make([]Value, 0, len(v.items)+1)
	items = append(items, v.items[:i]...)
	items = append(items, item)
	items = append(items, v.items[i:]...)
	v.items = items
	return true
}

// SetIndex replaces the item at index i.
func (v *Value) SetIndex(i int, item Value) bool {
	if i < 0 || i >= len(v.items) {
		return false
	}
	v.items[i] = item
	return true
}

// RemoveIndex removes the item at index i, shifting later items left.
func (v *Value) RemoveIndex(i int) bool {
	if i < 0 || i >= len(v.items) {
		return false
	}
	v.items = append(v.items[:i:i], v.items[i+1:]...)
	return true
}

// memberIndex finds key in constant time on indexed objects and by a scan
// on small ones. An index entry that does not match its member (a copy of v
// was edited) falls back to the scan.
func (v Value) memberIndex(key string) int {
	if v.index != nil {
		i, ok := v.index[key]
		if !ok {
			return -1
		}
		if i < len(v.members) && v.members[i].Key == key {
			return i
		}
	}
	for i := range v.members {
		if v.members[i].Key == key {
			return i
		}
	}
	return -1
}

func (v *Value) setMember(key string, value Value) {
	if i := v.memberIndex(key); i >= 0 {
		v.members[i].Value = value
		return
	}
	v.members = append(v.members, Member{Key: key, Value: value})
	switch {
	case v.index != nil:
		v.index[key] = len(v.members) - 1
	case len(v.members) >= indexThreshold:
		v.reindex()
	}
}

// reindex rebuilds the key index after members moved.
func (v *Value) reindex() {
	if len(v.members) < indexThreshold {
		v.index = nil
		return
	}
	v.index = make(map[string]int, len(v.members))
	for i, m := range v.members {
		v.index[m.Key] = i
	}
}

// validNumberLiteral checks the RFC 8259 number grammar, which is stricter
// than strconv.ParseFloat (no leading '+', no hex, no bare '.5', no Inf).
func validNumberLiteral(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	switch {
	case s[i] == '0':
		i++
	case s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ItemRef returns a pointer to the i-th array item for in-place edits, or nil.
func (v *Value) ItemRef(i int) *Value {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return nil
	}
	return &v.items[i]
}

// MemberRef returns a pointer to the value stored under key for in-place
// edits, or nil.
func (v *Value) MemberRef(key string) *Value {
	if v.kind != KindObject {
		return nil
	}
	if i := v.memberIndex(key); i >= 0 {
		return &v.members[i].Value
	}
	return nil
}
