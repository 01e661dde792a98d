package jsonvalue

import (
	"bytes"
	"sort"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Marshal returns the compact JSON text of v. Object members keep their
// order and numbers keep their literal text.
func Marshal(v Value) []byte {
	var buf bytes.Buffer
	encode(&buf, v, false)
	return buf.Bytes()
}

// Canonical returns a text form in which semantically equal values are
// byte-identical: object keys are sorted and numbers are normalized.
func Canonical(v Value) string {
	var buf bytes.Buffer
	encode(&buf, v, true)
	return buf.String()
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v), nil
}

// String returns the compact JSON text of v.
func (v Value) String() string {
	return string(Marshal(v))
}

func encode(buf *bytes.Buffer, v Value, canonical bool) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.boolean {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if canonical {
			buf.WriteString(normalizeNumber(v.text))
		} else {
			buf.WriteString(v.text)
		}
	case KindString:
		writeString(buf, v.text)
	case KindArray:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			encode(buf, it, canonical)
		}
		buf.WriteByte(']')
	case KindObject:
		members := v.members
		if canonical {
			members = append([]Member(nil), members...)
			sort.Slice(members, func(i, j int) bool { return members[i].Key < members[j].Key })
		}
		buf.WriteByte('{')
		for i, m := range members {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, m.Key)
			buf.WriteByte(':')
			encode(buf, m.Value, canonical)
		}
		buf.WriteByte('}')
	}
}

// writeString escapes s as a JSON string. HTML characters are left as-is so
// stored documents read the same as submitted ones.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"':
				buf.WriteString(`\"`)
			case c == '\\':
				buf.WriteString(`\\`)
			case c == '\n':
				buf.WriteString(`\n`)
			case c == '\r':
				buf.WriteString(`\r`)
			case c == '\t':
				buf.WriteString(`\t`)
			case c < 0x20:
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
			default:
				buf.WriteByte(c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString(`\ufffd`)
		} else {
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}
