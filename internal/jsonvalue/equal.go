package jsonvalue

// Equal reports whether a and b are semantically equal: same kinds, same
// object key sets regardless of order, same array items in order, and
// numbers equal by value.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolean == b.boolean
	case KindString:
		return a.text == b.text
	case KindNumber:
		return numbersEqual(a.text, b.text)
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for _, m := range a.members {
			other, ok := b.Get(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}
