package jsonvalue

import (
	"math/big"
	"strings"
)

// decimal is an exact form of a number literal: 0.digits × 10^exp with no
// leading or trailing zeros in digits. Zero has empty digits.
type decimal struct {
	neg    bool
	digits string
	exp    *big.Int
}

// parseDecimal normalizes a literal that already passed the JSON number
// grammar. Exponents of any size are kept exactly.
func parseDecimal(literal string) (decimal, bool) {
	s := literal
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	mantissa, expText := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, expText = s[:i], s[i+1:]
	}
	intPart, frac := mantissa, ""
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		intPart, frac = mantissa[:i], mantissa[i+1:]
	}

	exp := new(big.Int)
	if expText != "" {
		if _, ok := exp.SetString(expText, 10); !ok {
			return decimal{}, false
		}
	}

	digits := intPart + frac
	exp.Add(exp, big.NewInt(int64(len(intPart))))
	trimmed := strings.TrimLeft(digits, "0")
	exp.Sub(exp, big.NewInt(int64(len(digits)-len(trimmed))))
	trimmed = strings.TrimRight(trimmed, "0")
	if trimmed == "" {
		return decimal{}, true
	}
	return decimal{neg: neg, digits: trimmed, exp: exp}, true
}

func (d decimal) equal(o decimal) bool {
	if d.digits == "" || o.digits == "" {
		return d.digits == o.digits
	}
	return d.neg == o.neg && d.digits == o.digits && d.exp.Cmp(o.exp) == 0
}

// text renders d as a JSON number: plain notation for moderate exponents,
// scientific otherwise. Equal decimals render identically.
func (d decimal) text() string {
	if d.digits == "" {
		return "0"
	}
	sign := ""
	if d.neg {
		sign = "-"
	}

	n := int64(len(d.digits))
	if d.exp.IsInt64() {
		e := d.exp.Int64()
		switch {
		case e >= n && e <= 21:
			return sign + d.digits + strings.Repeat("0", int(e-n))
		case e > 0 && e < n:
			return sign + d.digits[:e] + "." + d.digits[e:]
		case e <= 0 && e > -6:
			return sign + "0." + strings.Repeat("0", int(-e)) + d.digits
		}
	}

	mantissa := d.digits[:1]
	if n > 1 {
		mantissa += "." + d.digits[1:]
	}
	return sign + mantissa + "e" + new(big.Int).Sub(d.exp, big.NewInt(1)).String()
}

func numbersEqual(x, y string) bool {
	if x == y {
		return true
	}
	dx, okx := parseDecimal(x)
	dy, oky := parseDecimal(y)
	return okx && oky && dx.equal(dy)
}

func normalizeNumber(literal string) string {
	d, ok := parseDecimal(literal)
	if !ok {
		return literal
	}
	return d.text()
}
