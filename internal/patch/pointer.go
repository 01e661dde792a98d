package patch

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// appendToken extends an RFC 6901 pointer with one reference token.
func appendToken(pointer, token string) string {
	return pointer + "/" + pointerEscaper.Replace(token)
}

func appendIndex(pointer string, i int) string {
	return pointer + "/" + strconv.Itoa(i)
}

// parsePointer splits an RFC 6901 pointer into unescaped reference tokens.
// The empty pointer addresses the whole document and yields no tokens.
func parsePointer(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	if pointer[0] != '/' {
		return nil, fmt.Errorf("pointer %q must start with '/'", pointer)
	}

	tokens := strings.Split(pointer[1:], "/")
	for i, tok := range tokens {
		if err := checkEscapes(tok); err != nil {
			return nil, fmt.Errorf("pointer %q: %w", pointer, err)
		}
		tokens[i] = pointerUnescaper.Replace(tok)
	}
	return tokens, nil
}

func checkEscapes(tok string) error {
	for i := 0; i < len(tok); i++ {
		if tok[i] != '~' {
			continue
		}
		if i+1 >= len(tok) || (tok[i+1] != '0' && tok[i+1] != '1') {
			return fmt.Errorf("invalid escape in token %q", tok)
		}
		i++
	}
	return nil
}

// parseIndex reads an array index token: "0" or a digit string without a
// leading zero.
func parseIndex(tok string) (int, error) {
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, fmt.Errorf("invalid array index %q", tok)
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return 0, fmt.Errorf("invalid array index %q", tok)
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("invalid array index %q", tok)
	}
	return n, nil
}
