package nutrition

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseQuantity reads a leading base-10 integer from s the way form input is
// interpreted: surrounding whitespace and an optional sign are accepted, the
// first non-digit ends the number, and input with no leading digits (or one
// that overflows) yields 0. "12.7g" is 12, "abc" is 0.
func ParseQuantity(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}

// QuantityFromAny coerces a decoded JSON value into an integer using the same
// rules as ParseQuantity. Numbers are truncated toward zero.
func QuantityFromAny(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if n != n || n > 1<<31-1 || n < -(1<<31) {
			return 0
		}
		return int(n)
	case int:
		return n
	case string:
		return ParseQuantity(n)
	case bool:
		return 0
	default:
		return 0
	}
}
