package helpers

import (
	"strings"
	"unicode"
)

// MaxRepeatBytes bounds the output of Repeat. Larger requests are served with
// the highest count that fits.
const MaxRepeatBytes = 16 << 20

// Upper returns the coerced text converted to upper case. The mapping is
// Unicode based and does not depend on the process locale.
func Upper(text any) string {
	return strings.ToUpper(String(text))
}

// Repeat concatenates the coerced text with itself Count(times) times.
//
// The output is truncated to whole copies: when Count(times) copies would
// exceed MaxRepeatBytes, Repeat returns only as many copies as fit (at least
// one), so the result may hold fewer copies than requested.
//
//	Repeat("abc", 3)      // "abcabcabc"
//	Repeat("abc", -5)     // ""
//	Repeat("abc", "oops") // "abc"
func Repeat(text, times any) string {
	s := String(text)
	n := Count(times)
	if s == "" || n == 0 {
		return ""
	}
	if n == 1 {
		return s
	}
	limit := MaxRepeatBytes / len(s)
	if limit < 1 {
		limit = 1
	}
	if n > limit {
		n = limit
	}
	return strings.Repeat(s, n)
}

// Wrap trims surrounding whitespace from the coerced text and encloses it in
// square brackets. Empty input yields "[]".
func Wrap(text any) string {
	return "[" + strings.TrimFunc(String(text), isTrimSpace) + "]"
}

func isTrimSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
