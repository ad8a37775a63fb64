package helpers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var patternCache sync.Map

// ReplaceRegex replaces every match of pattern in text. The replacement may
// reference capture groups with $1 or ${name}. An invalid pattern leaves the
// text unchanged.
func ReplaceRegex(text, pattern, replacement any) string {
	out, _ := replaceRegex(String(text), String(pattern), String(replacement))
	return out
}

func replaceRegex(text, pattern, replacement string) (string, error) {
	re, err := compile(pattern)
	if err != nil {
		return text, err
	}
	return re.ReplaceAllString(text, replacement), nil
}

// TableRegex maps an input through a list of pattern/replacement pairs:
//
//	TableRegex(input, pattern1, replacement1, pattern2, replacement2, ..., last)
//
// Pairs are read from the arguments between the input and the final
// argument. Each pattern must match the whole input. The replacement of the
// first matching pattern is returned with $1..$n substituted by the capture
// groups; without a match the input is returned unchanged. Fewer than three
// arguments yield the empty string.
func TableRegex(args ...any) string {
	out, _ := tableRegex(args...)
	return out
}

func tableRegex(args ...any) (string, error) {
	if len(args) < 3 {
		return "", nil
	}

	input := String(args[0])
	pairs := args[1 : len(args)-1]

	var firstErr error
	for i := 0; i+1 < len(pairs); i += 2 {
		pattern := String(pairs[i])
		re, err := compile("^(?:" + pattern + ")$")
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		loc := re.FindStringSubmatchIndex(input)
		if loc == nil {
			continue
		}

		result := String(pairs[i+1])
		for g := len(loc)/2 - 1; g >= 1; g-- {
			start, end := loc[2*g], loc[2*g+1]
			if start < 0 {
				continue
			}
			result = strings.ReplaceAll(result, "$"+strconv.Itoa(g), input[start:end])
		}
		return result, firstErr
	}
	return input, firstErr
}

func compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("helpers: invalid regex %q: %w", pattern, err)
	}
	patternCache.Store(pattern, re)
	return re, nil
}
