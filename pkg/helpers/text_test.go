package helpers

import (
	"strings"
	"sync"
	"testing"
)

func TestUpper(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "plain text", input: "hello world", want: "HELLO WORLD"},
		{name: "already upper", input: "ABC", want: "ABC"},
		{name: "unicode", input: "héllo", want: "HÉLLO"},
		{name: "nil", input: nil, want: ""},
		{name: "empty", input: "", want: ""},
		{name: "numeric zero is falsy", input: 0, want: ""},
		{name: "false is falsy", input: false, want: ""},
		{name: "number", input: 42, want: "42"},
		{name: "true", input: true, want: "TRUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Upper(tt.input); got != tt.want {
				t.Fatalf("Upper(%#v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepeat(t *testing.T) {
	tests := []struct {
		name  string
		text  any
		times any
		want  string
	}{
		{name: "three times", text: "abc", times: 3, want: "abcabcabc"},
		{name: "zero", text: "abc", times: 0, want: ""},
		{name: "negative clamps to zero", text: "abc", times: -5, want: ""},
		{name: "invalid count defaults to one", text: "abc", times: "not-a-number", want: "abc"},
		{name: "nil count defaults to one", text: "abc", times: nil, want: "abc"},
		{name: "numeric string", text: "ab", times: "2", want: "abab"},
		{name: "float count truncates", text: "x", times: 2.9, want: "xx"},
		{name: "nil text", text: nil, times: 2, want: ""},
		{name: "number text", text: 7, times: 3, want: "777"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Repeat(tt.text, tt.times); got != tt.want {
				t.Fatalf("Repeat(%#v, %#v) = %q, want %q", tt.text, tt.times, got, tt.want)
			}
		})
	}
}

func TestRepeat_CapsOutput(t *testing.T) {
	out := Repeat("ab", 1<<40)
	if len(out) != MaxRepeatBytes {
		t.Fatalf("len(out) = %d, want %d", len(out), MaxRepeatBytes)
	}
	if !strings.HasPrefix(out, "abab") {
		t.Fatalf("unexpected prefix %q", out[:8])
	}

	// A single copy is always returned, even above the cap.
	huge := strings.Repeat("z", MaxRepeatBytes+1)
	if got := Repeat(huge, 5); len(got) != len(huge) {
		t.Fatalf("len = %d, want %d", len(got), len(huge))
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "trims surrounding whitespace", input: "  hello world  ", want: "[hello world]"},
		{name: "tabs and newlines", input: "\t\nhi\n", want: "[hi]"},
		{name: "inner whitespace kept", input: " a  b ", want: "[a  b]"},
		{name: "empty", input: "", want: "[]"},
		{name: "whitespace only", input: "   ", want: "[]"},
		{name: "nil", input: nil, want: "[]"},
		{name: "zero", input: 0, want: "[]"},
		{name: "number", input: 12.5, want: "[12.5]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.input); got != tt.want {
				t.Fatalf("Wrap(%#v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWrap_NotIdempotent(t *testing.T) {
	if got := Wrap(Wrap("x")); got != "[[x]]" {
		t.Fatalf("Wrap(Wrap(x)) = %q", got)
	}
}

func TestHelpers_ConcurrentCallsAreStable(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]string, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Upper("go") + Repeat("ab", 2) + Wrap(" x ")
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != "GOabab[x]" {
			t.Fatalf("result %d = %q", i, got)
		}
	}
}
