package helpers

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy
)

// StripHTML removes every HTML element from the coerced text, keeping the
// text content. Entities in the result stay escaped.
func StripHTML(text any) string {
	s := String(text)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(htmlStripper().Sanitize(s))
}

func htmlStripper() *bluemonday.Policy {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return stripPolicy
}
