package data

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrFieldNotFound reports a dotted path that does not resolve.
var ErrFieldNotFound = errors.New("data: field not found")

// Lookup navigates nested objects using dot notation ("user.profile.name").
// Numeric segments index into arrays. An empty path returns src itself. A
// path starting with "@" is resolved against fallback instead, when a
// fallback is provided.
func Lookup(src any, path string, fallback any) (any, bool) {
	if path == "" {
		return src, true
	}

	root := src
	if strings.HasPrefix(path, "@") && fallback != nil {
		path = path[1:]
		root = fallback
	}

	current := root
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// LookupString resolves path like Lookup and reports the value only when it
// is a string.
func LookupString(src any, path string, fallback any) (string, bool) {
	value, ok := Lookup(src, path, fallback)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// Select resolves the top-level field that holds the records to render. An
// empty field selects the whole document.
func Select(root any, field string) (any, error) {
	if field == "" {
		return root, nil
	}
	value, ok := Lookup(root, field, nil)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, field)
	}
	return value, nil
}

// Items expands a selected target into the records to render. Arrays yield
// their elements. Objects yield themselves when forceArray is set, otherwise
// their values ordered by key. Scalars yield themselves.
func Items(target any, forceArray bool) []any {
	switch node := target.(type) {
	case []any:
		return node
	case map[string]any:
		if forceArray {
			return []any{node}
		}
		keys := make([]string, 0, len(node))
		for key := range node {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		items := make([]any, 0, len(keys))
		for _, key := range keys {
			items = append(items, node[key])
		}
		return items
	default:
		return []any{target}
	}
}
