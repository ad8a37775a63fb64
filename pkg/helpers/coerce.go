package helpers

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// DefaultCount is the repeat count used when the supplied count is missing or
// cannot be parsed as a number.
const DefaultCount = 1

// valuer matches template engine wrappers (pongo2.Value and friends) that
// expose the underlying Go value.
type valuer interface {
	Interface() any
}

// String coerces an arbitrary template argument into its canonical string
// form. Falsy values (nil, "", numeric zero, NaN, false, nil pointers, nil
// maps and slices) become the empty string.
func String(v any) string {
	v = unwrap(v)
	if !Truthy(v) {
		return ""
	}

	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	}
	return fmt.Sprint(v)
}

// Truthy reports whether v counts as present under the falsy rule used by
// String.
func Truthy(v any) bool {
	v = unwrap(v)
	if v == nil {
		return false
	}

	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return n != ""
		}
		return f != 0 && !math.IsNaN(f)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.Pointer:
		return !rv.IsNil()
	}
	return true
}

// Count parses a repeat count. Integers are used as-is, floats and decimal
// strings are truncated toward zero, and anything else (nil, booleans,
// non-numeric strings such as "3abc") falls back to DefaultCount. The result
// is never negative.
func Count(v any) int {
	n, ok := parseCount(unwrap(v))
	if !ok {
		n = DefaultCount
	}
	if n < 0 {
		return 0
	}
	return n
}

func parseCount(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case json.Number:
		return parseCountString(t.String())
	case string:
		return parseCountString(t)
	case bool:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i > math.MaxInt {
			return math.MaxInt, true
		}
		if i < math.MinInt {
			return math.MinInt, true
		}
		return int(i), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt {
			return math.MaxInt, true
		}
		return int(u), true
	case reflect.Float32, reflect.Float64:
		return floatCount(rv.Float())
	case reflect.String:
		return parseCountString(rv.String())
	}
	return 0, false
}

func parseCountString(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatCount(f)
}

func floatCount(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if t >= float64(math.MaxInt) {
		return math.MaxInt, true
	}
	if t <= float64(math.MinInt) {
		return math.MinInt, true
	}
	return int(t), true
}

func formatFloat(f float64, bits int) string {
	if math.Abs(f) >= 1e21 {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// unwrap peels engine wrappers, reflect values and pointers until it reaches
// a plain value. Pointers implementing fmt.Stringer or error are kept so
// their methods still apply.
func unwrap(v any) any {
	for i := 0; i < 8; i++ {
		switch t := v.(type) {
		case nil:
			return nil
		case reflect.Value:
			if !t.IsValid() || !t.CanInterface() {
				return nil
			}
			v = t.Interface()
			continue
		case valuer:
			if rv := reflect.ValueOf(t); rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil
			}
			v = t.Interface()
			continue
		case fmt.Stringer, error:
			rv := reflect.ValueOf(v)
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil
			}
			return v
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return v
}
