package source

import (
	"strconv"
	"strings"
)

// Obj is a decoded JSON object with tolerant typed accessors. Upstream
// payloads routinely carry fields that are absent, null, or a different type
// than documented; every accessor returns a zero value in those cases so
// mapping code never has to branch on shape.
type Obj map[string]any

// AsObj converts a decoded JSON value to an Obj, returning an empty Obj for
// anything that is not an object.
func AsObj(v any) Obj {
	if m, ok := v.(map[string]any); ok {
		return Obj(m)
	}
	return Obj{}
}

// Str returns the string value at key, converting numbers to their decimal
// form, and "" for anything else.
func (o Obj) Str(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns the integer at key, parsing numeric strings, and 0 otherwise.
func (o Obj) Int(key string) int {
	switch v := o[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// Obj returns the object at key, or an empty Obj.
func (o Obj) Obj(key string) Obj {
	return AsObj(o[key])
}

// List returns the array at key, or nil.
func (o Obj) List(key string) []any {
	if l, ok := o[key].([]any); ok {
		return l
	}
	return nil
}

// Any returns the raw value at key.
func (o Obj) Any(key string) any {
	return o[key]
}

// FirstStr returns the first non-empty string among the given keys.
func (o Obj) FirstStr(keys ...string) string {
	for _, k := range keys {
		if s := o.Str(k); s != "" {
			return s
		}
	}
	return ""
}

// YearOf extracts a four-digit year from a value that may be a number, a
// year string, or a date string; 0 when none is found.
func YearOf(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		s := strings.TrimSpace(val)
		if len(s) >= 4 {
			if y, err := strconv.Atoi(s[:4]); err == nil && y > 1000 && y < 3000 {
				return y
			}
		}
		if y, err := strconv.Atoi(s); err == nil && y > 1000 && y < 3000 {
			return y
		}
	}
	return 0
}
