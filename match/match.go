// Package match implements deep partial matching of lookup patterns against
// records.
//
// Matching semantics:
//
//   - Strings match case-insensitively.
//   - Times match record values denoting the same instant; record values may
//     be time.Time, RFC3339 strings, or numbers interpreted as milliseconds
//     since the Unix epoch.
//   - Arrays match as subset-by-match: every pattern element must match at
//     least one record element, regardless of position.
//   - Nested objects match recursively: every pattern key must be present on
//     the record value and match.
//   - Everything else matches by equality, with numeric comparison across
//     integer and float representations.
package match

import (
	"reflect"
	"strings"
	"time"
)

// Match reports whether the record satisfies the partial pattern. An empty
// pattern matches every record.
func Match(pattern, rec map[string]any) bool {
	for k, pv := range pattern {
		rv, ok := rec[k]
		if !ok {
			return false
		}
		if !Value(pv, rv) {
			return false
		}
	}
	return true
}

// Value reports whether a single record value matches a single pattern value.
func Value(pattern, value any) bool {
	switch p := pattern.(type) {
	case string:
		s, ok := value.(string)
		return ok && strings.EqualFold(p, s)
	case time.Time:
		t, ok := coerceTime(value)
		return ok && p.Equal(t)
	}

	if arr, ok := asSlice(pattern); ok {
		rarr, ok := asSlice(value)
		if !ok {
			return false
		}
		return subsetMatch(arr, rarr)
	}

	if obj, ok := asMap(pattern); ok {
		robj, ok := asMap(value)
		if !ok {
			return false
		}
		return Match(obj, robj)
	}

	return equal(pattern, value)
}

func subsetMatch(pattern, value []any) bool {
	for _, pv := range pattern {
		found := false
		for _, rv := range value {
			if Value(pv, rv) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func coerceTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		return time.Time{}, false
	}
	if f, ok := asFloat(v); ok {
		return time.UnixMilli(int64(f)), true
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
