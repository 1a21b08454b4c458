package docstore

import (
	"strings"
	"time"
)

// Increment is an Update sentinel that adds N to a numeric field, treating
// an absent field as zero
type Increment struct {
	N int64
}

// IncrementBy returns an Increment sentinel
func IncrementBy(n int64) Increment {
	return Increment{N: n}
}

// ApplyUpdate applies Update semantics to data in place
func ApplyUpdate(data map[string]interface{}, fields map[string]interface{}) {
	for path, v := range fields {
		if inc, ok := v.(Increment); ok {
			cur, _ := lookup(data, path)
			n, _ := toFloat(cur)
			setPath(data, path, int64(n)+inc.N)
			continue
		}
		setPath(data, path, Clone(v))
	}
}

// MergeInto deep merges src into dst the way Set with Merge does: nested maps
// merge key by key, every other value replaces
func MergeInto(dst, src map[string]interface{}) {
	for k, v := range src {
		if sm, ok := v.(map[string]interface{}); ok {
			if dm, ok := dst[k].(map[string]interface{}); ok {
				MergeInto(dm, sm)
				continue
			}
		}
		dst[k] = Clone(v)
	}
}

// Clone deep copies document values
func Clone(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = Clone(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	case *time.Time:
		if val == nil {
			return nil
		}
		return *val
	default:
		return val
	}
}

// CloneMap deep copies a document payload
func CloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return Clone(m).(map[string]interface{})
}

// Normalize converts timestamps to TimeLayout strings so a payload can be
// serialized without losing its ordering
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return FormatTime(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return FormatTime(*val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	case Increment:
		return val.N
	default:
		return val
	}
}

// Compare orders two stored values. ok is false when they are not comparable
// (different kinds, or either is nil).
func Compare(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if ta, ok := AsTime(a); ok {
		if tb, ok := AsTime(b); ok {
			return ta.Compare(tb), true
		}
		return 0, false
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// Matches reports whether doc satisfies f
func (f Filter) Matches(doc *Document) bool {
	v, ok := doc.Value(f.Field)
	if f.Value == nil {
		return f.Op == OpEqual && (!ok || v == nil)
	}
	c, comparable := Compare(v, f.Value)
	if !comparable {
		return false
	}
	switch f.Op {
	case OpEqual:
		return c == 0
	case OpLess:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	}
	return false
}

func lookup(data map[string]interface{}, path string) (interface{}, bool) {
	if data == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur interface{} = data
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(data map[string]interface{}, path string, v interface{}) {
	parts := strings.Split(path, ".")
	m := data
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
