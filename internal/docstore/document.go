package docstore

import (
	"time"
)

// TimeLayout is the fixed width UTC encoding used for timestamps in
// serialized documents. Fixed width keeps lexical and temporal order equal.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Document is one stored document
type Document struct {
	ID   string
	Path string
	Data map[string]interface{}
}

// Has reports whether field is present and non-null
func (d *Document) Has(field string) bool {
	v, ok := d.Value(field)
	return ok && v != nil
}

// Value returns the raw value at a dotted field path
func (d *Document) Value(field string) (interface{}, bool) {
	if d == nil {
		return nil, false
	}
	if field == DocumentID {
		return d.ID, true
	}
	return lookup(d.Data, field)
}

// String returns a string field, or "" when absent or not a string
func (d *Document) String(field string) string {
	v, _ := d.Value(field)
	s, _ := v.(string)
	return s
}

// Strings returns a list field. Entries that are not strings come back as ""
// so callers can tell the list length apart from its valid entries.
func (d *Document) Strings(field string) []string {
	v, _ := d.Value(field)
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []interface{}:
		out := make([]string, len(list))
		for i, item := range list {
			out[i], _ = item.(string)
		}
		return out
	}
	return nil
}

// Int returns a numeric field as int64
func (d *Document) Int(field string) int64 {
	v, _ := d.Value(field)
	n, _ := toFloat(v)
	return int64(n)
}

// Bool returns a bool field and whether it was a bool
func (d *Document) Bool(field string) (bool, bool) {
	v, _ := d.Value(field)
	b, ok := v.(bool)
	return b, ok
}

// Time returns a timestamp field. Serialized stores hand timestamps back as
// TimeLayout or RFC 3339 strings; both are accepted.
func (d *Document) Time(field string) (time.Time, bool) {
	v, _ := d.Value(field)
	return AsTime(v)
}

// Map returns a nested map field
func (d *Document) Map(field string) map[string]interface{} {
	v, _ := d.Value(field)
	m, _ := v.(map[string]interface{})
	return m
}

// AsTime converts a stored timestamp value
func AsTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if parsed, err := time.Parse(TimeLayout, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t in TimeLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
