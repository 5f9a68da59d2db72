package sola

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// Query holds request parameters for list endpoints. Keys follow the
// backend's Django lookup conventions (name__icontains, kind__id__in, ...).
//
// Slice values are sent as a single comma-joined parameter
// (kind__id__in=1,2,3), never as repeated keys. Nil values are skipped.
type Query map[string]any

// With returns a copy of q with the entries of other added on top.
func (q Query) With(other Query) Query {
	out := make(Query, len(q)+len(other))
	for k, v := range q {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Values converts q to url.Values with one value per key.
func (q Query) Values() url.Values {
	values := url.Values{}
	for key, value := range q {
		if s, ok := formatValue(value); ok {
			values.Set(key, s)
		}
	}
	return values
}

// Encode returns the canonical (key-sorted) query string. Equal queries
// always encode identically, so the result doubles as a cache key.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Sanitize drops nil values, empty strings and empty slices, so that
// "absent" and "empty" never produce different requests or cache keys.
func Sanitize(q Query) Query {
	out := make(Query, len(q))
	for key, value := range q {
		if isEmpty(value) {
			continue
		}
		out[key] = value
	}
	return out
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return isEmpty(rv.Elem().Interface())
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

func formatValue(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", false
	}
	if s, ok := value.(fmt.Stringer); ok {
		return s.String(), true
	}
	switch rv.Kind() {
	case reflect.Pointer:
		return formatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := formatValue(rv.Index(i).Interface()); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ","), true
	}
	return fmt.Sprint(value), true
}
