package golemio

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"time"
)

// Params collects the query parameters of a single request.
//
// Values are rendered with the rules the Golemio API expects: booleans as the
// lowercase literals true/false, slices as one key=value pair per element, and
// nil (or a nil pointer, or an empty slice) as "no value", which drops the key.
type Params struct {
	values url.Values
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{values: url.Values{}}
}

// Set replaces the values stored under key.
func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = url.Values{}
	}
	vals, ok := formatValue(value)
	if !ok {
		p.values.Del(key)
		return p
	}
	p.values[key] = vals
	return p
}

// Del removes key.
func (p *Params) Del(key string) *Params {
	if p.values != nil {
		p.values.Del(key)
	}
	return p
}

// Has reports whether key carries at least one value.
func (p *Params) Has(key string) bool {
	if p == nil {
		return false
	}
	return len(p.values[key]) > 0
}

// Values returns a copy of the rendered parameters.
func (p *Params) Values() url.Values {
	out := url.Values{}
	if p == nil {
		return out
	}
	for k, v := range p.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Encode renders the parameters as a URL query string sorted by key.
func (p *Params) Encode() string {
	if p == nil || len(p.values) == 0 {
		return ""
	}
	return p.values.Encode()
}

func formatValue(value any) ([]string, bool) {
	if value == nil {
		return nil, false
	}
	switch v := value.(type) {
	case []byte:
		return []string{string(v)}, true
	case time.Time:
		if v.IsZero() {
			return nil, false
		}
		return []string{v.Format(time.RFC3339)}, true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		return formatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			if s, ok := formatScalar(rv.Index(i)); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	}

	s, ok := formatScalar(rv)
	if !ok {
		return nil, false
	}
	return []string{s}, true
}

func formatScalar(rv reflect.Value) (string, bool) {
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if t, ok := rv.Interface().(time.Time); ok {
		if t.IsZero() {
			return "", false
		}
		return t.Format(time.RFC3339), true
	}
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}

	switch rv.Kind() {
	case reflect.Bool:
		// strconv renders lowercase; the upstream API rejects True/False.
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.String:
		return rv.String(), true
	default:
		return fmt.Sprint(rv.Interface()), true
	}
}

// Int returns a pointer to v, for optional integer query fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional boolean query fields.
func Bool(v bool) *bool { return &v }
