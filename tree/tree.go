// Package tree defines the canonical value model shared by every locale
// format.
//
// A canonical value is one of:
//
//	nil        null
//	bool       boolean
//	float64    number (int and int64 are accepted on input)
//	string     string
//	[]any      ordered sequence of canonical values
//	*Map       string-keyed mapping that remembers insertion order
//
// Nothing else is representable. Decoders produce only these types and
// encoders refuse anything else (see Validate).
package tree

import (
	"fmt"
	"strings"
)

// Map is an insertion-ordered string-keyed mapping.
// The zero value is not usable; create maps with NewMap.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{vals: make(map[string]any)}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (m *Map) Set(key string, value any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Delete removes key. Missing keys are ignored.
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for every entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// AsMap returns v as *Map when it is a mapping.
func AsMap(v any) (*Map, bool) {
	m, ok := v.(*Map)
	return m, ok && m != nil
}

// Number converts a numeric canonical value to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// TypeName names the canonical kind of v, or the Go type for anything else.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case *Map:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// Validate checks that v is built only from canonical types.
// The returned error names the offending path.
func Validate(v any) error {
	return validate(v, nil)
}

func validate(v any, path []string) error {
	switch t := v.(type) {
	case nil, bool, float64, int, int64, string:
		return nil
	case []any:
		for i, it := range t {
			if err := validate(it, append(path, fmt.Sprintf("[%d]", i))); err != nil {
				return err
			}
		}
		return nil
	case *Map:
		if t == nil {
			return fmt.Errorf("nil map at %s", pathString(path))
		}
		var err error
		t.Range(func(k string, it any) bool {
			err = validate(it, append(path, k))
			return err == nil
		})
		return err
	}
	return fmt.Errorf("unsupported value %s at %s", TypeName(v), pathString(path))
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "root"
	}
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Equal reports deep equality. Mapping key order is ignored.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case float64, int, int64:
		fx, _ := Number(x)
		fy, ok := Number(b)
		return ok && fx == fy
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := AsMap(b)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !Equal(x.vals[k], yv) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy of v.
func Clone(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = Clone(it)
		}
		return out
	case *Map:
		out := NewMap()
		t.Range(func(k string, it any) bool {
			out.Set(k, Clone(it))
			return true
		})
		return out
	}
	return v
}
