package lang

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"
)

// Map is the record value produced by map literals and command argument
// lists. Keys preserve insertion order; writing an existing key replaces
// its value in place.
type Map struct {
	om *orderedmap.OrderedMap[string, any]
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{om: orderedmap.NewOrderedMap[string, any]()}
}

// Set writes key to value, preserving the key's original position when it
// already exists.
func (m *Map) Set(key string, value any) { m.om.Set(key, value) }

// Get returns the value bound to key and whether it was present.
func (m *Map) Get(key string) (any, bool) { return m.om.Get(key) }

// Keys returns the map's keys in insertion order.
func (m *Map) Keys() []string { return m.om.Keys() }

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// MarshalJSON encodes the map as a JSON object with keys in insertion
// order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil || m.om == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range m.om.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}

		buf.Write(kb)
		buf.WriteByte(':')

		value, _ := m.om.Get(key)

		vb, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}

		buf.Write(vb)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Truthy reports whether value is considered true by conditionals and the
// logical operators. Null, false, numeric zero, and empty strings and
// collections are false; everything else is true.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case *Map:
		return v.Len() > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// Format renders value for display: null becomes the empty string, scalars
// use their canonical text form, and collections are encoded as JSON.
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// asFloat reports whether value is numeric, returning its float64 form and
// whether the original was a float.
func asFloat(value any) (f float64, isFloat, ok bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), false, true
	case float64:
		return v, true, true
	default:
		return 0, false, false
	}
}

// valueEqual implements the == operator. Numbers compare across int and
// float representations, lists compare element-wise, and maps compare
// key-wise regardless of insertion order.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if af, _, aok := asFloat(a); aok {
		if bf, _, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}

	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, key := range av.Keys() {
			x, _ := av.Get(key)
			y, present := bv.Get(key)
			if !present || !valueEqual(x, y) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// attr performs null-safe member access: missing keys, out-of-range
// indices, and non-container bases all yield null rather than an error.
func attr(base any, name string) any {
	switch b := base.(type) {
	case nil:
		return nil
	case *Map:
		v, _ := b.Get(name)
		return v
	case map[string]any:
		return b[name]
	case []any:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(b) {
			return nil
		}
		return b[i]
	default:
		return fieldByName(base, name)
	}
}

// fieldByName resolves name against an embedder-supplied struct value,
// returning null when no such exported field exists.
func fieldByName(base any, name string) any {
	rv := reflect.ValueOf(base)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil
	}

	f := rv.FieldByName(name)
	if !f.IsValid() || !f.CanInterface() {
		return nil
	}

	return f.Interface()
}

// iterate returns the element sequence a for loop walks: list elements,
// map keys in insertion order, single-character strings, or nothing for
// null and non-iterable values.
func iterate(value any) []any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		copy(out, v)
		return out
	case *Map:
		keys := v.Keys()
		out := make([]any, len(keys))
		for i, key := range keys {
			out[i] = key
		}
		return out
	case map[string]any:
		out := make([]any, 0, len(v))
		for key := range v {
			out = append(out, key)
		}
		return out
	case string:
		out := make([]any, 0, len(v))
		for _, r := range v {
			out = append(out, string(r))
		}
		return out
	default:
		return nil
	}
}
