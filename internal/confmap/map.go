// Package confmap implements the layered configuration model: nested
// string-keyed maps merged with override-wins semantics, plus path and
// variable resolution for the values they carry.
package confmap

import "fmt"

// Map is the universal configuration structure: string keys mapping to
// scalars (string, int, float, bool, nil) or nested Maps. YAML documents and
// flag sets both decode into this shape before merging.
type Map = map[string]interface{}

// AsMap reports whether a value is a nested Map.
func AsMap(v interface{}) (Map, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

// Clone returns a deep copy of m. Nested maps and slices are copied;
// scalar values are shared (they are immutable).
func Clone(m Map) Map {
	if m == nil {
		return Map{}
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return Clone(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// SubMap returns m[key] as a Map. A missing key yields an empty Map; a
// present key holding a non-map value is an error (type confusion is fatal
// rather than silently coerced).
func SubMap(m Map, key string) (Map, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return Map{}, nil
	}
	sub, ok := AsMap(v)
	if !ok {
		return nil, fmt.Errorf("key %q: expected a mapping, got %T", key, v)
	}
	return sub, nil
}

// GetString returns m[key] stringified, or "" when absent.
func GetString(m Map, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	return Stringify(v)
}

// GetBool returns m[key] as a bool, or false when absent or not a bool.
func GetBool(m Map, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// Stringify renders a configuration value for templates and display.
// nil becomes the empty string (so empty scheduler directives can be
// elided); booleans render as "true"/"false".
func Stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
