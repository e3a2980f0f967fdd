package codec

import "github.com/wippyai/policyvm/value"

// Set wraps a slice of Go values so the codec encodes them as a Rego set
// rather than an array, and Unmarshal into a *Set fills it from a decoded
// set. Go values carry no equivalent to a serde struct's declared type
// name, so the marker is instead a concrete wrapper type the codec
// special-cases by reflect type identity; AsSet lets application types
// opt in without redeclaring their own slice type.
type Set []any

// AsSet builds a Set from the given items.
func AsSet(items ...any) Set { return Set(items) }

// NumberRef wraps a decimal source string so the codec encodes it as a
// lexical-reference number rather than a plain string — the Go
// realization of the reserved "$policy::value::private::Number" marker.
type NumberRef string

// AsNumberRef wraps a decimal string as a lexical-reference number.
func AsNumberRef(s string) NumberRef { return NumberRef(s) }

// Variant encodes an enum variant as an object with a single key equal
// to Name mapping to Payload. Unmarshal into a *Variant reverses this,
// and VariantName inspects the shape directly.
type Variant struct {
	Name    string
	Payload any
}

// VariantName reports the sole key of a one-entry object with a string
// key, the shape a Variant encodes to. ok is false for any other value.
func VariantName(v value.Value) (name string, ok bool) {
	obj, isObj := v.(*value.Object)
	if !isObj || obj.Len() != 1 {
		return "", false
	}
	obj.Range(func(k, _ value.Value) bool {
		var s value.String
		if s, ok = k.(value.String); ok {
			name = string(s)
		}
		return false
	})
	return name, ok
}
