package builtin

import "github.com/wippyai/policyvm/value"

func init() {
	register1("is_array", isKind(value.KindArray))
	register1("is_boolean", isKind(value.KindBool))
	register1("is_null", isKind(value.KindNull))
	register1("is_number", isKind(value.KindNumber))
	register1("is_object", isKind(value.KindObject))
	register1("is_set", isKind(value.KindSet))
	register1("is_string", isKind(value.KindString))
	register1("type_name", builtinTypeName)
}

func isKind(k value.Kind) Fn1 {
	return func(a value.Value) (value.Value, error) {
		return value.Bool(a.Kind() == k), nil
	}
}

func builtinTypeName(a value.Value) (value.Value, error) {
	return value.String(a.Kind().String()), nil
}
