package builtin

import (
	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register3("object.get", builtinObjectGet)
	register2("object.remove", builtinObjectRemove)
}

func builtinObjectGet(obj, key, def value.Value) (value.Value, error) {
	o, ok := obj.(*value.Object)
	if !ok {
		return nil, errs.InvalidType("object", obj.Kind().String())
	}
	if v, ok := o.Get(key); ok {
		return v, nil
	}
	return def, nil
}

// builtinObjectRemove drops the named keys from obj. keys may be an
// array, a set, or an object (whose own keys are used).
func builtinObjectRemove(obj, keys value.Value) (value.Value, error) {
	o, ok := obj.(*value.Object)
	if !ok {
		return nil, errs.InvalidType("object", obj.Kind().String())
	}
	drop := value.NewSet()
	switch tv := keys.(type) {
	case value.Array:
		for _, k := range tv {
			drop.Add(k)
		}
	case *value.Set:
		tv.Range(func(v value.Value) bool {
			drop.Add(v)
			return true
		})
	case *value.Object:
		tv.Range(func(k, _ value.Value) bool {
			drop.Add(k)
			return true
		})
	default:
		return nil, errs.InvalidType("array, object, or set", keys.Kind().String())
	}

	out := value.NewObject()
	o.Range(func(k, v value.Value) bool {
		if !drop.Contains(k) {
			out.Set(k, v)
		}
		return true
	})
	return out, nil
}
