package builtin

import (
	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register2("and", builtinAnd)
	register2("or", builtinOr)
}

func asSet(v value.Value) (*value.Set, error) {
	s, ok := v.(*value.Set)
	if !ok {
		return nil, errs.InvalidType("set", v.Kind().String())
	}
	return s, nil
}

func builtinAnd(a, b value.Value) (value.Value, error) {
	sa, err := asSet(a)
	if err != nil {
		return nil, err
	}
	sb, err := asSet(b)
	if err != nil {
		return nil, err
	}
	out := value.NewSet()
	sa.Range(func(v value.Value) bool {
		if sb.Contains(v) {
			out.Add(v)
		}
		return true
	})
	return out, nil
}

func builtinOr(a, b value.Value) (value.Value, error) {
	sa, err := asSet(a)
	if err != nil {
		return nil, err
	}
	sb, err := asSet(b)
	if err != nil {
		return nil, err
	}
	out := value.NewSet()
	sa.Range(func(v value.Value) bool {
		out.Add(v)
		return true
	})
	sb.Range(func(v value.Value) bool {
		out.Add(v)
		return true
	})
	return out, nil
}
