package builtin

import (
	"sort"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register1("count", builtinCount)
	register1("sum", builtinSum)
	register1("product", builtinProduct)
	register1("min", builtinMin)
	register1("max", builtinMax)
	register1("all", builtinAll)
	register1("any", builtinAny)
	register1("sort", builtinSort)
}

// elements returns the members of a collects-over-a-value built-in's
// single operand, which may be an array, set, or object (object
// aggregates over its values).
func elements(v value.Value) ([]value.Value, error) {
	switch tv := v.(type) {
	case value.Array:
		return tv, nil
	case *value.Set:
		return tv.Items(), nil
	case *value.Object:
		out := make([]value.Value, 0, tv.Len())
		tv.Range(func(_, val value.Value) bool {
			out = append(out, val)
			return true
		})
		return out, nil
	default:
		return nil, errs.InvalidType("array, object, or set", v.Kind().String())
	}
}

func builtinCount(a value.Value) (value.Value, error) {
	if s, ok := a.(value.String); ok {
		return value.Int(int64(len([]rune(string(s))))), nil
	}
	els, err := elements(a)
	if err != nil {
		return nil, err
	}
	return value.Int(int64(len(els))), nil
}

func builtinSum(a value.Value) (value.Value, error) {
	els, err := elements(a)
	if err != nil {
		return nil, err
	}
	acc := value.Int(0)
	for _, e := range els {
		r, err := builtinPlus(acc, e)
		if err != nil {
			return nil, err
		}
		acc = r.(value.Number)
	}
	return acc, nil
}

func builtinProduct(a value.Value) (value.Value, error) {
	els, err := elements(a)
	if err != nil {
		return nil, err
	}
	acc := value.Int(1)
	for _, e := range els {
		r, err := builtinMul(acc, e)
		if err != nil {
			return nil, err
		}
		acc = r.(value.Number)
	}
	return acc, nil
}

func builtinMin(a value.Value) (value.Value, error) {
	els, err := elements(a)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return value.Null{}, nil
	}
	min := els[0]
	for _, e := range els[1:] {
		if value.Compare(e, min) < 0 {
			min = e
		}
	}
	return min, nil
}

func builtinMax(a value.Value) (value.Value, error) {
	els, err := elements(a)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return value.Null{}, nil
	}
	max := els[0]
	for _, e := range els[1:] {
		if value.Compare(e, max) > 0 {
			max = e
		}
	}
	return max, nil
}

func builtinAll(a value.Value) (value.Value, error) {
	els, err := elements(a)
	if err != nil {
		return nil, err
	}
	for _, e := range els {
		b, ok := e.(value.Bool)
		if !ok || !bool(b) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func builtinAny(a value.Value) (value.Value, error) {
	els, err := elements(a)
	if err != nil {
		return nil, err
	}
	for _, e := range els {
		if b, ok := e.(value.Bool); ok && bool(b) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func builtinSort(a value.Value) (value.Value, error) {
	els, err := elements(a)
	if err != nil {
		return nil, err
	}
	out := make(value.Array, len(els))
	copy(out, els)
	sort.SliceStable(out, func(i, j int) bool { return value.Compare(out[i], out[j]) < 0 })
	return out, nil
}
