package builtin

import (
	"math"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register1("abs", builtinAbs)
	register1("round", builtinRound)
	register2("plus", builtinPlus)
	register2("minus", builtinMinus)
	register2("mul", builtinMul)
	register2("div", builtinDiv)
	register2("rem", builtinRem)
}

func asNumber(v value.Value) (value.Number, error) {
	n, ok := v.(value.Number)
	if !ok {
		return value.Number{}, errs.InvalidType("number", v.Kind().String())
	}
	return n, nil
}

func builtinAbs(a value.Value) (value.Value, error) {
	n, err := asNumber(a)
	if err != nil {
		return nil, err
	}
	if n.IsIntRepr() || n.IsI64() {
		i, err := n.Int64()
		if err != nil {
			return nil, err
		}
		if i < 0 {
			i = -i
		}
		return value.Int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return mustFloat(math.Abs(f))
}

func builtinRound(a value.Value) (value.Value, error) {
	n, err := asNumber(a)
	if err != nil {
		return nil, err
	}
	if n.IsIntRepr() {
		i, _ := n.Int64()
		return value.Int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return value.Int(int64(math.Round(f))), nil
}

// numericBinary implements the int/int -> int, otherwise float lattice,
// applying intOp when both operands are integer and floatOp otherwise.
func numericBinary(a, b value.Value, intOp func(x, y int64) (int64, bool), floatOp func(x, y float64) (float64, error)) (value.Value, error) {
	na, err := asNumber(a)
	if err != nil {
		return nil, err
	}
	nb, err := asNumber(b)
	if err != nil {
		return nil, err
	}
	if na.IsIntRepr() && nb.IsIntRepr() {
		x, _ := na.Int64()
		y, _ := nb.Int64()
		r, ok := intOp(x, y)
		if !ok {
			return nil, errs.InvalidType("number", "division by zero")
		}
		return value.Int(r), nil
	}
	x, err := na.Float64()
	if err != nil {
		return nil, err
	}
	y, err := nb.Float64()
	if err != nil {
		return nil, err
	}
	r, err := floatOp(x, y)
	if err != nil {
		return nil, err
	}
	return mustFloat(r)
}

func mustFloat(f float64) (value.Value, error) {
	n, err := value.Float(f)
	if err != nil {
		return nil, errs.InvalidType("number", "NaN or infinity")
	}
	return n, nil
}

func builtinPlus(a, b value.Value) (value.Value, error) {
	if isSetPair(a, b) {
		return nil, errs.InvalidType("number", "set")
	}
	return numericBinary(a, b,
		func(x, y int64) (int64, bool) { return x + y, true },
		func(x, y float64) (float64, error) { return x + y, nil },
	)
}

// builtinMinus performs set difference when both operands are sets,
// otherwise numeric subtraction.
func builtinMinus(a, b value.Value) (value.Value, error) {
	sa, aIsSet := a.(*value.Set)
	sb, bIsSet := b.(*value.Set)
	if aIsSet && bIsSet {
		out := value.NewSet()
		sa.Range(func(v value.Value) bool {
			if !sb.Contains(v) {
				out.Add(v)
			}
			return true
		})
		return out, nil
	}
	if aIsSet != bIsSet {
		return nil, errs.InvalidType("number or matching set pair", "mixed set/non-set")
	}
	return numericBinary(a, b,
		func(x, y int64) (int64, bool) { return x - y, true },
		func(x, y float64) (float64, error) { return x - y, nil },
	)
}

func builtinMul(a, b value.Value) (value.Value, error) {
	return numericBinary(a, b,
		func(x, y int64) (int64, bool) { return x * y, true },
		func(x, y float64) (float64, error) { return x * y, nil },
	)
}

func builtinDiv(a, b value.Value) (value.Value, error) {
	return numericBinary(a, b,
		func(x, y int64) (int64, bool) {
			if y == 0 {
				return 0, false
			}
			return x / y, true
		},
		func(x, y float64) (float64, error) {
			if y == 0 {
				return 0, errs.InvalidType("number", "division by zero")
			}
			return x / y, nil
		},
	)
}

func builtinRem(a, b value.Value) (value.Value, error) {
	return numericBinary(a, b,
		func(x, y int64) (int64, bool) {
			if y == 0 {
				return 0, false
			}
			return x % y, true
		},
		func(x, y float64) (float64, error) {
			return math.Mod(x, y), nil
		},
	)
}

func isSetPair(a, b value.Value) bool {
	_, aIsSet := a.(*value.Set)
	_, bIsSet := b.(*value.Set)
	return aIsSet || bIsSet
}
